package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/kdimtricp/dashforensics/internal/config"
	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/extraction"
	"github.com/kdimtricp/dashforensics/internal/integrity"
	"github.com/kdimtricp/dashforensics/internal/ocr"
	"github.com/kdimtricp/dashforensics/internal/plates"
	"github.com/kdimtricp/dashforensics/internal/storage"
	"github.com/kdimtricp/dashforensics/internal/video"
)

func main() {
	var (
		filename   = flag.String("file", "", "Stored evidence filename to analyze")
		withPlates = flag.Bool("plates", false, "Also run license plate detection")
	)
	flag.Parse()

	if *filename == "" {
		log.Fatal("Please provide a stored filename with -file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	localStorage, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	db, err := database.NewDB(database.Config{
		Type:       cfg.Database.Type,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Name:       cfg.Database.Name,
		SQLitePath: cfg.Database.SQLitePath,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	evidenceRepo := database.NewEvidenceRepo(db)
	ctx := context.Background()

	ev, err := evidenceRepo.GetByFilename(ctx, *filename)
	if err != nil {
		log.Fatal("Failed to load evidence record:", err)
	}
	fmt.Printf("Analyzing %s (uploaded as %q, %d bytes)\n", ev.Filename, ev.OriginalName, ev.Size)

	verifier := integrity.NewVerifier(database.NewIntegrityRepo(db), localStorage, nil)
	detail, err := verifier.Inspect(ctx, ev.Filename)
	if err != nil {
		log.Fatal("Integrity inspection failed:", err)
	}
	fmt.Printf("Integrity: %s\n", detail.Status)
	fmt.Printf("  baseline %s\n  current  %s\n", detail.BaselineHash, detail.CurrentHash)

	decoder, err := video.NewFFmpegDecoder()
	if err != nil {
		log.Fatal("Failed to initialize video decoder:", err)
	}
	engine, err := ocr.NewTesseractEngine()
	if err != nil {
		log.Fatal("Failed to initialize OCR engine:", err)
	}
	defer engine.Cleanup()

	extractor := extraction.NewService(decoder, engine, database.NewTimestampRepo(db), localStorage, extraction.Config{
		PreviewDir:  cfg.PreviewDir,
		SampleCount: cfg.SampleCount,
		FocusStart:  cfg.FocusStart,
	})

	result, err := extractor.Extract(ctx, ev.Filename)
	if err != nil {
		log.Fatal("Extraction failed:", err)
	}

	rec := result.Record
	fmt.Printf("Timestamp: %q (confidence %.1f, consistency %.1f%%, %d frames)\n",
		rec.TimestampText, rec.Confidence, rec.ConsistencyScore, rec.FrameCount)
	for _, obs := range rec.Observations {
		fmt.Printf("  frame %d: %q (%d)\n", obs.Frame, obs.Text, obs.Confidence)
	}
	if result.Speed.Found {
		fmt.Printf("Speed: %d %s (%s, consistency %.1f%%)\n",
			result.Speed.Speed, result.Speed.Unit, result.Speed.Reliability, result.Speed.Consistency)
	} else {
		fmt.Println("Speed: not detected")
	}

	if *withPlates {
		plateService := plates.NewService(decoder, plates.NewHeuristicDetector(), engine, database.NewPlateRepo(db), localStorage)
		plate, err := plateService.Detect(ctx, ev.Filename)
		if err != nil {
			log.Fatal("Plate detection failed:", err)
		}
		fmt.Printf("Plate: %s (confidence %.2f)\n", plate.PlateText, plate.Confidence)
	}
}
