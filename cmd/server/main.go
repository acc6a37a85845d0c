package main

import (
	"log"
	"net/http"
	"os"

	"github.com/kdimtricp/dashforensics/internal/api"
	"github.com/kdimtricp/dashforensics/internal/config"
	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/extraction"
	"github.com/kdimtricp/dashforensics/internal/integrity"
	"github.com/kdimtricp/dashforensics/internal/models"
	"github.com/kdimtricp/dashforensics/internal/ocr"
	"github.com/kdimtricp/dashforensics/internal/plates"
	"github.com/kdimtricp/dashforensics/internal/report"
	"github.com/kdimtricp/dashforensics/internal/storage"
	"github.com/kdimtricp/dashforensics/internal/video"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	localStorage, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	if err := os.MkdirAll(cfg.PreviewDir, 0755); err != nil {
		log.Fatal("Failed to create preview directory:", err)
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
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	log.Printf("Running database migrations from %s", cfg.Database.MigrationsPath)
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	evidenceRepo := database.NewEvidenceRepo(db)
	integrityRepo := database.NewIntegrityRepo(db)
	timestampRepo := database.NewTimestampRepo(db)
	plateRepo := database.NewPlateRepo(db)

	var override integrity.Override
	if cfg.DemoTamperMarker != "" {
		log.Printf("Demo tamper override active for filenames containing %q", cfg.DemoTamperMarker)
		override = integrity.SubstringOverride{
			Marker: cfg.DemoTamperMarker,
			Status: models.StatusTampered,
		}
	}
	verifier := integrity.NewVerifier(integrityRepo, localStorage, override)

	decoder, err := video.NewFFmpegDecoder()
	if err != nil {
		log.Fatal("Failed to initialize video decoder:", err)
	}
	engine, err := ocr.NewTesseractEngine()
	if err != nil {
		log.Fatal("Failed to initialize OCR engine:", err)
	}

	extractor := extraction.NewService(decoder, engine, timestampRepo, localStorage, extraction.Config{
		PreviewDir:  cfg.PreviewDir,
		SampleCount: cfg.SampleCount,
		FocusStart:  cfg.FocusStart,
	})
	plateService := plates.NewService(decoder, plates.NewHeuristicDetector(), engine, plateRepo, localStorage)
	aggregator := report.NewAggregator(evidenceRepo, timestampRepo, integrityRepo, plateRepo, localStorage)

	app := &api.App{
		Storage:       localStorage,
		Evidence:      evidenceRepo,
		Verifier:      verifier,
		Extraction:    extractor,
		Plates:        plateService,
		Report:        aggregator,
		Renderer:      report.TextRenderer{},
		MaxUploadSize: cfg.MaxUploadSize,
		APIToken:      cfg.APIToken,
	}

	router := api.NewRouter(app, cfg.PreviewDir)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Upload directory: %s", cfg.UploadDir)
	log.Printf("Preview directory: %s", cfg.PreviewDir)
	log.Printf("Database type: %s", cfg.Database.Type)
	if cfg.Database.Type == "postgres" {
		log.Printf("Database connection: %s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	} else {
		log.Printf("Database path: %s", cfg.Database.SQLitePath)
	}
	log.Printf("Max upload size: %d bytes", cfg.MaxUploadSize)

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
