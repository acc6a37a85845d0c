package extraction

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/models"
	"github.com/kdimtricp/dashforensics/internal/ocr"
	"github.com/kdimtricp/dashforensics/internal/video"
)

// FileLocator resolves stored filenames to on-disk paths.
type FileLocator interface {
	FilePath(filename string) string
}

type Config struct {
	// PreviewDir is the root for crop/full-frame preview images. Each
	// filename gets its own subdirectory so concurrent extractions for
	// different evidence files cannot clobber each other.
	PreviewDir  string
	SampleCount int
	FocusStart  float64
}

// Service runs the full extraction pipeline: sample late frames, OCR the
// overlay crops, vote on a consensus timestamp and speed, persist the
// aggregate.
type Service struct {
	decoder video.Decoder
	engine  ocr.Engine
	repo    *database.TimestampRepo
	files   FileLocator

	previewDir  string
	sampleCount int
	focusStart  float64

	mu       sync.Mutex
	inflight map[string]*sync.Mutex
}

func NewService(decoder video.Decoder, engine ocr.Engine, repo *database.TimestampRepo, files FileLocator, config Config) *Service {
	if config.SampleCount == 0 {
		config.SampleCount = video.DefaultSampleCount
	}
	if config.FocusStart == 0 {
		config.FocusStart = video.DefaultFocusStart
	}

	return &Service{
		decoder:     decoder,
		engine:      engine,
		repo:        repo,
		files:       files,
		previewDir:  config.PreviewDir,
		sampleCount: config.SampleCount,
		focusStart:  config.FocusStart,
	}
}

// Result couples the persisted record with the speed estimate, which is
// reported but not stored on its own.
type Result struct {
	Record *models.ExtractionRecord
	Speed  models.SpeedEstimate
}

// Extract runs the pipeline for one filename. Extractions for the same
// filename are serialized; a rerun fully replaces the stored row.
func (s *Service) Extract(ctx context.Context, filename string) (*Result, error) {
	unlock := s.lockFilename(filename)
	defer unlock()

	clip, err := s.decoder.Open(s.files.FilePath(filename))
	if err != nil {
		return nil, fmt.Errorf("opening video: %w", err)
	}
	defer clip.Close()

	scratch, err := s.resetScratch(filename)
	if err != nil {
		return nil, err
	}

	indices := video.SampleIndices(clip.TotalFrames(), s.focusStart, s.sampleCount)
	log.Printf("[EXTRACT] %s: %d total frames, sampling %v", filename, clip.TotalFrames(), indices)

	var (
		observations []models.FrameObservation
		speedSamples []int
	)

	for _, idx := range indices {
		frame, err := clip.ReadFrame(idx)
		if err != nil {
			// Skipped, not retried; the effective sample count shrinks.
			log.Printf("[EXTRACT] %s: skipping frame %d: %v", filename, idx, err)
			continue
		}

		obs := s.observeFrame(filename, scratch, idx, frame)
		observations = append(observations, obs)

		if speed, ok := s.readSpeed(frame); ok {
			speedSamples = append(speedSamples, speed)
		}
	}

	final, consistency := ConsensusTimestamp(observations, len(indices))

	record := &models.ExtractionRecord{
		Filename:         filename,
		TimestampText:    final,
		Confidence:       AverageConfidence(observations),
		ConsistencyScore: consistency,
		HasDrift:         false, // drift detection reserved
		FrameCount:       len(observations),
		Observations:     observations,
		ExtractedAt:      time.Now(),
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting extraction result: %w", err)
	}
	log.Printf("[EXTRACT] %s: saved %d frames, timestamp=%q consistency=%.1f",
		filename, record.FrameCount, final, consistency)

	return &Result{Record: record, Speed: ConsensusSpeed(speedSamples)}, nil
}

// observeFrame crops, preprocesses and recognizes the timestamp band of
// one frame, saving crop and full-frame previews along the way. OCR errors
// and non-matching text both yield the zero-confidence sentinel.
func (s *Service) observeFrame(filename, scratch string, idx int, frame image.Image) models.FrameObservation {
	obs := models.FrameObservation{
		Frame:      idx,
		Text:       models.NoTextDetected,
		Confidence: TierNoMatch,
	}

	fullName := fmt.Sprintf("full_%d.jpg", idx)
	cropName := fmt.Sprintf("crop_%d.jpg", idx)
	if err := saveJPEG(filepath.Join(scratch, fullName), frame); err == nil {
		obs.FullPath = filepath.Join(filename, fullName)
	}

	crop := ocr.Crop(frame, ocr.TimestampRegion(frame.Bounds()))
	if err := saveJPEG(filepath.Join(scratch, cropName), crop); err == nil {
		obs.CropPath = filepath.Join(filename, cropName)
	}

	raw, err := s.engine.Recognize(ocr.Preprocess(crop), ocr.ModeOverlay)
	if err != nil {
		log.Printf("[EXTRACT] %s: OCR failed on frame %d: %v", filename, idx, err)
		return obs
	}
	obs.Raw = raw
	obs.Text, obs.Confidence = ParseTimestamp(raw)
	return obs
}

func (s *Service) readSpeed(frame image.Image) (int, bool) {
	crop := ocr.Crop(frame, ocr.SpeedRegion(frame.Bounds()))
	raw, err := s.engine.Recognize(ocr.Preprocess(crop), ocr.ModeDigits)
	if err != nil {
		return 0, false
	}
	return ParseSpeed(raw)
}

// resetScratch wipes and recreates the filename's own preview directory.
// Scratch is scoped per filename, so only a rerun for the same evidence
// file replaces these previews.
func (s *Service) resetScratch(filename string) (string, error) {
	dir := filepath.Join(s.previewDir, filename)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clearing preview directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating preview directory: %w", err)
	}
	return dir, nil
}

// RemoveScratch deletes a filename's preview directory, used when the
// evidence file itself is deleted.
func (s *Service) RemoveScratch(filename string) error {
	return os.RemoveAll(filepath.Join(s.previewDir, filename))
}

func (s *Service) lockFilename(filename string) func() {
	s.mu.Lock()
	if s.inflight == nil {
		s.inflight = make(map[string]*sync.Mutex)
	}
	m, ok := s.inflight[filename]
	if !ok {
		m = &sync.Mutex{}
		s.inflight[filename] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func saveJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}
