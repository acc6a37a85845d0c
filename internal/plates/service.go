package plates

import (
	"context"
	"fmt"
	"image"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/models"
	"github.com/kdimtricp/dashforensics/internal/ocr"
	"github.com/kdimtricp/dashforensics/internal/video"
)

const (
	// frameStride checks every 15th frame; plate localization is too
	// expensive to run on every frame.
	frameStride = 15
	// minBoxConfidence drops weak detections before OCR.
	minBoxConfidence = 0.3
	// boxPadding grows each detection by a few pixels so tight boxes do
	// not clip characters.
	boxPadding = 5
)

// plateFormat groups a cleaned reading into region/number/series parts.
var plateFormat = regexp.MustCompile(`^([A-Z]{2,3})([0-9]{2,4})([A-Z]{1,3})`)

// FileLocator resolves stored filenames to on-disk paths.
type FileLocator interface {
	FilePath(filename string) string
}

type Service struct {
	decoder  video.Decoder
	detector Detector
	engine   ocr.Engine
	repo     *database.PlateRepo
	files    FileLocator
}

func NewService(decoder video.Decoder, detector Detector, engine ocr.Engine, repo *database.PlateRepo, files FileLocator) *Service {
	return &Service{
		decoder:  decoder,
		detector: detector,
		engine:   engine,
		repo:     repo,
		files:    files,
	}
}

// Detect scans the clip for plates, majority-votes the OCR readings and
// persists the consensus result keyed by filename.
func (s *Service) Detect(ctx context.Context, filename string) (*models.PlateResult, error) {
	clip, err := s.decoder.Open(s.files.FilePath(filename))
	if err != nil {
		return nil, fmt.Errorf("opening video: %w", err)
	}
	defer clip.Close()

	var (
		readings       []string
		bestConfidence float64
	)

	for idx := frameStride; idx < clip.TotalFrames(); idx += frameStride {
		frame, err := clip.ReadFrame(idx)
		if err != nil {
			log.Printf("[PLATES] %s: skipping frame %d: %v", filename, idx, err)
			continue
		}

		boxes, err := s.detector.Detect(frame)
		if err != nil {
			log.Printf("[PLATES] %s: detector failed on frame %d: %v", filename, idx, err)
			continue
		}

		var kept []Box
		sum := 0.0
		for _, box := range boxes {
			if box.Confidence >= minBoxConfidence {
				kept = append(kept, box)
				sum += box.Confidence
			}
		}
		if len(kept) == 0 {
			continue
		}
		if mean := sum / float64(len(kept)); mean > bestConfidence {
			bestConfidence = mean
		}

		for _, box := range kept {
			if text := s.readPlate(frame, box); text != "" {
				readings = append(readings, text)
			}
		}
	}

	result := &models.PlateResult{
		Filename:   filename,
		PlateText:  consensusPlate(readings),
		Confidence: bestConfidence,
		DetectedAt: time.Now(),
	}
	if err := s.repo.Upsert(ctx, result); err != nil {
		return nil, fmt.Errorf("persisting plate result: %w", err)
	}
	log.Printf("[PLATES] %s: plate=%q confidence=%.2f from %d readings",
		filename, result.PlateText, result.Confidence, len(readings))
	return result, nil
}

// readPlate crops the padded box, preprocesses it and recognizes a single
// word in the plate character set. Readings shorter than three characters
// are discarded as noise.
func (s *Service) readPlate(frame image.Image, box Box) string {
	padded := box.Rect.Inset(-boxPadding).Intersect(frame.Bounds())
	if padded.Empty() {
		return ""
	}

	crop := ocr.Crop(frame, padded)
	raw, err := s.engine.Recognize(ocr.Preprocess(crop), ocr.ModePlate)
	if err != nil {
		return ""
	}

	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if m := plateFormat.FindStringSubmatch(cleaned); m != nil {
		return strings.Join(m[1:], " ")
	}
	if len(cleaned) > 2 {
		return cleaned
	}
	return ""
}

// consensusPlate is the majority vote over readings; ties break to the
// reading seen first. "None" marks an empty population, matching the
// stored sentinel for no detection.
func consensusPlate(readings []string) string {
	if len(readings) == 0 {
		return "None"
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, r := range readings {
		counts[r]++
		if _, seen := firstSeen[r]; !seen {
			firstSeen[r] = i
		}
	}

	best := readings[0]
	for r, n := range counts {
		if n > counts[best] || (n == counts[best] && firstSeen[r] < firstSeen[best]) {
			best = r
		}
	}
	return best
}
