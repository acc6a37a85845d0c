package models

import (
	"time"
)

// Evidence is one uploaded dashcam video. The stored filename is the
// natural key for every derived record.
type Evidence struct {
	Filename     string
	OriginalName string
	Size         int64
	UploadedAt   time.Time
}

// TamperStatus is the integrity verdict for an evidence file.
type TamperStatus string

const (
	StatusAuthentic  TamperStatus = "Authentic"
	StatusTampered   TamperStatus = "Tampered"
	StatusUnverified TamperStatus = "Unverified"
)

// TamperRecord is the audit row written on every verification run.
// It duplicates derived state on purpose so the verdict history survives
// independently of the baseline table.
type TamperRecord struct {
	Filename  string
	Status    TamperStatus
	CheckedAt time.Time
}

// FrameObservation is a single sampled frame's OCR result. It is embedded
// in ExtractionRecord as JSON, never persisted as its own row. Field names
// match the serialized form consumed by the report aggregator.
type FrameObservation struct {
	Frame      int    `json:"frame"`
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Raw        string `json:"raw"`
	FullPath   string `json:"full_path"`
	CropPath   string `json:"crop_path"`
}

// NoTextDetected is the sentinel text for a frame whose OCR output matched
// no timestamp pattern. It participates in consensus with confidence 0.
const NoTextDetected = "No text detected"

// ExtractionRecord is the aggregated timestamp result for one filename.
// A rerun fully replaces the row, raw detail included.
type ExtractionRecord struct {
	Filename string
	// TimestampText is the consensus timestamp, empty when no frame
	// produced a parseable value.
	TimestampText string
	// Confidence is the mean per-frame tier over processed frames (0-100).
	Confidence float64
	// ConsistencyScore is occurrences of the consensus value over all
	// sampled observations, sentinel ones included, as a percentage.
	ConsistencyScore float64
	HasDrift         bool
	FrameCount       int
	Observations     []FrameObservation
	ExtractedAt      time.Time
}

// SpeedEstimate is the consensus speed reading, reported alongside the
// extraction result but not persisted on its own.
type SpeedEstimate struct {
	Speed       int
	Unit        string
	Consistency float64
	Reliability string
	// Found is false when no sampled frame produced any digits.
	Found bool
}

// PlateResult is the consensus license-plate reading for one filename.
type PlateResult struct {
	Filename   string
	PlateText  string
	Confidence float64
	DetectedAt time.Time
}
