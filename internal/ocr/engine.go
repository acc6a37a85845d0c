// Package ocr turns preprocessed frame crops into text. Recognition itself
// is delegated to an external engine; this package owns crop geometry,
// contrast normalization and the recognition-mode configuration.
package ocr

import (
	"image"
)

// Mode configures a recognition pass: page segmentation and the character
// set the engine may emit.
type Mode struct {
	PSM       string
	Whitelist string
}

var (
	// ModeOverlay reads the timestamp overlay band: a uniform text block,
	// alphanumeric plus date separators.
	ModeOverlay = Mode{PSM: "6", Whitelist: "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-/:. "}
	// ModeDigits reads the speed overlay: one line, digits only.
	ModeDigits = Mode{PSM: "7", Whitelist: "0123456789"}
	// ModePlate reads a localized plate crop as a single word.
	ModePlate = Mode{PSM: "8", Whitelist: "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-"}
)

// Engine recognizes text in a raster image.
type Engine interface {
	Recognize(img image.Image, mode Mode) (string, error)
}
