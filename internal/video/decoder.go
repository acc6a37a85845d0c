// Package video wraps frame decoding behind a small interface and selects
// the frame indices the OCR engine will look at.
package video

import (
	"image"
)

// Clip is an opened video. Frame reads are blocking and CPU-bound; a failed
// read at one index is the caller's signal to skip that index.
type Clip interface {
	TotalFrames() int
	ReadFrame(index int) (image.Image, error)
	Close() error
}

// Decoder opens evidence files by path.
type Decoder interface {
	Open(path string) (Clip, error)
}
