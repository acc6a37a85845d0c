// Package plates locates a license plate across sampled frames and votes
// on a consensus reading. The detection model itself is an external
// collaborator behind the Detector interface.
package plates

import (
	"image"
)

// Box is one detected plate region with the model's confidence.
type Box struct {
	Rect       image.Rectangle
	Confidence float64
}

// Detector finds candidate plate regions in a raster frame.
type Detector interface {
	Detect(img image.Image) ([]Box, error)
}
