package ocr

import (
	"image"
	"image/draw"
)

const (
	// Timestamp overlay occupies the bottom 18% of the frame.
	timestampBandStart = 0.82
	// Speed overlay sits in the bottom-right: below 80% height, right of
	// 55% width.
	speedBandStart  = 0.80
	speedRightStart = 0.55
)

// TimestampRegion is the deterministic crop rectangle for the timestamp
// overlay band of a frame with the given bounds.
func TimestampRegion(bounds image.Rectangle) image.Rectangle {
	y := bounds.Min.Y + int(float64(bounds.Dy())*timestampBandStart)
	return image.Rect(bounds.Min.X, y, bounds.Max.X, bounds.Max.Y)
}

// SpeedRegion is the crop rectangle for the speed overlay.
func SpeedRegion(bounds image.Rectangle) image.Rectangle {
	y := bounds.Min.Y + int(float64(bounds.Dy())*speedBandStart)
	x := bounds.Min.X + int(float64(bounds.Dx())*speedRightStart)
	return image.Rect(x, y, bounds.Max.X, bounds.Max.Y)
}

// Crop copies the region r out of img into a standalone image.
func Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}
