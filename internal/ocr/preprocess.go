package ocr

import (
	"image"
	"image/color"
)

// upscaleFactor normalizes small overlay text to a size the engine reads
// reliably.
const upscaleFactor = 2.5

// Preprocess normalizes a crop for recognition: grayscale conversion,
// uniform upscaling, then automatic binary thresholding (Otsu).
func Preprocess(img image.Image) *image.Gray {
	gray := grayscale(img)
	gray = upscale(gray, upscaleFactor)
	return binarize(gray, otsuThreshold(gray))
}

func grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return out
}

// upscale resizes with nearest-neighbor sampling. Binarization follows, so
// interpolation quality does not matter here.
func upscale(src *image.Gray, factor float64) *image.Gray {
	sb := src.Bounds()
	w := int(float64(sb.Dx()) * factor)
	h := int(float64(sb.Dy()) * factor)
	if w < 1 || h < 1 {
		return src
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := int(float64(y) / factor)
		for x := 0; x < w; x++ {
			sx := int(float64(x) / factor)
			out.SetGray(x, y, src.GrayAt(sx, sy))
		}
	}
	return out
}

// otsuThreshold picks the global threshold that maximizes between-class
// variance of the intensity histogram.
func otsuThreshold(img *image.Gray) uint8 {
	var hist [256]int
	total := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var (
		sumBack    float64
		weightBack int
		maxVar     float64
		threshold  uint8
	)
	for i := 0; i < 256; i++ {
		weightBack += hist[i]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}

		sumBack += float64(i) * float64(hist[i])
		meanBack := sumBack / float64(weightBack)
		meanFore := (sum - sumBack) / float64(weightFore)

		diff := meanBack - meanFore
		betweenVar := float64(weightBack) * float64(weightFore) * diff * diff
		if betweenVar > maxVar {
			maxVar = betweenVar
			threshold = uint8(i)
		}
	}
	return threshold
}

func binarize(img *image.Gray, threshold uint8) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}
