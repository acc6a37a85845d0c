package plates

import (
	"image"
	"image/color"
	"sort"
)

const (
	// edgeDelta is the luminance jump between horizontal neighbors that
	// counts as an edge. Plate characters produce runs of such jumps.
	edgeDelta = 24
	// minEdgeDensity is the edge fraction a window needs to qualify as a
	// plate candidate.
	minEdgeDensity = 0.18
	maxCandidates  = 3
)

// HeuristicDetector finds plate-like regions by their dense vertical edge
// texture. Characters on a plate pack many close luminance transitions into
// a wide, short rectangle, which road surface and sky do not.
type HeuristicDetector struct{}

func NewHeuristicDetector() *HeuristicDetector {
	return &HeuristicDetector{}
}

func (d *HeuristicDetector) Detect(img image.Image) ([]Box, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 64 || h < 64 {
		return nil, nil
	}

	lum := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			lum[y*w+x] = g.Y
		}
	}

	// Summed-area table of horizontal edge pixels, one extra row/column of
	// zeros so window sums need no boundary cases.
	integral := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			if x > 0 {
				diff := int(lum[y*w+x]) - int(lum[y*w+x-1])
				if diff < 0 {
					diff = -diff
				}
				if diff >= edgeDelta {
					rowSum++
				}
			}
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	edgeCount := func(r image.Rectangle) int {
		return integral[r.Max.Y*(w+1)+r.Max.X] -
			integral[r.Min.Y*(w+1)+r.Max.X] -
			integral[r.Max.Y*(w+1)+r.Min.X] +
			integral[r.Min.Y*(w+1)+r.Min.X]
	}

	var candidates []Box
	for _, winH := range []int{h / 16, h / 10} {
		if winH < 10 {
			winH = 10
		}
		winW := winH * 9 / 2
		if winW >= w {
			continue
		}
		step := winH / 2

		// Plates sit in the lower two thirds of a dashcam frame.
		for y := h / 3; y+winH <= h; y += step {
			for x := 0; x+winW <= w; x += step {
				r := image.Rect(x, y, x+winW, y+winH)
				density := float64(edgeCount(r)) / float64(winW*winH)
				if density < minEdgeDensity {
					continue
				}
				conf := density * 2
				if conf > 1 {
					conf = 1
				}
				candidates = append(candidates, Box{
					Rect:       r.Add(b.Min),
					Confidence: conf,
				})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	// Greedy suppression of overlapping windows, strongest first.
	var boxes []Box
	for _, c := range candidates {
		overlaps := false
		for _, kept := range boxes {
			if c.Rect.Overlaps(kept.Rect) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			boxes = append(boxes, c)
		}
		if len(boxes) == maxCandidates {
			break
		}
	}
	return boxes, nil
}
