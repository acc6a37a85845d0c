package extraction

import (
	"math"

	"github.com/kdimtricp/dashforensics/internal/models"
)

// Speed reliability classification thresholds, in percent consistency.
const (
	reliabilityHigh   = 80.0
	reliabilityMedium = 50.0
)

// ConsensusTimestamp reduces the frame observations to the most frequent
// non-sentinel text. Ties break to the value first seen at the earliest
// frame index. sampledCount is the number of frame indices attempted; it
// is the consistency denominator, so unreadable frames still degrade the
// score even when every readable frame agreed.
func ConsensusTimestamp(obs []models.FrameObservation, sampledCount int) (string, float64) {
	counts := make(map[string]int)
	firstFrame := make(map[string]int)

	for _, o := range obs {
		if o.Text == models.NoTextDetected || o.Text == "" {
			continue
		}
		counts[o.Text]++
		if _, seen := firstFrame[o.Text]; !seen {
			firstFrame[o.Text] = o.Frame
		}
	}
	if len(counts) == 0 {
		return "", 0
	}

	var final string
	for text, n := range counts {
		if final == "" {
			final = text
			continue
		}
		if n > counts[final] || (n == counts[final] && firstFrame[text] < firstFrame[final]) {
			final = text
		}
	}

	if sampledCount <= 0 {
		return final, 0
	}
	consistency := round1(float64(counts[final]) / float64(sampledCount) * 100)
	return final, consistency
}

// AverageConfidence is the mean confidence tier over processed frames only.
func AverageConfidence(obs []models.FrameObservation) float64 {
	if len(obs) == 0 {
		return 0
	}
	sum := 0
	for _, o := range obs {
		sum += o.Confidence
	}
	return round1(float64(sum) / float64(len(obs)))
}

// ConsensusSpeed majority-votes the integer speed samples. An empty
// population classifies LOW with no estimate.
func ConsensusSpeed(samples []int) models.SpeedEstimate {
	if len(samples) == 0 {
		return models.SpeedEstimate{Reliability: "LOW"}
	}

	counts := make(map[int]int)
	firstSeen := make(map[int]int)
	for i, s := range samples {
		counts[s]++
		if _, seen := firstSeen[s]; !seen {
			firstSeen[s] = i
		}
	}

	best := samples[0]
	for s, n := range counts {
		if n > counts[best] || (n == counts[best] && firstSeen[s] < firstSeen[best]) {
			best = s
		}
	}

	consistency := round1(float64(counts[best]) / float64(len(samples)) * 100)
	reliability := "LOW"
	switch {
	case consistency >= reliabilityHigh:
		reliability = "HIGH"
	case consistency >= reliabilityMedium:
		reliability = "MEDIUM"
	}

	return models.SpeedEstimate{
		Speed:       best,
		Unit:        "KM/H",
		Consistency: consistency,
		Reliability: reliability,
		Found:       true,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
