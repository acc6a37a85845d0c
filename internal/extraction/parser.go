// Package extraction runs the sampled-frame OCR pipeline and reduces the
// noisy per-frame readings to one timestamp, speed estimate and
// consistency score.
package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kdimtricp/dashforensics/internal/models"
)

// Confidence tiers are drawn only from this discrete set; the tier encodes
// how specific a pattern the frame's text matched.
const (
	TierFullTimestamp = 100
	TierDateOnly      = 80
	TierPartialDate   = 50
	TierNoMatch       = 0
)

var (
	fullPattern    = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}\s+\d{2}:\d{2}:\d{2}`)
	datePattern    = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}`)
	partialPattern = regexp.MustCompile(`\d{4}[-/]\d{2}`)
	digitRun       = regexp.MustCompile(`\d{1,3}`)
)

// ParseTimestamp applies the tiered patterns in strict precedence order and
// keeps only the first, most specific match. Internal whitespace in the raw
// recognition output is collapsed first.
func ParseTimestamp(raw string) (string, int) {
	text := strings.Join(strings.Fields(raw), " ")

	if m := fullPattern.FindString(text); m != "" {
		return m, TierFullTimestamp
	}
	if m := datePattern.FindString(text); m != "" {
		return m, TierDateOnly
	}
	if m := partialPattern.FindString(text); m != "" {
		return m, TierPartialDate
	}
	return models.NoTextDetected, TierNoMatch
}

// ParseSpeed extracts the first 1-to-3 digit run from digit-only OCR
// output. A frame with no digits contributes no speed sample at all.
func ParseSpeed(raw string) (int, bool) {
	m := digitRun.FindString(raw)
	if m == "" {
		return 0, false
	}
	speed, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return speed, true
}
