package integrity

import (
	"strings"

	"github.com/kdimtricp/dashforensics/internal/models"
)

// SubstringOverride forces a fixed verdict for filenames containing a
// marker. Demo wiring only; it is never constructed unless a marker is
// explicitly configured.
type SubstringOverride struct {
	Marker string
	Status models.TamperStatus
}

func (o SubstringOverride) Verdict(filename string) (models.TamperStatus, bool) {
	if o.Marker != "" && strings.Contains(filename, o.Marker) {
		return o.Status, true
	}
	return "", false
}
