package report

import (
	"bytes"
	"fmt"

	"github.com/kdimtricp/dashforensics/internal/integrity"
)

// Renderer turns the normalized view into a binary document. The PDF
// renderer is an external collaborator; only the plain-text renderer lives
// in this repository.
type Renderer interface {
	Render(view *View) ([]byte, error)
}

// TextRenderer produces a plain-text examination summary.
type TextRenderer struct{}

func (TextRenderer) Render(view *View) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "DIGITAL VIDEO FORENSIC EXAMINATION REPORT\n")
	if view.CaseID != "" {
		fmt.Fprintf(&buf, "Case ID: %s\n", view.CaseID)
	}
	fmt.Fprintf(&buf, "Report Date: %s\n\n", view.ReportDate.Format("2006-01-02 15:04:05"))

	if view.Upload == nil {
		fmt.Fprintf(&buf, "No evidence file currently exists on storage.\n")
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "Evidence: %s (uploaded %s)\n",
		view.Upload.Filename, view.Upload.UploadedAt.Format("2006-01-02 15:04:05"))

	if view.Tamper != nil {
		fmt.Fprintf(&buf, "Integrity: %s (checked %s)\n",
			view.Tamper.Status, view.Tamper.CheckedAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(&buf, "Integrity: pending\n")
	}

	fmt.Fprintf(&buf, "\nExtracted timestamps (%d frames):\n", len(view.Timestamps))
	for _, row := range view.Timestamps {
		if row.HasFrame {
			fmt.Fprintf(&buf, "  frame %d: %s (confidence %d)\n", row.Frame, row.TimestampText, row.Confidence)
		} else {
			fmt.Fprintf(&buf, "  %s (confidence %d)\n", row.TimestampText, row.Confidence)
		}
	}

	for _, plate := range view.Plates {
		fmt.Fprintf(&buf, "\nPlate: %s (confidence %.1f%%, detected %s)\n",
			plate.PlateText, plate.Confidence*100, plate.DetectedAt.Format("2006-01-02 15:04:05"))
	}

	return buf.Bytes(), nil
}

// RenderTamperExport formats a verification sweep as the downloadable
// tamper results text file.
func RenderTamperExport(entries []integrity.SweepEntry) []byte {
	var buf bytes.Buffer
	if len(entries) == 0 {
		buf.WriteString("No videos found for tamper detection.\n")
		return buf.Bytes()
	}
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s -> %s\n", e.Filename, e.Status)
	}
	return buf.Bytes()
}
