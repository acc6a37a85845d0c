package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// TesseractEngine shells out to the tesseract binary. The binary is
// resolved at construction so a missing installation is a distinct fatal
// condition, not a per-frame failure.
type TesseractEngine struct {
	binPath string
	tempDir string
}

func NewTesseractEngine() (*TesseractEngine, error) {
	binPath, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("tesseract not found in PATH: %w", err)
	}

	tempDir := filepath.Join(os.TempDir(), "dashforensics-ocr")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TesseractEngine{binPath: binPath, tempDir: tempDir}, nil
}

func (e *TesseractEngine) Recognize(img image.Image, mode Mode) (string, error) {
	input, err := os.CreateTemp(e.tempDir, "crop_*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(input.Name())

	if err := png.Encode(input, img); err != nil {
		input.Close()
		return "", fmt.Errorf("failed to encode crop: %w", err)
	}
	input.Close()

	args := []string{input.Name(), "stdout", "--oem", "3", "--psm", mode.PSM}
	if mode.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+mode.Whitelist)
	}
	cmd := exec.Command(e.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (e *TesseractEngine) Cleanup() error {
	return os.RemoveAll(e.tempDir)
}
