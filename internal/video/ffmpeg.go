package video

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FFmpegDecoder decodes frames by shelling out to ffmpeg/ffprobe. Both
// binaries are resolved at construction so a missing installation fails
// fast instead of mid-extraction.
type FFmpegDecoder struct {
	ffmpegPath  string
	ffprobePath string
}

func NewFFmpegDecoder() (*FFmpegDecoder, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &FFmpegDecoder{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

func (d *FFmpegDecoder) Open(path string) (Clip, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}

	total, err := d.probeFrameCount(path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe frame count: %w", err)
	}
	if total <= 0 {
		return nil, fmt.Errorf("invalid frame count: %d", total)
	}

	tempDir, err := os.MkdirTemp("", "dashforensics-frames-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &ffmpegClip{
		decoder:     d,
		path:        path,
		totalFrames: total,
		tempDir:     tempDir,
	}, nil
}

// probeFrameCount asks ffprobe for the stream's frame count, falling back
// to duration * frame rate when the container does not carry nb_frames.
func (d *FFmpegDecoder) probeFrameCount(path string) (int, error) {
	cmd := exec.Command(d.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=nb_frames",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err == nil {
		out := strings.TrimSpace(stdout.String())
		if n, err := strconv.Atoi(out); err == nil && n > 0 {
			return n, nil
		}
	}

	duration, err := d.probeFloat(path, "format=duration")
	if err != nil {
		return 0, err
	}
	rate, err := d.probeFrameRate(path)
	if err != nil {
		return 0, err
	}
	return int(duration * rate), nil
}

func (d *FFmpegDecoder) probeFloat(path, entries string) (float64, error) {
	cmd := exec.Command(d.ffprobePath,
		"-v", "error",
		"-show_entries", entries,
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
}

func (d *FFmpegDecoder) probeFrameRate(path string) (float64, error) {
	cmd := exec.Command(d.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	// avg_frame_rate is a rational like "30000/1001".
	out := strings.TrimSpace(stdout.String())
	parts := strings.Split(out, "/")
	if len(parts) == 2 {
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0, fmt.Errorf("invalid frame rate: %s", out)
		}
		return num / den, nil
	}
	return strconv.ParseFloat(out, 64)
}

type ffmpegClip struct {
	decoder     *FFmpegDecoder
	path        string
	totalFrames int
	tempDir     string
}

func (c *ffmpegClip) TotalFrames() int {
	return c.totalFrames
}

func (c *ffmpegClip) ReadFrame(index int) (image.Image, error) {
	tempFile := filepath.Join(c.tempDir, fmt.Sprintf("frame_%d.jpg", index))
	defer os.Remove(tempFile)

	args := []string{
		"-i", c.path,
		"-vf", fmt.Sprintf("select=eq(n\\,%d)", index),
		"-vframes", "1",
		"-q:v", "2",
		"-f", "mjpeg",
		tempFile,
	}
	cmd := exec.Command(c.decoder.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Printf("ffmpeg stderr output: %s", stderr.String())
		return nil, fmt.Errorf("failed to read frame %d: %w", index, err)
	}

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open decoded frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %d: %w", index, err)
	}
	return img, nil
}

func (c *ffmpegClip) Close() error {
	return os.RemoveAll(c.tempDir)
}
