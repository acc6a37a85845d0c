package extraction

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/models"
	"github.com/kdimtricp/dashforensics/internal/ocr"
	"github.com/kdimtricp/dashforensics/internal/video"
)

type fakeClip struct {
	total   int
	failing map[int]bool
}

func (c *fakeClip) TotalFrames() int { return c.total }

func (c *fakeClip) ReadFrame(index int) (image.Image, error) {
	if c.failing[index] {
		return nil, fmt.Errorf("decode error at frame %d", index)
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.Gray{Y: uint8((x + y + index) % 256)})
		}
	}
	return img, nil
}

func (c *fakeClip) Close() error { return nil }

type fakeDecoder struct {
	clip *fakeClip
}

func (d *fakeDecoder) Open(path string) (video.Clip, error) { return d.clip, nil }

// fakeEngine replays canned recognitions per mode, in call order.
type fakeEngine struct {
	overlay []string
	digits  []string
}

func (e *fakeEngine) Recognize(img image.Image, mode ocr.Mode) (string, error) {
	var queue *[]string
	switch mode.PSM {
	case ocr.ModeOverlay.PSM:
		queue = &e.overlay
	default:
		queue = &e.digits
	}
	if len(*queue) == 0 {
		return "", nil
	}
	out := (*queue)[0]
	*queue = (*queue)[1:]
	return out, nil
}

type fixedLocator struct{}

func (fixedLocator) FilePath(filename string) string { return filename }

func newTestService(t *testing.T, decoder video.Decoder, engine ocr.Engine) (*Service, *database.TimestampRepo, string) {
	t.Helper()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewTimestampRepo(db)
	previewDir := t.TempDir()
	svc := NewService(decoder, engine, repo, fixedLocator{}, Config{PreviewDir: previewDir})
	return svc, repo, previewDir
}

func TestService_Extract_ConsensusAndPersistence(t *testing.T) {
	engine := &fakeEngine{
		overlay: []string{
			"2024-01-01   10:00:00",
			"2024-01-01 10:00:00",
			"REC HD",
			"2024-01-01 10:00:00",
			"",
		},
		digits: []string{"42", "42", "", "42", "17"},
	}
	svc, repo, previewDir := newTestService(t, &fakeDecoder{clip: &fakeClip{total: 100}}, engine)

	result, err := svc.Extract(context.Background(), "clip.mp4")
	require.NoError(t, err)

	rec := result.Record
	assert.Equal(t, "2024-01-01 10:00:00", rec.TimestampText)
	assert.Equal(t, 60.0, rec.ConsistencyScore)
	assert.Equal(t, 60.0, rec.Confidence)
	assert.Equal(t, 5, rec.FrameCount)
	assert.False(t, rec.HasDrift)

	// Sampled indices follow the 70% window over 100 frames.
	frames := make([]int, len(rec.Observations))
	for i, o := range rec.Observations {
		frames[i] = o.Frame
	}
	assert.Equal(t, []int{70, 76, 82, 88, 94}, frames)

	// Frame 82 matched nothing and carries the sentinel.
	assert.Equal(t, models.NoTextDetected, rec.Observations[2].Text)
	assert.Equal(t, 0, rec.Observations[2].Confidence)

	// Speed consensus excludes the empty frame from the population.
	assert.True(t, result.Speed.Found)
	assert.Equal(t, 42, result.Speed.Speed)
	assert.Equal(t, 75.0, result.Speed.Consistency)
	assert.Equal(t, "MEDIUM", result.Speed.Reliability)

	// Aggregate row persisted.
	stored, err := repo.GetByFilename(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, rec.FrameCount, stored.FrameCount)
	assert.Len(t, stored.Observations, 5)

	// Previews land in the filename's own scratch directory.
	for _, name := range []string{"full_70.jpg", "crop_70.jpg", "full_94.jpg", "crop_94.jpg"} {
		_, err := os.Stat(filepath.Join(previewDir, "clip.mp4", name))
		assert.NoError(t, err, "expected preview %s", name)
	}
}

func TestService_Extract_SkipsFailedFrames(t *testing.T) {
	engine := &fakeEngine{
		overlay: []string{
			"2024-01-01 10:00:00",
			"2024-01-01 10:00:00",
			"2024-01-01 10:00:00",
			"2024-01-01 10:00:00",
		},
	}
	clip := &fakeClip{total: 100, failing: map[int]bool{82: true}}
	svc, _, _ := newTestService(t, &fakeDecoder{clip: clip}, engine)

	result, err := svc.Extract(context.Background(), "clip.mp4")
	require.NoError(t, err)

	// Frame 82 is skipped silently: four observations, no substitute index.
	assert.Equal(t, 4, result.Record.FrameCount)

	// The consistency denominator still counts all five sampled indices.
	assert.Equal(t, 80.0, result.Record.ConsistencyScore)
}

func TestService_Extract_RerunReplacesRow(t *testing.T) {
	engine := &fakeEngine{
		overlay: []string{
			"2024-01-01 10:00:00", "2024-01-01 10:00:00", "2024-01-01 10:00:00",
			"2024-01-01 10:00:00", "2024-01-01 10:00:00",
			// Second run reads only three frames.
			"2024-02-02 12:00:00", "2024-02-02 12:00:00",
		},
	}
	clip := &fakeClip{total: 100}
	svc, repo, _ := newTestService(t, &fakeDecoder{clip: clip}, engine)
	ctx := context.Background()

	_, err := svc.Extract(ctx, "clip.mp4")
	require.NoError(t, err)

	clip.failing = map[int]bool{88: true, 94: true}
	result, err := svc.Extract(ctx, "clip.mp4")
	require.NoError(t, err)

	stored, err := repo.GetByFilename(ctx, "clip.mp4")
	require.NoError(t, err)

	// Never the sum of both runs.
	assert.Equal(t, result.Record.FrameCount, stored.FrameCount)
	assert.Equal(t, 3, stored.FrameCount)
	assert.Equal(t, "2024-02-02 12:00:00", stored.TimestampText)
}

func TestService_Extract_NoReadableText(t *testing.T) {
	engine := &fakeEngine{overlay: []string{"", "", "", "", ""}}
	svc, _, _ := newTestService(t, &fakeDecoder{clip: &fakeClip{total: 100}}, engine)

	result, err := svc.Extract(context.Background(), "clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, "", result.Record.TimestampText)
	assert.Equal(t, 0.0, result.Record.ConsistencyScore)
	assert.False(t, result.Speed.Found)
}
