package integrity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/models"
)

// emptyFileSHA256 is the well-known digest of zero bytes of input.
const emptyFileSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

type dirLocator struct {
	dir string
}

func (d dirLocator) FilePath(filename string) string {
	return filepath.Join(d.dir, filename)
}

func (d dirLocator) Exists(filename string) bool {
	_, err := os.Stat(d.FilePath(filename))
	return err == nil
}

func newTestVerifier(t *testing.T, override Override) (*Verifier, *database.IntegrityRepo, string) {
	t.Helper()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	repo := database.NewIntegrityRepo(db)
	return NewVerifier(repo, dirLocator{dir: dir}, override), repo, dir
}

func TestComputeHash_Deterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("frame bytes"), 0644))

	first, err := ComputeHash(path)
	require.NoError(t, err)
	second, err := ComputeHash(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestComputeHash_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.mp4")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	digest, err := ComputeHash(path)
	require.NoError(t, err)
	assert.Equal(t, emptyFileSHA256, digest)
}

func TestComputeHash_MissingFile(t *testing.T) {
	_, err := ComputeHash(filepath.Join(t.TempDir(), "nope.mp4"))
	assert.ErrorIs(t, err, ErrFileUnavailable)
}

func TestVerifier_Lifecycle(t *testing.T) {
	v, repo, dir := newTestVerifier(t, nil)
	ctx := context.Background()

	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("original content"), 0644))

	// No baseline yet.
	status, err := v.Verify(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnverified, status)

	require.NoError(t, v.SetBaseline(ctx, "clip.mp4"))

	// Unmodified file verifies Authentic.
	status, err = v.Verify(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAuthentic, status)

	// A single-byte mutation flips the verdict.
	require.NoError(t, os.WriteFile(path, []byte("original contenT"), 0644))
	status, err = v.Verify(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTampered, status)

	// Every run leaves exactly one audit row.
	rec, err := repo.GetVerdict(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTampered, rec.Status)
}

func TestVerifier_EstablishBaselineIsFirstAcquisitionOnly(t *testing.T) {
	v, repo, dir := newTestVerifier(t, nil)
	ctx := context.Background()

	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))
	require.NoError(t, v.EstablishBaseline(ctx, "clip.mp4"))

	original, err := repo.GetBaseline(ctx, "clip.mp4")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	require.NoError(t, v.EstablishBaseline(ctx, "clip.mp4"))

	kept, err := repo.GetBaseline(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, original, kept)

	// An explicit rebaseline does move it.
	require.NoError(t, v.SetBaseline(ctx, "clip.mp4"))
	moved, err := repo.GetBaseline(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.NotEqual(t, original, moved)
}

func TestVerifier_MissingFileIsUnverifiedNotFatal(t *testing.T) {
	v, _, _ := newTestVerifier(t, nil)

	detail, err := v.Inspect(context.Background(), "ghost.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnverified, detail.Status)
	assert.Equal(t, "file missing", detail.CurrentHash)
}

type forcedOverride struct {
	match  string
	status models.TamperStatus
}

func (f forcedOverride) Verdict(filename string) (models.TamperStatus, bool) {
	if filename == f.match {
		return f.status, true
	}
	return "", false
}

func TestVerifier_OverrideOnlyAffectsSelectedFilename(t *testing.T) {
	v, _, dir := newTestVerifier(t, forcedOverride{match: "demo.mp4", status: models.StatusTampered})
	ctx := context.Background()

	for _, name := range []string{"demo.mp4", "real.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content"), 0644))
		require.NoError(t, v.SetBaseline(ctx, name))
	}

	status, err := v.Verify(ctx, "demo.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTampered, status)

	status, err = v.Verify(ctx, "real.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAuthentic, status)
}
