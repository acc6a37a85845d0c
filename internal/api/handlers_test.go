package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/extraction"
	"github.com/kdimtricp/dashforensics/internal/integrity"
	"github.com/kdimtricp/dashforensics/internal/models"
	"github.com/kdimtricp/dashforensics/internal/report"
	"github.com/kdimtricp/dashforensics/internal/storage"
)

func newTestServer(t *testing.T, token string) (*httptest.Server, *App) {
	t.Helper()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	evidenceRepo := database.NewEvidenceRepo(db)
	integrityRepo := database.NewIntegrityRepo(db)
	timestampRepo := database.NewTimestampRepo(db)
	plateRepo := database.NewPlateRepo(db)

	verifier := integrity.NewVerifier(integrityRepo, store, nil)
	previewDir := t.TempDir()
	extractor := extraction.NewService(nil, nil, timestampRepo, store, extraction.Config{
		PreviewDir: previewDir,
	})
	aggregator := report.NewAggregator(evidenceRepo, timestampRepo, integrityRepo, plateRepo, store)

	app := &App{
		Storage:       store,
		Evidence:      evidenceRepo,
		Verifier:      verifier,
		Extraction:    extractor,
		Report:        aggregator,
		Renderer:      report.TextRenderer{},
		MaxUploadSize: 10 << 20,
		APIToken:      token,
	}

	srv := httptest.NewServer(NewRouter(app, previewDir))
	t.Cleanup(srv.Close)
	return srv, app
}

func uploadVideo(t *testing.T, srv *httptest.Server, name string, content []byte) evidenceResponse {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("video", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/evidence", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ev evidenceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ev))
	return ev
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadListDelete(t *testing.T) {
	srv, app := newTestServer(t, "")

	ev := uploadVideo(t, srv, "dashcam.mp4", []byte("not really a video"))
	require.Equal(t, "dashcam.mp4", ev.OriginalName)
	require.Equal(t, ".mp4", filepath.Ext(ev.Filename))
	require.True(t, ev.OnDisk)

	resp, err := http.Get(srv.URL + "/api/evidence")
	require.NoError(t, err)
	var listed []evidenceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Len(t, listed, 1)
	require.Equal(t, ev.Filename, listed[0].Filename)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/evidence/"+ev.Filename, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.False(t, app.Storage.Exists(ev.Filename))

	resp, err = http.Get(srv.URL + "/api/evidence")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Empty(t, listed)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	srv, _ := newTestServer(t, "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("video", "notes.txt")
	require.NoError(t, err)
	part.Write([]byte("plain text"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/evidence", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyLifecycle(t *testing.T) {
	srv, app := newTestServer(t, "")

	ev := uploadVideo(t, srv, "clip.mp4", []byte("original bytes"))

	resp, err := http.Post(srv.URL+"/api/evidence/"+ev.Filename+"/verify", "", nil)
	require.NoError(t, err)
	var verdict verdictResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verdict))
	resp.Body.Close()
	require.Equal(t, models.StatusAuthentic, verdict.Status)

	// Overwrite the stored file behind the baseline's back.
	require.NoError(t, os.WriteFile(app.Storage.FilePath(ev.Filename), []byte("altered bytes"), 0644))

	resp, err = http.Post(srv.URL+"/api/evidence/"+ev.Filename+"/verify", "", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verdict))
	resp.Body.Close()
	require.Equal(t, models.StatusTampered, verdict.Status)

	// Rebaselining accepts the altered file as the new reference.
	resp, err = http.Post(srv.URL+"/api/evidence/"+ev.Filename+"/baseline", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/evidence/"+ev.Filename+"/verify", "", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verdict))
	resp.Body.Close()
	require.Equal(t, models.StatusAuthentic, verdict.Status)
}

func TestIntegrityDetailUnknownFilename(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/evidence/nope.mp4/integrity")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTamperSweepAndExport(t *testing.T) {
	srv, _ := newTestServer(t, "")

	uploadVideo(t, srv, "one.mp4", []byte("first"))
	uploadVideo(t, srv, "two.mov", []byte("second"))

	resp, err := http.Post(srv.URL+"/api/tamper/sweep", "", nil)
	require.NoError(t, err)
	var entries []sweepEntryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	resp.Body.Close()
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, models.StatusAuthentic, e.Status)
	}

	resp, err = http.Get(srv.URL + "/api/tamper/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "tamper_results.txt")
}

func TestReportEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, "")

	ev := uploadVideo(t, srv, "latest.mp4", []byte("video bytes"))

	resp, err := http.Get(srv.URL + "/api/report?case_id=CASE-7")
	require.NoError(t, err)
	var view report.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	require.Equal(t, ev.Filename, view.Filename)
	require.Equal(t, "CASE-7", view.CaseID)

	resp, err = http.Get(srv.URL + "/api/report/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "forensic_report.txt")
}

func TestStreamVideoRange(t *testing.T) {
	srv, _ := newTestServer(t, "")

	content := bytes.Repeat([]byte("abcdefgh"), 512)
	ev := uploadVideo(t, srv, "stream.mp4", content)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/evidence/"+ev.Filename+"/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=0-1023")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusPartialContent, resp.StatusCode)
	require.Equal(t, "1024", resp.Header.Get("Content-Length"))
}

func TestBearerAuth(t *testing.T) {
	srv, _ := newTestServer(t, "sekrit")

	resp, err := http.Get(srv.URL + "/api/evidence")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/evidence", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Ping stays open for health checks.
	resp, err = http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
