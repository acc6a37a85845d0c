package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kdimtricp/dashforensics/internal/database"
	"github.com/kdimtricp/dashforensics/internal/extraction"
	"github.com/kdimtricp/dashforensics/internal/integrity"
	"github.com/kdimtricp/dashforensics/internal/models"
	"github.com/kdimtricp/dashforensics/internal/plates"
	"github.com/kdimtricp/dashforensics/internal/report"
	"github.com/kdimtricp/dashforensics/internal/storage"
)

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type App struct {
	Storage       storage.Storage
	Evidence      *database.EvidenceRepo
	Verifier      *integrity.Verifier
	Extraction    *extraction.Service
	Plates        *plates.Service
	Report        *report.Aggregator
	Renderer      report.Renderer
	MaxUploadSize int64
	APIToken      string
}

var allowedExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type evidenceResponse struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
	OnDisk       bool      `json:"on_disk"`
}

func (app *App) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to get file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "unsupported video format")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		contentType = "video/" + strings.TrimPrefix(ext, ".")
	}

	filename, err := app.Storage.SaveFile(file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	ev := &models.Evidence{
		Filename:     filename,
		OriginalName: header.Filename,
		Size:         header.Size,
		UploadedAt:   time.Now(),
	}
	if err := app.Evidence.Insert(r.Context(), ev); err != nil {
		app.Storage.DeleteFile(filename)
		writeError(w, http.StatusInternalServerError, "failed to save evidence record")
		return
	}

	// Baseline is acquired once, at upload. Later re-verifications compare
	// against this digest.
	if err := app.Verifier.EstablishBaseline(r.Context(), filename); err != nil {
		log.Printf("[API] baseline for %s: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "failed to establish baseline")
		return
	}

	writeJSON(w, http.StatusCreated, evidenceResponse{
		Filename:     ev.Filename,
		OriginalName: ev.OriginalName,
		Size:         ev.Size,
		UploadedAt:   ev.UploadedAt,
		OnDisk:       true,
	})
}

func (app *App) ListEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	uploads, err := app.Evidence.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list evidence")
		return
	}

	resp := make([]evidenceResponse, 0, len(uploads))
	for _, ev := range uploads {
		resp = append(resp, evidenceResponse{
			Filename:     ev.Filename,
			OriginalName: ev.OriginalName,
			Size:         ev.Size,
			UploadedAt:   ev.UploadedAt,
			OnDisk:       app.Storage.Exists(ev.Filename),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (app *App) DeleteEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if _, err := app.Evidence.GetByFilename(r.Context(), filename); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "evidence not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load evidence")
		return
	}

	// Rows first. If the file removal fails afterwards the stale file is
	// harmless; the reverse order would leave orphaned analysis rows.
	if err := app.Evidence.Delete(r.Context(), filename); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete evidence records")
		return
	}
	if err := app.Storage.DeleteFile(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[API] deleting file %s: %v", filename, err)
	}
	if err := app.Extraction.RemoveScratch(filename); err != nil {
		log.Printf("[API] removing previews for %s: %v", filename, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *App) StreamVideoHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if _, err := app.Evidence.GetByFilename(r.Context(), filename); err != nil {
		http.NotFound(w, r)
		return
	}

	file, err := app.Storage.OpenFile(filename)
	if err != nil {
		writeError(w, http.StatusNotFound, "video file not found")
		return
	}
	defer file.Close()

	stat, err := file.(interface{ Stat() (os.FileInfo, error) }).Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error accessing video file")
		return
	}

	// ServeContent handles Range requests, Accept-Ranges and 206 responses.
	http.ServeContent(w, r, filename, stat.ModTime(), file)
}

type verdictResponse struct {
	Filename string              `json:"filename"`
	Status   models.TamperStatus `json:"status"`
}

func (app *App) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if _, err := app.Evidence.GetByFilename(r.Context(), filename); err != nil {
		writeError(w, http.StatusNotFound, "evidence not found")
		return
	}

	status, err := app.Verifier.Verify(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	writeJSON(w, http.StatusOK, verdictResponse{Filename: filename, Status: status})
}

type integrityDetailResponse struct {
	Filename     string              `json:"filename"`
	BaselineHash string              `json:"baseline_hash"`
	CurrentHash  string              `json:"current_hash"`
	Status       models.TamperStatus `json:"status"`
}

func (app *App) IntegrityDetailHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if _, err := app.Evidence.GetByFilename(r.Context(), filename); err != nil {
		writeError(w, http.StatusNotFound, "evidence not found")
		return
	}

	detail, err := app.Verifier.Inspect(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "inspection failed")
		return
	}
	writeJSON(w, http.StatusOK, integrityDetailResponse{
		Filename:     detail.Filename,
		BaselineHash: detail.BaselineHash,
		CurrentHash:  detail.CurrentHash,
		Status:       detail.Status,
	})
}

func (app *App) SetBaselineHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if _, err := app.Evidence.GetByFilename(r.Context(), filename); err != nil {
		writeError(w, http.StatusNotFound, "evidence not found")
		return
	}

	if err := app.Verifier.SetBaseline(r.Context(), filename); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set baseline")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"filename": filename, "result": "baseline updated"})
}

type sweepEntryResponse struct {
	Filename   string              `json:"filename"`
	UploadedAt time.Time           `json:"uploaded_at"`
	Status     models.TamperStatus `json:"status"`
}

func (app *App) TamperSweepHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := app.sweep(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}

	resp := make([]sweepEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, sweepEntryResponse{
			Filename:   e.Filename,
			UploadedAt: e.UploadedAt,
			Status:     e.Status,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (app *App) TamperExportHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := app.sweep(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tamper_results.txt"`)
	w.Write(report.RenderTamperExport(entries))
}

func (app *App) sweep(r *http.Request) ([]integrity.SweepEntry, error) {
	uploads, err := app.Evidence.List(r.Context())
	if err != nil {
		return nil, err
	}
	return app.Verifier.Sweep(r.Context(), uploads)
}

type extractionResponse struct {
	Filename         string                    `json:"filename"`
	Timestamp        string                    `json:"timestamp"`
	Confidence       float64                   `json:"confidence"`
	ConsistencyScore float64                   `json:"consistency_score"`
	FrameCount       int                       `json:"frame_count"`
	Observations     []models.FrameObservation `json:"observations"`
	Speed            speedResponse             `json:"speed"`
}

type speedResponse struct {
	Found       bool    `json:"found"`
	Speed       int     `json:"speed"`
	Unit        string  `json:"unit"`
	Consistency float64 `json:"consistency"`
	Reliability string  `json:"reliability"`
}

func (app *App) ExtractHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if _, err := app.Evidence.GetByFilename(r.Context(), filename); err != nil {
		writeError(w, http.StatusNotFound, "evidence not found")
		return
	}
	if !app.Storage.Exists(filename) {
		writeError(w, http.StatusConflict, "evidence file missing from storage")
		return
	}

	result, err := app.Extraction.Extract(r.Context(), filename)
	if err != nil {
		log.Printf("[API] extraction for %s: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "extraction failed")
		return
	}

	writeJSON(w, http.StatusOK, extractionResponse{
		Filename:         result.Record.Filename,
		Timestamp:        result.Record.TimestampText,
		Confidence:       result.Record.Confidence,
		ConsistencyScore: result.Record.ConsistencyScore,
		FrameCount:       result.Record.FrameCount,
		Observations:     result.Record.Observations,
		Speed: speedResponse{
			Found:       result.Speed.Found,
			Speed:       result.Speed.Speed,
			Unit:        result.Speed.Unit,
			Consistency: result.Speed.Consistency,
			Reliability: result.Speed.Reliability,
		},
	})
}

type plateResponse struct {
	Filename   string    `json:"filename"`
	PlateText  string    `json:"plate_text"`
	Confidence float64   `json:"confidence"`
	DetectedAt time.Time `json:"detected_at"`
}

func (app *App) DetectPlatesHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if _, err := app.Evidence.GetByFilename(r.Context(), filename); err != nil {
		writeError(w, http.StatusNotFound, "evidence not found")
		return
	}
	if !app.Storage.Exists(filename) {
		writeError(w, http.StatusConflict, "evidence file missing from storage")
		return
	}

	result, err := app.Plates.Detect(r.Context(), filename)
	if err != nil {
		log.Printf("[API] plate detection for %s: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "plate detection failed")
		return
	}

	writeJSON(w, http.StatusOK, plateResponse{
		Filename:   result.Filename,
		PlateText:  result.PlateText,
		Confidence: result.Confidence,
		DetectedAt: result.DetectedAt,
	})
}

func (app *App) ReportHandler(w http.ResponseWriter, r *http.Request) {
	view, err := app.Report.Build(r.Context(), r.URL.Query().Get("case_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (app *App) ReportExportHandler(w http.ResponseWriter, r *http.Request) {
	view, err := app.Report.Build(r.Context(), r.URL.Query().Get("case_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	body, err := app.Renderer.Render(view)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="forensic_report.txt"`)
	w.Write(body)
}
