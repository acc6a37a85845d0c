package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App, previewDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	fileServer := http.FileServer(http.Dir(previewDir))
	r.Handle("/previews/*", http.StripPrefix("/previews", fileServer))

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(app.APIToken))

		r.Post("/evidence", app.UploadHandler)
		r.Get("/evidence", app.ListEvidenceHandler)
		r.Delete("/evidence/{filename}", app.DeleteEvidenceHandler)
		r.Get("/evidence/{filename}/stream", app.StreamVideoHandler)

		r.Post("/evidence/{filename}/verify", app.VerifyHandler)
		r.Get("/evidence/{filename}/integrity", app.IntegrityDetailHandler)
		r.Post("/evidence/{filename}/baseline", app.SetBaselineHandler)
		r.Post("/tamper/sweep", app.TamperSweepHandler)
		r.Get("/tamper/export", app.TamperExportHandler)

		r.Post("/evidence/{filename}/extract", app.ExtractHandler)
		r.Post("/evidence/{filename}/plates", app.DetectPlatesHandler)

		r.Get("/report", app.ReportHandler)
		r.Get("/report/export", app.ReportExportHandler)
	})

	return r
}
