package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ensemble/internal/musicservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *musicservice.Service, authEnabled bool, token string, sseHandler http.Handler, defaultPageSize, maxPageSize int) chi.Router {
	h := NewHandler(svc, defaultPageSize, maxPageSize)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Roster.
	r.Route("/musicians", func(r chi.Router) {
		r.Get("/", h.ListMusicians)
		r.Post("/", h.CreateMusician)
		r.Get("/{id}", h.GetMusician)
		r.Put("/{id}", h.UpdateMusician)
		r.Delete("/{id}", h.DeleteMusician)
		r.Get("/{id}/instruments/options", h.MusicianInstrumentOptions)
		r.Put("/{id}/instruments", h.AssignInstruments)
		r.Post("/{id}/documents", h.UploadDocument)
		r.Get("/{id}/photo", h.GetPhoto)
		r.Post("/{id}/photo", h.UploadPhoto)
		r.Delete("/{id}/photo", h.DeletePhoto)
	})

	// Catalogue.
	r.Route("/genres", func(r chi.Router) {
		r.Get("/", h.ListGenres)
		r.Post("/", h.CreateGenre)
		r.Get("/{id}", h.GetGenre)
		r.Put("/{id}", h.UpdateGenre)
		r.Delete("/{id}", h.DeleteGenre)
	})
	r.Route("/instruments", func(r chi.Router) {
		r.Get("/", h.ListInstruments)
		r.Post("/", h.CreateInstrument)
		r.Get("/{id}", h.GetInstrument)
		r.Put("/{id}", h.UpdateInstrument)
		r.Delete("/{id}", h.DeleteInstrument)
		r.Get("/{id}/players", h.InstrumentPlayers)
		r.Put("/{id}/players", h.AssignPlayers)
	})
	r.Route("/albums", func(r chi.Router) {
		r.Get("/", h.ListAlbums)
		r.Post("/", h.CreateAlbum)
		r.Get("/{id}", h.GetAlbum)
		r.Put("/{id}", h.UpdateAlbum)
		r.Delete("/{id}", h.DeleteAlbum)
	})
	r.Route("/songs", func(r chi.Router) {
		r.Get("/", h.ListSongs)
		r.Post("/", h.CreateSong)
		r.Get("/{id}", h.GetSong)
		r.Put("/{id}", h.UpdateSong)
		r.Delete("/{id}", h.DeleteSong)
	})
	r.Route("/performances", func(r chi.Router) {
		r.Get("/", h.ListPerformances)
		r.Post("/", h.CreatePerformance)
		r.Get("/{id}", h.GetPerformance)
		r.Put("/{id}", h.UpdatePerformance)
		r.Delete("/{id}", h.DeletePerformance)
	})

	// Documents.
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.ListDocuments)
		r.Get("/{id}", h.GetDocument)
		r.Put("/{id}", h.UpdateDocument)
		r.Delete("/{id}", h.DeleteDocument)
		r.Get("/{id}/download", h.DownloadDocument)
	})

	// Reports.
	r.Get("/reports/performance-summary", h.PerformanceSummary)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
