package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/store"
)

// ListSongs handles GET /api/songs.
//
//	@Summary		List songs with paging, filtering, and sorting
//	@Tags			songs
//	@Produce		json
//	@Param			searchString	query		string	false	"Title containment filter"
//	@Param			albumId			query		int		false	"Album filter"
//	@Param			genreId			query		int		false	"Genre filter"
//	@Param			sortField		query		string	false	"Sort field"	Enums(Title, Date Recorded, Album, Genre)
//	@Param			sortDirection	query		string	false	"Sort direction"	Enums(asc, desc)
//	@Param			actionButton	query		string	false	"Clicked column heading"
//	@Param			page			query		int		false	"Page number"
//	@Param			pageSize		query		int		false	"Page size"
//	@Success		200				{object}	listEnvelope[models.Song]
//	@Security		BearerAuth
//	@Router			/songs [get]
func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	filter := store.SongFilter{
		SearchString: r.URL.Query().Get("searchString"),
		AlbumID:      idQuery(r, "albumId"),
		GenreID:      idQuery(r, "genreId"),
	}
	page, res, applied, err := h.svc.ListSongs(r.Context(), h.listQuery(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(page, res, applied))
}

// GetSong handles GET /api/songs/{id}.
func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	s, err := h.svc.GetSong(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateSong handles POST /api/songs.
func (h *Handler) CreateSong(w http.ResponseWriter, r *http.Request) {
	var s models.Song
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.CreateSong(r.Context(), &s); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.svc.GetSong(r.Context(), s.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateSong handles PUT /api/songs/{id}.
func (h *Handler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var s models.Song
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	s.ID = id
	if err := h.svc.UpdateSong(r.Context(), &s); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.svc.GetSong(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSong handles DELETE /api/songs/{id}. Version token in
// If-Match; performances cascade with the song.
func (h *Handler) DeleteSong(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.DeleteSong(r.Context(), id, ifMatchToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
