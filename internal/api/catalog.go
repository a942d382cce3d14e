package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/store"
)

// ListGenres handles GET /api/genres. The genre list is short and
// unpaged, ordered by name.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.svc.ListGenres(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": genres})
}

// GetGenre handles GET /api/genres/{id}.
func (h *Handler) GetGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	g, err := h.svc.GetGenre(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// CreateGenre handles POST /api/genres.
func (h *Handler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	var g models.Genre
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.CreateGenre(r.Context(), &g); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// UpdateGenre handles PUT /api/genres/{id}.
func (h *Handler) UpdateGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var g models.Genre
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	g.ID = id
	if err := h.svc.UpdateGenre(r.Context(), &g); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// DeleteGenre handles DELETE /api/genres/{id}. A genre referenced by
// an album blocks with 409.
func (h *Handler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.DeleteGenre(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInstruments handles GET /api/instruments, unpaged ordered by name.
func (h *Handler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.svc.ListInstruments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if instruments == nil {
		instruments = []models.Instrument{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": instruments})
}

// GetInstrument handles GET /api/instruments/{id}.
func (h *Handler) GetInstrument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	i, err := h.svc.GetInstrument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

// CreateInstrument handles POST /api/instruments.
func (h *Handler) CreateInstrument(w http.ResponseWriter, r *http.Request) {
	var i models.Instrument
	if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.CreateInstrument(r.Context(), &i); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, i)
}

// UpdateInstrument handles PUT /api/instruments/{id}.
func (h *Handler) UpdateInstrument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var i models.Instrument
	if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	i.ID = id
	if err := h.svc.UpdateInstrument(r.Context(), &i); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

// DeleteInstrument handles DELETE /api/instruments/{id}. An instrument
// played by any musician blocks with 409.
func (h *Handler) DeleteInstrument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.DeleteInstrument(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InstrumentPlayers handles GET /api/instruments/{id}/players, the
// dual-listbox source listing every musician flagged with assignment.
func (h *Handler) InstrumentPlayers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	opts, err := h.svc.InstrumentPlayers(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}

// AssignPlayers handles PUT /api/instruments/{id}/players.
func (h *Handler) AssignPlayers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req assignPlayersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.AssignPlayers(r.Context(), id, req.MusicianIDs); err != nil {
		writeError(w, err)
		return
	}
	opts, err := h.svc.InstrumentPlayers(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}

// ListAlbums handles GET /api/albums.
//
//	@Summary		List albums with paging, filtering, and sorting
//	@Tags			albums
//	@Produce		json
//	@Param			searchString	query		string	false	"Name containment filter"
//	@Param			genreId			query		int		false	"Genre filter"
//	@Param			sortField		query		string	false	"Sort field"	Enums(Name, Year Produced, Price, Genre)
//	@Param			sortDirection	query		string	false	"Sort direction"	Enums(asc, desc)
//	@Param			actionButton	query		string	false	"Clicked column heading"
//	@Param			page			query		int		false	"Page number"
//	@Param			pageSize		query		int		false	"Page size"
//	@Success		200				{object}	listEnvelope[models.Album]
//	@Security		BearerAuth
//	@Router			/albums [get]
func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	filter := store.AlbumFilter{
		SearchString: r.URL.Query().Get("searchString"),
		GenreID:      idQuery(r, "genreId"),
	}
	page, res, applied, err := h.svc.ListAlbums(r.Context(), h.listQuery(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(page, res, applied))
}

// GetAlbum handles GET /api/albums/{id}.
func (h *Handler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	a, err := h.svc.GetAlbum(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreateAlbum handles POST /api/albums.
func (h *Handler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var a models.Album
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.CreateAlbum(r.Context(), &a); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.svc.GetAlbum(r.Context(), a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAlbum handles PUT /api/albums/{id}.
func (h *Handler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var a models.Album
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	a.ID = id
	if err := h.svc.UpdateAlbum(r.Context(), &a); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.svc.GetAlbum(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAlbum handles DELETE /api/albums/{id}. Version token in
// If-Match; an album with songs blocks with 409.
func (h *Handler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.DeleteAlbum(r.Context(), id, ifMatchToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
