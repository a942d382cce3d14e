package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/store"
)

// ListPerformances handles GET /api/performances.
//
//	@Summary		List performances with paging, filtering, and sorting
//	@Tags			performances
//	@Produce		json
//	@Param			searchString	query		string	false	"Comments containment filter"
//	@Param			songId			query		int		false	"Song filter"
//	@Param			musicianId		query		int		false	"Musician filter"
//	@Param			instrumentId	query		int		false	"Instrument filter"
//	@Param			sortField		query		string	false	"Sort field"	Enums(Song, Musician, Instrument, Fee Paid)
//	@Param			sortDirection	query		string	false	"Sort direction"	Enums(asc, desc)
//	@Param			actionButton	query		string	false	"Clicked column heading"
//	@Param			page			query		int		false	"Page number"
//	@Param			pageSize		query		int		false	"Page size"
//	@Success		200				{object}	listEnvelope[models.Performance]
//	@Security		BearerAuth
//	@Router			/performances [get]
func (h *Handler) ListPerformances(w http.ResponseWriter, r *http.Request) {
	filter := store.PerformanceFilter{
		SearchString: r.URL.Query().Get("searchString"),
		SongID:       idQuery(r, "songId"),
		MusicianID:   idQuery(r, "musicianId"),
		InstrumentID: idQuery(r, "instrumentId"),
	}
	page, res, applied, err := h.svc.ListPerformances(r.Context(), h.listQuery(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(page, res, applied))
}

// GetPerformance handles GET /api/performances/{id}.
func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	p, err := h.svc.GetPerformance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePerformance handles POST /api/performances.
func (h *Handler) CreatePerformance(w http.ResponseWriter, r *http.Request) {
	var p models.Performance
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.CreatePerformance(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.svc.GetPerformance(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePerformance handles PUT /api/performances/{id}. The song
// cannot change; submit a new performance instead.
func (h *Handler) UpdatePerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var p models.Performance
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	p.ID = id
	if err := h.svc.UpdatePerformance(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.svc.GetPerformance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeletePerformance handles DELETE /api/performances/{id}. Version
// token in If-Match.
func (h *Handler) DeletePerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.DeletePerformance(r.Context(), id, ifMatchToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PerformanceSummary handles GET /api/reports/performance-summary,
// the per-musician fee aggregates.
func (h *Handler) PerformanceSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.PerformanceSummaries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []models.PerformanceSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": summaries})
}
