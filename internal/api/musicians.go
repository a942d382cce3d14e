package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/musicservice"
	"github.com/starford/ensemble/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	svc         *musicservice.Service
	defaultSize int
	maxSize     int
}

// NewHandler creates a new Handler with the configured paging bounds.
func NewHandler(svc *musicservice.Service, defaultSize, maxSize int) *Handler {
	if defaultSize < 1 {
		defaultSize = 10
	}
	return &Handler{svc: svc, defaultSize: defaultSize, maxSize: maxSize}
}

func (h *Handler) listQuery(r *http.Request) listquery.Query {
	return listquery.FromValues(r.URL.Query(), h.defaultSize, h.maxSize)
}

// ListMusicians handles GET /api/musicians.
//
//	@Summary		List musicians with paging, filtering, and sorting
//	@Tags			musicians
//	@Produce		json
//	@Param			searchName			query		string	false	"Name containment filter"
//	@Param			searchPhone			query		string	false	"Phone containment filter"
//	@Param			instrumentId		query		int		false	"Primary instrument filter"
//	@Param			otherInstrumentId	query		int		false	"Plays-instrument filter"
//	@Param			sortField			query		string	false	"Sort field"	Enums(Musician, Phone, Age, Instruments)
//	@Param			sortDirection		query		string	false	"Sort direction"	Enums(asc, desc)
//	@Param			actionButton		query		string	false	"Clicked column heading"
//	@Param			page				query		int		false	"Page number"
//	@Param			pageSize			query		int		false	"Page size"
//	@Success		200					{object}	listEnvelope[models.Musician]
//	@Security		BearerAuth
//	@Router			/musicians [get]
func (h *Handler) ListMusicians(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.MusicianFilter{
		SearchName:        q.Get("searchName"),
		SearchPhone:       q.Get("searchPhone"),
		InstrumentID:      idQuery(r, "instrumentId"),
		OtherInstrumentID: idQuery(r, "otherInstrumentId"),
	}
	page, res, applied, err := h.svc.ListMusicians(r.Context(), h.listQuery(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(page, res, applied))
}

// GetMusician handles GET /api/musicians/{id}.
func (h *Handler) GetMusician(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	m, err := h.svc.GetMusician(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateMusician handles POST /api/musicians.
func (h *Handler) CreateMusician(w http.ResponseWriter, r *http.Request) {
	var req musicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.CreateMusician(r.Context(), &req.Musician, req.PlayIDs); err != nil {
		writeError(w, err)
		return
	}
	m, err := h.svc.GetMusician(r.Context(), req.Musician.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMusician handles PUT /api/musicians/{id}. The body carries the
// version token; a lost race returns 409 with the conflict report.
func (h *Handler) UpdateMusician(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req musicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	req.Musician.ID = id
	if err := h.svc.UpdateMusician(r.Context(), &req.Musician, req.PlayIDs); err != nil {
		writeError(w, err)
		return
	}
	m, err := h.svc.GetMusician(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMusician handles DELETE /api/musicians/{id}. The version token
// travels in the If-Match header.
func (h *Handler) DeleteMusician(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.DeleteMusician(r.Context(), id, ifMatchToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MusicianInstrumentOptions handles GET /api/musicians/{id}/instruments/options.
func (h *Handler) MusicianInstrumentOptions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	opts, err := h.svc.InstrumentOptionsFor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}

// AssignInstruments handles PUT /api/musicians/{id}/instruments.
func (h *Handler) AssignInstruments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req assignInstrumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.AssignInstruments(r.Context(), id, req.InstrumentIDs); err != nil {
		writeError(w, err)
		return
	}
	opts, err := h.svc.InstrumentOptionsFor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}
