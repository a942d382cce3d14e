package api

import (
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/models"
)

// listEnvelope frames a page with the resolved sort state and the
// number of applied filters, so clients can render the column headings
// and the filter badge without re-deriving them.
type listEnvelope[T any] struct {
	listquery.Page[T]
	SortField      string `json:"sortField,omitempty"`
	SortDirection  string `json:"sortDirection,omitempty"`
	FiltersApplied int    `json:"filtersApplied"`
}

func envelope[T any](page listquery.Page[T], res listquery.Resolved, applied int) listEnvelope[T] {
	if page.Items == nil {
		page.Items = []T{}
	}
	return listEnvelope[T]{
		Page:           page,
		SortField:      res.SortField,
		SortDirection:  string(res.SortDirection),
		FiltersApplied: applied,
	}
}

// musicianRequest is a musician body plus the checkbox selection of
// extra instruments.
type musicianRequest struct {
	models.Musician
	PlayIDs []int64 `json:"playIds"`
}

type assignInstrumentsRequest struct {
	InstrumentIDs []int64 `json:"instrumentIds"`
}

type assignPlayersRequest struct {
	MusicianIDs []int64 `json:"musicianIds"`
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// idQuery parses an optional integer query parameter into a filter
// pointer; absent or malformed values mean "no filter".
func idQuery(r *http.Request, name string) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil
	}
	return &id
}

// ifMatchToken decodes the version token from the If-Match header.
// Delete endpoints for versioned entities require it.
func ifMatchToken(r *http.Request) models.Version {
	raw := strings.Trim(r.Header.Get("If-Match"), `"`)
	if raw == "" {
		return nil
	}
	token, err := hex.DecodeString(raw)
	if err != nil {
		return nil
	}
	return token
}
