// Package listquery implements the request-scoped list pipeline shared by
// every paged endpoint: parse untrusted query parameters, build a filter
// predicate set, resolve a deterministic sort order, and slice the result
// into a page. Nothing in this package touches entity types; each endpoint
// supplies its own sortable-field table and filter bindings.
package listquery

import (
	"net/url"
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// ParseDirection normalises a raw parameter; anything but "desc" is Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// Query is the transient list request rebuilt from every incoming call.
// It is never persisted.
type Query struct {
	SortField     string
	SortDirection Direction
	ActionButton  string
	Page          int
	PageSize      int
}

// FromValues extracts the list parameters from a query string.
// Unknown parameters are ignored; absent numbers fall back to page 1
// and defaultSize, and pageSize is capped at maxSize.
func FromValues(v url.Values, defaultSize, maxSize int) Query {
	q := Query{
		SortField:     v.Get("sortField"),
		SortDirection: ParseDirection(v.Get("sortDirection")),
		ActionButton:  v.Get("actionButton"),
		Page:          1,
		PageSize:      defaultSize,
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(v.Get("pageSize")); err == nil && n > 0 {
		q.PageSize = n
	}
	if maxSize > 0 && q.PageSize > maxSize {
		q.PageSize = maxSize
	}
	return q
}

// SortOption declares one sortable column heading for an entity list.
type SortOption struct {
	// Name is the value carried by the action button and sortField
	// parameters, e.g. "Musician" or "Date Recorded".
	Name string
	// Expr is the SQL expression for the primary sort key.
	Expr string
	// Invert flips the applied direction, for columns whose natural
	// ascending order is a descending scan (Age sorts by DOB).
	Invert bool
	// TieBreak lists fixed secondary keys, applied ascending.
	TieBreak []string
	// TieFollows makes the tie-break keys follow the resolved
	// direction instead of staying ascending (person-name sorts).
	TieFollows bool
}

// Resolved is the outcome of sort resolution for one request.
type Resolved struct {
	SortField     string
	SortDirection Direction
	Page          int
	OrderBy       string // full SQL ORDER BY clause body
}

// ResolveSort interprets the action button against the sortable field
// set. Submitting an action resets the page to 1; an action naming the
// current sort field flips the direction, any other recognised field
// becomes the new sort field with direction reset to ascending.
func ResolveSort(q Query, options []SortOption, defaultField string) Resolved {
	field := q.SortField
	dir := q.SortDirection
	page := q.Page

	if find(options, field) == nil {
		field = defaultField
	}

	if q.ActionButton != "" {
		page = 1
		if find(options, q.ActionButton) != nil {
			if q.ActionButton == field {
				dir = dir.Flip()
			} else {
				field = q.ActionButton
				dir = Asc
			}
		}
	}

	opt := find(options, field)
	if opt == nil {
		// defaultField must always be in options; guard anyway.
		opt = &options[0]
		field = opt.Name
	}

	return Resolved{
		SortField:     field,
		SortDirection: dir,
		Page:          page,
		OrderBy:       orderBy(*opt, dir),
	}
}

func find(options []SortOption, name string) *SortOption {
	for i := range options {
		if options[i].Name == name {
			return &options[i]
		}
	}
	return nil
}

func orderBy(opt SortOption, dir Direction) string {
	effective := dir
	if opt.Invert {
		effective = effective.Flip()
	}
	parts := []string{opt.Expr + " " + sqlDir(effective)}
	tieDir := Asc
	if opt.TieFollows {
		tieDir = dir
	}
	for _, key := range opt.TieBreak {
		parts = append(parts, key+" "+sqlDir(tieDir))
	}
	return strings.Join(parts, ", ")
}

func sqlDir(d Direction) string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// ContainsFold reports whether needle occurs in haystack after
// uppercasing both sides. This is the exact matching rule used by the
// SQL predicates; in-memory callers must agree with it.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToUpper(haystack), strings.ToUpper(needle))
}
