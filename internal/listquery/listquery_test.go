package listquery

import (
	"net/url"
	"testing"
)

var testOptions = []SortOption{
	{Name: "Musician", Expr: "m.last_name", TieBreak: []string{"m.first_name"}, TieFollows: true},
	{Name: "Phone", Expr: "m.phone", TieBreak: []string{"m.last_name"}},
	{Name: "Age", Expr: "m.dob", Invert: true},
}

func TestFromValues(t *testing.T) {
	v := url.Values{}
	v.Set("sortField", "Phone")
	v.Set("sortDirection", "desc")
	v.Set("actionButton", "Age")
	v.Set("page", "3")
	v.Set("pageSize", "25")

	q := FromValues(v, 10, 100)
	if q.SortField != "Phone" || q.SortDirection != Desc || q.ActionButton != "Age" {
		t.Errorf("parsed = %+v", q)
	}
	if q.Page != 3 || q.PageSize != 25 {
		t.Errorf("page = %d size = %d", q.Page, q.PageSize)
	}
}

func TestFromValuesDefaults(t *testing.T) {
	q := FromValues(url.Values{}, 10, 100)
	if q.Page != 1 || q.PageSize != 10 {
		t.Errorf("defaults: page = %d size = %d", q.Page, q.PageSize)
	}
	if q.SortDirection != Asc {
		t.Errorf("direction = %q, want asc", q.SortDirection)
	}
}

func TestFromValuesCapsPageSize(t *testing.T) {
	v := url.Values{}
	v.Set("pageSize", "9999")
	q := FromValues(v, 10, 100)
	if q.PageSize != 100 {
		t.Errorf("pageSize = %d, want 100", q.PageSize)
	}
}

func TestFromValuesIgnoresGarbage(t *testing.T) {
	v := url.Values{}
	v.Set("page", "-4")
	v.Set("pageSize", "banana")
	q := FromValues(v, 10, 100)
	if q.Page != 1 || q.PageSize != 10 {
		t.Errorf("page = %d size = %d", q.Page, q.PageSize)
	}
}

func TestResolveSortDefault(t *testing.T) {
	q := Query{Page: 2, PageSize: 10}
	res := ResolveSort(q, testOptions, "Musician")
	if res.SortField != "Musician" || res.SortDirection != Asc {
		t.Errorf("resolved = %+v", res)
	}
	if res.Page != 2 {
		t.Errorf("page = %d, want 2 (no action, page preserved)", res.Page)
	}
}

func TestResolveSortToggleFlipsDirection(t *testing.T) {
	q := Query{SortField: "Musician", SortDirection: Asc, ActionButton: "Musician", Page: 4}
	res := ResolveSort(q, testOptions, "Musician")
	if res.SortDirection != Desc {
		t.Errorf("direction = %q, want desc after toggling current field", res.SortDirection)
	}
	if res.Page != 1 {
		t.Errorf("page = %d, want reset to 1 on sort action", res.Page)
	}

	// Toggling again returns to ascending.
	q = Query{SortField: "Musician", SortDirection: Desc, ActionButton: "Musician", Page: 1}
	res = ResolveSort(q, testOptions, "Musician")
	if res.SortDirection != Asc {
		t.Errorf("direction = %q, want asc after second toggle", res.SortDirection)
	}
}

func TestResolveSortSwitchFieldResetsAscending(t *testing.T) {
	q := Query{SortField: "Musician", SortDirection: Desc, ActionButton: "Phone", Page: 4}
	res := ResolveSort(q, testOptions, "Musician")
	if res.SortField != "Phone" {
		t.Errorf("field = %q, want Phone", res.SortField)
	}
	if res.SortDirection != Asc {
		t.Errorf("direction = %q, want asc when switching fields", res.SortDirection)
	}
	if res.Page != 1 {
		t.Errorf("page = %d, want 1", res.Page)
	}
}

func TestResolveSortUnknownActionKeepsState(t *testing.T) {
	q := Query{SortField: "Phone", SortDirection: Desc, ActionButton: "Filter", Page: 4}
	res := ResolveSort(q, testOptions, "Musician")
	if res.SortField != "Phone" || res.SortDirection != Desc {
		t.Errorf("resolved = %+v, want sort state untouched", res)
	}
	if res.Page != 1 {
		t.Errorf("page = %d, want 1 (any action resets the page)", res.Page)
	}
}

func TestResolveSortUnknownFieldFallsBack(t *testing.T) {
	q := Query{SortField: "Bogus", Page: 1}
	res := ResolveSort(q, testOptions, "Musician")
	if res.SortField != "Musician" {
		t.Errorf("field = %q, want default", res.SortField)
	}
}

func TestOrderByTieBreakStaysAscending(t *testing.T) {
	q := Query{SortField: "Phone", SortDirection: Desc}
	res := ResolveSort(q, testOptions, "Musician")
	want := "m.phone DESC, m.last_name ASC"
	if res.OrderBy != want {
		t.Errorf("orderBy = %q, want %q", res.OrderBy, want)
	}
}

func TestOrderByTieFollows(t *testing.T) {
	q := Query{SortField: "Musician", SortDirection: Desc}
	res := ResolveSort(q, testOptions, "Musician")
	want := "m.last_name DESC, m.first_name DESC"
	if res.OrderBy != want {
		t.Errorf("orderBy = %q, want %q", res.OrderBy, want)
	}
}

func TestOrderByInvert(t *testing.T) {
	// Ascending age means descending date of birth.
	q := Query{SortField: "Age", SortDirection: Asc}
	res := ResolveSort(q, testOptions, "Musician")
	want := "m.dob DESC"
	if res.OrderBy != want {
		t.Errorf("orderBy = %q, want %q", res.OrderBy, want)
	}

	q.SortDirection = Desc
	res = ResolveSort(q, testOptions, "Musician")
	want = "m.dob ASC"
	if res.OrderBy != want {
		t.Errorf("orderBy = %q, want %q", res.OrderBy, want)
	}
}

func TestContainsFold(t *testing.T) {
	cases := []struct {
		haystack, needle string
		want             bool
	}{
		{"Rocket Food", "ROCK", true},
		{"Rocket Food", "rock", true},
		{"Rocket Food", "KET F", true},
		{"Rocket Food", "", true},
		{"Jazz", "rock", false},
	}
	for _, tc := range cases {
		if got := ContainsFold(tc.haystack, tc.needle); got != tc.want {
			t.Errorf("ContainsFold(%q, %q) = %v, want %v", tc.haystack, tc.needle, got, tc.want)
		}
	}
}

func TestDirectionFlip(t *testing.T) {
	if Asc.Flip() != Desc || Desc.Flip() != Asc {
		t.Error("Flip is not an involution")
	}
}
