package listquery

import "strings"

// Filters accumulates WHERE predicates and counts how many independent
// filter parameters were applied. The count feeds the UI filter badge.
type Filters struct {
	clauses []string
	args    []any
	applied int
}

// Equal adds an exact-match predicate, typically a foreign-key filter.
func (f *Filters) Equal(expr string, v any) {
	f.clauses = append(f.clauses, expr+" = ?")
	f.args = append(f.args, v)
	f.applied++
}

// ContainsFold adds a case-insensitive containment predicate. Both
// sides are uppercased before comparison; empty search text is a no-op.
func (f *Filters) ContainsFold(expr, search string) {
	if search == "" {
		return
	}
	f.clauses = append(f.clauses, "instr(upper("+expr+"), upper(?)) > 0")
	f.args = append(f.args, search)
	f.applied++
}

// ContainsFoldAny matches when any of the expressions contains the
// search text, e.g. a name search over last and first name. It counts
// as a single applied filter.
func (f *Filters) ContainsFoldAny(search string, exprs ...string) {
	if search == "" || len(exprs) == 0 {
		return
	}
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = "instr(upper(" + expr + "), upper(?)) > 0"
		f.args = append(f.args, search)
	}
	f.clauses = append(f.clauses, "("+strings.Join(parts, " OR ")+")")
	f.applied++
}

// Exists adds a correlated EXISTS predicate with one bound argument,
// used for filtering on the far side of an association.
func (f *Filters) Exists(subquery string, v any) {
	f.clauses = append(f.clauses, "EXISTS ("+subquery+")")
	f.args = append(f.args, v)
	f.applied++
}

// Where returns the assembled WHERE clause (or the empty string) and
// its arguments in binding order.
func (f *Filters) Where() (string, []any) {
	if len(f.clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(f.clauses, " AND "), f.args
}

// Applied returns the number of filter parameters in effect.
func (f *Filters) Applied() int {
	return f.applied
}
