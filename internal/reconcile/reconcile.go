// Package reconcile computes add/remove deltas for many-to-many
// assignment widgets (checkbox lists and dual listboxes). The caller
// parses and validates IDs before invoking; this package only compares
// set membership.
package reconcile

// Delta holds the associations to create and the existing associations
// to remove so that the final set equals the desired selection.
type Delta[A any] struct {
	ToAdd    []A
	ToRemove []A
}

// Empty reports whether the delta changes nothing.
func (d Delta[A]) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Assignments walks the full candidate universe and compares membership
// in the desired selection against the current associations:
//
//   - selected and not associated: build a new association
//   - associated and not selected: mark the existing one for removal
//   - otherwise: no change
//
// An empty desired selection clears every current association. IDs in
// desired that are not part of universe are ignored, so the final
// associated set is exactly desired ∩ universe.
func Assignments[ID comparable, A any](
	desired []ID,
	universe []ID,
	current []A,
	idOf func(A) ID,
	build func(ID) A,
) Delta[A] {
	var delta Delta[A]

	currentByID := make(map[ID]A, len(current))
	for _, a := range current {
		currentByID[idOf(a)] = a
	}

	if len(desired) == 0 {
		for _, id := range universe {
			if a, ok := currentByID[id]; ok {
				delta.ToRemove = append(delta.ToRemove, a)
			}
		}
		return delta
	}

	wanted := make(map[ID]struct{}, len(desired))
	for _, id := range desired {
		wanted[id] = struct{}{}
	}

	for _, id := range universe {
		_, isSelected := wanted[id]
		existing, isAssigned := currentByID[id]

		switch {
		case isSelected && !isAssigned:
			delta.ToAdd = append(delta.ToAdd, build(id))
		case !isSelected && isAssigned:
			delta.ToRemove = append(delta.ToRemove, existing)
		}
	}
	return delta
}
