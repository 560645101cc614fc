package sheet

import (
	"slices"
	"sort"

	"github.com/charmbracelet/log"
)

// EqualFunc reports whether two versions of the same row carry the same values.
type EqualFunc[R Row] func(a, b R) bool

// Reconcile replays an edited copy of the rows against t as the single-row edits a
// grid would emit: deletions of rows missing from edited, updates of rows whose values
// changed, then appends for rows t has never seen. A tombstone that reappears in
// edited is reverted before it is compared. It returns the number of edits applied.
func Reconcile[R Row](t *Tracker[R], edited []R, equal EqualFunc[R]) int {
	wanted := indexByID(edited)
	applied := 0

	for _, row := range t.Rows() {
		id := row.RowID()
		if _, ok := wanted[id]; ok || t.State(id) == Deleted {
			continue
		}
		current := t.Rows()
		i := indexOf(current, id)
		if i < 0 {
			continue
		}
		next := slices.Delete(current, i, i+1)
		t.ApplyOperations(next, []Operation{Delete(i, i+1)})
		applied++
	}

	for _, row := range edited {
		id := row.RowID()
		if t.State(id) == Deleted {
			t.Revert(id)
		}
		current := t.Rows()
		i := indexOf(current, id)
		if i < 0 || equal(current[i], row) {
			continue
		}
		current[i] = row
		t.ApplyOperations(current, []Operation{Update(i, i+1)})
		applied++
	}

	for _, row := range edited {
		current := t.Rows()
		if indexOf(current, row.RowID()) >= 0 {
			continue
		}
		n := len(current)
		t.ApplyOperations(append(current, row), []Operation{Create(n, n+1)})
		applied++
	}

	log.Debug("Reconciled edited rows", "edits", applied)
	return applied
}

// Drift lists the ids that differ between an older snapshot and a fresh one.
type Drift struct {
	Created []string
	Updated []string
	Deleted []string
}

// IsEmpty reports whether the snapshots match.
func (d Drift) IsEmpty() bool {
	return len(d.Created)+len(d.Updated)+len(d.Deleted) == 0
}

// Compare reports how fresh differs from old.
func Compare[R Row](old, fresh []R, equal EqualFunc[R]) Drift {
	var drift Drift
	before := indexByID(old)
	after := indexByID(fresh)

	for id, row := range after {
		prev, ok := before[id]
		switch {
		case !ok:
			drift.Created = append(drift.Created, id)
		case !equal(prev, row):
			drift.Updated = append(drift.Updated, id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			drift.Deleted = append(drift.Deleted, id)
		}
	}

	sort.Strings(drift.Created)
	sort.Strings(drift.Updated)
	sort.Strings(drift.Deleted)
	return drift
}
