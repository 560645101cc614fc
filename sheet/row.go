// Package sheet tracks staged edits to an editable grid of rows.
//
// A Tracker owns the displayed row collection and a baseline snapshot of what the
// server last confirmed. Grid edits arrive as structural operations (create, update,
// delete over a row range); the tracker classifies them into three id sets and, on
// commit, hands the matching rows to a persistence callback as a single Batch.
//
// Deleted rows are not removed from the display until they are committed. They stay
// in place as tombstones so the grid can render them with a deleted style.
package sheet

import (
	"github.com/charmbracelet/log"
	"github.com/tiendc/go-deepcopy"
)

// Row is any record with a stable identifier. Identity, not field equality, is what
// the tracker uses to follow a row across edits.
type Row interface {
	RowID() string
}

// State is the rendering state of a row in the displayed collection.
type State int

const (
	Unchanged State = iota
	Created
	Updated
	Deleted
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// Entry wraps a displayed row with its state. Tombstones carry State Deleted.
type Entry[R Row] struct {
	Row   R
	State State
}

// Active reports whether the entry is a live row rather than a tombstone.
func (e Entry[R]) Active() bool {
	return e.State != Deleted
}

type idSet map[string]struct{}

func newIDSet(ids ...string) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) add(id string) {
	s[id] = struct{}{}
}

func (s idSet) remove(id string) {
	delete(s, id)
}

func (s idSet) clear() {
	clear(s)
}

// cloneRows deep copies rows so the baseline never aliases slices or maps held by
// the displayed collection.
func cloneRows[R Row](rows []R) []R {
	if rows == nil {
		return nil
	}
	out := make([]R, 0, len(rows))
	if err := deepcopy.Copy(&out, &rows); err != nil {
		log.Warn("Deep copy of rows failed, falling back to shallow copy", "error", err)
		out = append(out[:0], rows...)
	}
	return out
}

func indexByID[R Row](rows []R) map[string]R {
	index := make(map[string]R, len(rows))
	for _, row := range rows {
		index[row.RowID()] = row
	}
	return index
}

func indexOf[R Row](rows []R, id string) int {
	for i, row := range rows {
		if row.RowID() == id {
			return i
		}
	}
	return -1
}
