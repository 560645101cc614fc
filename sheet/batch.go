package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Batch is the set of rows handed to a persistence callback on commit.
type Batch[R Row] struct {
	Created []R
	Updated []R
	Deleted []R
}

// IsEmpty reports whether there is nothing to persist.
func (b Batch[R]) IsEmpty() bool {
	return b.Len() == 0
}

// Len returns the total number of rows across the three change sets.
func (b Batch[R]) Len() int {
	return len(b.Created) + len(b.Updated) + len(b.Deleted)
}

// IDs returns the row ids of one change set.
func (b Batch[R]) IDs(kind OpKind) []string {
	var rows []R
	switch kind {
	case OpCreate:
		rows = b.Created
	case OpUpdate:
		rows = b.Updated
	case OpDelete:
		rows = b.Deleted
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.RowID()
	}
	return ids
}

func (b Batch[R]) String() string {
	return fmt.Sprintf("%d created, %d updated, %d deleted", len(b.Created), len(b.Updated), len(b.Deleted))
}

// PersistFunc writes a batch to the backing store. It is called without the tracker
// lock held, so edits may continue while it runs.
type PersistFunc[R Row] func(ctx context.Context, batch Batch[R]) error

// RowFailure records one row that could not be persisted.
type RowFailure struct {
	ID   string
	Kind OpKind
	Err  error
}

func (f RowFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", strings.ToLower(string(f.Kind)), f.ID, f.Err)
}

func (f RowFailure) Unwrap() error {
	return f.Err
}

// BatchError is returned by a PersistFunc when some rows of a batch failed.
type BatchError struct {
	Failures []RowFailure
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		return "failed to persist 1 row: " + e.Failures[0].Error()
	}
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("failed to persist %d rows: %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Add records a failure; nil errors are ignored.
func (e *BatchError) Add(id string, kind OpKind, err error) {
	if err == nil {
		return
	}
	e.Failures = append(e.Failures, RowFailure{ID: id, Kind: kind, Err: err})
}

// OrNil returns e as an error, or nil when nothing failed.
func (e *BatchError) OrNil() error {
	if e == nil || len(e.Failures) == 0 {
		return nil
	}
	return e
}

func (e *BatchError) failedIDs(kind OpKind) idSet {
	ids := newIDSet()
	for _, f := range e.Failures {
		if f.Kind == kind {
			ids.add(f.ID)
		}
	}
	return ids
}

// failedSets extracts per-kind failed ids from a persist error.
func failedSets(err error) (created, updated, deleted idSet) {
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		return newIDSet(), newIDSet(), newIDSet()
	}
	return batchErr.failedIDs(OpCreate), batchErr.failedIDs(OpUpdate), batchErr.failedIDs(OpDelete)
}
