package sheet

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrCommitInProgress is returned by Commit while another commit is running.
var ErrCommitInProgress = errors.New("commit already in progress")

// FailurePolicy decides what happens to rows whose persistence failed.
type FailurePolicy int

const (
	// ResyncOnFailure clears every committed id and re-baselines regardless of
	// errors. A later refetch through Initialize corrects any drift.
	ResyncOnFailure FailurePolicy = iota
	// RetainFailed keeps rows named by a *BatchError staged so they can be retried.
	RetainFailed
)

// Option configures a Tracker.
type Option func(*options)

type options struct {
	policy FailurePolicy
}

// WithFailurePolicy sets how failed rows are handled after a commit.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *options) { o.policy = p }
}

// CommitResult describes a finished commit.
type CommitResult[R Row] struct {
	Batch    Batch[R]
	Failed   []RowFailure
	Retained bool // failed rows were kept staged
}

// Tracker owns the displayed rows of one grid and the staged changes against its
// baseline. All methods are safe for concurrent use.
type Tracker[R Row] struct {
	mu       sync.Mutex
	rows     []R
	baseline []R
	created  idSet
	updated  idSet
	deleted  idSet
	policy   FailurePolicy

	committing bool
	// ids in the batch currently being persisted
	flightCreated idSet
	flightUpdated idSet
	flightDeleted idSet
	// in-flight rows edited again while the commit runs
	restage idSet
}

// New returns a tracker whose live rows and baseline are rows.
func New[R Row](rows []R, opts ...Option) *Tracker[R] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Tracker[R]{
		rows:     cloneRows(rows),
		baseline: cloneRows(rows),
		created:  newIDSet(),
		updated:  newIDSet(),
		deleted:  newIDSet(),
		restage:  newIDSet(),
		policy:   o.policy,
	}
}

// Initialize replaces the live rows and the baseline with rows. It is ignored while a
// commit is in flight. Tracked sets are left alone: a background refresh syncs rows,
// it does not discard staged edits, so staged ids may point at rows the refresh
// overwrote.
func (t *Tracker[R]) Initialize(rows []R) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.committing {
		log.Debug("Ignoring row refresh while commit is in flight", "rows", len(rows))
		return
	}
	t.rows = cloneRows(rows)
	t.baseline = cloneRows(rows)
	if t.hasChangesLocked() {
		log.Warn("Rows refreshed while edits are staged",
			"created", len(t.created), "updated", len(t.updated), "deleted", len(t.deleted))
	}
}

// ApplyOperations classifies ops against the tracked sets and makes newRows, plus a
// tombstone for each staged deletion, the displayed collection.
func (t *Tracker[R]) ApplyOperations(newRows []R, ops []Operation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := slices.Clone(newRows)
	before := t.rows

	for _, op := range ops {
		switch op.Kind {
		case OpCreate:
			from, to := op.bounds(len(out))
			for _, row := range out[from:to] {
				t.created.add(row.RowID())
			}

		case OpUpdate:
			from, to := op.bounds(len(out))
			for _, row := range out[from:to] {
				id := row.RowID()
				if t.committing && (t.flightCreated.has(id) || t.flightUpdated.has(id)) {
					t.restage.add(id)
				}
				// redundant updates
				if t.created.has(id) || t.deleted.has(id) {
					continue
				}
				t.updated.add(id)
			}

		case OpDelete:
			from, to := op.bounds(len(before))
			kept := 0
			for _, row := range before[from:to] {
				id := row.RowID()
				t.updated.remove(id)
				t.restage.remove(id)

				if t.created.has(id) {
					t.created.remove(id)
					// never reached the server, nothing to delete
					if !t.flightCreated.has(id) {
						continue
					}
				}
				t.deleted.add(id)
				at := min(from+kept, len(out))
				out = slices.Insert(out, at, row)
				kept++
			}

		default:
			log.Warn("Ignoring unknown grid operation", "op", op.String())
		}
	}

	t.rows = out
	log.Debug("Applied grid operations", "ops", len(ops), "rows", len(out),
		"created", len(t.created), "updated", len(t.updated), "deleted", len(t.deleted))
}

// Cancel discards every staged change and restores the baseline.
func (t *Tracker[R]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = cloneRows(t.baseline)
	t.created.clear()
	t.updated.clear()
	t.deleted.clear()
	t.restage.clear()
}

// Revert undoes the staged change of a single row. A row that only exists locally is
// dropped; any other row goes back to its baseline version.
func (t *Tracker[R]) Revert(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.created.remove(id)
	t.updated.remove(id)
	t.deleted.remove(id)
	t.restage.remove(id)

	i := indexOf(t.rows, id)
	if i < 0 {
		return
	}
	if j := indexOf(t.baseline, id); j >= 0 {
		t.rows[i] = cloneRows(t.baseline[j : j+1])[0]
		return
	}
	t.rows = slices.Delete(t.rows, i, i+1)
}

// Commit persists the staged changes. The batch is computed from the rows displayed
// when Commit is called; edits made while persist runs are kept for the next commit.
// Afterwards committed deletions leave the display, the committed rows become the new
// baseline, and committed ids leave the tracked sets. The persist error, if any, is
// returned after re-baselining.
func (t *Tracker[R]) Commit(ctx context.Context, persist PersistFunc[R]) (CommitResult[R], error) {
	t.mu.Lock()
	if t.committing {
		t.mu.Unlock()
		return CommitResult[R]{}, ErrCommitInProgress
	}
	batch := t.pendingLocked()
	if batch.IsEmpty() {
		t.mu.Unlock()
		log.Debug("Nothing staged, skipping commit")
		return CommitResult[R]{Batch: batch}, nil
	}
	snapshot := cloneRows(t.rows)
	t.committing = true
	t.flightCreated = newIDSet(batch.IDs(OpCreate)...)
	t.flightUpdated = newIDSet(batch.IDs(OpUpdate)...)
	t.flightDeleted = newIDSet(batch.IDs(OpDelete)...)
	t.mu.Unlock()

	log.Info("Committing staged rows", "created", len(batch.Created), "updated", len(batch.Updated), "deleted", len(batch.Deleted))
	err := persist(ctx, batch)

	t.mu.Lock()
	defer t.mu.Unlock()

	result := CommitResult[R]{Batch: batch}
	failedCreated, failedUpdated, failedDeleted := newIDSet(), newIDSet(), newIDSet()
	if err != nil {
		var batchErr *BatchError
		if errors.As(err, &batchErr) {
			result.Failed = batchErr.Failures
		}
		if t.policy == RetainFailed {
			failedCreated, failedUpdated, failedDeleted = failedSets(err)
			result.Retained = len(result.Failed) > 0
		}
		log.Warn("Commit finished with errors", "error", err, "retained", result.Retained)
	}

	t.rebaselineLocked(snapshot, failedCreated, failedUpdated, failedDeleted)

	t.committing = false
	t.flightCreated, t.flightUpdated, t.flightDeleted = nil, nil, nil
	t.restage.clear()

	if err != nil {
		return result, err
	}
	log.Info("Commit complete", "rows", len(t.rows))
	return result, nil
}

func (t *Tracker[R]) rebaselineLocked(snapshot []R, failedCreated, failedUpdated, failedDeleted idSet) {
	previous := indexByID(t.baseline)

	baseline := make([]R, 0, len(snapshot))
	for _, row := range snapshot {
		id := row.RowID()
		switch {
		case t.flightDeleted.has(id):
			if failedDeleted.has(id) {
				if old, ok := previous[id]; ok {
					baseline = append(baseline, old)
				}
			}
		case t.flightCreated.has(id) && failedCreated.has(id):
			// never created on the server
		case t.flightUpdated.has(id) && failedUpdated.has(id):
			if old, ok := previous[id]; ok {
				baseline = append(baseline, old)
			}
		default:
			baseline = append(baseline, row)
		}
	}
	t.baseline = baseline

	rows := t.rows[:0:0]
	for _, row := range t.rows {
		id := row.RowID()
		if t.flightDeleted.has(id) && !failedDeleted.has(id) {
			continue
		}
		rows = append(rows, row)
	}
	t.rows = rows

	for id := range t.flightCreated {
		if !failedCreated.has(id) {
			t.created.remove(id)
		}
	}
	for id := range t.flightUpdated {
		if !failedUpdated.has(id) {
			t.updated.remove(id)
		}
	}
	for id := range t.flightDeleted {
		if !failedDeleted.has(id) {
			t.deleted.remove(id)
		}
	}

	for id := range t.restage {
		if indexOf(t.rows, id) < 0 || t.created.has(id) || t.deleted.has(id) {
			continue
		}
		t.updated.add(id)
	}
}

// Pending returns the rows that the next commit would persist.
func (t *Tracker[R]) Pending() Batch[R] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingLocked()
}

func (t *Tracker[R]) pendingLocked() Batch[R] {
	var batch Batch[R]
	for _, row := range cloneRows(t.rows) {
		id := row.RowID()
		switch {
		case t.created.has(id):
			batch.Created = append(batch.Created, row)
		case t.updated.has(id):
			batch.Updated = append(batch.Updated, row)
		case t.deleted.has(id):
			batch.Deleted = append(batch.Deleted, row)
		}
	}
	return batch
}

// Rows returns a copy of the displayed rows, tombstones included.
func (t *Tracker[R]) Rows() []R {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneRows(t.rows)
}

// Baseline returns a copy of the last confirmed rows.
func (t *Tracker[R]) Baseline() []R {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneRows(t.baseline)
}

// Entries returns the displayed rows with their rendering state.
func (t *Tracker[R]) Entries() []Entry[R] {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := cloneRows(t.rows)
	entries := make([]Entry[R], len(rows))
	for i, row := range rows {
		entries[i] = Entry[R]{Row: row, State: t.stateLocked(row.RowID())}
	}
	return entries
}

// State returns the rendering state of the row with the given id.
func (t *Tracker[R]) State(id string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked(id)
}

func (t *Tracker[R]) stateLocked(id string) State {
	switch {
	case t.deleted.has(id):
		return Deleted
	case t.created.has(id):
		return Created
	case t.updated.has(id):
		return Updated
	default:
		return Unchanged
	}
}

// ActiveCount returns the number of displayed rows that are not tombstones.
func (t *Tracker[R]) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, row := range t.rows {
		if !t.deleted.has(row.RowID()) {
			n++
		}
	}
	return n
}

func (t *Tracker[R]) CreatedIDs() []string { return t.sortedIDs(func() idSet { return t.created }) }
func (t *Tracker[R]) UpdatedIDs() []string { return t.sortedIDs(func() idSet { return t.updated }) }
func (t *Tracker[R]) DeletedIDs() []string { return t.sortedIDs(func() idSet { return t.deleted }) }

func (t *Tracker[R]) sortedIDs(set func() idSet) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := set()
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasChanges reports whether anything is staged.
func (t *Tracker[R]) HasChanges() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasChangesLocked()
}

func (t *Tracker[R]) hasChangesLocked() bool {
	return len(t.created)+len(t.updated)+len(t.deleted) > 0
}

// Committing reports whether a commit is in flight.
func (t *Tracker[R]) Committing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committing
}
