package arga

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/zenibako/arga-golang/sheet"
)

// ErrCommitDeclined is returned by Session.Commit when the confirmer says no.
var ErrCommitDeclined = errors.New("commit declined")

// SessionConfig wires a tracker to a remote row collection.
type SessionConfig[R sheet.Row] struct {
	Name     string // cache file prefix
	CacheDir string // empty disables the baseline cache
	Load     func(ctx context.Context) ([]R, error)
	Persist  sheet.PersistFunc[R]
	Equal    sheet.EqualFunc[R]
	WithID   func(row R, id string) R // copies row under a new id, for Duplicate
	Policy   sheet.FailurePolicy
}

// Session is one editing session over a remote row collection.
type Session[R sheet.Row] struct {
	cfg       SessionConfig[R]
	tracker   *sheet.Tracker[R]
	confirmer Confirmer
	resolver  sheet.Resolver[R]
}

func NewSession[R sheet.Row](cfg SessionConfig[R]) *Session[R] {
	return &Session[R]{
		cfg:     cfg,
		tracker: sheet.New[R](nil, sheet.WithFailurePolicy(cfg.Policy)),
	}
}

// SessionOptions configures the ready-made sessions.
type SessionOptions struct {
	CacheDir    string
	Concurrency int
	Policy      sheet.FailurePolicy
}

// NewUserTaxaSession edits the rows of the user taxa list listID.
func NewUserTaxaSession(c *Client, listID string, opts SessionOptions) *Session[UserTaxon] {
	return NewSession(SessionConfig[UserTaxon]{
		Name:     "user_taxa_" + listID,
		CacheDir: opts.CacheDir,
		Load: func(ctx context.Context) ([]UserTaxon, error) {
			return c.AllUserTaxaItems(ctx, listID)
		},
		Persist: NewPersister(UserTaxonOps(c, listID), opts.Concurrency),
		Equal:   Same[UserTaxon],
		WithID: func(t UserTaxon, id string) UserTaxon {
			t.ID = id
			return t
		},
		Policy: opts.Policy,
	})
}

// NewAttributeSession edits the attribute definitions.
func NewAttributeSession(c *Client, opts SessionOptions) *Session[Attribute] {
	return NewSession(SessionConfig[Attribute]{
		Name:     "attributes",
		CacheDir: opts.CacheDir,
		Load:     c.AllAttributes,
		Persist:  NewPersister(AttributeOps(c), opts.Concurrency),
		Equal:    Same[Attribute],
		WithID: func(a Attribute, id string) Attribute {
			a.ID = id
			return a
		},
		Policy: opts.Policy,
	})
}

// SetConfirmer sets who approves a commit. Without one every commit proceeds.
func (s *Session[R]) SetConfirmer(c Confirmer) {
	s.confirmer = c
}

// SetResolver sets who resolves conflicts. Without one staged edits win.
func (s *Session[R]) SetResolver(r sheet.Resolver[R]) {
	s.resolver = r
}

func (s *Session[R]) Tracker() *sheet.Tracker[R] {
	return s.tracker
}

// Load fetches the rows and makes them the baseline. When a cached baseline from an
// earlier session exists, the returned drift lists what changed on the server since.
func (s *Session[R]) Load(ctx context.Context) (sheet.Drift, error) {
	rows, err := s.cfg.Load(ctx)
	if err != nil {
		return sheet.Drift{}, fmt.Errorf("failed to load %s: %w", s.cfg.Name, err)
	}

	var drift sheet.Drift
	if s.cfg.CacheDir != "" {
		var cached []R
		if path, err := LoadLatestBaseline(s.cfg.CacheDir, s.cfg.Name, &cached); err == nil {
			drift = sheet.Compare(cached, rows, s.cfg.Equal)
			if !drift.IsEmpty() {
				log.Warn("Server rows changed since the last session", "cache", path,
					"created", len(drift.Created), "updated", len(drift.Updated), "deleted", len(drift.Deleted))
			}
		} else {
			log.Debug("No cached baseline", "name", s.cfg.Name, "reason", err)
		}
	}

	s.tracker.Initialize(rows)
	log.Infof("Loaded %d rows for %s", len(rows), s.cfg.Name)
	return drift, nil
}

// Sync stages the differences between edited and the displayed rows.
func (s *Session[R]) Sync(edited []R) int {
	return sheet.Reconcile(s.tracker, edited, s.cfg.Equal)
}

// Append stages rows as new rows at the end of the collection. Rows without an id get
// a fresh one.
func (s *Session[R]) Append(rows ...R) {
	if len(rows) == 0 {
		return
	}
	rows = slices.Clone(rows)
	for i, r := range rows {
		if r.RowID() == "" && s.cfg.WithID != nil {
			rows[i] = s.cfg.WithID(r, uuid.NewString())
		}
	}
	current := s.tracker.Rows()
	n := len(current)
	s.tracker.ApplyOperations(append(current, rows...), []sheet.Operation{sheet.Create(n, n+len(rows))})
}

// Duplicate stages a copy of the row id, under a fresh id, right after it.
func (s *Session[R]) Duplicate(id string) (R, error) {
	var zero R
	if s.cfg.WithID == nil {
		return zero, fmt.Errorf("rows of %s cannot be duplicated", s.cfg.Name)
	}

	current := s.tracker.Rows()
	i := slices.IndexFunc(current, func(r R) bool { return r.RowID() == id })
	if i < 0 || s.tracker.State(id) == sheet.Deleted {
		return zero, fmt.Errorf("no row %s to duplicate", id)
	}

	dup := s.cfg.WithID(current[i], uuid.NewString())
	s.tracker.ApplyOperations(slices.Insert(current, i+1, dup), []sheet.Operation{sheet.Create(i+1, i+2)})
	return dup, nil
}

// Remove stages the rows with the given ids for deletion.
func (s *Session[R]) Remove(ids ...string) error {
	for _, id := range ids {
		current := s.tracker.Rows()
		i := slices.IndexFunc(current, func(r R) bool { return r.RowID() == id })
		if i < 0 {
			return fmt.Errorf("no row %s to remove", id)
		}
		if s.tracker.State(id) == sheet.Deleted {
			continue
		}
		s.tracker.ApplyOperations(slices.Delete(current, i, i+1), []sheet.Operation{sheet.Delete(i, i+1)})
	}
	return nil
}

// Cancel drops every staged edit.
func (s *Session[R]) Cancel() {
	s.tracker.Cancel()
}

// Commit persists the staged edits. It refetches the rows first and settles conflicts
// with the resolver, asks the confirmer, commits, then reloads the rows and caches the
// new baseline.
func (s *Session[R]) Commit(ctx context.Context) (sheet.CommitResult[R], error) {
	if !s.tracker.HasChanges() {
		log.Info("Nothing to commit")
		return sheet.CommitResult[R]{}, nil
	}

	fresh, err := s.cfg.Load(ctx)
	if err != nil {
		return sheet.CommitResult[R]{}, fmt.Errorf("failed to refetch %s before commit: %w", s.cfg.Name, err)
	}
	if conflicts := sheet.FindConflicts(s.tracker, fresh, s.cfg.Equal); len(conflicts) > 0 {
		if s.resolver == nil {
			log.Warnf("%d rows changed on the server since loading, keeping staged edits", len(conflicts))
		} else {
			choices, err := s.resolver.ResolveConflicts(ctx, conflicts)
			if err != nil {
				return sheet.CommitResult[R]{}, fmt.Errorf("failed to resolve conflicts: %w", err)
			}
			sheet.ApplyResolutions(s.tracker, conflicts, choices)
		}
	}

	pending := s.tracker.Pending()
	if pending.IsEmpty() {
		log.Info("Nothing left to commit after resolving conflicts")
		s.refresh(ctx)
		return sheet.CommitResult[R]{}, nil
	}
	if s.confirmer != nil {
		ok, err := s.confirmer.ConfirmCommit(ctx, pending.String())
		if err != nil {
			return sheet.CommitResult[R]{}, err
		}
		if !ok {
			return sheet.CommitResult[R]{Batch: pending}, ErrCommitDeclined
		}
	}

	result, commitErr := s.tracker.Commit(ctx, s.cfg.Persist)
	if errors.Is(commitErr, sheet.ErrCommitInProgress) {
		return result, commitErr
	}

	s.refresh(ctx)
	return result, commitErr
}

// refresh reloads the rows after a commit and caches the baseline. Rows still staged
// after a failed commit keep the post-commit baseline: a reload would overwrite them.
func (s *Session[R]) refresh(ctx context.Context) {
	if s.tracker.HasChanges() {
		log.Info("Edits still staged, skipping reload", "name", s.cfg.Name)
	} else if rows, err := s.cfg.Load(ctx); err != nil {
		log.Warn("Failed to reload rows after commit", "name", s.cfg.Name, "error", err)
	} else {
		s.tracker.Initialize(rows)
	}

	if s.cfg.CacheDir == "" {
		return
	}
	if _, err := SaveBaseline(s.cfg.CacheDir, s.cfg.Name, s.tracker.Baseline()); err != nil {
		log.Warn("Failed to cache baseline", "error", err)
	}
}
