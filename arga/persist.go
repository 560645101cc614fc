package arga

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/zenibako/arga-golang/sheet"
)

const defaultConcurrency = 4

var errUnsupported = errors.New("operation not supported for this row type")

// RowOps are the per-row API calls behind a persister.
type RowOps[R sheet.Row] struct {
	Create func(ctx context.Context, row R) error
	Update func(ctx context.Context, row R) error
	Delete func(ctx context.Context, row R) error
}

// NewPersister returns a sheet.PersistFunc that issues one API call per row, at most
// concurrency at a time. Deletions go first, then updates, then creations. Every
// failure is logged and collected into a *sheet.BatchError; one failed row never stops
// the others.
func NewPersister[R sheet.Row](ops RowOps[R], concurrency int) sheet.PersistFunc[R] {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	return func(ctx context.Context, batch sheet.Batch[R]) error {
		var mu sync.Mutex
		batchErr := &sheet.BatchError{}

		run := func(kind sheet.OpKind, rows []R, op func(context.Context, R) error) {
			var g errgroup.Group
			g.SetLimit(concurrency)
			for _, row := range rows {
				g.Go(func() error {
					err := errUnsupported
					if op != nil {
						err = op(ctx, row)
					}
					if err != nil {
						log.Warn("Failed to persist row", "op", kind, "id", row.RowID(), "error", err)
						mu.Lock()
						batchErr.Add(row.RowID(), kind, err)
						mu.Unlock()
						return nil
					}
					log.Debug("Persisted row", "op", kind, "id", row.RowID())
					return nil
				})
			}
			// rows report their own failures, Wait never returns one
			_ = g.Wait()
		}

		run(sheet.OpDelete, batch.Deleted, ops.Delete)
		run(sheet.OpUpdate, batch.Updated, ops.Update)
		run(sheet.OpCreate, batch.Created, ops.Create)

		sort.Slice(batchErr.Failures, func(i, j int) bool {
			a, b := batchErr.Failures[i], batchErr.Failures[j]
			if a.Kind != b.Kind {
				return a.Kind < b.Kind
			}
			return a.ID < b.ID
		})
		if len(batchErr.Failures) > 0 {
			log.Warnf("%d of %d rows failed to persist", len(batchErr.Failures), batch.Len())
		}
		return batchErr.OrNil()
	}
}

// UserTaxonOps persists rows of the user taxa list listID. Created rows without a
// list id are assigned to listID.
func UserTaxonOps(c *Client, listID string) RowOps[UserTaxon] {
	return RowOps[UserTaxon]{
		Create: func(ctx context.Context, t UserTaxon) error {
			if t.TaxaListsID == "" {
				t.TaxaListsID = listID
			}
			_, err := c.CreateUserTaxon(ctx, t)
			return err
		},
		Update: func(ctx context.Context, t UserTaxon) error {
			_, err := c.UpdateUserTaxon(ctx, t)
			return err
		},
		Delete: func(ctx context.Context, t UserTaxon) error {
			return c.DeleteUserTaxon(ctx, t.ID)
		},
	}
}

// AttributeOps persists attribute definitions.
func AttributeOps(c *Client) RowOps[Attribute] {
	return RowOps[Attribute]{
		Create: func(ctx context.Context, a Attribute) error {
			_, err := c.CreateAttribute(ctx, a)
			return err
		},
		Update: func(ctx context.Context, a Attribute) error {
			_, err := c.UpdateAttribute(ctx, a)
			return err
		},
		Delete: func(ctx context.Context, a Attribute) error {
			return c.DeleteAttribute(ctx, a.ID)
		},
	}
}
