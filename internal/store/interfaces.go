package store

import (
	"context"
	"time"

	"github.com/clipvault/clipsync/models"
)

// HistoryStore is the local clipboard-history persistence contract the sync
// engine consumes. The engine is the exclusive writer during a pass.
type HistoryStore interface {
	// Save inserts or fully replaces the given items by id.
	Save(ctx context.Context, items ...*models.HistoryItem) error

	// Get returns the item with the given id, tombstoned or not.
	// Returns an error wrapping ErrItemNotFound if no row exists.
	Get(ctx context.Context, id string) (models.HistoryItem, error)

	// List returns all items. Tombstones are included only when
	// includeDeleted is true.
	List(ctx context.Context, includeDeleted bool) ([]models.HistoryItem, error)

	// SoftDelete tombstones the item and bumps its LastModified to at.
	// Never-synced items are hard-deleted instead: no other device has
	// seen them, so there is nothing to propagate.
	SoftDelete(ctx context.Context, id string, at time.Time) error

	// HardDelete removes the row entirely.
	HardDelete(ctx context.Context, id string) error

	// MarkSynced records that the given ids were confirmed present in a
	// published remote index at time at.
	MarkSynced(ctx context.Context, at time.Time, ids ...string) error

	// Close releases the underlying database handle.
	Close() error
}
