// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

// Package engine drives one bidirectional sync pass as a state machine:
// probe the remote, build the local candidate set, fetch the remote index,
// diff, upload, download, apply, publish. A pass is cooperatively sequential;
// only downloads fan out, with a fixed small bound.
package engine

import (
	"context"
	"time"

	"github.com/clipvault/clipsync/models"
)

// Syncer runs sync passes. Only one pass may be in flight at a time; a call
// while a pass is running returns ErrSyncInProgress and does nothing.
type Syncer interface {
	Sync(ctx context.Context) (models.SyncResult, error)
}

// SyncJob runs a Syncer periodically in the background.
type SyncJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}

// IndexManager fetches and publishes the remote index document.
type IndexManager interface {
	Fetch(ctx context.Context) (*models.RemoteIndex, error)
	Publish(ctx context.Context, idx *models.RemoteIndex) error
}

// Packager moves binary payloads between local files and remote archives.
type Packager interface {
	HashPayloads(item *models.HistoryItem) error
	PackAndUpload(ctx context.Context, item *models.HistoryItem) (*models.PackageDescriptor, error)
	Materialize(ctx context.Context, item *models.HistoryItem) ([]string, error)
}

// Planner classifies local fingerprints against the remote index.
type Planner interface {
	Build(ctx context.Context, local []models.Fingerprint, remoteIdx *models.RemoteIndex) (models.SyncPlan, error)
}

// ConflictResolver picks a winner for an item that diverged on both sides.
type ConflictResolver interface {
	Resolve(local, remote models.SyncItem) (models.SyncItem, models.ConflictInfo)
}
