// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

// Package diff classifies every item id found on either replica into exactly
// one sync-plan category by comparing local fingerprints against the remote
// index. It is purely in-memory: no storage layer or logger is required
// because the operation is stateless and produces no side effects.
package diff

import (
	"context"

	"github.com/clipvault/clipsync/models"
)

// Engine is the stateless fingerprint comparator.
type Engine struct{}

// New constructs an Engine ready for use. Because Build is a stateless,
// in-memory operation, no dependencies are needed.
func New() *Engine {
	return &Engine{}
}

// Build classifies the union of ids found in local and remoteIdx.
//
// It builds an O(1) lookup index from the local slice, then makes three
// linear passes:
//
//   - Pass 1 (remote index items): items present remotely, whether or not
//     they also exist locally.
//   - Pass 2 (remote deleted-item ids): compacted remote tombstones that may
//     still have a live local copy.
//   - Pass 3 (local fingerprints): items the remote has never seen.
//
// remoteIdx may be nil (first sync against an empty remote): every live
// local item becomes an upload.
//
// Undelete-on-edit: when one side deleted an item and the other modified it,
// the deletion loses only to a strictly later modification; otherwise the
// deletion wins. Compacted remote tombstones carry no per-item time, so the
// index publish time stands in for it.
//
// ctx cancellation is checked at the start of each iteration so callers can
// abort early on large histories.
func (e *Engine) Build(ctx context.Context, local []models.Fingerprint, remoteIdx *models.RemoteIndex) (models.SyncPlan, error) {
	var plan models.SyncPlan

	localIndex := make(map[string]models.Fingerprint, len(local))
	for _, lfp := range local {
		localIndex[lfp.ID] = lfp
	}

	seen := make(map[string]bool)

	if remoteIdx != nil {
		// ── Pass 1: remote index entries ────────────────────────────────
		for _, rfp := range remoteIdx.Items {
			if err := ctx.Err(); err != nil {
				return models.SyncPlan{}, err
			}
			seen[rfp.ID] = true

			lfp, onLocal := localIndex[rfp.ID]
			if !onLocal {
				if rfp.Deleted {
					// Deleted remotely before this device ever saw it.
					plan.Unchanged++
				} else {
					plan.Download = append(plan.Download, rfp)
				}
				continue
			}

			switch {
			case lfp.Deleted && rfp.Deleted:
				// Both sides agree it is gone.
				plan.Unchanged++

			case lfp.Deleted && !rfp.Deleted:
				// Local tombstone vs remote live copy. The deletion loses
				// only to a strictly later remote modification.
				if rfp.Timestamp.After(lfp.Timestamp) {
					plan.Download = append(plan.Download, rfp)
				} else {
					plan.DeleteRemote = append(plan.DeleteRemote, lfp)
				}

			case !lfp.Deleted && rfp.Deleted:
				if lfp.Timestamp.After(rfp.Timestamp) {
					plan.Upload = append(plan.Upload, lfp)
				} else {
					plan.DeleteLocal = append(plan.DeleteLocal, lfp.ID)
				}

			case lfp.Checksum == rfp.Checksum:
				if lfp.Favorite != rfp.Favorite || lfp.Note != rfp.Note {
					// Content identical, metadata diverged: propagate the
					// later side without touching the payload. Ties go to
					// the remote copy so replicas converge.
					if lfp.Timestamp.After(rfp.Timestamp) {
						plan.FavoriteToRemote = append(plan.FavoriteToRemote, lfp)
					} else {
						plan.FavoriteToLocal = append(plan.FavoriteToLocal, rfp)
					}
				} else {
					plan.Unchanged++
				}

			default:
				plan.Conflicts = append(plan.Conflicts, models.ConflictPair{Local: lfp, Remote: rfp})
			}
		}

		// ── Pass 2: compacted remote tombstones ─────────────────────────
		for _, id := range remoteIdx.DeletedItems {
			if err := ctx.Err(); err != nil {
				return models.SyncPlan{}, err
			}
			if seen[id] {
				continue
			}
			seen[id] = true

			lfp, onLocal := localIndex[id]
			switch {
			case !onLocal, lfp.Deleted:
				plan.Unchanged++
			case lfp.Timestamp.After(remoteIdx.Timestamp):
				plan.Upload = append(plan.Upload, lfp)
			default:
				plan.DeleteLocal = append(plan.DeleteLocal, id)
			}
		}
	}

	// ── Pass 3: local-only fingerprints ─────────────────────────────────
	for _, lfp := range local {
		if err := ctx.Err(); err != nil {
			return models.SyncPlan{}, err
		}
		if seen[lfp.ID] {
			continue
		}

		if lfp.Deleted {
			// Created and tombstoned before the remote ever saw it.
			plan.Unchanged++
		} else {
			plan.Upload = append(plan.Upload, lfp)
		}
	}

	return plan, nil
}
