// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

// Package filter applies the active sync-mode policy to the local item set
// and converts between the local storage shape and the wire shape.
package filter

import "github.com/clipvault/clipsync/models"

// Eligible returns the subset of items that may carry payload in a sync
// pass, plus the number of malformed items that were skipped.
//
// Predicate order: tombstone, favorites-only, type-allowed, size ceiling
// (ceilings apply to binary types only). An item failing a later check is
// excluded even if it passed earlier ones. A malformed item (missing id,
// unknown type) never aborts the pass; it is skipped and counted so the
// caller can surface the degradation.
//
// Tombstoned items are excluded here: deletions travel as fingerprints, not
// payload, and the engine collects them from the store separately.
func Eligible(items []models.HistoryItem, cfg models.SyncModeConfig) (kept []models.HistoryItem, skipped int) {
	kept = make([]models.HistoryItem, 0, len(items))

	for _, item := range items {
		if item.ID == "" || !item.Type.Valid() {
			skipped++
			continue
		}
		if item.Deleted {
			continue
		}
		if cfg.OnlyFavorites && !item.Favorite {
			continue
		}
		if !cfg.Allows(item.Type) {
			continue
		}
		if ceiling := cfg.SizeCeiling(item.Type); ceiling > 0 && item.Size > ceiling {
			continue
		}

		kept = append(kept, item)
	}

	return kept, skipped
}

// ToWire converts a local item into its wire shape. Local bookkeeping
// (payload paths, FromCloud, SyncedAt) is dropped; binary payloads are
// represented solely by the package descriptor.
func ToWire(item models.HistoryItem) models.SyncItem {
	return models.SyncItem{
		ID:           item.ID,
		Type:         item.Type,
		Value:        item.Value,
		Package:      item.Package,
		Favorite:     item.Favorite,
		CreateTime:   item.CreateTime,
		LastModified: item.LastModified,
		Note:         item.Note,
		DeviceID:     item.DeviceID,
		Deleted:      item.Deleted,
		Checksum:     item.Checksum,
		Size:         item.Size,
	}
}

// FromWire converts a wire item into the local shape. The result carries no
// local payload paths yet; materialization fills them in on demand. ToWire
// and FromWire are inverse on the shared field subset.
func FromWire(si models.SyncItem) models.HistoryItem {
	return models.HistoryItem{
		ID:           si.ID,
		Type:         si.Type,
		Value:        si.Value,
		Package:      si.Package,
		Favorite:     si.Favorite,
		CreateTime:   si.CreateTime,
		LastModified: si.LastModified,
		Note:         si.Note,
		DeviceID:     si.DeviceID,
		Deleted:      si.Deleted,
		Checksum:     si.Checksum,
		Size:         si.Size,
	}
}
