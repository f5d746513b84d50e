// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package filter

import (
	"testing"
	"time"

	"github.com/clipvault/clipsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTypes() models.SyncModeConfig {
	return models.SyncModeConfig{
		IncludeText: true, IncludeHTML: true, IncludeRTF: true,
		IncludeImages: true, IncludeFiles: true,
	}
}

// it is a shorthand constructor for HistoryItem used only in tests.
func it(id string, typ models.ItemType, opts ...func(*models.HistoryItem)) models.HistoryItem {
	item := models.HistoryItem{ID: id, Type: typ, Value: "v"}
	for _, o := range opts {
		o(&item)
	}
	return item
}

func deleted(i *models.HistoryItem)  { i.Deleted = true }
func favorite(i *models.HistoryItem) { i.Favorite = true }
func sized(n int64) func(*models.HistoryItem) {
	return func(i *models.HistoryItem) { i.Size = n }
}

func TestEligible_PredicateMatrix(t *testing.T) {
	limits := models.FileLimits{MaxImageSize: 100, MaxFileSize: 200, MaxPackageSize: 500}

	tests := []struct {
		name    string
		items   []models.HistoryItem
		cfg     models.SyncModeConfig
		wantIDs []string
		skipped int
	}{
		{
			name:    "tombstones excluded",
			items:   []models.HistoryItem{it("a", models.TypeText), it("b", models.TypeText, deleted)},
			cfg:     allTypes(),
			wantIDs: []string{"a"},
		},
		{
			name:  "favorites only",
			items: []models.HistoryItem{it("a", models.TypeText), it("b", models.TypeText, favorite)},
			cfg: func() models.SyncModeConfig {
				c := allTypes()
				c.OnlyFavorites = true
				return c
			}(),
			wantIDs: []string{"b"},
		},
		{
			name:    "type policy excludes html",
			items:   []models.HistoryItem{it("a", models.TypeText), it("b", models.TypeHTML)},
			cfg:     models.SyncModeConfig{IncludeText: true},
			wantIDs: []string{"a"},
		},
		{
			name: "size ceiling applies to binary types only",
			items: []models.HistoryItem{
				it("img-big", models.TypeImage, sized(101)),
				it("img-ok", models.TypeImage, sized(100)),
				it("files-big", models.TypeFiles, sized(201)),
				it("text-huge", models.TypeText, sized(1 << 30)),
			},
			cfg: func() models.SyncModeConfig {
				c := allTypes()
				c.FileLimits = limits
				return c
			}(),
			wantIDs: []string{"img-ok", "text-huge"},
		},
		{
			name: "malformed items skipped and counted",
			items: []models.HistoryItem{
				it("", models.TypeText),
				it("a", models.ItemType("unknown")),
				it("b", models.TypeText),
			},
			cfg:     allTypes(),
			wantIDs: []string{"b"},
			skipped: 2,
		},
		{
			name: "favorite tombstone still excluded",
			items: []models.HistoryItem{
				it("a", models.TypeText, favorite, deleted),
			},
			cfg: func() models.SyncModeConfig {
				c := allTypes()
				c.OnlyFavorites = true
				return c
			}(),
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, skipped := Eligible(tt.items, tt.cfg)

			ids := make([]string, 0, len(kept))
			for _, k := range kept {
				ids = append(ids, k.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.skipped, skipped)
		})
	}
}

// Round-trip law: FromWire(ToWire(x)) preserves every shared field.
func TestWireConversion_RoundTrip(t *testing.T) {
	now := time.Now().Round(time.Millisecond)
	item := models.HistoryItem{
		ID:   "id-1",
		Type: models.TypeImage,
		Package: &models.PackageDescriptor{
			Name: "id-1.zip", Path: "files/id-1.zip", Checksum: "sha256:p", Size: 7,
			Entries: []models.PackageEntry{{FileName: "e_1", Size: 7, Checksum: "sha256:e"}},
		},
		Favorite:     true,
		CreateTime:   now.Add(-time.Hour),
		LastModified: now,
		Note:         "note",
		DeviceID:     "dev-1",
		Checksum:     "sha256:c",
		Size:         7,

		// Local-only fields that must not survive the trip.
		FromCloud: true,
		Files:     []models.PackageEntry{{OriginalPath: "/tmp/x"}},
	}

	back := FromWire(ToWire(item))

	assert.Equal(t, item.ID, back.ID)
	assert.Equal(t, item.Type, back.Type)
	assert.Equal(t, item.Package, back.Package)
	assert.Equal(t, item.Favorite, back.Favorite)
	assert.True(t, item.CreateTime.Equal(back.CreateTime))
	assert.True(t, item.LastModified.Equal(back.LastModified))
	assert.Equal(t, item.Note, back.Note)
	assert.Equal(t, item.DeviceID, back.DeviceID)
	assert.Equal(t, item.Checksum, back.Checksum)
	assert.Equal(t, item.Size, back.Size)

	require.Empty(t, back.Files)
	assert.False(t, back.FromCloud)
	assert.Nil(t, back.SyncedAt)
}
