// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package store

import (
	"context"
	"testing"
	"time"

	"github.com/clipvault/clipsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) HistoryStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleItem(id string) *models.HistoryItem {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &models.HistoryItem{
		ID: id, Type: models.TypeText, Value: "copied " + id,
		CreateTime: now, LastModified: now,
		DeviceID: "dev-1", Checksum: "sha256:" + id, Size: 7,
	}
}

func TestSQLiteStore_SaveGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := sampleItem("a")
	item.Favorite = true
	item.Note = "pinned"
	item.Files = []models.PackageEntry{{OriginalPath: "/p/x.png", Size: 3, Checksum: "sha256:x"}}
	item.Package = &models.PackageDescriptor{
		Name: "a.zip", Path: "files/a.zip", Checksum: "sha256:pkg", Size: 3,
		Entries: []models.PackageEntry{{FileName: "x_1_ab.png", Size: 3, Checksum: "sha256:x"}},
	}

	require.NoError(t, s.Save(ctx, item))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, item.Value, got.Value)
	assert.Equal(t, item.Note, got.Note)
	assert.True(t, got.Favorite)
	assert.Equal(t, item.Files, got.Files)
	assert.Equal(t, item.Package, got.Package)
	assert.True(t, item.LastModified.Equal(got.LastModified))
	assert.Nil(t, got.SyncedAt)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestSQLiteStore_SaveUpsertsByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := sampleItem("a")
	require.NoError(t, s.Save(ctx, item))

	item.Value = "edited"
	item.LastModified = item.LastModified.Add(time.Minute)
	require.NoError(t, s.Save(ctx, item))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Value)

	all, err := s.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_ListExcludesTombstonesByDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	live := sampleItem("live")
	dead := sampleItem("dead")
	dead.Deleted = true
	synced := time.Now()
	dead.SyncedAt = &synced
	require.NoError(t, s.Save(ctx, live, dead))

	visible, err := s.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "live", visible[0].ID)

	all, err := s.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// A synced item gets a tombstone; a never-synced item vanishes outright —
// no other device has seen it, so there is nothing to propagate.
func TestSQLiteStore_SoftDeleteTombstoneSemantics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	syncedItem := sampleItem("synced")
	at := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	syncedItem.SyncedAt = &at
	neverSynced := sampleItem("fresh")
	require.NoError(t, s.Save(ctx, syncedItem, neverSynced))

	delTime := at.Add(time.Hour)
	require.NoError(t, s.SoftDelete(ctx, "synced", delTime))
	require.NoError(t, s.SoftDelete(ctx, "fresh", delTime))

	got, err := s.Get(ctx, "synced")
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.True(t, delTime.Equal(got.LastModified), "tombstone must bump last_modified")

	_, err = s.Get(ctx, "fresh")
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestSQLiteStore_MarkSynced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleItem("a"), sampleItem("b"), sampleItem("c")))

	at := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkSynced(ctx, at, "a", "b"))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got.SyncedAt)
	assert.True(t, at.Equal(*got.SyncedAt))

	got, err = s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, got.SyncedAt)

	// Empty id set is a no-op, not an error.
	require.NoError(t, s.MarkSynced(ctx, at))
}
