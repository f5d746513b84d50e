// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package pack

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/clipvault/clipsync/internal/checksum"
	"github.com/clipvault/clipsync/internal/logger"
	"github.com/clipvault/clipsync/internal/remote"
	"github.com/clipvault/clipsync/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is a map-backed blob store with call counters and fault
// injection, standing in for the WebDAV client.
type fakeRemote struct {
	mu            sync.Mutex
	objects       map[string][]byte
	uploads       int
	downloads     int
	deletes       int
	corruptStored bool          // mangle entry payloads on upload (read-back must catch it)
	conflictOnPut bool          // answer every upload with 409
	hideOnHead    bool          // Exists always answers false
	downloadDelay time.Duration // simulate a slow link
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{objects: make(map[string][]byte)}
}

func (f *fakeRemote) Upload(_ context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.conflictOnPut {
		return fmt.Errorf("%w: put %s", remote.ErrConflict, path)
	}
	stored := append([]byte(nil), data...)
	if f.corruptStored && len(stored) > 0 {
		stored = corruptArchive(stored)
	}
	f.objects[path] = stored
	return nil
}

// corruptArchive rewrites a ZIP keeping the entry names but inverting every
// payload byte, so the archive stays readable while its content checksums no
// longer match what was uploaded. Non-ZIP input is truncated instead.
func corruptArchive(data []byte) []byte {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return data[:len(data)/2]
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return data[:len(data)/2]
		}
		blob, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return data[:len(data)/2]
		}
		for i := range blob {
			blob[i] ^= 0xff
		}
		w, err := zw.Create(f.Name)
		if err != nil {
			return data[:len(data)/2]
		}
		if _, err = w.Write(blob); err != nil {
			return data[:len(data)/2]
		}
	}
	if err = zw.Close(); err != nil {
		return data[:len(data)/2]
	}
	return buf.Bytes()
}

func (f *fakeRemote) Download(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.downloads++
	delay := f.downloadDelay
	data, ok := f.objects[path]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", remote.ErrNotFound, path)
	}
	return data, nil
}

func (f *fakeRemote) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.objects, path)
	return nil
}

func (f *fakeRemote) CreateDirectory(context.Context, string) error { return nil }

func (f *fakeRemote) Exists(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hideOnHead {
		return false, nil
	}
	_, ok := f.objects[path]
	return ok, nil
}

func (f *fakeRemote) TestConnection(context.Context) error { return nil }

func testConfig() Config {
	return Config{FilesDir: "/data/files", CacheDir: "/data/cache", MaxPackageSize: 1 << 20}
}

func newTestManager(t *testing.T, rem *fakeRemote) (*Manager, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	policy := remote.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	return NewManager(fs, rem, policy, testConfig(), logger.Nop()), fs
}

func binaryItem(t *testing.T, fs afero.Fs, id string, files map[string][]byte) *models.HistoryItem {
	t.Helper()
	item := &models.HistoryItem{ID: id, Type: models.TypeFiles}
	for path, data := range files {
		require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
		item.Files = append(item.Files, models.PackageEntry{OriginalPath: path})
	}
	return item
}

// Round-trip packaging: unpacking what was packed yields byte-identical
// payloads.
func TestManager_PackUnpackRoundTrip(t *testing.T) {
	rem := newFakeRemote()
	m, fs := newTestManager(t, rem)
	ctx := context.Background()

	payloads := map[string][]byte{
		"/home/u/shot.png": []byte("png-bytes"),
		"/home/u/doc.pdf":  []byte("pdf-bytes-somewhat-longer"),
	}
	item := binaryItem(t, fs, "item-1", payloads)

	desc, err := m.PackAndUpload(ctx, item)
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Equal(t, RemotePath("item-1"), desc.Path)
	assert.Len(t, desc.Entries, 2)

	// Fresh device: no local payloads, only the descriptor.
	m2, fs2 := newTestManager(t, rem)
	for i := range desc.Entries {
		desc.Entries[i].OriginalPath = "" // original paths are device-specific
	}

	paths, err := m2.DownloadAndUnpack(ctx, desc)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	got := make(map[string]bool)
	for i, p := range paths {
		data, rerr := afero.ReadFile(fs2, p)
		require.NoError(t, rerr)
		assert.Equal(t, desc.Entries[i].Checksum, checksum.Sum(data))
		got[string(data)] = true
	}
	assert.True(t, got["png-bytes"])
	assert.True(t, got["pdf-bytes-somewhat-longer"])
}

// Idempotent upload: unchanged content does not create a second archive.
func TestManager_PackAndUpload_Idempotent(t *testing.T) {
	rem := newFakeRemote()
	m, fs := newTestManager(t, rem)
	ctx := context.Background()

	item := binaryItem(t, fs, "item-1", map[string][]byte{"/p/a.bin": []byte("stable")})

	first, err := m.PackAndUpload(ctx, item)
	require.NoError(t, err)
	uploadsAfterFirst := rem.uploads

	second, err := m.PackAndUpload(ctx, item)
	require.NoError(t, err)

	assert.Equal(t, uploadsAfterFirst, rem.uploads, "no second upload for unchanged content")
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, first.Checksum, second.Checksum)
}

func TestManager_PackAndUpload_SizeCeiling(t *testing.T) {
	rem := newFakeRemote()
	m, fs := newTestManager(t, rem)
	m.cfg.MaxPackageSize = 8

	item := binaryItem(t, fs, "big", map[string][]byte{"/p/big.bin": []byte("way too large")})

	desc, err := m.PackAndUpload(context.Background(), item)
	require.ErrorIs(t, err, ErrPackageTooLarge)
	assert.Nil(t, desc)
	assert.Zero(t, rem.uploads, "oversized payload must not be transferred")
}

// Verify-after-upload: a store that mangles bytes must not produce a
// descriptor, and the bad artifact is discarded.
func TestManager_PackAndUpload_ReadBackMismatch(t *testing.T) {
	rem := newFakeRemote()
	rem.corruptStored = true
	m, fs := newTestManager(t, rem)

	item := binaryItem(t, fs, "item-1", map[string][]byte{"/p/a.bin": []byte("payload")})

	desc, err := m.PackAndUpload(context.Background(), item)
	require.ErrorIs(t, err, ErrIntegrity)
	assert.Nil(t, desc)
	assert.Equal(t, 1, rem.deletes, "unfinalized archive must be cleaned up")
}

// A 409 is "maybe already uploaded": resolved by read-back, not overwrite.
func TestManager_PackAndUpload_ConflictResolvedByReadBack(t *testing.T) {
	rem := newFakeRemote()
	m, fs := newTestManager(t, rem)
	ctx := context.Background()

	item := binaryItem(t, fs, "item-1", map[string][]byte{"/p/a.bin": []byte("payload")})

	// Another device already uploaded identical content.
	other, fsOther := newTestManager(t, rem)
	itemOther := binaryItem(t, fsOther, "item-1", map[string][]byte{"/elsewhere/a.bin": []byte("payload")})
	_, err := other.PackAndUpload(ctx, itemOther)
	require.NoError(t, err)

	// Hide the object from the Exists probe so the upload path runs and
	// collides, exercising the 409 → read-back resolution.
	rem.conflictOnPut = true
	rem.hideOnHead = true
	desc, err := m.PackAndUpload(ctx, item)
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Equal(t, RemotePath("item-1"), desc.Path)
}

func TestManager_DownloadAndUnpack_CorruptEntryRejected(t *testing.T) {
	rem := newFakeRemote()
	m, fs := newTestManager(t, rem)
	ctx := context.Background()

	item := binaryItem(t, fs, "item-1", map[string][]byte{"/p/a.bin": []byte("payload")})
	desc, err := m.PackAndUpload(ctx, item)
	require.NoError(t, err)

	// Tamper with the descriptor so the extracted entry cannot match.
	desc.Entries[0].Checksum = checksum.Sum([]byte("something else"))
	desc.Entries[0].OriginalPath = ""

	m2, fs2 := newTestManager(t, rem)
	paths, err := m2.DownloadAndUnpack(ctx, desc)
	require.ErrorIs(t, err, ErrIntegrity)
	assert.Empty(t, paths)

	// Corrupted bytes must never land in the files directory.
	entries, _ := afero.ReadDir(fs2, testConfig().FilesDir)
	assert.Empty(t, entries)
}

// Payloads already present locally are served without touching the network.
func TestManager_DownloadAndUnpack_PrefersLocalCopies(t *testing.T) {
	rem := newFakeRemote()
	m, fs := newTestManager(t, rem)
	ctx := context.Background()

	item := binaryItem(t, fs, "item-1", map[string][]byte{"/p/a.bin": []byte("payload")})
	desc, err := m.PackAndUpload(ctx, item)
	require.NoError(t, err)
	desc.Entries[0].OriginalPath = "/p/a.bin"

	downloadsBefore := rem.downloads
	paths, err := m.DownloadAndUnpack(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/a.bin"}, paths)
	assert.Equal(t, downloadsBefore, rem.downloads, "local hit must not download")
}

// Concurrent materializations of the same archive share one download.
func TestManager_Materialize_DeduplicatesInFlightDownloads(t *testing.T) {
	rem := newFakeRemote()
	m, fs := newTestManager(t, rem)
	ctx := context.Background()

	item := binaryItem(t, fs, "item-1", map[string][]byte{"/p/a.bin": []byte("payload")})
	desc, err := m.PackAndUpload(ctx, item)
	require.NoError(t, err)
	desc.Entries[0].OriginalPath = ""

	// Fresh manager with no local bytes and a slow link.
	rem.downloadDelay = 30 * time.Millisecond
	before := rem.downloads
	m2, _ := newTestManager(t, rem)
	remoteItem := &models.HistoryItem{ID: "item-1", Type: models.TypeFiles, Package: desc}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, merr := m2.Materialize(ctx, remoteItem)
			assert.NoError(t, merr)
		}()
	}
	wg.Wait()

	assert.Equal(t, before+1, rem.downloads, "five callers, one network fetch")
}

// One caller cancelling mid-download must not fail concurrent callers
// sharing the same in-flight fetch.
func TestManager_Materialize_CancelledCallerDoesNotPoisonSharedFetch(t *testing.T) {
	rem := newFakeRemote()
	m, fs := newTestManager(t, rem)
	bg := context.Background()

	item := binaryItem(t, fs, "item-1", map[string][]byte{"/p/a.bin": []byte("payload")})
	desc, err := m.PackAndUpload(bg, item)
	require.NoError(t, err)
	desc.Entries[0].OriginalPath = ""

	rem.downloadDelay = 50 * time.Millisecond
	m2, _ := newTestManager(t, rem)
	remoteItem := &models.HistoryItem{ID: "item-1", Type: models.TypeFiles, Package: desc}

	ctx1, cancel := context.WithCancel(bg)
	first := make(chan error, 1)
	go func() {
		_, merr := m2.Materialize(ctx1, remoteItem)
		first <- merr
	}()

	// Let the first caller take the flight, join it, then cancel the first.
	time.Sleep(10 * time.Millisecond)
	second := make(chan error, 1)
	go func() {
		_, merr := m2.Materialize(bg, remoteItem)
		second <- merr
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-first, context.Canceled)
	assert.NoError(t, <-second, "surviving caller must still receive the archive")
}

func TestManager_Materialize_TextItemIsNoOp(t *testing.T) {
	m, _ := newTestManager(t, newFakeRemote())

	paths, err := m.Materialize(context.Background(), &models.HistoryItem{
		ID: "t", Type: models.TypeText, Value: "hello",
	})
	require.NoError(t, err)
	assert.Nil(t, paths)
}
