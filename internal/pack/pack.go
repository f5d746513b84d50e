// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

// Package pack makes binary clipboard payloads (images, copied files)
// transportable as bounded-size, integrity-checked, immutable ZIP archives,
// and materializes remote-origin payloads lazily: an item can exist locally
// without its bytes until something actually needs them.
package pack

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/clipvault/clipsync/internal/checksum"
	"github.com/clipvault/clipsync/internal/logger"
	"github.com/clipvault/clipsync/internal/remote"
	"github.com/clipvault/clipsync/models"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrPackageTooLarge marks an item whose payloads exceed the package
	// size ceiling. The caller skips the item; payloads are never
	// truncated or split silently.
	ErrPackageTooLarge = errors.New("package exceeds size ceiling")

	// ErrIntegrity marks a checksum mismatch on download or on the
	// read-back after upload. The offending artifact is discarded;
	// unverified bytes never reach durable local storage.
	ErrIntegrity = errors.New("package integrity check failed")

	// ErrNotBinary marks an attempt to package a text-like item.
	ErrNotBinary = errors.New("item carries no binary payload")
)

// remoteFilesDir is the remote directory holding per-item archives, as
// /files/<itemID>.zip under the configured base path.
const remoteFilesDir = "files"

// Config bounds and locates the packaging subsystem's filesystem use.
type Config struct {
	// FilesDir is the local directory where materialized payloads are
	// written.
	FilesDir string

	// CacheDir is the local download cache consulted before any remote
	// fetch.
	CacheDir string

	// MaxPackageSize is the total payload ceiling for one archive, in
	// bytes. Zero disables the ceiling.
	MaxPackageSize int64
}

// Manager implements packaging, upload with read-back verification, and lazy
// download with in-flight deduplication. Safe for concurrent use.
type Manager struct {
	fs     afero.Fs
	remote remote.Client
	retry  remote.RetryPolicy
	cfg    Config
	logger *logger.Logger

	// inflight collapses concurrent fetches of the same archive into one
	// network request; late callers wait on the first caller's result.
	inflight singleflight.Group
}

// NewManager constructs a Manager. fs abstracts all local filesystem access
// so tests can run against an in-memory filesystem.
func NewManager(fs afero.Fs, client remote.Client, retry remote.RetryPolicy, cfg Config, log *logger.Logger) *Manager {
	return &Manager{fs: fs, remote: client, retry: retry, cfg: cfg, logger: log}
}

// RemotePath returns the conventional archive location for an item.
func RemotePath(itemID string) string {
	return remoteFilesDir + "/" + itemID + ".zip"
}

// HashPayloads fills in missing checksum and size metadata on the item's
// payload entries by reading the files, and refreshes the item's total
// payload size. It must run before fingerprinting a locally captured binary
// item.
func (m *Manager) HashPayloads(item *models.HistoryItem) error {
	if !item.Type.Binary() {
		return nil
	}

	var total int64
	for i := range item.Files {
		e := &item.Files[i]
		if e.Checksum == "" || e.Size == 0 {
			data, err := afero.ReadFile(m.fs, e.OriginalPath)
			if err != nil {
				return fmt.Errorf("hash payload %s: %w", e.OriginalPath, err)
			}
			e.Checksum = checksum.Sum(data)
			e.Size = int64(len(data))
		}
		total += e.Size
	}
	item.Size = total

	return nil
}

// PackAndUpload bundles the item's payload files into one archive and places
// it at the conventional remote path.
//
// If the total payload exceeds the configured ceiling, ErrPackageTooLarge is
// returned and nothing is transferred. If an archive with matching content
// checksum already exists remotely, its descriptor is returned without
// re-uploading. Otherwise the archive is built, uploaded under the retry
// policy, and verified by reading it back: an upload that cannot be read
// back consistently is a failure, not a success.
func (m *Manager) PackAndUpload(ctx context.Context, item *models.HistoryItem) (*models.PackageDescriptor, error) {
	if !item.Type.Binary() {
		return nil, fmt.Errorf("%w: item %s is %s", ErrNotBinary, item.ID, item.Type)
	}
	if err := m.HashPayloads(item); err != nil {
		return nil, err
	}
	if m.cfg.MaxPackageSize > 0 && item.Size > m.cfg.MaxPackageSize {
		return nil, fmt.Errorf("%w: item %s needs %d bytes, ceiling is %d",
			ErrPackageTooLarge, item.ID, item.Size, m.cfg.MaxPackageSize)
	}

	path := RemotePath(item.ID)
	wantSum := contentChecksum(item.Files)

	// Idempotent upload: content already there means zero bytes moved.
	exists, err := m.remote.Exists(ctx, path)
	if err == nil && exists {
		if desc, rbErr := m.readBack(ctx, item.ID, path); rbErr == nil && desc.Checksum == wantSum {
			m.logger.Debug().Str("item", item.ID).Msg("archive already uploaded, skipping")
			return desc, nil
		}
	}

	data, entries, err := buildArchive(m.fs, item.Files)
	if err != nil {
		return nil, fmt.Errorf("build archive for %s: %w", item.ID, err)
	}

	err = m.retry.Do(ctx, func(ctx context.Context) error {
		return m.remote.Upload(ctx, path, data)
	})
	if err != nil {
		if !errors.Is(err, remote.ErrConflict) {
			return nil, fmt.Errorf("upload archive for %s: %w", item.ID, err)
		}
		// 409 means "maybe already uploaded": settle it with a read-back,
		// never a blind overwrite.
		desc, rbErr := m.readBack(ctx, item.ID, path)
		if rbErr != nil || desc.Checksum != wantSum {
			return nil, fmt.Errorf("%w: conflicting archive at %s", ErrIntegrity, path)
		}
		return desc, nil
	}

	// Verify-after-upload: the remote store may accept bytes it cannot
	// later serve consistently.
	desc, err := m.readBack(ctx, item.ID, path)
	if err != nil || desc.Checksum != wantSum {
		// This archive is ours and unfinalized; discarding it is allowed.
		_ = m.remote.Delete(ctx, path)
		return nil, fmt.Errorf("%w: read-back of %s did not match upload", ErrIntegrity, path)
	}

	// Carry the original paths through; the read-back cannot know them.
	desc.Entries = entries
	m.logger.Info().
		Str("item", item.ID).
		Int("entries", len(entries)).
		Int64("bytes", item.Size).
		Msg("archive uploaded and verified")
	return desc, nil
}

// readBack downloads the archive at path and rebuilds its descriptor from
// the bytes the remote actually serves.
func (m *Manager) readBack(ctx context.Context, itemID, path string) (*models.PackageDescriptor, error) {
	data, err := m.fetchArchive(ctx, path)
	if err != nil {
		return nil, err
	}

	entries, err := readArchive(data)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, e := range entries {
		total += e.Size
	}

	return &models.PackageDescriptor{
		Name:     itemID + ".zip",
		Path:     path,
		Checksum: contentChecksum(entries),
		Size:     total,
		Entries:  entries,
	}, nil
}

// DownloadAndUnpack materializes every entry of desc on the local
// filesystem and returns the local paths in entry order.
//
// For each entry, three candidate local locations are consulted before any
// network transfer: the original path, the files directory, and the download
// cache — content already present locally (common when the item originated
// on this device) is never re-fetched. On a miss the archive is downloaded
// (deduplicated across concurrent callers), the entry extracted and
// re-verified against the descriptor checksum, and only then written out.
// A checksum mismatch is a hard failure for that entry; corrupted bytes are
// never written to disk. Per-entry failures do not abort sibling entries.
func (m *Manager) DownloadAndUnpack(ctx context.Context, desc *models.PackageDescriptor) ([]string, error) {
	if desc == nil || len(desc.Entries) == 0 {
		return nil, fmt.Errorf("empty package descriptor")
	}

	paths := make([]string, 0, len(desc.Entries))
	var errs []error

	for _, entry := range desc.Entries {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		if local, ok := m.locateLocal(entry); ok {
			paths = append(paths, local)
			continue
		}

		local, err := m.fetchEntry(ctx, desc, entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %s: %w", entry.FileName, err))
			continue
		}
		paths = append(paths, local)
	}

	return paths, errors.Join(errs...)
}

// locateLocal checks the three candidate locations for bytes matching the
// entry checksum.
func (m *Manager) locateLocal(entry models.PackageEntry) (string, bool) {
	candidates := make([]string, 0, 3)
	if entry.OriginalPath != "" {
		candidates = append(candidates, entry.OriginalPath)
	}
	if entry.FileName != "" {
		candidates = append(candidates,
			filepath.Join(m.cfg.FilesDir, entry.FileName),
			filepath.Join(m.cfg.CacheDir, entry.FileName),
		)
	}

	for _, p := range candidates {
		data, err := afero.ReadFile(m.fs, p)
		if err != nil {
			continue
		}
		if checksum.Sum(data) == entry.Checksum {
			return p, true
		}
	}

	return "", false
}

// fetchEntry downloads (or reuses an in-flight download of) the archive,
// extracts and verifies one entry, and writes it to the files directory.
func (m *Manager) fetchEntry(ctx context.Context, desc *models.PackageDescriptor, entry models.PackageEntry) (string, error) {
	data, err := m.fetchArchive(ctx, desc.Path)
	if err != nil {
		return "", err
	}

	blob, err := extractEntry(data, entry.FileName)
	if err != nil {
		return "", err
	}
	if got := checksum.Sum(blob); got != entry.Checksum {
		return "", fmt.Errorf("%w: entry %s expected %s got %s",
			ErrIntegrity, entry.FileName, entry.Checksum, got)
	}

	if err = m.fs.MkdirAll(m.cfg.FilesDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	local := filepath.Join(m.cfg.FilesDir, entry.FileName)
	if err = afero.WriteFile(m.fs, local, blob, 0o644); err != nil {
		return "", fmt.Errorf("write payload %s: %w", local, err)
	}

	return local, nil
}

// fetchArchive downloads the archive bytes under the retry policy.
// Concurrent calls for the same path share one request via singleflight.
// The shared request runs detached from the caller that happened to start
// it: one caller cancelling must not poison the result its siblings are
// waiting on. Each caller still honors its own context while waiting.
func (m *Manager) fetchArchive(ctx context.Context, path string) ([]byte, error) {
	ch := m.inflight.DoChan(path, func() (any, error) {
		dctx := context.WithoutCancel(ctx)
		var data []byte
		err := m.retry.Do(dctx, func(ctx context.Context) error {
			var derr error
			data, derr = m.remote.Download(ctx, path)
			return derr
		})
		return data, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Materialize resolves a logical item to physical bytes on demand. Items
// with locally present payloads resolve without network traffic; remote-
// origin items are downloaded and unpacked on first use.
func (m *Manager) Materialize(ctx context.Context, item *models.HistoryItem) ([]string, error) {
	if !item.Type.Binary() {
		return nil, nil
	}

	// Locally captured payloads first.
	if len(item.Files) > 0 {
		paths := make([]string, 0, len(item.Files))
		allLocal := true
		for _, e := range item.Files {
			if p, ok := m.locateLocal(e); ok {
				paths = append(paths, p)
			} else {
				allLocal = false
				break
			}
		}
		if allLocal {
			return paths, nil
		}
	}

	if item.Package == nil {
		return nil, fmt.Errorf("item %s has no package to materialize from", item.ID)
	}
	return m.DownloadAndUnpack(ctx, item.Package)
}
