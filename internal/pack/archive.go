// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package pack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/clipvault/clipsync/internal/checksum"
	"github.com/clipvault/clipsync/models"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// entryName generates a collision-resistant archive entry name for a payload
// file: <base>_<timestamp>_<random><ext>. No directory structure is kept
// inside the archive; identity is carried by checksums, not names.
func entryName(originalPath string) string {
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "blob"
	}
	rand := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s%s", stem, time.Now().UnixMilli(), rand, ext)
}

// buildArchive reads every payload file from fs, assigns each a fresh entry
// name, and returns the ZIP bytes together with the finalized entry
// metadata. Entry checksums are computed from the bytes actually written.
func buildArchive(fs afero.Fs, payloads []models.PackageEntry) ([]byte, []models.PackageEntry, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := make([]models.PackageEntry, 0, len(payloads))
	for _, p := range payloads {
		data, err := afero.ReadFile(fs, p.OriginalPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read payload %s: %w", p.OriginalPath, err)
		}

		name := entryName(p.OriginalPath)
		w, err := zw.Create(name)
		if err != nil {
			return nil, nil, fmt.Errorf("create archive entry %s: %w", name, err)
		}
		if _, err = w.Write(data); err != nil {
			return nil, nil, fmt.Errorf("write archive entry %s: %w", name, err)
		}

		entries = append(entries, models.PackageEntry{
			FileName:     name,
			OriginalPath: p.OriginalPath,
			Size:         int64(len(data)),
			Checksum:     checksum.Sum(data),
		})
	}

	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("finalize archive: %w", err)
	}

	return buf.Bytes(), entries, nil
}

// readArchive parses ZIP bytes and returns per-entry metadata recomputed
// from the contained bytes. Used for read-back verification and for
// recognizing an already-uploaded archive.
func readArchive(data []byte) ([]models.PackageEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	entries := make([]models.PackageEntry, 0, len(zr.File))
	for _, f := range zr.File {
		blob, err := readArchiveEntry(zr, f.Name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.PackageEntry{
			FileName: f.Name,
			Size:     int64(len(blob)),
			Checksum: checksum.Sum(blob),
		})
	}

	return entries, nil
}

// extractEntry returns the bytes of the named entry.
func extractEntry(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return readArchiveEntry(zr, name)
}

func readArchiveEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive entry %s: %w", name, err)
		}
		defer rc.Close()

		blob, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", name, err)
		}
		return blob, nil
	}
	return nil, fmt.Errorf("archive entry %s not found", name)
}

// contentChecksum computes the path-independent package checksum: the hash
// over the sorted entry checksums. It matches the core-value scheme used for
// binary item fingerprints.
func contentChecksum(entries []models.PackageEntry) string {
	sums := make([]string, 0, len(entries))
	for _, e := range entries {
		sums = append(sums, e.Checksum)
	}
	sort.Strings(sums)
	return checksum.SumString(strings.Join(sums, "\n"))
}
