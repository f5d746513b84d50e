// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

// Package index reads and writes the single remote JSON document that lists
// one fingerprint per item. Fetching it is the only remote read needed to
// determine what changed; publishing it is the only index-level mutation
// other devices observe.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clipvault/clipsync/internal/checksum"
	"github.com/clipvault/clipsync/internal/logger"
	"github.com/clipvault/clipsync/internal/remote"
	"github.com/clipvault/clipsync/models"
)

// DefaultFileName is the conventional index document name under the remote
// base path.
const DefaultFileName = "clipsync-index.json"

// Manager fetches and publishes the remote index document.
type Manager struct {
	remote remote.Client
	retry  remote.RetryPolicy
	path   string
	logger *logger.Logger
}

// NewManager constructs a Manager operating on path (relative to the remote
// base path). An empty path selects DefaultFileName.
func NewManager(client remote.Client, retry remote.RetryPolicy, path string, log *logger.Logger) *Manager {
	if path == "" {
		path = DefaultFileName
	}
	return &Manager{remote: client, retry: retry, path: path, logger: log}
}

// Fetch downloads and decodes the remote index. An absent document is the
// valid first-sync state and yields (nil, nil), not an error.
func (m *Manager) Fetch(ctx context.Context) (*models.RemoteIndex, error) {
	var data []byte
	err := m.retry.Do(ctx, func(ctx context.Context) error {
		var derr error
		data, derr = m.remote.Download(ctx, m.path)
		return derr
	})
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			m.logger.Info().Str("path", m.path).Msg("no remote index yet, treating as first sync")
			return nil, nil
		}
		return nil, fmt.Errorf("fetch remote index: %w", err)
	}

	var idx models.RemoteIndex
	if err = json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode remote index: %w", err)
	}

	return &idx, nil
}

// Publish overwrites the remote index document. It must only be called after
// every package the index references has been confirmed uploaded: the index
// never points at unconfirmed blobs.
func (m *Manager) Publish(ctx context.Context, idx *models.RemoteIndex) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode remote index: %w", err)
	}

	err = m.retry.Do(ctx, func(ctx context.Context) error {
		return m.remote.Upload(ctx, m.path, data)
	})
	if err != nil {
		return fmt.Errorf("publish remote index: %w", err)
	}

	m.logger.Info().
		Str("path", m.path).
		Int("items", len(idx.Items)).
		Int("deleted", len(idx.DeletedItems)).
		Msg("remote index published")
	return nil
}

// Build assembles a publishable index from the reconciled fingerprint set.
// It stamps the publish time and device, computes the data checksum over the
// items, and recomputes aggregate statistics.
func Build(deviceID string, items []models.Fingerprint, deletedIDs []string) *models.RemoteIndex {
	stats := models.IndexStatistics{CountByType: make(map[models.ItemType]int)}
	for _, fp := range items {
		if fp.Deleted {
			continue
		}
		stats.TotalItems++
		stats.TotalSize += fp.Size
		stats.CountByType[fp.Type]++
	}

	return &models.RemoteIndex{
		Timestamp:    time.Now().UTC(),
		DeviceID:     deviceID,
		Items:        items,
		DeletedItems: deletedIDs,
		DataChecksum: checksum.IndexChecksum(items),
		Statistics:   stats,
	}
}
