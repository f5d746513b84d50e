// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clipvault/clipsync/internal/logger"
)

type syncJob struct {
	syncer Syncer
	log    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a SyncJob that runs syncer.Sync on a ticker. The job is
// idle until Start is called.
func NewSyncJob(syncer Syncer, log *logger.Logger) SyncJob {
	return &syncJob{syncer: syncer, log: log}
}

// Start implements SyncJob. It stops any previously running job, then
// launches a background goroutine that syncs every interval. If interval is
// zero or negative it defaults to 5 minutes. The goroutine exits when ctx is
// cancelled or Stop is called. An ErrSyncInProgress from a tick is a no-op by
// design; other errors are logged and the ticker keeps going.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				_, err := j.syncer.Sync(jobCtx)
				if err != nil && !errors.Is(err, ErrSyncInProgress) && !errors.Is(err, context.Canceled) {
					j.log.Warn().Err(err).Msg("periodic sync failed")
				}
			}
		}
	}()
}

// Stop implements SyncJob. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited. Safe to call when the job is
// not running (no-op in that case).
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
