// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package engine

import "errors"

// ErrSyncInProgress is returned by Sync when a pass is already running.
// The request is dropped, not queued; callers treat it as a no-op.
var ErrSyncInProgress = errors.New("sync already in progress")
