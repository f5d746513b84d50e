// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

// Package resolve decides the winner when both replicas hold diverging
// content for the same item id.
package resolve

import (
	"github.com/clipvault/clipsync/models"
)

// Policy selects the conflict resolution strategy.
type Policy string

const (
	// PolicyLatest is last-writer-wins by LastModified; ties prefer the
	// remote version so replicas converge faster.
	PolicyLatest Policy = "latest"

	// PolicyLocal always keeps the local version.
	PolicyLocal Policy = "local"

	// PolicyRemote always takes the remote version.
	PolicyRemote Policy = "remote"

	// PolicyManual keeps the local version untouched and flags the
	// conflict as pending for the user to settle.
	PolicyManual Policy = "manual"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyLatest, PolicyLocal, PolicyRemote, PolicyManual:
		return true
	}
	return false
}

// Resolver applies the configured policy to conflicting item versions.
type Resolver struct {
	policy Policy
}

// New constructs a Resolver. An unknown or empty policy falls back to
// PolicyLatest.
func New(policy Policy) *Resolver {
	if !policy.Valid() {
		policy = PolicyLatest
	}
	return &Resolver{policy: policy}
}

// Resolve picks the winning version of an item present on both sides with
// diverging content.
//
// Under PolicyLatest the later LastModified wins, remote winning ties. The
// alternative policies bypass timestamp comparison entirely. Regardless of
// winner, scalar metadata is merged: a note or favorite flag set on the
// losing side survives when the winning side left it at its default. This
// prevents an unrelated content update from clobbering a user's pin or
// annotation.
func (r *Resolver) Resolve(local, remote models.SyncItem) (models.SyncItem, models.ConflictInfo) {
	info := models.ConflictInfo{
		ID:         local.ID,
		Policy:     string(r.policy),
		LocalTime:  local.LastModified,
		RemoteTime: remote.LastModified,
	}

	var winner, loser models.SyncItem
	switch r.policy {
	case PolicyLocal:
		winner, loser = local, remote
		info.Winner = "local"
	case PolicyRemote:
		winner, loser = remote, local
		info.Winner = "remote"
	case PolicyManual:
		info.Winner = "local"
		info.Pending = true
		return local, info
	default: // PolicyLatest
		if local.LastModified.After(remote.LastModified) {
			winner, loser = local, remote
			info.Winner = "local"
		} else {
			winner, loser = remote, local
			info.Winner = "remote"
		}
	}

	winner = mergeScalars(winner, loser)
	return winner, info
}

// mergeScalars carries non-default note/favorite values over from the losing
// side when the winner left them at default.
func mergeScalars(winner, loser models.SyncItem) models.SyncItem {
	if winner.Note == "" && loser.Note != "" {
		winner.Note = loser.Note
	}
	if !winner.Favorite && loser.Favorite {
		winner.Favorite = true
	}
	return winner
}
