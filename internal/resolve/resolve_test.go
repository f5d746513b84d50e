// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package resolve

import (
	"testing"
	"time"

	"github.com/clipvault/clipsync/models"
	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func version(value string, at time.Time) models.SyncItem {
	return models.SyncItem{
		ID: "item-1", Type: models.TypeText, Value: value,
		Checksum: "sha256:" + value, LastModified: at,
	}
}

func TestResolver_LatestPolicy(t *testing.T) {
	tests := []struct {
		name       string
		local      models.SyncItem
		remote     models.SyncItem
		wantWinner string
		wantValue  string
	}{
		{
			name:       "local newer wins",
			local:      version("local", base.Add(time.Minute)),
			remote:     version("remote", base),
			wantWinner: "local",
			wantValue:  "local",
		},
		{
			name:       "remote newer wins",
			local:      version("local", base),
			remote:     version("remote", base.Add(time.Minute)),
			wantWinner: "remote",
			wantValue:  "remote",
		},
		{
			name:       "tie prefers remote",
			local:      version("local", base),
			remote:     version("remote", base),
			wantWinner: "remote",
			wantValue:  "remote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := New(PolicyLatest).Resolve(tt.local, tt.remote)
			assert.Equal(t, tt.wantWinner, info.Winner)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.False(t, info.Pending)
			assert.Equal(t, "item-1", info.ID)
		})
	}
}

// A favorite set locally must survive a remote content-only update, and a
// note set remotely must survive a local content win.
func TestResolver_NoLostFavoriteOrNoteOnConflict(t *testing.T) {
	local := version("local", base)
	local.Favorite = true
	remote := version("remote", base.Add(time.Minute)) // remote wins on content

	got, info := New(PolicyLatest).Resolve(local, remote)
	assert.Equal(t, "remote", info.Winner)
	assert.Equal(t, "remote", got.Value)
	assert.True(t, got.Favorite, "favorite set on losing side must be kept")

	local2 := version("local", base.Add(time.Minute)) // local wins on content
	remote2 := version("remote", base)
	remote2.Note = "written on the other device"

	got, _ = New(PolicyLatest).Resolve(local2, remote2)
	assert.Equal(t, "local", got.Value)
	assert.Equal(t, "written on the other device", got.Note)
}

func TestResolver_WinnerMetadataNotOverwritten(t *testing.T) {
	local := version("local", base.Add(time.Minute))
	local.Note = "mine"
	remote := version("remote", base)
	remote.Note = "theirs"

	got, _ := New(PolicyLatest).Resolve(local, remote)
	// The winner's own non-default note stays.
	assert.Equal(t, "mine", got.Note)
}

func TestResolver_FixedPolicies(t *testing.T) {
	local := version("local", base)
	remote := version("remote", base.Add(time.Hour)) // newer, but policy ignores it

	got, info := New(PolicyLocal).Resolve(local, remote)
	assert.Equal(t, "local", info.Winner)
	assert.Equal(t, "local", got.Value)

	got, info = New(PolicyRemote).Resolve(version("local", base.Add(time.Hour)), version("remote", base))
	assert.Equal(t, "remote", info.Winner)
	assert.Equal(t, "remote", got.Value)
}

func TestResolver_ManualKeepsLocalPending(t *testing.T) {
	local := version("local", base)
	remote := version("remote", base.Add(time.Hour))
	remote.Favorite = true

	got, info := New(PolicyManual).Resolve(local, remote)
	assert.True(t, info.Pending)
	assert.Equal(t, "local", info.Winner)
	// Manual means untouched: not even scalar merging happens.
	assert.Equal(t, local, got)
}

func TestNew_UnknownPolicyFallsBackToLatest(t *testing.T) {
	r := New(Policy("bogus"))
	_, info := r.Resolve(version("local", base), version("remote", base.Add(time.Second)))
	assert.Equal(t, string(PolicyLatest), info.Policy)
	assert.Equal(t, "remote", info.Winner)
}
