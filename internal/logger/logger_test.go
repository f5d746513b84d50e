// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerTo_EmitsRoleAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo("engine", &buf)

	l.Info().Str("step", "diffing").Msg("pass started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["role"])
	assert.Equal(t, "diffing", entry["step"])
	assert.Equal(t, "pass started", entry["message"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "func")
}

func TestNop_DiscardsOutput(t *testing.T) {
	l := Nop()
	// Must not panic and must not write anywhere observable.
	l.Error().Msg("dropped")
	l.GetChildLogger().Info().Msg("also dropped")
}

func TestFromContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo("test", &buf)

	ctx := l.WithContext(context.Background())
	FromContext(ctx).Info().Msg("via context")

	assert.Contains(t, buf.String(), "via context")
}
