// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_diagnostics/internal/export"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

func TestRecorderSinkFlush(t *testing.T) {
	ctx := context.Background()
	rec, err := export.OpenRecorder(ctx, filepath.Join(t.TempDir(), "motion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	loop := startLoop(t)
	sink := newRecorderSink(rec, loop)
	require.NoError(t, loop.Observe(sink))

	submitRest(t, loop, 3)
	require.NoError(t, sink.flush(ctx))
	first := sink.sessionID

	submitRest(t, loop, 2)
	require.NoError(t, sink.flush(ctx))
	require.NoError(t, sink.flush(ctx))

	stored, err := rec.Entries(ctx, first)
	require.NoError(t, err)
	assert.Len(t, stored, 5)

	require.NoError(t, loop.Command(session.CmdReset))
	submitRest(t, loop, 1)
	require.NoError(t, sink.flush(ctx))
	assert.NotEqual(t, first, sink.sessionID)

	stored, err = rec.Entries(ctx, sink.sessionID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	sink.drainEvents(ctx)
	n, err := rec.EventCount(ctx, sink.sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, n) // session_reset
}
