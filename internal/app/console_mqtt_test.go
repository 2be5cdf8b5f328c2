// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/latency"
	"github.com/relabs-tech/motion_diagnostics/internal/position"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

func TestFormatSnapshot(t *testing.T) {
	line := formatSnapshot(session.Snapshot{
		Latency:  session.LatencySnapshot{State: "idle"},
		Noise:    session.NoiseSnapshot{State: "idle"},
		Position: session.PositionSnapshot{State: "idle"},
	})
	assert.Contains(t, line, "n=0 rate=--")
	assert.Contains(t, line, "dropped=0")
	assert.NotContains(t, line, "jitter")

	rate := 60.0
	line = formatSnapshot(session.Snapshot{
		SampleCount: 61,
		SampleRate:  &rate,
		Latency:     session.LatencySnapshot{State: "idle", Stats: &latency.Stats{Last: 35, Mean: 33, Count: 2}},
		Position: session.PositionSnapshot{
			State:    "active",
			Position: imu.Vec3{Z: 0.125},
		},
	})
	assert.Contains(t, line, "rate=60.0Hz")
	assert.Contains(t, line, "last=35ms avg=33ms (2)")
	assert.Contains(t, line, "z=0.125m")
}

func TestFormatEvent(t *testing.T) {
	line := formatEvent(session.Event{
		Kind:    session.EventLatencyDetected,
		Time:    1200,
		Latency: &latency.Outcome{Kind: latency.Detected, Latency: 48.5},
	})
	assert.Contains(t, line, "latency_detected")
	assert.Contains(t, line, "latency=48.5ms")

	line = formatEvent(session.Event{
		Kind:        session.EventCalibrationDone,
		Calibration: &position.Calibration{Gravity: imu.Vec3{Z: 9.8}},
	})
	assert.Contains(t, line, "gravity=(0.00, 0.00, 9.80)")

	line = formatEvent(session.Event{Kind: session.EventNoiseInsufficient, Message: "not enough samples"})
	assert.Contains(t, line, "not enough samples")
}
