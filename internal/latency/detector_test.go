// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package latency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_diagnostics/internal/clock"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

func newDetector(t *testing.T) (*Detector, *clock.Manual, *[]Outcome) {
	t.Helper()
	clk := clock.NewManual(0)
	d := New(DefaultConfig(), clk)
	var outcomes []Outcome
	d.OnOutcome(func(o Outcome) { outcomes = append(outcomes, o) })
	return d, clk, &outcomes
}

func sampleAt(ts, z float64) imu.SensorSample {
	return imu.SensorSample{Timestamp: ts, Acceleration: imu.Vec3{Z: z}}
}

var atRest = imu.Published{Acceleration: imu.Vec3{Z: 9.8}, Valid: true}

func TestTapThenSpikeRecordsLatency(t *testing.T) {
	t.Parallel()

	d, clk, outcomes := newDetector(t)
	require.True(t, d.Tap(atRest))
	assert.Equal(t, Waiting, d.State())

	clk.Advance(120 * time.Millisecond)
	d.OnSample(sampleAt(60, 10.5)) // below threshold
	d.OnSample(sampleAt(120, 12.9))

	assert.Equal(t, Idle, d.State())
	require.Len(t, *outcomes, 1)
	o := (*outcomes)[0]
	assert.Equal(t, Detected, o.Kind)
	assert.Equal(t, 120.0, o.Latency)
	assert.InDelta(t, 3.1, o.Delta, 1e-9)

	s, ok := d.Stats()
	require.True(t, ok)
	assert.Equal(t, Stats{Last: 120, Mean: 120, Min: 120, Max: 120, Count: 1}, s)

	// the pending timeout must not report once detection has happened
	clk.Advance(time.Second)
	assert.Len(t, *outcomes, 1)
}

func TestTimeoutWithoutSpike(t *testing.T) {
	t.Parallel()

	d, clk, outcomes := newDetector(t)
	d.Tap(atRest)
	d.OnSample(sampleAt(100, 10.0))
	clk.Advance(499 * time.Millisecond)
	assert.Equal(t, Waiting, d.State())
	assert.Empty(t, *outcomes)

	clk.Advance(1 * time.Millisecond)
	assert.Equal(t, Idle, d.State())
	require.Len(t, *outcomes, 1)
	assert.Equal(t, TimedOut, (*outcomes)[0].Kind)
	assert.Empty(t, d.Measurements())
	_, ok := d.Stats()
	assert.False(t, ok)
}

func TestOutOfRangeSpikeIsDiscardedButEndsWaiting(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ts   float64
	}{
		{"before tap", -5},
		{"same instant", 0},
		{"too late", 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d, _, outcomes := newDetector(t)
			d.Tap(atRest)
			d.OnSample(sampleAt(tc.ts, 15))

			assert.Equal(t, Idle, d.State())
			require.Len(t, *outcomes, 1)
			assert.Equal(t, Discarded, (*outcomes)[0].Kind)
			assert.Empty(t, d.Measurements())
		})
	}
}

func TestTapIgnoredWhileWaiting(t *testing.T) {
	t.Parallel()

	d, clk, outcomes := newDetector(t)
	require.True(t, d.Tap(atRest))
	clk.Advance(300 * time.Millisecond)
	assert.False(t, d.Tap(atRest))

	// the original deadline still applies
	clk.Advance(200 * time.Millisecond)
	require.Len(t, *outcomes, 1)
	assert.Equal(t, TimedOut, (*outcomes)[0].Kind)
	assert.Equal(t, 0.0, (*outcomes)[0].TapTime)
}

func TestBaselineDefaultsWhenNothingSeen(t *testing.T) {
	t.Parallel()

	d, clk, outcomes := newDetector(t)
	d.Tap(imu.Published{})
	clk.Advance(50 * time.Millisecond)
	d.OnSample(sampleAt(50, 11.7)) // |11.7-9.8| = 1.9, below threshold
	assert.Empty(t, *outcomes)
	d.OnSample(sampleAt(60, 7.7)) // |7.7-9.8| = 2.1
	require.Len(t, *outcomes, 1)
	assert.Equal(t, Detected, (*outcomes)[0].Kind)
	assert.Equal(t, 60.0, (*outcomes)[0].Latency)
}

func TestStatsAcrossTaps(t *testing.T) {
	t.Parallel()

	d, clk, _ := newDetector(t)
	for _, lat := range []float64{100, 200, 60} {
		d.Tap(atRest)
		d.OnSample(sampleAt(clk.Now()+lat, 13))
		clk.Advance(time.Second)
	}

	s, ok := d.Stats()
	require.True(t, ok)
	assert.Equal(t, 60.0, s.Last)
	assert.Equal(t, 60.0, s.Min)
	assert.Equal(t, 200.0, s.Max)
	assert.InDelta(t, 120.0, s.Mean, 1e-12)
	assert.Equal(t, 3, s.Count)
}

func TestResetClearsHistoryAndCancelsWait(t *testing.T) {
	t.Parallel()

	d, clk, outcomes := newDetector(t)
	d.Tap(atRest)
	d.OnSample(sampleAt(80, 13))
	d.Tap(atRest)
	d.Reset()

	assert.Equal(t, Idle, d.State())
	assert.Empty(t, d.Measurements())
	clk.Advance(time.Second)
	assert.Len(t, *outcomes, 1)
}
