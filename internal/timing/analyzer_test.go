// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDroppedSampleEstimate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		interval float64
		want     int
	}{
		{"on time", 16, 0},
		{"just under threshold", 25, 0},
		{"one missed tick", 40, 1},
		{"two missed ticks", 50, 2},
		{"long gap", 1000, 59},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := New(DefaultConfig())
			a.RecordInterval(tc.interval)
			assert.Equal(t, tc.want, a.Dropped())
		})
	}
}

func TestDroppedNeverDecreases(t *testing.T) {
	t.Parallel()

	a := New(DefaultConfig())
	prev := 0
	for _, iv := range []float64{16, 40, 16, 17, 70, 3, 16, 120, 0} {
		a.RecordInterval(iv)
		require.GreaterOrEqual(t, a.Dropped(), prev)
		prev = a.Dropped()
	}
	assert.Equal(t, 1+3+6, a.Dropped())

	a.Reset()
	assert.Equal(t, 0, a.Dropped())
	assert.Empty(t, a.Intervals())
}

func TestStatsRequireMoreThanTenIntervals(t *testing.T) {
	t.Parallel()

	a := New(DefaultConfig())
	for i := 0; i < 10; i++ {
		a.RecordInterval(16)
	}
	_, ok := a.Stats()
	assert.False(t, ok)

	a.RecordInterval(20)
	s, ok := a.Stats()
	require.True(t, ok)
	assert.Equal(t, 16.0, s.Min)
	assert.Equal(t, 20.0, s.Max)
	assert.InDelta(t, (16.0*10+20)/11, s.Mean, 1e-12)
	assert.Greater(t, s.StdDev, 0.0)
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()

	a := New(DefaultConfig())
	for i := 0; i < 250; i++ {
		a.RecordInterval(float64(i))
	}
	got := a.Intervals()
	require.Len(t, got, 100)
	assert.Equal(t, 150.0, got[0])
	assert.Equal(t, 249.0, got[99])
}

func TestSampleRate(t *testing.T) {
	t.Parallel()

	_, ok := SampleRate(1, 10, 10)
	assert.False(t, ok)

	rate, ok := SampleRate(2, 120, 10)
	require.True(t, ok)
	assert.Equal(t, 60.0, rate)

	_, ok = SampleRate(0, 120, 10)
	assert.False(t, ok)
}
