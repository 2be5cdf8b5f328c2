// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

func TestMockMotionShapes(t *testing.T) {
	_, err := newMockMotion("sideways", 10*time.Millisecond, 1)
	assert.Error(t, err)

	gen, err := newMockMotion(shapeGeneric, 10*time.Millisecond, 1)
	require.NoError(t, err)
	g, ok := gen.next(1).(imu.GenericReading)
	require.True(t, ok)
	assert.Equal(t, 100.0, g.Frequency)
	assert.NotNil(t, g.Gyroscope)

	gen, err = newMockMotion(shapeMotion, 16*time.Millisecond, 1)
	require.NoError(t, err)
	m, ok := gen.next(1).(imu.MotionEvent)
	require.True(t, ok)
	require.NotNil(t, m.Interval)
	assert.Equal(t, 16.0, *m.Interval)
}

func TestMockMotionAlternates(t *testing.T) {
	gen, err := newMockMotion(shapeAlternate, 10*time.Millisecond, 1)
	require.NoError(t, err)

	assert.Equal(t, imu.GenericSensor, gen.next(1).Source())
	assert.Equal(t, imu.DeviceMotion, gen.next(6).Source())
	assert.Equal(t, imu.GenericSensor, gen.next(11).Source())
}

func TestMockMotionBump(t *testing.T) {
	gen, err := newMockMotion(shapeMotion, 10*time.Millisecond, 7)
	require.NoError(t, err)

	quiet := gen.next(2).(imu.MotionEvent).AccelerationIncludingGravity.Magnitude()
	bump := gen.next(4.05).(imu.MotionEvent).AccelerationIncludingGravity.Magnitude()
	assert.InDelta(t, 9.81, quiet, 1)
	assert.Greater(t, bump-9.81, 2.0)
}

func TestMockMotionNormalizes(t *testing.T) {
	gen, err := newMockMotion(shapeAlternate, 10*time.Millisecond, 3)
	require.NoError(t, err)

	var n imu.Normalizer
	for i := 0; i < 20; i++ {
		_, err := n.Normalize(gen.next(float64(i)*0.7), float64(i*10))
		require.NoError(t, err)
	}
	assert.Equal(t, 20, n.Count())
}
