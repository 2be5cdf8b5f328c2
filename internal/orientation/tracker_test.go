// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

func TestNormalizeAngle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want float64
	}{
		{350, -10},
		{180, 180},
		{-180, 180},
		{181, -179},
		{-190, 170},
		{720, 0},
		{-540, 180},
		{0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeAngle(tc.in), "in=%v", tc.in)
	}
}

func TestRelativeYawWraps(t *testing.T) {
	t.Parallel()

	tr := NewTracker(600)
	p := tr.OnOrientation(imu.OrientationSample{Alpha: 350, Beta: 10, Gamma: -5}, 0)
	assert.Equal(t, -10.0, p.Yaw)
	assert.Equal(t, 10.0, p.Pitch)
	assert.Equal(t, -5.0, p.Roll)
}

func TestZeroUsesCurrentPoseAsReference(t *testing.T) {
	t.Parallel()

	tr := NewTracker(600)
	tr.OnOrientation(imu.OrientationSample{Alpha: 10, Beta: 20, Gamma: 30}, 0)
	tr.OnOrientation(imu.OrientationSample{Alpha: 20, Beta: 25, Gamma: 35}, 16)
	require.Len(t, tr.History(), 2)

	tr.Zero()
	assert.Empty(t, tr.History())
	assert.Equal(t, imu.OrientationSample{Alpha: 20, Beta: 25, Gamma: 35}, tr.Offset())

	p := tr.OnOrientation(imu.OrientationSample{Alpha: 5, Beta: 30, Gamma: 30}, 32)
	assert.Equal(t, Pose{Pitch: 5, Roll: -5, Yaw: -15}, p)

	h := tr.History()
	require.Len(t, h, 1)
	assert.Equal(t, AngleSample{Time: 32, Pitch: 5, Roll: -5, Yaw: -15}, h[0])
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()

	tr := NewTracker(600)
	for i := 0; i < 1000; i++ {
		tr.OnOrientation(imu.OrientationSample{Beta: float64(i)}, float64(i))
	}
	h := tr.History()
	require.Len(t, h, 600)
	assert.Equal(t, 400.0, h[0].Time)
	assert.Equal(t, 999.0, h[599].Pitch)
}

func TestFromAccelLevel(t *testing.T) {
	t.Parallel()

	o := FromAccel(0, 0, 9.81)
	assert.InDelta(t, 0, o.Beta, 1e-9)
	assert.InDelta(t, 0, o.Gamma, 1e-9)

	o = FromAccel(0, 9.81, 0)
	assert.InDelta(t, 90, o.Gamma, 1e-9)
}

func TestMockSourceStaysInRange(t *testing.T) {
	t.Parallel()

	src := NewMockSource()
	o, err := src.Next()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, o.Alpha, 0.0)
	assert.Less(t, o.Alpha, 360.0)
	assert.LessOrEqual(t, o.Gamma, 20.0)
}
