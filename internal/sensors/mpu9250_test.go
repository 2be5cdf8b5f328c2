// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccelToMS2(t *testing.T) {
	assert.InDelta(t, StandardGravity, AccelToMS2(16384, 0), 1e-9)
	assert.InDelta(t, StandardGravity, AccelToMS2(8192, 1), 1e-9)
	assert.InDelta(t, -StandardGravity, AccelToMS2(-4096, 2), 1e-9)
	assert.InDelta(t, 2*StandardGravity, AccelToMS2(4096, 3), 1e-9)
}

func TestGyroToRad(t *testing.T) {
	assert.InDelta(t, math.Pi/180, GyroToRad(131, 0), 1e-12)
	assert.InDelta(t, 10*math.Pi/180, GyroToRad(164, 3), 1e-12)
	assert.Equal(t, 0.0, GyroToRad(0, 1))
}

func TestConvert(t *testing.T) {
	r := Convert(0, 0, 16384, 131, 0, -131, MPU9250Options{SampleRate: 100})

	assert.InDelta(t, StandardGravity, r.Accelerometer.Z, 1e-9)
	assert.Nil(t, r.LinearAcceleration)
	require.NotNil(t, r.Gyroscope)
	assert.InDelta(t, math.Pi/180, r.Gyroscope.X, 1e-12)
	assert.InDelta(t, -math.Pi/180, r.Gyroscope.Z, 1e-12)
	assert.Equal(t, 100.0, r.Frequency)
}
