// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_diagnostics/internal/clock"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

func newIntegrator(t *testing.T) (*Integrator, *clock.Manual, *[]Calibration) {
	t.Helper()
	clk := clock.NewManual(0)
	in := New(DefaultConfig(), clk)
	var cals []Calibration
	in.OnCalibrated(func(c Calibration) { cals = append(cals, c) })
	return in, clk, &cals
}

func feed(in *Integrator, ts float64, accel imu.Vec3) {
	in.OnSample(imu.SensorSample{Timestamp: ts, Acceleration: accel}, imu.Published{Acceleration: accel, Valid: true})
}

// activate enables integration and lets an empty calibration window elapse,
// leaving the default gravity estimate in place.
func activate(t *testing.T, in *Integrator, clk *clock.Manual) {
	t.Helper()
	in.SetEnabled(true)
	require.Equal(t, Calibrating, in.State())
	clk.Advance(500 * time.Millisecond)
	require.Equal(t, Active, in.State())
}

func TestEulerIntegrationIsDeterministic(t *testing.T) {
	t.Parallel()

	in, clk, cals := newIntegrator(t)
	activate(t, in, clk)
	require.Len(t, *cals, 1)
	assert.True(t, (*cals)[0].Retained)
	assert.Equal(t, imu.Vec3{Z: 9.81}, in.Gravity())

	for i := 0; i < 10; i++ {
		feed(in, float64(1000+100*i), imu.Vec3{Z: 10.0})
	}

	// first sample only seeds the time cursor
	var v, p float64
	az := 10.0 - 9.81
	for i := 0; i < 9; i++ {
		v += az * 0.1
		p += v * 0.1
	}
	assert.Equal(t, imu.Vec3{Z: v}, in.Velocity())
	assert.Equal(t, imu.Vec3{Z: p}, in.Position())

	h := in.Height()
	require.Len(t, h, 9)
	assert.Equal(t, 1900.0, h[8].Time)
	assert.Equal(t, p, h[8].Z)
	assert.Len(t, in.Trace(), 9)
}

func TestDeadzoneSuppressesResidualNoise(t *testing.T) {
	t.Parallel()

	in, clk, _ := newIntegrator(t)
	activate(t, in, clk)

	feed(in, 1000, imu.Vec3{X: 0.05, Y: -0.09, Z: 9.85})
	feed(in, 1050, imu.Vec3{X: 0.05, Y: -0.09, Z: 9.85})
	assert.Equal(t, imu.Vec3{}, in.Velocity())
	assert.Len(t, in.Height(), 1)

	feed(in, 1100, imu.Vec3{X: 0.5, Y: -0.09, Z: 9.81})
	assert.InDelta(t, 0.025, in.Velocity().X, 1e-12)
	assert.Equal(t, 0.0, in.Velocity().Y)
	assert.Equal(t, 0.0, in.Velocity().Z)
}

func TestTimingAnomaliesSkipIntegration(t *testing.T) {
	t.Parallel()

	in, clk, _ := newIntegrator(t)
	activate(t, in, clk)

	up := imu.Vec3{Z: 11}
	feed(in, 1000, up)
	feed(in, 1000, up) // dt == 0
	feed(in, 1500, up) // dt > 0.1
	assert.Equal(t, imu.Vec3{}, in.Velocity())
	assert.Empty(t, in.Height())

	// the cursor advanced to 1500 so this step is 50 ms
	feed(in, 1550, up)
	assert.InDelta(t, (11-9.81)*0.05, in.Velocity().Z, 1e-12)
	assert.Len(t, in.Height(), 1)
}

func TestCalibrationAveragesLastKnownAcceleration(t *testing.T) {
	t.Parallel()

	in, clk, cals := newIntegrator(t)
	in.SetEnabled(true)
	feed(in, 10, imu.Vec3{X: 0.1, Y: 0.2, Z: 9.7})
	feed(in, 20, imu.Vec3{X: 0.3, Y: 0.0, Z: 9.9})
	clk.Advance(500 * time.Millisecond)

	require.Len(t, *cals, 1)
	c := (*cals)[0]
	assert.False(t, c.Retained)
	assert.Equal(t, 2, c.Samples)
	assert.InDelta(t, 0.2, in.Gravity().X, 1e-12)
	assert.InDelta(t, 0.1, in.Gravity().Y, 1e-12)
	assert.InDelta(t, 9.8, in.Gravity().Z, 1e-12)
	assert.Equal(t, in.Gravity(), c.Gravity)

	// next sample only seeds time
	feed(in, 600, imu.Vec3{Z: 20})
	assert.Equal(t, imu.Vec3{}, in.Velocity())
	assert.Empty(t, in.Height())
}

func TestSecondResetRestartsWindow(t *testing.T) {
	t.Parallel()

	in, clk, cals := newIntegrator(t)
	in.SetEnabled(true)
	feed(in, 100, imu.Vec3{Z: 50})
	clk.Advance(300 * time.Millisecond)
	in.Reset()

	// the first window's deadline passes without effect
	clk.Advance(200 * time.Millisecond)
	assert.Equal(t, Calibrating, in.State())
	assert.Empty(t, *cals)

	feed(in, 600, imu.Vec3{Z: 9.6})
	clk.Advance(300 * time.Millisecond)
	require.Len(t, *cals, 1)
	assert.Equal(t, 1, (*cals)[0].Samples)
	assert.Equal(t, imu.Vec3{Z: 9.6}, in.Gravity())
}

func TestEmptyCalibrationKeepsPriorEstimate(t *testing.T) {
	t.Parallel()

	in, clk, cals := newIntegrator(t)
	in.SetEnabled(true)
	feed(in, 10, imu.Vec3{X: 1, Z: 9.5})
	clk.Advance(500 * time.Millisecond)
	prior := in.Gravity()

	in.Reset()
	clk.Advance(500 * time.Millisecond)
	require.Len(t, *cals, 2)
	assert.True(t, (*cals)[1].Retained)
	assert.Equal(t, prior, in.Gravity())
}

func TestResetClearsMotionState(t *testing.T) {
	t.Parallel()

	in, clk, _ := newIntegrator(t)
	activate(t, in, clk)
	feed(in, 1000, imu.Vec3{X: 3, Z: 9.81})
	feed(in, 1100, imu.Vec3{X: 3, Z: 9.81})
	require.NotEqual(t, imu.Vec3{}, in.Position())

	in.Reset()
	assert.Equal(t, imu.Vec3{}, in.Velocity())
	assert.Equal(t, imu.Vec3{}, in.Position())
	assert.Empty(t, in.Height())
	assert.Empty(t, in.Trace())
}

func TestDisabledIntegratorIgnoresSamples(t *testing.T) {
	t.Parallel()

	in, clk, cals := newIntegrator(t)
	feed(in, 0, imu.Vec3{Z: 20})
	assert.Equal(t, Idle, in.State())

	in.SetEnabled(true)
	in.SetEnabled(false)
	assert.Equal(t, Idle, in.State())
	clk.Advance(time.Second)
	assert.Empty(t, *cals)

	feed(in, 1000, imu.Vec3{Z: 20})
	feed(in, 1050, imu.Vec3{Z: 20})
	assert.Equal(t, imu.Vec3{}, in.Velocity())
}

func TestHistoriesAreBounded(t *testing.T) {
	t.Parallel()

	in, clk, _ := newIntegrator(t)
	activate(t, in, clk)
	for i := 0; i <= 300; i++ {
		feed(in, float64(1000+10*i), imu.Vec3{Z: 10})
	}
	h := in.Height()
	require.Len(t, h, 200)
	assert.Equal(t, float64(1000+10*101), h[0].Time)
	assert.Len(t, in.Trace(), 200)
}

func TestClearRestoresInitialState(t *testing.T) {
	t.Parallel()

	in, clk, cals := newIntegrator(t)
	in.SetEnabled(true)
	feed(in, 10, imu.Vec3{Z: 9.0})
	in.Clear()
	clk.Advance(time.Second)

	assert.Empty(t, *cals)
	assert.Equal(t, Idle, in.State())
	assert.False(t, in.Enabled())
	assert.Equal(t, DefaultConfig().DefaultGravity, in.Gravity())
}
