// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package position dead-reckons displacement by double integration of
// gravity-compensated acceleration.
//
// Integration is explicit first-order Euler in the body frame. Drift is
// expected; the only mitigation is the per-axis deadzone and manual
// recalibration through Reset.
package position

import (
	"math"
	"time"

	"github.com/relabs-tech/motion_diagnostics/internal/clock"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/ring"
)

type State int

const (
	Idle State = iota
	Calibrating
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Calibrating:
		return "calibrating"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

type Config struct {
	CalibrationWindow time.Duration
	DefaultGravity    imu.Vec3
	Deadzone          float64 // m/s², per axis
	MaxDt             float64 // seconds; larger steps are skipped
	HistorySize       int
}

func DefaultConfig() Config {
	return Config{
		CalibrationWindow: 500 * time.Millisecond,
		DefaultGravity:    imu.Vec3{X: 0, Y: 0, Z: 9.81},
		Deadzone:          0.1,
		MaxDt:             0.1,
		HistorySize:       200,
	}
}

// HeightSample is one entry of the vertical displacement history.
type HeightSample struct {
	Time float64 `json:"time"`
	Z    float64 `json:"z"`
}

// TracePoint is one entry of the horizontal path.
type TracePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Calibration reports the end of a calibration window.
type Calibration struct {
	Gravity imu.Vec3 `json:"gravity"`
	Samples int      `json:"samples"`
	// Retained is true when no samples arrived and the previous estimate was kept.
	Retained bool `json:"retained"`
}

// Integrator runs Idle <-> Calibrating -> Active.
type Integrator struct {
	cfg     Config
	clk     clock.Clock
	state   State
	gen     int
	enabled bool

	gravity imu.Vec3
	calib   []imu.Vec3

	velocity imu.Vec3
	position imu.Vec3

	lastTime     float64
	haveLastTime bool

	height *ring.Buffer[HeightSample]
	trace  *ring.Buffer[TracePoint]

	onCalibrated func(Calibration)
}

func New(cfg Config, clk clock.Clock) *Integrator {
	def := DefaultConfig()
	if cfg.CalibrationWindow <= 0 {
		cfg.CalibrationWindow = def.CalibrationWindow
	}
	if cfg.MaxDt <= 0 {
		cfg.MaxDt = def.MaxDt
	}
	if cfg.DefaultGravity == (imu.Vec3{}) {
		cfg.DefaultGravity = def.DefaultGravity
	}
	return &Integrator{
		cfg:     cfg,
		clk:     clk,
		gravity: cfg.DefaultGravity,
		height:  ring.New[HeightSample](cfg.HistorySize),
		trace:   ring.New[TracePoint](cfg.HistorySize),
	}
}

func (in *Integrator) OnCalibrated(f func(Calibration)) { in.onCalibrated = f }

// Reset clears motion state and histories and starts a calibration window.
// Calling it during a window restarts the window and drops collected samples.
func (in *Integrator) Reset() {
	in.velocity = imu.Vec3{}
	in.position = imu.Vec3{}
	in.height.Clear()
	in.trace.Clear()
	in.calib = in.calib[:0]
	in.haveLastTime = false

	in.state = Calibrating
	in.gen++
	gen := in.gen
	in.clk.AfterFunc(in.cfg.CalibrationWindow, func() { in.finishCalibration(gen) })
}

func (in *Integrator) finishCalibration(gen int) {
	if in.state != Calibrating || gen != in.gen {
		return
	}
	c := Calibration{Samples: len(in.calib)}
	if len(in.calib) > 0 {
		var sum imu.Vec3
		for _, v := range in.calib {
			sum = sum.Add(v)
		}
		in.gravity = sum.Scale(1 / float64(len(in.calib)))
	} else {
		c.Retained = true
	}
	c.Gravity = in.gravity
	in.calib = in.calib[:0]
	in.haveLastTime = false
	in.state = Active

	if in.onCalibrated != nil {
		in.onCalibrated(c)
	}
}

// SetEnabled toggles integration. Enabling starts a fresh calibration;
// disabling returns the integrator to Idle and abandons any window.
func (in *Integrator) SetEnabled(on bool) {
	if on == in.enabled {
		return
	}
	in.enabled = on
	if on {
		in.Reset()
		return
	}
	in.state = Idle
	in.gen++
	in.calib = in.calib[:0]
	in.haveLastTime = false
}

// OnSample feeds one sample together with the published last-known vectors.
func (in *Integrator) OnSample(s imu.SensorSample, last imu.Published) {
	switch in.state {
	case Calibrating:
		in.calib = append(in.calib, last.Acceleration)
		return
	case Active:
	default:
		return
	}
	if !in.enabled {
		return
	}

	if !in.haveLastTime {
		in.lastTime = s.Timestamp
		in.haveLastTime = true
		return
	}

	dt := (s.Timestamp - in.lastTime) / 1000
	in.lastTime = s.Timestamp
	if dt <= 0 || dt > in.cfg.MaxDt {
		return
	}

	accel := in.deadzone(last.Acceleration.Sub(in.gravity))

	in.velocity = in.velocity.Add(accel.Scale(dt))
	in.position = in.position.Add(in.velocity.Scale(dt))

	in.height.Push(HeightSample{Time: s.Timestamp, Z: in.position.Z})
	in.trace.Push(TracePoint{X: in.position.X, Y: in.position.Y})
}

func (in *Integrator) deadzone(v imu.Vec3) imu.Vec3 {
	dz := func(x float64) float64 {
		if math.Abs(x) < in.cfg.Deadzone {
			return 0
		}
		return x
	}
	return imu.Vec3{X: dz(v.X), Y: dz(v.Y), Z: dz(v.Z)}
}

func (in *Integrator) State() State       { return in.state }
func (in *Integrator) Enabled() bool      { return in.enabled }
func (in *Integrator) Gravity() imu.Vec3  { return in.gravity }
func (in *Integrator) Velocity() imu.Vec3 { return in.velocity }
func (in *Integrator) Position() imu.Vec3 { return in.position }

// Height returns the vertical displacement history, oldest first.
func (in *Integrator) Height() []HeightSample { return in.height.Items() }

// Trace returns the horizontal path history, oldest first.
func (in *Integrator) Trace() []TracePoint { return in.trace.Items() }

// Clear returns the integrator to its initial state: Idle, disabled,
// default gravity, no motion and empty histories. Pending windows are dropped.
func (in *Integrator) Clear() {
	in.state = Idle
	in.gen++
	in.enabled = false
	in.gravity = in.cfg.DefaultGravity
	in.calib = in.calib[:0]
	in.velocity = imu.Vec3{}
	in.position = imu.Vec3{}
	in.haveLastTime = false
	in.height.Clear()
	in.trace.Clear()
}
