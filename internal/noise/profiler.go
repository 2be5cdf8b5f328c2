// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package noise measures static sensor noise over a fixed capture window.
package noise

import (
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/motion_diagnostics/internal/clock"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/stats"
)

// ErrInsufficientData is reported when a capture window collected too few samples.
var ErrInsufficientData = errors.New("insufficient samples for noise analysis")

type State int

const (
	Idle State = iota
	Capturing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	default:
		return "unknown"
	}
}

type Config struct {
	Window     time.Duration
	MinSamples int
}

func DefaultConfig() Config {
	return Config{Window: 3 * time.Second, MinSamples: 10}
}

// Result is the outcome of a successful capture.
type Result struct {
	AccelNoiseStdDev float64 `json:"accel_noise_stddev"` // m/s²
	GyroNoiseStdDev  float64 `json:"gyro_noise_stddev"`  // deg/s
	Samples          int     `json:"samples"`
	CompletedAt      float64 `json:"completed_at"`
}

// Profiler is a one-shot capture. Start while capturing is a no-op.
type Profiler struct {
	cfg   Config
	clk   clock.Clock
	state State
	gen   int

	accel []imu.Vec3
	gyro  []imu.Vec3

	result    Result
	hasResult bool

	onFinish func(Result, error)
}

func New(cfg Config, clk clock.Clock) *Profiler {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultConfig().MinSamples
	}
	return &Profiler{cfg: cfg, clk: clk}
}

// OnFinish registers the callback run when a capture window closes.
// err is ErrInsufficientData (wrapped) when too few samples were captured.
func (p *Profiler) OnFinish(f func(Result, error)) { p.onFinish = f }

// Start begins a capture window. It returns false if one is already running.
func (p *Profiler) Start() bool {
	if p.state == Capturing {
		return false
	}
	p.accel = p.accel[:0]
	p.gyro = p.gyro[:0]
	p.state = Capturing
	p.gen++
	gen := p.gen
	p.clk.AfterFunc(p.cfg.Window, func() { p.finish(gen) })
	return true
}

// OnSample appends the published last-known vectors while capturing.
func (p *Profiler) OnSample(last imu.Published) {
	if p.state != Capturing {
		return
	}
	p.accel = append(p.accel, last.Acceleration)
	p.gyro = append(p.gyro, last.Gyro)
}

func (p *Profiler) finish(gen int) {
	if p.state != Capturing || gen != p.gen {
		return
	}
	p.state = Idle

	n := len(p.accel)
	if n < p.cfg.MinSamples {
		p.notify(Result{}, fmt.Errorf("captured %d of %d samples: %w", n, p.cfg.MinSamples, ErrInsufficientData))
		return
	}

	accelMag := make([]float64, n)
	gyroMag := make([]float64, n)
	for i := range p.accel {
		accelMag[i] = p.accel[i].Magnitude()
		gyroMag[i] = p.gyro[i].Magnitude()
	}

	p.result = Result{
		AccelNoiseStdDev: stats.StdDev(accelMag),
		GyroNoiseStdDev:  stats.StdDev(gyroMag),
		Samples:          n,
		CompletedAt:      p.clk.Now(),
	}
	p.hasResult = true
	p.notify(p.result, nil)
}

func (p *Profiler) notify(r Result, err error) {
	if p.onFinish != nil {
		p.onFinish(r, err)
	}
}

func (p *Profiler) State() State { return p.state }

// Captured is the number of samples collected by the current or last window.
func (p *Profiler) Captured() int { return len(p.accel) }

// Result returns the most recent successful capture.
func (p *Profiler) Result() (Result, bool) { return p.result, p.hasResult }

// Cancel abandons an in-flight capture without reporting. Prior results stay.
func (p *Profiler) Cancel() {
	p.state = Idle
	p.gen++
	p.accel = p.accel[:0]
	p.gyro = p.gyro[:0]
}
