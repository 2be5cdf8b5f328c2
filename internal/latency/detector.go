// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package latency measures the delay between a user tap and the
// acceleration spike it causes.
package latency

import (
	"math"
	"time"

	"github.com/relabs-tech/motion_diagnostics/internal/clock"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/stats"
)

type State int

const (
	Idle State = iota
	Waiting
)

func (s State) String() string {
	if s == Waiting {
		return "waiting"
	}
	return "idle"
}

// OutcomeKind names how a waiting period ended.
type OutcomeKind string

const (
	Detected  OutcomeKind = "detected"
	Discarded OutcomeKind = "discarded" // spike seen, latency outside (0, timeout)
	TimedOut  OutcomeKind = "timeout"
)

// Outcome is reported once per tap.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Latency float64     `json:"latency_ms,omitempty"`
	Delta   float64     `json:"delta,omitempty"` // |magnitude - baseline|, m/s²
	TapTime float64     `json:"tap_time"`
}

type Config struct {
	Threshold       float64 // m/s²
	Timeout         time.Duration
	DefaultBaseline float64 // used when no acceleration has been seen yet
}

func DefaultConfig() Config {
	return Config{
		Threshold:       2.0,
		Timeout:         500 * time.Millisecond,
		DefaultBaseline: 9.8,
	}
}

// Stats summarizes recorded latencies in ms.
type Stats struct {
	Last  float64 `json:"last"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Detector runs Idle -> Waiting -> {Detected | TimedOut} -> Idle.
type Detector struct {
	cfg   Config
	clk   clock.Clock
	state State
	gen   int

	tapTime  float64
	baseline float64

	measurements []float64
	onOutcome    func(Outcome)
}

func New(cfg Config, clk clock.Clock) *Detector {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.DefaultBaseline <= 0 {
		cfg.DefaultBaseline = def.DefaultBaseline
	}
	return &Detector{cfg: cfg, clk: clk}
}

func (d *Detector) OnOutcome(f func(Outcome)) { d.onOutcome = f }

// Tap arms the detector using the last-known acceleration as baseline.
// It is ignored (returns false) while already waiting.
func (d *Detector) Tap(last imu.Published) bool {
	if d.state == Waiting {
		return false
	}
	d.tapTime = d.clk.Now()
	d.baseline = d.cfg.DefaultBaseline
	if last.Valid {
		d.baseline = last.Acceleration.Magnitude()
	}
	d.state = Waiting
	d.gen++
	gen := d.gen
	d.clk.AfterFunc(d.cfg.Timeout, func() { d.timeout(gen) })
	return true
}

// OnSample checks one sample for the spike. Only evaluated while waiting.
func (d *Detector) OnSample(s imu.SensorSample) {
	if d.state != Waiting {
		return
	}
	delta := math.Abs(s.Acceleration.Magnitude() - d.baseline)
	if delta <= d.cfg.Threshold {
		return
	}

	latency := s.Timestamp - d.tapTime
	d.state = Idle
	out := Outcome{Kind: Discarded, Latency: latency, Delta: delta, TapTime: d.tapTime}
	if latency > 0 && latency < clock.Millis(d.cfg.Timeout) {
		d.measurements = append(d.measurements, latency)
		out.Kind = Detected
	}
	d.notify(out)
}

func (d *Detector) timeout(gen int) {
	if d.state != Waiting || gen != d.gen {
		return
	}
	d.state = Idle
	d.notify(Outcome{Kind: TimedOut, TapTime: d.tapTime})
}

func (d *Detector) notify(o Outcome) {
	if d.onOutcome != nil {
		d.onOutcome(o)
	}
}

func (d *Detector) State() State { return d.state }

// Measurements returns a copy of the recorded latencies, oldest first.
func (d *Detector) Measurements() []float64 {
	out := make([]float64, len(d.measurements))
	copy(out, d.measurements)
	return out
}

// Stats is ok once at least one latency has been recorded.
func (d *Detector) Stats() (Stats, bool) {
	n := len(d.measurements)
	if n == 0 {
		return Stats{}, false
	}
	lo, hi := stats.MinMax(d.measurements)
	return Stats{
		Last:  d.measurements[n-1],
		Mean:  stats.Mean(d.measurements),
		Min:   lo,
		Max:   hi,
		Count: n,
	}, true
}

// Reset clears the history and forces Idle; a pending timeout becomes a no-op.
func (d *Detector) Reset() {
	d.measurements = nil
	d.state = Idle
	d.gen++
}
