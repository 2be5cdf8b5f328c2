// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/latency"
	"github.com/relabs-tech/motion_diagnostics/internal/noise"
	"github.com/relabs-tech/motion_diagnostics/internal/orientation"
	"github.com/relabs-tech/motion_diagnostics/internal/position"
	"github.com/relabs-tech/motion_diagnostics/internal/stats"
	"github.com/relabs-tech/motion_diagnostics/internal/timing"
)

// Snapshot is a copy of every statistic the session computes.
// Pointer fields are nil while the value is not yet reportable.
// History slices are only filled when requested.
type Snapshot struct {
	Session string  `json:"session"`
	Time    float64 `json:"time"`

	SampleCount int               `json:"sample_count"`
	SampleRate  *float64          `json:"sample_rate,omitempty"`
	LastSample  *imu.SensorSample `json:"last_sample,omitempty"`
	Last        imu.Published     `json:"last"`

	Timing      TimingSnapshot      `json:"timing"`
	Noise       NoiseSnapshot       `json:"noise"`
	Latency     LatencySnapshot     `json:"latency"`
	Orientation OrientationSnapshot `json:"orientation"`
	Position    PositionSnapshot    `json:"position"`
}

type TimingSnapshot struct {
	ExpectedInterval float64        `json:"expected_interval"`
	Stats            *stats.Summary `json:"stats,omitempty"`
	Dropped          int            `json:"dropped"`
	Intervals        []float64      `json:"intervals,omitempty"`
}

type NoiseSnapshot struct {
	State    string        `json:"state"`
	Captured int           `json:"captured"`
	Result   *noise.Result `json:"result,omitempty"`
}

type LatencySnapshot struct {
	State        string         `json:"state"`
	Stats        *latency.Stats `json:"stats,omitempty"`
	Measurements []float64      `json:"measurements,omitempty"`
}

type OrientationSnapshot struct {
	Current  *imu.OrientationSample    `json:"current,omitempty"`
	Offset   imu.OrientationSample     `json:"offset"`
	Relative orientation.Pose          `json:"relative"`
	History  []orientation.AngleSample `json:"history,omitempty"`
}

type PositionSnapshot struct {
	State    string                  `json:"state"`
	Enabled  bool                    `json:"enabled"`
	Gravity  imu.Vec3                `json:"gravity"`
	Velocity imu.Vec3                `json:"velocity"`
	Position imu.Vec3                `json:"position"`
	Height   []position.HeightSample `json:"height,omitempty"`
	Trace    []position.TracePoint   `json:"trace,omitempty"`
}

// SampleRate is samples per second since the session's first sample,
// reported once more than the timing MinSamples samples have arrived.
func (s *Session) SampleRate() (float64, bool) {
	n := s.norm.Count()
	if n == 0 {
		return 0, false
	}
	elapsed := (s.clk.Now() - s.startTime) / 1000
	return timing.SampleRate(elapsed, n, s.cfg.Timing.MinSamples)
}

// Snapshot copies the current state. withHistory adds every bounded history buffer.
func (s *Session) Snapshot(withHistory bool) Snapshot {
	snap := Snapshot{
		Session:     s.id,
		Time:        s.clk.Now(),
		SampleCount: s.norm.Count(),
		Last:        s.norm.Last(),
	}
	if rate, ok := s.SampleRate(); ok {
		snap.SampleRate = &rate
	}
	if s.lastSample != nil {
		ls := *s.lastSample
		snap.LastSample = &ls
	}

	snap.Timing = TimingSnapshot{
		ExpectedInterval: s.timing.ExpectedInterval(),
		Dropped:          s.timing.Dropped(),
	}
	if st, ok := s.timing.Stats(); ok {
		snap.Timing.Stats = &st
	}

	snap.Noise = NoiseSnapshot{State: s.noise.State().String(), Captured: s.noise.Captured()}
	if r, ok := s.noise.Result(); ok {
		snap.Noise.Result = &r
	}

	snap.Latency = LatencySnapshot{State: s.latency.State().String()}
	if st, ok := s.latency.Stats(); ok {
		snap.Latency.Stats = &st
	}

	snap.Orientation = OrientationSnapshot{
		Offset:   s.orient.Offset(),
		Relative: s.orient.Relative(),
	}
	if cur, ok := s.orient.Current(); ok {
		snap.Orientation.Current = &cur
	}

	snap.Position = PositionSnapshot{
		State:    s.position.State().String(),
		Enabled:  s.position.Enabled(),
		Gravity:  s.position.Gravity(),
		Velocity: s.position.Velocity(),
		Position: s.position.Position(),
	}

	if withHistory {
		snap.Timing.Intervals = s.timing.Intervals()
		snap.Latency.Measurements = s.latency.Measurements()
		snap.Orientation.History = s.orient.History()
		snap.Position.Height = s.position.Height()
		snap.Position.Trace = s.position.Trace()
	}
	return snap
}
