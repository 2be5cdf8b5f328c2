// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session wires the analyzers together: every raw event is
// normalized once and fanned out, commands arm the one-shot operations,
// and observers hear about every outcome.
//
// A Session is not safe for concurrent use. All calls, including timer
// callbacks delivered through the Clock, must come from one goroutine;
// Loop provides that for live sources.
package session

import (
	"github.com/google/uuid"

	"github.com/relabs-tech/motion_diagnostics/internal/clock"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/latency"
	"github.com/relabs-tech/motion_diagnostics/internal/noise"
	"github.com/relabs-tech/motion_diagnostics/internal/orientation"
	"github.com/relabs-tech/motion_diagnostics/internal/position"
	"github.com/relabs-tech/motion_diagnostics/internal/timing"
)

// Config groups the per-component settings.
type Config struct {
	Timing             timing.Config
	Noise              noise.Config
	Latency            latency.Config
	Position           position.Config
	OrientationHistory int
}

func DefaultConfig() Config {
	return Config{
		Timing:             timing.DefaultConfig(),
		Noise:              noise.DefaultConfig(),
		Latency:            latency.DefaultConfig(),
		Position:           position.DefaultConfig(),
		OrientationHistory: 600,
	}
}

// LogEntry is one row of the session-long export log.
type LogEntry struct {
	Timestamp             float64           `json:"timestamp"`
	ReportedInterval      *float64          `json:"reported_interval"`
	MeasuredInterval      float64           `json:"measured_interval"`
	Acceleration          imu.Vec3          `json:"acceleration"`
	AccelerationNoGravity *imu.Vec3         `json:"acceleration_no_gravity"`
	RotationRate          *imu.RotationRate `json:"rotation_rate"`
}

type Session struct {
	id  string
	cfg Config
	clk clock.Clock

	norm     imu.Normalizer
	timing   *timing.Analyzer
	noise    *noise.Profiler
	latency  *latency.Detector
	orient   *orientation.Tracker
	position *position.Integrator

	startTime  float64
	lastSample *imu.SensorSample
	log        []LogEntry

	observers []Observer
}

func New(cfg Config, clk clock.Clock) *Session {
	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		clk:      clk,
		timing:   timing.New(cfg.Timing),
		noise:    noise.New(cfg.Noise, clk),
		latency:  latency.New(cfg.Latency, clk),
		orient:   orientation.NewTracker(cfg.OrientationHistory),
		position: position.New(cfg.Position, clk),
	}
	s.noise.OnFinish(s.noiseFinished)
	s.latency.OnOutcome(s.latencyOutcome)
	s.position.OnCalibrated(s.calibrated)
	return s
}

// ID identifies the current session; it changes on Reset.
func (s *Session) ID() string { return s.id }

// Observe registers an observer for every subsequent event.
func (s *Session) Observe(o Observer) { s.observers = append(s.observers, o) }

func (s *Session) emit(e Event) {
	e.Session = s.id
	e.Time = s.clk.Now()
	for _, o := range s.observers {
		o.OnEvent(e)
	}
}

// HandleRaw normalizes one raw event at the current clock reading and
// fans it out to every analyzer.
func (s *Session) HandleRaw(raw imu.RawEvent) (imu.SensorSample, error) {
	return s.HandleRawAt(raw, s.clk.Now())
}

// HandleRawAt is HandleRaw for an event that arrived at now.
func (s *Session) HandleRawAt(raw imu.RawEvent, now float64) (imu.SensorSample, error) {
	sample, err := s.norm.Normalize(raw, now)
	if err != nil {
		return imu.SensorSample{}, err
	}

	if sample.Index == 0 {
		s.startTime = now
	} else {
		s.timing.RecordInterval(sample.MeasuredInterval)
	}

	last := s.norm.Last()
	s.noise.OnSample(last)
	s.latency.OnSample(sample)
	s.position.OnSample(sample, last)

	s.log = append(s.log, LogEntry{
		Timestamp:             sample.Timestamp,
		ReportedInterval:      sample.ReportedInterval,
		MeasuredInterval:      sample.MeasuredInterval,
		Acceleration:          sample.Acceleration,
		AccelerationNoGravity: sample.AccelerationNoGravity,
		RotationRate:          sample.RotationRate,
	})
	s.lastSample = &sample
	return sample, nil
}

// HandleOrientation feeds the independent orientation channel.
func (s *Session) HandleOrientation(o imu.OrientationSample) orientation.Pose {
	return s.orient.OnOrientation(o, s.clk.Now())
}

// TapLatency arms the latency detector. A tap while waiting is ignored.
func (s *Session) TapLatency() {
	if s.latency.Tap(s.norm.Last()) {
		s.emit(Event{Kind: EventLatencyArmed})
	}
}

func (s *Session) ResetLatency() {
	s.latency.Reset()
	s.emit(Event{Kind: EventLatencyReset})
}

// StartNoiseCapture opens the noise window unless one is running.
func (s *Session) StartNoiseCapture() {
	if s.noise.Start() {
		s.emit(Event{Kind: EventNoiseStarted})
	}
}

func (s *Session) ResetOrientation() {
	s.orient.Zero()
	s.emit(Event{Kind: EventOrientationZeroed})
}

func (s *Session) ResetIntegration() {
	s.position.Reset()
	s.emit(Event{Kind: EventCalibrationStarted})
}

func (s *Session) SetIntegrationEnabled(on bool) {
	if on == s.position.Enabled() {
		return
	}
	s.position.SetEnabled(on)
	if on {
		s.emit(Event{Kind: EventIntegrationOn})
		s.emit(Event{Kind: EventCalibrationStarted})
		return
	}
	s.emit(Event{Kind: EventIntegrationOff})
}

// Reset starts a new session: counters, histories and the export log are
// cleared and every one-shot operation is abandoned.
func (s *Session) Reset() {
	s.norm.Reset()
	s.timing.Reset()
	s.noise.Cancel()
	s.latency.Reset()
	s.orient.Reset()
	s.position.Clear()
	s.startTime = 0
	s.lastSample = nil
	s.log = nil
	s.id = uuid.NewString()
	s.emit(Event{Kind: EventSessionReset})
}

// Log returns a copy of the export log in arrival order.
func (s *Session) Log() []LogEntry {
	out := make([]LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

// LogSince returns a copy of the entries appended after the first n.
func (s *Session) LogSince(n int) []LogEntry {
	if n < 0 {
		n = 0
	}
	if n >= len(s.log) {
		return nil
	}
	out := make([]LogEntry, len(s.log)-n)
	copy(out, s.log[n:])
	return out
}

func (s *Session) noiseFinished(r noise.Result, err error) {
	if err != nil {
		s.emit(Event{Kind: EventNoiseInsufficient, Message: err.Error()})
		return
	}
	s.emit(Event{Kind: EventNoiseResult, Noise: &r})
}

func (s *Session) latencyOutcome(o latency.Outcome) {
	kind := EventLatencyDetected
	switch o.Kind {
	case latency.Discarded:
		kind = EventLatencyDiscarded
	case latency.TimedOut:
		kind = EventLatencyTimeout
	}
	s.emit(Event{Kind: kind, Latency: &o})
}

func (s *Session) calibrated(c position.Calibration) {
	s.emit(Event{Kind: EventCalibrationDone, Calibration: &c})
}
