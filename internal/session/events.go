// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"github.com/relabs-tech/motion_diagnostics/internal/latency"
	"github.com/relabs-tech/motion_diagnostics/internal/noise"
	"github.com/relabs-tech/motion_diagnostics/internal/position"
)

// EventKind names a state transition or one-shot outcome.
type EventKind string

const (
	EventSessionReset EventKind = "session_reset"

	EventLatencyArmed     EventKind = "latency_armed"
	EventLatencyDetected  EventKind = "latency_detected"
	EventLatencyDiscarded EventKind = "latency_discarded"
	EventLatencyTimeout   EventKind = "latency_timeout"
	EventLatencyReset     EventKind = "latency_reset"

	EventNoiseStarted      EventKind = "noise_started"
	EventNoiseResult       EventKind = "noise_result"
	EventNoiseInsufficient EventKind = "noise_insufficient"

	EventOrientationZeroed EventKind = "orientation_zeroed"

	EventCalibrationStarted EventKind = "calibration_started"
	EventCalibrationDone    EventKind = "calibration_done"
	EventIntegrationOn      EventKind = "integration_enabled"
	EventIntegrationOff     EventKind = "integration_disabled"
)

// Event is delivered to observers as it happens.
type Event struct {
	Kind    EventKind `json:"kind"`
	Session string    `json:"session"`
	Time    float64   `json:"time"`

	Latency     *latency.Outcome      `json:"latency,omitempty"`
	Noise       *noise.Result         `json:"noise,omitempty"`
	Calibration *position.Calibration `json:"calibration,omitempty"`
	Message     string                `json:"message,omitempty"`
}

// Observer receives events on the session's thread of control.
// Implementations must not block.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
