// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/ring"
)

// AngleSample is one entry of the relative angle history.
type AngleSample struct {
	Time  float64 `json:"time"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// Tracker reports orientation relative to a reference pose set by Zero.
type Tracker struct {
	current     imu.OrientationSample
	haveCurrent bool
	offset      imu.OrientationSample
	relative    Pose
	history     *ring.Buffer[AngleSample]
}

// NewTracker keeps up to capacity angle samples (600 is ~10 s at 60 Hz).
func NewTracker(capacity int) *Tracker {
	return &Tracker{history: ring.New[AngleSample](capacity)}
}

// OnOrientation stores raw as the current reading and records the relative angles.
func (t *Tracker) OnOrientation(raw imu.OrientationSample, now float64) Pose {
	t.current = raw
	t.haveCurrent = true

	t.relative = Pose{
		Pitch: raw.Beta - t.offset.Beta,
		Roll:  raw.Gamma - t.offset.Gamma,
		Yaw:   NormalizeAngle(raw.Alpha - t.offset.Alpha),
	}
	t.history.Push(AngleSample{
		Time:  now,
		Pitch: t.relative.Pitch,
		Roll:  t.relative.Roll,
		Yaw:   t.relative.Yaw,
	})
	return t.relative
}

// Zero makes the current reading the new reference and clears the history.
func (t *Tracker) Zero() {
	t.offset = t.current
	t.relative = Pose{}
	t.history.Clear()
}

// Current returns the latest absolute reading.
func (t *Tracker) Current() (imu.OrientationSample, bool) { return t.current, t.haveCurrent }

func (t *Tracker) Offset() imu.OrientationSample { return t.offset }

// Relative returns the angles computed for the latest reading.
func (t *Tracker) Relative() Pose { return t.relative }

// History returns the relative angle history, oldest first.
func (t *Tracker) History() []AngleSample { return t.history.Items() }

// Reset forgets the reference, the current reading and the history.
func (t *Tracker) Reset() {
	t.current = imu.OrientationSample{}
	t.haveCurrent = false
	t.offset = imu.OrientationSample{}
	t.relative = Pose{}
	t.history.Clear()
}
