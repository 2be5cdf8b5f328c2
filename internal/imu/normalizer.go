// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "fmt"

// Published is the last-known state after a sample has been normalized.
// Consumers receive it by value.
type Published struct {
	Acceleration Vec3 `json:"acceleration"`
	Gyro         Vec3 `json:"gyro"`
	Valid        bool `json:"valid"`
}

// Normalizer turns raw events into SensorSamples and measures the
// inter-arrival interval. It keeps nothing but the previous timestamp
// and the published last-known vectors.
type Normalizer struct {
	lastTimestamp float64
	haveLast      bool
	count         int
	last          Published
}

// Normalize converts raw into a SensorSample stamped with now (monotonic ms).
func (n *Normalizer) Normalize(raw RawEvent, now float64) (SensorSample, error) {
	s := SensorSample{Timestamp: now}

	switch e := raw.(type) {
	case GenericReading:
		s.Source = GenericSensor
		s.Acceleration = e.Accelerometer
		if e.LinearAcceleration != nil {
			v := *e.LinearAcceleration
			s.AccelerationNoGravity = &v
		}
		if e.Gyroscope != nil {
			r := rotationFromGyro(*e.Gyroscope)
			s.RotationRate = &r
		}
		if e.Frequency > 0 {
			iv := 1000.0 / e.Frequency
			s.ReportedInterval = &iv
		}
	case MotionEvent:
		s.Source = DeviceMotion
		s.Acceleration = e.AccelerationIncludingGravity
		if e.Acceleration != nil {
			v := *e.Acceleration
			s.AccelerationNoGravity = &v
		}
		if e.RotationRate != nil {
			r := *e.RotationRate
			s.RotationRate = &r
		}
		if e.Interval != nil {
			iv := *e.Interval
			s.ReportedInterval = &iv
		}
	default:
		return SensorSample{}, fmt.Errorf("normalize %T: %w", raw, ErrUnknownSource)
	}

	if n.haveLast {
		s.MeasuredInterval = now - n.lastTimestamp
		if s.MeasuredInterval < 0 {
			s.MeasuredInterval = 0
		}
	}
	n.lastTimestamp = now
	n.haveLast = true
	s.Index = n.count
	n.count++

	n.last = Published{
		Acceleration: s.Acceleration,
		Gyro:         s.Gyro(),
		Valid:        true,
	}
	return s, nil
}

// Last returns a copy of the last-known acceleration and gyro vectors.
func (n *Normalizer) Last() Published { return n.last }

// Count is the number of samples normalized this session.
func (n *Normalizer) Count() int { return n.count }

// Reset starts a new session: the next sample is treated as the first.
func (n *Normalizer) Reset() {
	*n = Normalizer{}
}
