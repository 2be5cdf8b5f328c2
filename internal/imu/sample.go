// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "math"

// Source tags which acquisition interface produced a sample.
type Source string

const (
	GenericSensor Source = "generic_sensor"
	DeviceMotion  Source = "device_motion"
)

// Vec3 is a three-axis reading in m/s² (or deg/s when used for gyro magnitudes).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Magnitude returns sqrt(x²+y²+z²).
func (v Vec3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// RotationRate is an angular velocity in deg/s.
// alpha is about z, beta about x, gamma about y.
type RotationRate struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Vec returns the rate as a plain vector for magnitude computations.
func (r RotationRate) Vec() Vec3 {
	return Vec3{X: r.Alpha, Y: r.Beta, Z: r.Gamma}
}

// SensorSample is the canonical normalized reading every analyzer consumes.
type SensorSample struct {
	// Index is the position of the sample within its session, starting at 0.
	Index     int     `json:"index"`
	Timestamp float64 `json:"timestamp"` // monotonic ms

	Acceleration          Vec3          `json:"acceleration"` // includes gravity
	AccelerationNoGravity *Vec3         `json:"acceleration_no_gravity,omitempty"`
	RotationRate          *RotationRate `json:"rotation_rate"` // nil when the source has no gyro

	ReportedInterval *float64 `json:"reported_interval,omitempty"` // ms, as claimed by the source
	MeasuredInterval float64  `json:"measured_interval"`           // ms since the previous sample

	Source Source `json:"source"`
}

// Gyro returns the rotation rate as a vector, zero when absent.
func (s SensorSample) Gyro() Vec3 {
	if s.RotationRate == nil {
		return Vec3{}
	}
	return s.RotationRate.Vec()
}

// OrientationSample is an absolute device orientation in degrees.
// Alpha (yaw) is 0..360, Beta (pitch) -180..180, Gamma (roll) -90..90.
type OrientationSample struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}
