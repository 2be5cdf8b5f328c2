// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

// Pose is an orientation relative to the zeroed reference, in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide absolute orientation readings over time.
type Source interface {
	Next() (imu.OrientationSample, error)
}

// FromAccel estimates an absolute orientation from the gravity vector alone.
// Alpha (yaw) is unobservable without a magnetometer and stays 0.
//
// Uses simple tilt formulas:
//
//	gamma (roll) = atan2(ay, az)
//	beta (pitch) = atan2(-ax, sqrt(ay² + az²))
func FromAccel(ax, ay, az float64) imu.OrientationSample {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return imu.OrientationSample{
		Alpha: 0,
		Beta:  pitchRad * 180.0 / math.Pi,
		Gamma: rollRad * 180.0 / math.Pi,
	}
}

// NormalizeAngle maps deg into (-180, 180] by whole turns.
func NormalizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return deg
	}
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}
