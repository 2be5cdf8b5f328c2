// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock orientation source that
// generates smooth changing values.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (imu.OrientationSample, error) {
	return MockAt(time.Since(m.start).Seconds()), nil
}

// MockAt is the synthetic orientation at elapsed seconds.
func MockAt(elapsed float64) imu.OrientationSample {
	return imu.OrientationSample{
		Alpha: math.Mod(elapsed*30, 360),
		Beta:  15 * math.Cos(elapsed*0.7),
		Gamma: 20 * math.Sin(elapsed),
	}
}
