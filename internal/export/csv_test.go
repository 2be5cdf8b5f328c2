// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

func sampleLog() []session.LogEntry {
	reported := 16.0
	return []session.LogEntry{
		{
			Timestamp:             0,
			ReportedInterval:      &reported,
			MeasuredInterval:      0,
			Acceleration:          imu.Vec3{X: 0.1, Y: -0.2, Z: 9.8},
			AccelerationNoGravity: &imu.Vec3{X: 0.1, Y: -0.2, Z: 0},
			RotationRate:          &imu.RotationRate{Alpha: 1.5, Beta: 0, Gamma: -2},
		},
		{
			Timestamp:        16.5,
			MeasuredInterval: 16.5,
			Acceleration:     imu.Vec3{Z: 9.81},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleLog()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,reported_interval,measured_interval,ax,ay,az,lx,ly,lz,alpha,beta,gamma", lines[0])
	assert.Equal(t, "0,16,0,0.1,-0.2,9.8,0.1,-0.2,0,1.5,0,-2", lines[1])
	assert.Equal(t, "16.5,,16.5,0,0,9.81,,,,,,", lines[2])
}

func TestWriteCSVEmptyLog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(Header, ",")+"\n", buf.String())
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csv")
	require.NoError(t, WriteCSVFile(path, sampleLog()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}
