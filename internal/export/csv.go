// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package export writes the session log out of process: as CSV on demand
// and into a SQLite database while the session runs.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

// Header is the first CSV row.
var Header = []string{
	"timestamp", "reported_interval", "measured_interval",
	"ax", "ay", "az",
	"lx", "ly", "lz",
	"alpha", "beta", "gamma",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// Row renders one log entry. Absent optional fields become empty cells.
func Row(e session.LogEntry) []string {
	row := make([]string, 0, len(Header))
	row = append(row,
		formatFloat(e.Timestamp),
		optFloat(e.ReportedInterval),
		formatFloat(e.MeasuredInterval),
		formatFloat(e.Acceleration.X),
		formatFloat(e.Acceleration.Y),
		formatFloat(e.Acceleration.Z),
	)
	if lin := e.AccelerationNoGravity; lin != nil {
		row = append(row, formatFloat(lin.X), formatFloat(lin.Y), formatFloat(lin.Z))
	} else {
		row = append(row, "", "", "")
	}
	if rr := e.RotationRate; rr != nil {
		row = append(row, formatFloat(rr.Alpha), formatFloat(rr.Beta), formatFloat(rr.Gamma))
	} else {
		row = append(row, "", "", "")
	}
	return row
}

// WriteCSV writes the header and one row per entry.
func WriteCSV(w io.Writer, entries []session.LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csv write header: %w", err)
	}
	for _, e := range entries {
		_ = cw.Write(Row(e)) // error is buffered; checked on Flush
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	return nil
}

// WriteCSVFile creates path and writes entries to it through a buffered writer.
func WriteCSVFile(path string, entries []session.LogEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv create %s: %w", path, err)
	}
	bw := bufio.NewWriterSize(f, 256*1024)
	if err := WriteCSV(bw, entries); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("csv flush %s: %w", path, err)
	}
	return f.Close()
}

func vecOrNil(x, y, z *float64) *imu.Vec3 {
	if x == nil || y == nil || z == nil {
		return nil
	}
	return &imu.Vec3{X: *x, Y: *y, Z: *z}
}
