// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

// TypePIMU is the proprietary sentence type carrying one motion event:
//
//	$PIMU,ax,ay,az,lx,ly,lz,alpha,beta,gamma,interval*hh
//
// Acceleration is in m/s², rotation in deg/s and interval in ms. Every
// group after the gravity-inclusive acceleration may be left empty.
const TypePIMU = "IMU"

const pimuFields = 10

var (
	ErrNotPIMU         = errors.New("not a PIMU sentence")
	ErrPartialVector   = errors.New("PIMU vector partially filled")
	ErrPIMUFieldsCount = errors.New("PIMU field count")
)

// PIMU is a parsed $PIMU sentence.
type PIMU struct {
	nmea.BaseSentence
	Event imu.MotionEvent
}

func init() {
	nmea.MustRegisterParser(TypePIMU, parsePIMU)
}

func parsePIMU(s nmea.BaseSentence) (nmea.Sentence, error) {
	if len(s.Fields) != pimuFields {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrPIMUFieldsCount, len(s.Fields), pimuFields)
	}
	p := nmea.NewParser(s)

	ev := imu.MotionEvent{
		AccelerationIncludingGravity: imu.Vec3{
			X: p.Float64(0, "ax"),
			Y: p.Float64(1, "ay"),
			Z: p.Float64(2, "az"),
		},
	}

	lin, err := optionalGroup(s.Fields, 3, p)
	if err != nil {
		return nil, fmt.Errorf("linear acceleration: %w", err)
	}
	if lin != nil {
		ev.Acceleration = &imu.Vec3{X: lin[0], Y: lin[1], Z: lin[2]}
	}

	rot, err := optionalGroup(s.Fields, 6, p)
	if err != nil {
		return nil, fmt.Errorf("rotation rate: %w", err)
	}
	if rot != nil {
		ev.RotationRate = &imu.RotationRate{Alpha: rot[0], Beta: rot[1], Gamma: rot[2]}
	}

	if s.Fields[9] != "" {
		iv := p.Float64(9, "interval")
		ev.Interval = &iv
	}

	if err := p.Err(); err != nil {
		return nil, err
	}
	return PIMU{BaseSentence: s, Event: ev}, nil
}

// optionalGroup reads three consecutive fields starting at i. All empty
// yields nil; a partially filled group is an error.
func optionalGroup(fields []string, i int, p *nmea.Parser) ([]float64, error) {
	empty := 0
	for _, f := range fields[i : i+3] {
		if f == "" {
			empty++
		}
	}
	switch empty {
	case 3:
		return nil, nil
	case 0:
		return []float64{
			p.Float64(i, "x"),
			p.Float64(i+1, "y"),
			p.Float64(i+2, "z"),
		}, nil
	default:
		return nil, ErrPartialVector
	}
}

// ParsePIMU parses one line into a motion event.
func ParsePIMU(line string) (imu.MotionEvent, error) {
	sentence, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return imu.MotionEvent{}, err
	}
	m, ok := sentence.(PIMU)
	if !ok {
		return imu.MotionEvent{}, fmt.Errorf("%w: %s", ErrNotPIMU, sentence.Prefix())
	}
	return m.Event, nil
}

func formatField(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPIMU renders an event as a checksummed $PIMU sentence.
func FormatPIMU(ev imu.MotionEvent) string {
	fields := make([]string, 0, pimuFields+1)
	fields = append(fields, "P"+TypePIMU,
		formatField(ev.AccelerationIncludingGravity.X),
		formatField(ev.AccelerationIncludingGravity.Y),
		formatField(ev.AccelerationIncludingGravity.Z),
	)
	if a := ev.Acceleration; a != nil {
		fields = append(fields, formatField(a.X), formatField(a.Y), formatField(a.Z))
	} else {
		fields = append(fields, "", "", "")
	}
	if r := ev.RotationRate; r != nil {
		fields = append(fields, formatField(r.Alpha), formatField(r.Beta), formatField(r.Gamma))
	} else {
		fields = append(fields, "", "", "")
	}
	if ev.Interval != nil {
		fields = append(fields, formatField(*ev.Interval))
	} else {
		fields = append(fields, "")
	}
	body := strings.Join(fields, ",")
	return "$" + body + "*" + nmea.Checksum(body)
}
