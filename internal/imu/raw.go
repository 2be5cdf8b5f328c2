// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrUnknownSource is returned for payloads whose source tag is not recognised.
var ErrUnknownSource = errors.New("unknown sample source")

// RawEvent is a reading as delivered by one of the acquisition interfaces.
type RawEvent interface {
	Source() Source
}

// GenericReading is the frequency-driven shape: separate accelerometer,
// linear-acceleration and gyroscope sensors polled at a fixed rate.
type GenericReading struct {
	Accelerometer      Vec3    `json:"accelerometer"` // m/s², includes gravity
	LinearAcceleration *Vec3   `json:"linear_acceleration,omitempty"`
	Gyroscope          *Vec3   `json:"gyroscope,omitempty"` // rad/s
	Frequency          float64 `json:"frequency,omitempty"` // Hz
}

func (GenericReading) Source() Source { return GenericSensor }

// MotionEvent is the event-driven shape with gravity-inclusive readings.
type MotionEvent struct {
	AccelerationIncludingGravity Vec3          `json:"acceleration_including_gravity"`
	Acceleration                 *Vec3         `json:"acceleration,omitempty"`
	RotationRate                 *RotationRate `json:"rotation_rate,omitempty"` // deg/s
	Interval                     *float64      `json:"interval,omitempty"`      // ms
}

func (MotionEvent) Source() Source { return DeviceMotion }

const radToDeg = 180.0 / math.Pi

// rotationFromGyro maps a body-frame gyro vector in rad/s to alpha/beta/gamma in deg/s.
func rotationFromGyro(g Vec3) RotationRate {
	return RotationRate{
		Alpha: g.Z * radToDeg,
		Beta:  g.X * radToDeg,
		Gamma: g.Y * radToDeg,
	}
}

type envelope struct {
	Source Source `json:"source"`
}

// EncodeRaw serializes a raw event with its source tag, the format carried on MQTT.
func EncodeRaw(ev RawEvent) ([]byte, error) {
	switch e := ev.(type) {
	case GenericReading:
		return json.Marshal(struct {
			envelope
			GenericReading
		}{envelope{GenericSensor}, e})
	case MotionEvent:
		return json.Marshal(struct {
			envelope
			MotionEvent
		}{envelope{DeviceMotion}, e})
	default:
		return nil, fmt.Errorf("encode raw event %T: %w", ev, ErrUnknownSource)
	}
}

// DecodeRaw parses a tagged raw event produced by EncodeRaw.
func DecodeRaw(data []byte) (RawEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode raw event: %w", err)
	}
	switch env.Source {
	case GenericSensor:
		var g GenericReading
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("decode generic reading: %w", err)
		}
		return g, nil
	case DeviceMotion:
		var m MotionEvent
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode motion event: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("source %q: %w", env.Source, ErrUnknownSource)
	}
}
