// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/relabs-tech/motion_diagnostics/internal/config"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/orientation"
)

const (
	shapeGeneric   = string(imu.GenericSensor)
	shapeMotion    = string(imu.DeviceMotion)
	shapeAlternate = "alternate"

	// alternate switches payload shape every block
	alternateBlock = 5.0 // seconds
	// a short upward bump every period gives the latency detector something to find
	bumpPeriod   = 4.0 // seconds
	bumpDuration = 0.1
	bumpSize     = 4.0 // m/s²
)

// mockMotion synthesizes a device resting on a table with slow sway,
// sensor noise and periodic bumps.
type mockMotion struct {
	shape    string
	interval float64 // ms
	rng      *rand.Rand
}

func newMockMotion(shape string, interval time.Duration, seed int64) (*mockMotion, error) {
	switch shape {
	case shapeGeneric, shapeMotion, shapeAlternate:
	default:
		return nil, fmt.Errorf("unknown mock shape %q", shape)
	}
	return &mockMotion{
		shape:    shape,
		interval: float64(interval) / float64(time.Millisecond),
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

func (m *mockMotion) noise(sigma float64) float64 {
	return m.rng.NormFloat64() * sigma
}

// next returns the event at elapsed seconds.
func (m *mockMotion) next(elapsed float64) imu.RawEvent {
	linear := imu.Vec3{
		X: 0.3*math.Sin(0.5*elapsed) + m.noise(0.02),
		Y: 0.2*math.Cos(0.3*elapsed) + m.noise(0.02),
		Z: m.noise(0.02),
	}
	if math.Mod(elapsed, bumpPeriod) < bumpDuration {
		linear.Z += bumpSize
	}
	withGravity := linear.Add(imu.Vec3{Z: 9.81})

	// deg/s
	rot := imu.RotationRate{
		Alpha: 5*math.Sin(elapsed) + m.noise(0.1),
		Beta:  3*math.Cos(0.7*elapsed) + m.noise(0.1),
		Gamma: m.noise(0.1),
	}

	shape := m.shape
	if shape == shapeAlternate {
		shape = shapeGeneric
		if int(elapsed/alternateBlock)%2 == 1 {
			shape = shapeMotion
		}
	}

	if shape == shapeGeneric {
		const degToRad = math.Pi / 180
		return imu.GenericReading{
			Accelerometer:      withGravity,
			LinearAcceleration: &linear,
			Gyroscope: &imu.Vec3{
				X: rot.Beta * degToRad,
				Y: rot.Gamma * degToRad,
				Z: rot.Alpha * degToRad,
			},
			Frequency: 1000 / m.interval,
		}
	}
	iv := m.interval
	return imu.MotionEvent{
		AccelerationIncludingGravity: withGravity,
		Acceleration:                 &linear,
		RotationRate:                 &rot,
		Interval:                     &iv,
	}
}

// RunMockProducer publishes synthetic samples and orientation so the
// diagnostics can run without hardware.
func RunMockProducer() error {
	log.Println("starting motion MQTT producer (mock)")

	cfg := config.Get()
	interval := time.Duration(cfg.SampleIntervalMS) * time.Millisecond

	gen, err := newMockMotion(cfg.MockShape, interval, time.Now().UnixNano())
	if err != nil {
		return err
	}
	src := orientation.NewMockSource()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var published int
	for t := range ticker.C {
		if err := publishRaw(client, cfg.TopicSamples, gen.next(t.Sub(start).Seconds())); err != nil {
			log.Printf("%v", err)
			continue
		}

		o, err := src.Next()
		if err != nil {
			log.Printf("error from mock source: %v", err)
			continue
		}
		if cfg.TopicOrientation != "" {
			if err := publishJSON(client, cfg.TopicOrientation, o); err != nil {
				log.Printf("%v", err)
			}
		}

		published++
		if published%500 == 0 {
			log.Printf("%s published %d samples, orientation: %+v", t.Format(time.RFC3339), published, o)
		}
	}
	return nil
}
