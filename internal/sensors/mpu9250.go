// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors reads motion data from hardware: an MPU9250 over SPI and
// $PIMU sentences over a serial line.
package sensors

import (
	"fmt"
	"log"
	"math"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

// StandardGravity converts g to m/s².
const StandardGravity = 9.80665

var (
	// LSB per g for ACCEL_FS_SEL 0..3 (±2g, ±4g, ±8g, ±16g).
	accelSensitivity = [4]float64{16384, 8192, 4096, 2048}
	// LSB per °/s for GYRO_FS_SEL 0..3 (±250, ±500, ±1000, ±2000 °/s).
	gyroSensitivity = [4]float64{131, 65.5, 32.8, 16.4}
)

// AccelToMS2 converts a raw accelerometer count to m/s².
func AccelToMS2(raw int16, rangeSel byte) float64 {
	return float64(raw) / accelSensitivity[rangeSel&3] * StandardGravity
}

// GyroToRad converts a raw gyroscope count to rad/s.
func GyroToRad(raw int16, rangeSel byte) float64 {
	return float64(raw) / gyroSensitivity[rangeSel&3] * math.Pi / 180
}

// MPU9250Options selects the SPI device and full-scale ranges.
type MPU9250Options struct {
	SPIDevice  string
	CSPin      string
	AccelRange byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g
	GyroRange  byte // 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	SampleRate float64
}

// MPU9250 produces GenericReadings from a sensor on SPI.
type MPU9250 struct {
	dev  *mpu9250.MPU9250
	opts MPU9250Options
}

// OpenMPU9250 initializes the sensor, applies the configured ranges and
// runs the driver's self-test and calibration.
func OpenMPU9250(opts MPU9250Options) (*MPU9250, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(opts.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", opts.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(opts.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", opts.SPIDevice, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if _, err := dev.SelfTest(); err != nil {
		log.Printf("IMU: warning: self-test failed: %v", err)
	}
	if err := dev.Calibrate(); err != nil {
		log.Printf("IMU: warning: calibration failed: %v", err)
	}

	if err := dev.SetAccelRange(opts.AccelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", opts.AccelRange, []int{2, 4, 8, 16}[opts.AccelRange&3])

	if err := dev.SetGyroRange(opts.GyroRange); err != nil {
		return nil, fmt.Errorf("IMU: set gyro range: %w", err)
	}
	log.Printf("IMU: gyroscope range set to %d (±%d°/s)", opts.GyroRange, []int{250, 500, 1000, 2000}[opts.GyroRange&3])

	return &MPU9250{dev: dev, opts: opts}, nil
}

// Read returns one accelerometer and gyroscope reading in SI units.
// The MPU9250 does not separate gravity, so LinearAcceleration stays nil.
func (m *MPU9250) Read() (imu.GenericReading, error) {
	ax, err := m.dev.GetAccelerationX()
	if err != nil {
		return imu.GenericReading{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := m.dev.GetAccelerationY()
	if err != nil {
		return imu.GenericReading{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := m.dev.GetAccelerationZ()
	if err != nil {
		return imu.GenericReading{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	gx, err := m.dev.GetRotationX()
	if err != nil {
		return imu.GenericReading{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := m.dev.GetRotationY()
	if err != nil {
		return imu.GenericReading{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := m.dev.GetRotationZ()
	if err != nil {
		return imu.GenericReading{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	return Convert(ax, ay, az, gx, gy, gz, m.opts), nil
}

// Convert scales raw counts into a GenericReading.
func Convert(ax, ay, az, gx, gy, gz int16, opts MPU9250Options) imu.GenericReading {
	return imu.GenericReading{
		Accelerometer: imu.Vec3{
			X: AccelToMS2(ax, opts.AccelRange),
			Y: AccelToMS2(ay, opts.AccelRange),
			Z: AccelToMS2(az, opts.AccelRange),
		},
		Gyroscope: &imu.Vec3{
			X: GyroToRad(gx, opts.GyroRange),
			Y: GyroToRad(gy, opts.GyroRange),
			Z: GyroToRad(gz, opts.GyroRange),
		},
		Frequency: opts.SampleRate,
	}
}
