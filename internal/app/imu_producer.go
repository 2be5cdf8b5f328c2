package app

import (
	"log"
	"time"

	"github.com/relabs-tech/motion_diagnostics/internal/config"
	"github.com/relabs-tech/motion_diagnostics/internal/orientation"
	"github.com/relabs-tech/motion_diagnostics/internal/sensors"
)

// RunIMUProducer polls the MPU9250 and publishes generic-sensor readings
// plus an accelerometer tilt estimate.
func RunIMUProducer() error {
	log.Println("starting motion IMU producer")

	cfg := config.Get()

	dev, err := sensors.OpenMPU9250(sensors.MPU9250Options{
		SPIDevice:  cfg.IMUSPIDevice,
		CSPin:      cfg.IMUCSPin,
		AccelRange: cfg.IMUAccelRange,
		GyroRange:  cfg.IMUGyroRange,
		SampleRate: 1000 / float64(cfg.SampleIntervalMS),
	})
	if err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	ticker := time.NewTicker(time.Duration(cfg.SampleIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	var published int
	for t := range ticker.C {
		reading, err := dev.Read()
		if err != nil {
			log.Printf("error reading IMU: %v", err)
			continue
		}

		if err := publishRaw(client, cfg.TopicSamples, reading); err != nil {
			log.Printf("%v", err)
			continue
		}

		a := reading.Accelerometer
		tilt := orientation.FromAccel(a.X, a.Y, a.Z)
		if cfg.TopicOrientation != "" {
			if err := publishJSON(client, cfg.TopicOrientation, tilt); err != nil {
				log.Printf("%v", err)
			}
		}

		published++
		if published%500 == 0 {
			log.Printf("%s tick: %d samples | accel=(%.2f, %.2f, %.2f) | tilt beta=%.1f gamma=%.1f",
				t.Format(time.RFC3339), published, a.X, a.Y, a.Z, tilt.Beta, tilt.Gamma)
		}
	}
	return nil
}
