package app

import (
	"bufio"
	"fmt"
	"log"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/motion_diagnostics/internal/config"
	"github.com/relabs-tech/motion_diagnostics/internal/sensors"
)

// RunSerialProducer reads $PIMU sentences from the serial port and
// publishes them as device-motion events.
func RunSerialProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// ---- 2) Open serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", serialOpts.PortName, err)
	}
	defer port.Close()
	log.Printf("serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)
	var published, rejected int

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("serial read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		ev, err := sensors.ParsePIMU(line)
		if err != nil {
			// partial sentences at startup are expected
			rejected++
			if rejected%100 == 1 {
				log.Printf("PIMU parse error: %v (line: %q)", err, line)
			}
			continue
		}

		if err := publishRaw(client, cfg.TopicSamples, ev); err != nil {
			log.Printf("%v", err)
			continue
		}
		published++
		if published%500 == 0 {
			log.Printf("published %d motion events (%d rejected lines)", published, rejected)
		}
	}
}
