// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/motion_diagnostics/internal/app"
	"github.com/relabs-tech/motion_diagnostics/internal/config"
)

func main() {
	configPath := flag.String("config", "./motion_config.txt", "path to configuration file (KEY=VALUE or .yaml)")
	flag.Parse()

	log.Println("starting motion IMU producer (MPU9250 → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunIMUProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
