// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_diagnostics/internal/config"
	"github.com/relabs-tech/motion_diagnostics/internal/export"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/latency"
	"github.com/relabs-tech/motion_diagnostics/internal/noise"
	"github.com/relabs-tech/motion_diagnostics/internal/position"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
	"github.com/relabs-tech/motion_diagnostics/internal/timing"
)

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// sessionConfig maps file settings onto the analyzers.
func sessionConfig(cfg *config.Config) session.Config {
	t := timing.DefaultConfig()
	t.ExpectedInterval = cfg.ExpectedIntervalMS
	t.DropFactor = cfg.DropFactor
	t.HistorySize = cfg.IntervalHistory

	return session.Config{
		Timing: t,
		Noise: noise.Config{
			Window:     millis(cfg.NoiseWindowMS),
			MinSamples: cfg.NoiseMinSamples,
		},
		Latency: latency.Config{
			Threshold:       cfg.LatencyThreshold,
			Timeout:         millis(cfg.LatencyTimeoutMS),
			DefaultBaseline: cfg.LatencyBaseline,
		},
		Position: position.Config{
			CalibrationWindow: millis(cfg.CalibrationWindowMS),
			DefaultGravity:    imu.Vec3{Z: cfg.DefaultGravityZ},
			Deadzone:          cfg.Deadzone,
			MaxDt:             cfg.MaxDtSeconds,
			HistorySize:       cfg.PositionHistory,
		},
		OrientationHistory: cfg.OrientationHistory,
	}
}

func logEvent(e session.Event) {
	switch {
	case e.Latency != nil:
		log.Printf("diagnostics: %s latency=%.1fms delta=%.2f", e.Kind, e.Latency.Latency, e.Latency.Delta)
	case e.Noise != nil:
		log.Printf("diagnostics: %s accel=%.4f gyro=%.4f samples=%d", e.Kind, e.Noise.AccelNoiseStdDev, e.Noise.GyroNoiseStdDev, e.Noise.Samples)
	case e.Calibration != nil:
		g := e.Calibration.Gravity
		log.Printf("diagnostics: %s gravity=(%.3f, %.3f, %.3f) samples=%d", e.Kind, g.X, g.Y, g.Z, e.Calibration.Samples)
	case e.Message != "":
		log.Printf("diagnostics: %s: %s", e.Kind, e.Message)
	default:
		log.Printf("diagnostics: %s", e.Kind)
	}
}

// RunDiagnostics runs the analysis session against the MQTT sample stream
// until SIGINT or SIGTERM.
func RunDiagnostics() error {
	cfg := config.Get()
	log.Println("diagnostics: starting motion diagnostics session")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The loop outlives ctx so shutdown can still read the log.
	loop := session.NewLoop(sessionConfig(cfg), cfg.QueueSize)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	if err := loop.Observe(session.ObserverFunc(logEvent)); err != nil {
		return err
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDiagnostics)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("diagnostics: connected to MQTT broker at %s", cfg.MQTTBroker)

	br := newBridge(client, loop, cfg)
	if err := loop.Observe(br); err != nil {
		return err
	}
	if err := br.subscribe(); err != nil {
		return err
	}

	var wg sync.WaitGroup

	if cfg.RecorderPath != "" {
		rec, err := export.OpenRecorder(ctx, cfg.RecorderPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		sink := newRecorderSink(rec, loop)
		if err := loop.Observe(sink); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.run(ctx, time.Second)
		}()
		log.Printf("diagnostics: recording to %s", cfg.RecorderPath)
	}

	var hub *wsHub
	if cfg.WebServerPort > 0 {
		hub = newWSHub(loop)
		if err := loop.Observe(hub); err != nil {
			return err
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
			Handler: newWebMux(loop, hub, "web"),
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			log.Printf("web server listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("web: server error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.DisplayEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runDisplay(ctx, cfg, loop); err != nil {
				log.Printf("display: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(millis(cfg.SnapshotIntervalMS))
	defer ticker.Stop()

publish:
	for {
		select {
		case <-ctx.Done():
			break publish
		case <-ticker.C:
			snap, err := loop.Snapshot(false)
			if err != nil {
				return err
			}
			if cfg.TopicSnapshot != "" {
				br.publishSnapshot(snap)
			}
			if hub != nil {
				hub.broadcast(WSResponse{Type: "snapshot", Snapshot: &snap})
			}
		}
	}

	log.Println("diagnostics: shutting down")
	wg.Wait()

	if cfg.ExportCSVPath != "" {
		var entries []session.LogEntry
		if err := loop.Do(func(s *session.Session) { entries = s.Log() }); err != nil {
			return err
		}
		if err := export.WriteCSVFile(cfg.ExportCSVPath, entries); err != nil {
			return err
		}
		log.Printf("diagnostics: exported %d samples to %s", len(entries), cfg.ExportCSVPath)
	}
	return nil
}
