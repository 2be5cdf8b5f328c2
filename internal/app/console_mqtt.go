package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_diagnostics/internal/config"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

func optFmt(v *float64, format string) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf(format, *v)
}

// formatSnapshot renders the one-line console summary.
func formatSnapshot(s session.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[STAT] n=%d rate=%s", s.SampleCount, optFmt(s.SampleRate, "%.1fHz"))
	if st := s.Timing.Stats; st != nil {
		fmt.Fprintf(&b, " jitter=%.2f±%.2fms [%.1f..%.1f]", st.Mean, st.StdDev, st.Min, st.Max)
	}
	fmt.Fprintf(&b, " dropped=%d", s.Timing.Dropped)

	fmt.Fprintf(&b, " | lat=%s", s.Latency.State)
	if ls := s.Latency.Stats; ls != nil {
		fmt.Fprintf(&b, " last=%.0fms avg=%.0fms (%d)", ls.Last, ls.Mean, ls.Count)
	}

	fmt.Fprintf(&b, " | noise=%s", s.Noise.State)
	if r := s.Noise.Result; r != nil {
		fmt.Fprintf(&b, " a=%.4f g=%.4f", r.AccelNoiseStdDev, r.GyroNoiseStdDev)
	}

	o := s.Orientation.Relative
	fmt.Fprintf(&b, " | PITCH=%6.2f ROLL=%6.2f YAW=%6.2f", o.Pitch, o.Roll, o.Yaw)

	p := s.Position
	fmt.Fprintf(&b, " | pos=%s", p.State)
	if p.State == "active" {
		fmt.Fprintf(&b, " z=%.3fm vz=%.3fm/s", p.Position.Z, p.Velocity.Z)
	}
	return b.String()
}

func formatEvent(e session.Event) string {
	line := fmt.Sprintf("[EVNT] %-20s t=%.0fms", e.Kind, e.Time)
	switch {
	case e.Latency != nil && e.Latency.Latency > 0:
		line += fmt.Sprintf(" latency=%.1fms", e.Latency.Latency)
	case e.Noise != nil:
		line += fmt.Sprintf(" accel=%.4f gyro=%.4f", e.Noise.AccelNoiseStdDev, e.Noise.GyroNoiseStdDev)
	case e.Calibration != nil:
		g := e.Calibration.Gravity
		line += fmt.Sprintf(" gravity=(%.2f, %.2f, %.2f)", g.X, g.Y, g.Z)
	case e.Message != "":
		line += " " + e.Message
	}
	return line
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	// Subscribe to snapshots
	snapToken := client.Subscribe(cfg.TopicSnapshot, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s session.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: snapshot unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSnapshot(s))
	})
	snapToken.Wait()
	if snapToken.Error() != nil {
		return snapToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSnapshot)

	// Subscribe to events
	eventToken := client.Subscribe(cfg.TopicEvents, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e session.Event
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("console: event unmarshal error: %v", err)
			return
		}
		fmt.Println(formatEvent(e))
	})
	eventToken.Wait()
	if eventToken.Error() != nil {
		return eventToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicEvents)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
