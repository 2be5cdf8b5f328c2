package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_diagnostics/internal/config"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// displayLines summarizes a snapshot in at most four 18-column rows.
func displayLines(snap session.Snapshot) []string {
	if snap.SampleCount == 0 {
		return []string{"Motion diag", "Waiting..."}
	}

	lines := make([]string, 0, 4)
	if snap.SampleRate != nil {
		lines = append(lines, fmt.Sprintf("%5.1fHz drop:%d", *snap.SampleRate, snap.Timing.Dropped))
	} else {
		lines = append(lines, fmt.Sprintf("n:%d drop:%d", snap.SampleCount, snap.Timing.Dropped))
	}
	if st := snap.Timing.Stats; st != nil {
		lines = append(lines, fmt.Sprintf("J:%.1f/%.1fms", st.Mean, st.StdDev))
	} else {
		lines = append(lines, "J: --")
	}

	switch {
	case snap.Latency.State == "waiting":
		lines = append(lines, "Lat: waiting")
	case snap.Latency.Stats != nil:
		lines = append(lines, fmt.Sprintf("Lat:%.0fms avg%.0f", snap.Latency.Stats.Last, snap.Latency.Stats.Mean))
	case snap.Noise.State == "capturing":
		lines = append(lines, fmt.Sprintf("Noise: %d", snap.Noise.Captured))
	case snap.Noise.Result != nil:
		lines = append(lines, fmt.Sprintf("N:%.3f %.2f", snap.Noise.Result.AccelNoiseStdDev, snap.Noise.Result.GyroNoiseStdDev))
	default:
		lines = append(lines, "Lat: --")
	}

	p := snap.Position
	switch p.State {
	case "calibrating":
		lines = append(lines, "Pos: calibrating")
	case "active":
		lines = append(lines, fmt.Sprintf("Z:%+.2fm", p.Position.Z))
	default:
		r := snap.Orientation.Relative
		lines = append(lines, fmt.Sprintf("P%+.0f R%+.0f Y%+.0f", r.Pitch, r.Roll, r.Yaw))
	}
	return lines
}

// renderLines draws up to four text rows on a blank frame.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if i >= displayHeight/lineHeight {
			break
		}
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawBytes([]byte(line))
	}
	return img
}

// runDisplay refreshes the OLED from the session until ctx is done.
func runDisplay(ctx context.Context, cfg *config.Config, loop *session.Loop) error {
	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Println("display: initialized")

	if err := dev.Draw(dev.Bounds(), renderLines([]string{"", "  Motion diag", "  Relabs Tech"}), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		snap, err := loop.Snapshot(false)
		if err != nil {
			return nil
		}
		if err := dev.Draw(dev.Bounds(), renderLines(displayLines(snap)), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
}
