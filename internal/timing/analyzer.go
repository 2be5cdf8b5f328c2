// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package timing tracks sample arrival quality: jitter, range of the
// inter-sample interval and an estimate of silently dropped samples.
package timing

import (
	"math"

	"github.com/relabs-tech/motion_diagnostics/internal/ring"
	"github.com/relabs-tech/motion_diagnostics/internal/stats"
)

// Config tunes the analyzer.
type Config struct {
	ExpectedInterval float64 // ms, 16.67 for a 60 Hz source
	DropFactor       float64 // an interval above ExpectedInterval*DropFactor counts as a gap
	HistorySize      int
	MinSamples       int // stats are reported only above this many intervals
}

// DefaultConfig matches a 60 Hz event-driven source.
func DefaultConfig() Config {
	return Config{
		ExpectedInterval: 16.67,
		DropFactor:       1.5,
		HistorySize:      100,
		MinSamples:       10,
	}
}

// Analyzer keeps a bounded interval history and a dropped-sample counter.
type Analyzer struct {
	cfg       Config
	intervals *ring.Buffer[float64]
	dropped   int
}

func New(cfg Config) *Analyzer {
	if cfg.ExpectedInterval <= 0 {
		cfg.ExpectedInterval = DefaultConfig().ExpectedInterval
	}
	if cfg.DropFactor <= 0 {
		cfg.DropFactor = DefaultConfig().DropFactor
	}
	return &Analyzer{
		cfg:       cfg,
		intervals: ring.New[float64](cfg.HistorySize),
	}
}

// RecordInterval adds one measured interval (ms).
func (a *Analyzer) RecordInterval(ms float64) {
	a.intervals.Push(ms)

	if ms > a.cfg.ExpectedInterval*a.cfg.DropFactor {
		missed := int(math.Round(ms/a.cfg.ExpectedInterval)) - 1
		if missed > 0 {
			a.dropped += missed
		}
	}
}

// Stats returns mean, jitter (population stddev), min and max of the
// interval history. ok is false until more than MinSamples intervals exist.
func (a *Analyzer) Stats() (s stats.Summary, ok bool) {
	if a.intervals.Len() <= a.cfg.MinSamples {
		return stats.Summary{}, false
	}
	return stats.Summarize(a.intervals.Items()), true
}

// Dropped is the running estimate of skipped ticks. It only grows until Reset.
func (a *Analyzer) Dropped() int { return a.dropped }

// Intervals returns the interval history, oldest first.
func (a *Analyzer) Intervals() []float64 { return a.intervals.Items() }

// ExpectedInterval reports the configured nominal interval in ms.
func (a *Analyzer) ExpectedInterval() float64 { return a.cfg.ExpectedInterval }

// Reset clears the history and the dropped counter.
func (a *Analyzer) Reset() {
	a.intervals.Clear()
	a.dropped = 0
}

// SampleRate is sampleCount/elapsedSeconds, reported only once more than
// minSamples samples have been seen.
func SampleRate(elapsedSeconds float64, sampleCount, minSamples int) (float64, bool) {
	if sampleCount <= minSamples || elapsedSeconds <= 0 {
		return 0, false
	}
	return float64(sampleCount) / elapsedSeconds, true
}
