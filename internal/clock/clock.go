// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package clock abstracts the monotonic time source and the one-shot
// timers used by the capture windows and the latency timeout.
package clock

import (
	"sort"
	"time"
)

// Clock reports monotonic milliseconds and schedules one-shot callbacks.
// Callbacks must run on the same logical thread as every other session
// operation; implementations are responsible for that hand-off.
type Clock interface {
	Now() float64
	AfterFunc(d time.Duration, f func())
}

// Millis converts a duration to the float millisecond scale used by samples.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type pending struct {
	at  float64
	seq int
	f   func()
}

// Manual is a deterministic Clock for tests and offline replay.
// Timers only fire from Advance or Set, on the caller's goroutine.
type Manual struct {
	now    float64
	seq    int
	timers []pending
}

// NewManual starts the clock at the given millisecond reading.
func NewManual(startMs float64) *Manual {
	return &Manual{now: startMs}
}

func (m *Manual) Now() float64 { return m.now }

func (m *Manual) AfterFunc(d time.Duration, f func()) {
	m.seq++
	m.timers = append(m.timers, pending{at: m.now + Millis(d), seq: m.seq, f: f})
}

// Advance moves time forward by d, firing due timers in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.Set(m.now + Millis(d))
}

// Set moves time to ms (never backwards), firing due timers in deadline order.
// Timers scheduled by a firing callback are honoured if they fall due too.
func (m *Manual) Set(ms float64) {
	if ms < m.now {
		return
	}
	for {
		idx := m.nextDue(ms)
		if idx < 0 {
			break
		}
		t := m.timers[idx]
		m.timers = append(m.timers[:idx], m.timers[idx+1:]...)
		m.now = t.at
		t.f()
	}
	m.now = ms
}

// Pending reports how many timers have not fired yet.
func (m *Manual) Pending() int { return len(m.timers) }

func (m *Manual) nextDue(limit float64) int {
	if len(m.timers) == 0 {
		return -1
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at == m.timers[j].at {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at < m.timers[j].at
	})
	if m.timers[0].at > limit {
		return -1
	}
	return 0
}
