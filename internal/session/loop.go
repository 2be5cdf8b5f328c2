// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"context"
	"errors"
	"time"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
)

// ErrLoopStopped is returned when work is submitted after Run has returned.
var ErrLoopStopped = errors.New("session loop stopped")

// Loop owns a Session and runs every operation on it from a single
// goroutine, in submission order. Now is monotonic milliseconds since the
// loop was created, and timers post their callbacks back onto the loop.
//
// Work is stamped with Now when it is queued, and the session sees that
// stamp as its clock while the work runs, so a busy loop delays samples
// without compressing their intervals.
type Loop struct {
	start   time.Time
	queue   chan work
	stopped chan struct{}
	session *Session

	arrival float64 // stamp of the work being run; loop goroutine only
}

type work struct {
	at float64
	f  func()
}

// arrivalClock is the session's view of the loop clock.
type arrivalClock struct{ l *Loop }

func (c arrivalClock) Now() float64                        { return c.l.arrival }
func (c arrivalClock) AfterFunc(d time.Duration, f func()) { c.l.AfterFunc(d, f) }

// NewLoop creates a loop and its session. queueSize bounds how many events
// can be pending before Submit blocks.
func NewLoop(cfg Config, queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 256
	}
	l := &Loop{
		start:   time.Now(),
		queue:   make(chan work, queueSize),
		stopped: make(chan struct{}),
	}
	l.session = New(cfg, arrivalClock{l})
	return l
}

func (l *Loop) Now() float64 {
	return float64(time.Since(l.start)) / float64(time.Millisecond)
}

func (l *Loop) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, func() { _ = l.post(f) })
}

// Run processes queued work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case w := <-l.queue:
			l.arrival = w.at
			w.f()
		}
	}
}

func (l *Loop) post(f func()) error {
	return l.postAt(l.Now(), f)
}

func (l *Loop) postAt(at float64, f func()) error {
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}
	select {
	case <-l.stopped:
		return ErrLoopStopped
	case l.queue <- work{at: at, f: f}:
		return nil
	}
}

// Do runs f on the loop goroutine and waits for it to finish.
func (l *Loop) Do(f func(*Session)) error {
	done := make(chan struct{})
	if err := l.post(func() { f(l.session); close(done) }); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// Submit stamps a raw sample with its arrival time and queues it.
// Normalization errors are reported to onErr if set.
func (l *Loop) Submit(raw imu.RawEvent, onErr func(error)) error {
	now := l.Now()
	return l.postAt(now, func() {
		if _, err := l.session.HandleRawAt(raw, now); err != nil && onErr != nil {
			onErr(err)
		}
	})
}

// SubmitOrientation queues an orientation reading.
func (l *Loop) SubmitOrientation(o imu.OrientationSample) error {
	return l.post(func() { l.session.HandleOrientation(o) })
}

// Command queues a command and waits for it to be applied.
func (l *Loop) Command(c Command) error {
	var applyErr error
	if err := l.Do(func(s *Session) { applyErr = s.Apply(c) }); err != nil {
		return err
	}
	return applyErr
}

// SubmitCommand queues a command without waiting for it to be applied.
// Errors from Apply are reported to onErr if set.
func (l *Loop) SubmitCommand(c Command, onErr func(error)) error {
	return l.post(func() {
		if err := l.session.Apply(c); err != nil && onErr != nil {
			onErr(err)
		}
	})
}

// Snapshot reads a snapshot on the loop goroutine.
func (l *Loop) Snapshot(withHistory bool) (Snapshot, error) {
	var snap Snapshot
	err := l.Do(func(s *Session) { snap = s.Snapshot(withHistory) })
	return snap, err
}

// Observe registers an observer; it runs on the loop goroutine.
func (l *Loop) Observe(o Observer) error {
	return l.Do(func(s *Session) { s.Observe(o) })
}
