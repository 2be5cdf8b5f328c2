// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/motion_diagnostics/internal/export"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

// recorderSink copies new log entries and every event into SQLite.
type recorderSink struct {
	rec    *export.Recorder
	loop   *session.Loop
	events chan session.Event

	sessionID string
	flushed   int // entries of sessionID already stored
}

func newRecorderSink(rec *export.Recorder, loop *session.Loop) *recorderSink {
	return &recorderSink{rec: rec, loop: loop, events: make(chan session.Event, 256)}
}

// OnEvent runs on the loop goroutine and never blocks it.
func (r *recorderSink) OnEvent(e session.Event) {
	select {
	case r.events <- e:
	default:
		log.Printf("recorder: event queue full, dropping %s", e.Kind)
	}
}

// flush stores the entries appended since the previous flush. A new
// session id restarts the cursor.
func (r *recorderSink) flush(ctx context.Context) error {
	var (
		id      string
		entries []session.LogEntry
	)
	prevID, offset := r.sessionID, r.flushed
	err := r.loop.Do(func(s *session.Session) {
		id = s.ID()
		if id != prevID {
			offset = 0
		}
		entries = s.LogSince(offset)
	})
	if err != nil {
		return err
	}
	if id != prevID {
		r.sessionID, r.flushed = id, 0
	}
	if err := r.rec.Append(ctx, id, entries); err != nil {
		return err
	}
	r.flushed += len(entries)
	return nil
}

func (r *recorderSink) drainEvents(ctx context.Context) {
	for {
		select {
		case e := <-r.events:
			if err := r.rec.RecordEvent(ctx, e); err != nil {
				log.Printf("recorder: %v", err)
			}
		default:
			return
		}
	}
}

// run flushes every interval until ctx is done, then once more.
func (r *recorderSink) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final := context.Background()
			r.drainEvents(final)
			if err := r.flush(final); err != nil {
				log.Printf("recorder: final flush: %v", err)
			}
			return
		case e := <-r.events:
			if err := r.rec.RecordEvent(ctx, e); err != nil {
				log.Printf("recorder: %v", err)
			}
		case <-ticker.C:
			if err := r.flush(ctx); err != nil {
				log.Printf("recorder: flush: %v", err)
			}
		}
	}
}
