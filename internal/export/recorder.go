// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	session           TEXT NOT NULL,
	timestamp         REAL NOT NULL,
	reported_interval REAL,
	measured_interval REAL NOT NULL,
	ax REAL NOT NULL, ay REAL NOT NULL, az REAL NOT NULL,
	lx REAL, ly REAL, lz REAL,
	alpha REAL, beta REAL, gamma REAL
);
CREATE INDEX IF NOT EXISTS idx_samples_session ON samples(session, id);
CREATE TABLE IF NOT EXISTS events (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT NOT NULL,
	time    REAL NOT NULL,
	kind    TEXT NOT NULL,
	payload TEXT NOT NULL
);
`

// Recorder persists session log entries and events to SQLite.
type Recorder struct {
	db *sql.DB
}

// OpenRecorder opens (or creates) the database at path.
func OpenRecorder(ctx context.Context, path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recorder %s: %w", path, err)
	}
	// One physical connection; SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			log.Printf("recorder: %s skipped: %v", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create recorder schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// Append stores entries for sessionID in one transaction.
func (r *Recorder) Append(ctx context.Context, sessionID string, entries []session.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples
		(session, timestamp, reported_interval, measured_interval, ax, ay, az, lx, ly, lz, alpha, beta, gamma)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var lx, ly, lz, alpha, beta, gamma any
		if lin := e.AccelerationNoGravity; lin != nil {
			lx, ly, lz = lin.X, lin.Y, lin.Z
		}
		if rr := e.RotationRate; rr != nil {
			alpha, beta, gamma = rr.Alpha, rr.Beta, rr.Gamma
		}
		if _, err := stmt.ExecContext(ctx, sessionID, e.Timestamp, nullable(e.ReportedInterval), e.MeasuredInterval,
			e.Acceleration.X, e.Acceleration.Y, e.Acceleration.Z,
			lx, ly, lz, alpha, beta, gamma); err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// RecordEvent stores an event with its JSON payload.
func (r *Recorder) RecordEvent(ctx context.Context, e session.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO events (session, time, kind, payload) VALUES (?, ?, ?, ?)`,
		e.Session, e.Time, string(e.Kind), string(payload)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Entries returns the stored log of sessionID in insertion order.
func (r *Recorder) Entries(ctx context.Context, sessionID string) ([]session.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT timestamp, reported_interval, measured_interval,
		ax, ay, az, lx, ly, lz, alpha, beta, gamma
		FROM samples WHERE session = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []session.LogEntry
	for rows.Next() {
		var (
			e                  session.LogEntry
			reported           sql.NullFloat64
			lx, ly, lz         sql.NullFloat64
			alpha, beta, gamma sql.NullFloat64
		)
		if err := rows.Scan(&e.Timestamp, &reported, &e.MeasuredInterval,
			&e.Acceleration.X, &e.Acceleration.Y, &e.Acceleration.Z,
			&lx, &ly, &lz, &alpha, &beta, &gamma); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if reported.Valid {
			v := reported.Float64
			e.ReportedInterval = &v
		}
		e.AccelerationNoGravity = vecOrNil(ptr(lx), ptr(ly), ptr(lz))
		if alpha.Valid && beta.Valid && gamma.Valid {
			e.RotationRate = &imu.RotationRate{Alpha: alpha.Float64, Beta: beta.Float64, Gamma: gamma.Float64}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}

// EventCount returns how many events were stored for sessionID.
func (r *Recorder) EventCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE session = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
