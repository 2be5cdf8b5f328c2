// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/relabs-tech/motion_diagnostics/internal/export"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// newWebMux serves the JSON API, the websocket stream and the static
// pages in staticDir (skipped when empty).
func newWebMux(loop *session.Loop, hub *wsHub, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Latest statistics; ?history=true adds the bounded histories.
	mux.HandleFunc("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
		history, _ := strconv.ParseBool(r.URL.Query().Get("history"))
		snap, err := loop.Snapshot(history)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, snap)
	})

	// Session log as JSON, or CSV with ?format=csv.
	mux.HandleFunc("/api/log", func(w http.ResponseWriter, r *http.Request) {
		var (
			id      string
			entries []session.LogEntry
		)
		if err := loop.Do(func(s *session.Session) {
			id = s.ID()
			entries = s.Log()
		}); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="motion-`+id+`.csv"`)
			if err := export.WriteCSV(w, entries); err != nil {
				log.Printf("web: csv export error: %v", err)
			}
			return
		}
		if entries == nil {
			entries = []session.LogEntry{}
		}
		writeJSON(w, struct {
			Session string             `json:"session"`
			Entries []session.LogEntry `json:"entries"`
		}{id, entries})
	})

	mux.HandleFunc("/api/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cmd, err := decodeCommand(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := loop.Command(cmd); err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, session.ErrUnknownCommand) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, CommandMessage{Command: string(cmd)})
	})

	if hub != nil {
		mux.HandleFunc("/api/ws", hub.HandleWS)
	}

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}
