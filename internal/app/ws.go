// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocket message types
type WSMessage struct {
	Action  string `json:"action"` // command, snapshot
	Command string `json:"command,omitempty"`
	History bool   `json:"history,omitempty"`
}

type WSResponse struct {
	Type     string            `json:"type"` // event, snapshot, error
	Event    *session.Event    `json:"event,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Message  string            `json:"message,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan WSResponse
}

// wsHub fans events and snapshots out to every connected browser and
// forwards their commands to the loop.
type wsHub struct {
	loop    *session.Loop
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newWSHub(loop *session.Loop) *wsHub {
	return &wsHub{loop: loop, clients: make(map[*wsClient]struct{})}
}

// OnEvent runs on the loop goroutine; slow clients miss messages.
func (h *wsHub) OnEvent(e session.Event) {
	h.broadcast(WSResponse{Type: "event", Event: &e})
}

func (h *wsHub) broadcast(msg WSResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *wsHub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *wsHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (c *wsClient) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("ws: write error: %v", err)
			break
		}
	}
	c.conn.Close()
}

// reply queues a direct response. Only the reading goroutine calls it, so
// send is still open.
func (c *wsClient) reply(msg WSResponse) {
	select {
	case c.send <- msg:
	default:
	}
}

// HandleWS handles one browser connection.
func (h *wsHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: websocket upgrade error: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan WSResponse, 64)}
	h.register(c)
	go c.writeLoop()
	defer h.unregister(c)

	// Main message loop
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws: websocket read error: %v", err)
			}
			return
		}

		switch msg.Action {
		case "command":
			cmd, err := session.ParseCommand(msg.Command)
			if err == nil {
				err = h.loop.Command(cmd)
			}
			if err != nil {
				c.reply(WSResponse{Type: "error", Message: err.Error()})
			}

		case "snapshot":
			snap, err := h.loop.Snapshot(msg.History)
			if err != nil {
				c.reply(WSResponse{Type: "error", Message: err.Error()})
				continue
			}
			c.reply(WSResponse{Type: "snapshot", Snapshot: &snap})

		default:
			c.reply(WSResponse{Type: "error", Message: "unknown action " + msg.Action})
		}
	}
}
