// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_diagnostics/internal/config"
	"github.com/relabs-tech/motion_diagnostics/internal/imu"
	"github.com/relabs-tech/motion_diagnostics/internal/session"
)

// CommandMessage is the JSON form of a command. A bare command name is
// accepted as well.
type CommandMessage struct {
	Command string `json:"command"`
}

// decodeCommand accepts either {"command":"tap"} or plain "tap".
func decodeCommand(payload []byte) (session.Command, error) {
	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "{") {
		var msg CommandMessage
		if err := json.Unmarshal([]byte(text), &msg); err != nil {
			return "", fmt.Errorf("decode command: %w", err)
		}
		text = msg.Command
	}
	return session.ParseCommand(text)
}

func decodeOrientation(payload []byte) (imu.OrientationSample, error) {
	var o imu.OrientationSample
	if err := json.Unmarshal(payload, &o); err != nil {
		return o, fmt.Errorf("decode orientation: %w", err)
	}
	return o, nil
}

// bridge moves MQTT traffic in and out of the session loop.
type bridge struct {
	client mqtt.Client
	loop   *session.Loop
	cfg    *config.Config
}

func newBridge(client mqtt.Client, loop *session.Loop, cfg *config.Config) *bridge {
	return &bridge{client: client, loop: loop, cfg: cfg}
}

func (b *bridge) onSample(payload []byte) {
	raw, err := imu.DecodeRaw(payload)
	if err != nil {
		log.Printf("diagnostics: sample unmarshal error: %v", err)
		return
	}
	if err := b.loop.Submit(raw, func(err error) {
		log.Printf("diagnostics: sample rejected: %v", err)
	}); err != nil {
		log.Printf("diagnostics: submit error: %v", err)
	}
}

func (b *bridge) onOrientation(payload []byte) {
	o, err := decodeOrientation(payload)
	if err != nil {
		log.Printf("diagnostics: %v", err)
		return
	}
	if err := b.loop.SubmitOrientation(o); err != nil {
		log.Printf("diagnostics: submit orientation error: %v", err)
	}
}

// onCommand queues the command behind any pending samples and returns
// without waiting, so the ordered MQTT router never stalls on the loop.
func (b *bridge) onCommand(payload []byte) {
	c, err := decodeCommand(payload)
	if err != nil {
		log.Printf("diagnostics: %v", err)
		return
	}
	if err := b.loop.SubmitCommand(c, func(err error) {
		log.Printf("diagnostics: command %s failed: %v", c, err)
	}); err != nil {
		log.Printf("diagnostics: submit command error: %v", err)
		return
	}
	log.Printf("diagnostics: queued command %s", c)
}

func (b *bridge) subscribe() error {
	subs := []struct {
		topic   string
		handler func([]byte)
	}{
		{b.cfg.TopicSamples, b.onSample},
		{b.cfg.TopicOrientation, b.onOrientation},
		{b.cfg.TopicCommands, b.onCommand},
	}
	for _, s := range subs {
		if s.topic == "" {
			continue
		}
		handler := s.handler
		token := b.client.Subscribe(s.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			handler(msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", s.topic, token.Error())
		}
		log.Printf("diagnostics: subscribed to %s", s.topic)
	}
	return nil
}

// OnEvent publishes events without waiting for the broker; it runs on the
// loop goroutine.
func (b *bridge) OnEvent(e session.Event) {
	if b.cfg.TopicEvents == "" {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("diagnostics: event marshal error: %v", err)
		return
	}
	b.client.Publish(b.cfg.TopicEvents, 0, false, payload)
}

func (b *bridge) publishSnapshot(snap session.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("diagnostics: snapshot marshal error: %v", err)
		return
	}
	if token := b.client.Publish(b.cfg.TopicSnapshot, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (snapshot): %v", token.Error())
	}
}
