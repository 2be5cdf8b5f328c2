// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"errors"
	"fmt"
	"strings"
)

// Command is the transport-neutral name of a session operation.
type Command string

const (
	CmdTap              Command = "tap"
	CmdResetLatency     Command = "reset_latency"
	CmdNoise            Command = "noise"
	CmdZero             Command = "zero"
	CmdResetIntegration Command = "reset_integration"
	CmdIntegrationOn    Command = "integration_on"
	CmdIntegrationOff   Command = "integration_off"
	CmdReset            Command = "reset"
)

var ErrUnknownCommand = errors.New("unknown command")

var commands = map[Command]struct{}{
	CmdTap: {}, CmdResetLatency: {}, CmdNoise: {}, CmdZero: {},
	CmdResetIntegration: {}, CmdIntegrationOn: {}, CmdIntegrationOff: {}, CmdReset: {},
}

// ParseCommand accepts a command name, case-insensitive, surrounding space ignored.
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := commands[c]; !ok {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownCommand)
	}
	return c, nil
}

// Apply runs a command against the session.
func (s *Session) Apply(c Command) error {
	switch c {
	case CmdTap:
		s.TapLatency()
	case CmdResetLatency:
		s.ResetLatency()
	case CmdNoise:
		s.StartNoiseCapture()
	case CmdZero:
		s.ResetOrientation()
	case CmdResetIntegration:
		s.ResetIntegration()
	case CmdIntegrationOn:
		s.SetIntegrationEnabled(true)
	case CmdIntegrationOff:
		s.SetIntegrationEnabled(false)
	case CmdReset:
		s.Reset()
	default:
		return fmt.Errorf("%q: %w", c, ErrUnknownCommand)
	}
	return nil
}
