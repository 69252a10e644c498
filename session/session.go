/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package session implements named logging sessions and the manager that
// creates, looks up, and renames them (spec.md section 4.8). A Session
// carries its own enable flag, level floor, and display color; the
// manager applies a defaults block at creation time only, matching the
// metadata/Level split in ingest/log/logging.go generalized from one
// fixed logger to many named ones.
package session

import (
	"strings"
	"sync"

	"github.com/gravwell/tracekit/packet"
)

// Dispatcher is the capability a Session needs from its parent root to
// emit packets; defined here rather than importing package root to avoid
// a root<->session import cycle (root embeds a SessionManager).
type Dispatcher interface {
	Dispatch(p packet.Packet) error
}

// Session is a named emission context (spec.md section 3, "Session").
// Mutations to individual fields are atomic; there is no cross-field
// invariant to preserve.
type Session struct {
	mu     sync.RWMutex
	name   string
	active bool
	level  packet.Level
	color  uint32 // ARGB, 0 means transparent/default
	parent Dispatcher
}

// Defaults is the property block copied onto every Session at creation
// (spec.md section 4.8, "load_defaults").
type Defaults struct {
	Active bool
	Level  packet.Level
	Color  uint32
}

func newSession(name string, d Defaults, parent Dispatcher) *Session {
	return &Session{name: name, active: d.Active, level: d.Level, color: d.Color, parent: parent}
}

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Session) SetActive(v bool) {
	s.mu.Lock()
	s.active = v
	s.mu.Unlock()
}

func (s *Session) Level() packet.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

func (s *Session) SetLevel(l packet.Level) {
	s.mu.Lock()
	s.level = l
	s.mu.Unlock()
}

func (s *Session) Color() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.color
}

func (s *Session) SetColor(c uint32) {
	s.mu.Lock()
	s.color = c
	s.mu.Unlock()
}

// IsOn reports whether a packet at l would be emitted: the session must
// be active and l must meet or exceed its level floor (spec.md invariant
// 8). Reads are lock-free-adjacent (best effort), matching spec.md
// section 5: "occasional mis-gating during reload is acceptable."
func (s *Session) IsOn(l packet.Level) bool {
	return s.Active() && l >= s.Level()
}

// Log hands p to the parent root for dispatch, gated by IsOn.
func (s *Session) Log(p packet.Packet) error {
	if !s.IsOn(p.Level()) {
		return nil
	}
	s.mu.RLock()
	parent := s.parent
	s.mu.RUnlock()
	if parent == nil {
		return nil
	}
	return parent.Dispatch(p)
}

func normalizeName(name string) string {
	return strings.ToLower(name)
}
