/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package session

import (
	"sync"

	"github.com/gravwell/tracekit/packet"
)

// PropertySet is a partial update applied to a Session, as parsed from a
// `session.<name>.<attr>` configuration key (spec.md section 4.9). Only
// non-nil fields are applied.
type PropertySet struct {
	Active *bool
	Level  *packet.Level
	Color  *uint32
}

// Manager owns the name index and the defaults block applied to newly
// created sessions (spec.md section 3, "SessionManager"; section 4.8).
// A single lock guards both, matching spec.md section 5's "single lock
// guards both the name index and the defaults block."
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	defaults Defaults
	pending  map[string]PropertySet // queued load_session_properties for not-yet-created sessions
	parent   Dispatcher
}

// New builds an empty Manager whose Sessions dispatch through parent.
// The initial defaults block starts with Active: true, so that the
// default "Main" session (and any other session created before a
// load_defaults call) emits out of the box, the way SIAuto.Main does in
// the source this is generalized from; an explicit load_defaults call
// overrides this, including turning it off.
func New(parent Dispatcher) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: Defaults{Active: true},
		pending:  make(map[string]PropertySet),
		parent:   parent,
	}
}

// Add creates a Session named name with the current defaults. If
// storeInManager is true it is registered under name (a pre-existing
// registration with that name is returned unchanged, per spec.md
// section 4.8: "duplicate names return the existing Session"). Any
// properties queued by a prior load_session_properties call for this
// name are applied immediately.
func (m *Manager) Add(name string, storeInManager bool) *Session {
	key := normalizeName(name)
	m.mu.Lock()
	defer m.mu.Unlock()

	if storeInManager {
		if existing, ok := m.sessions[key]; ok {
			return existing
		}
	}

	s := newSession(name, m.defaults, m.parent)
	if props, ok := m.pending[key]; ok {
		applyProperties(s, props)
		delete(m.pending, key)
	}
	if storeInManager {
		m.sessions[key] = s
	}
	return s
}

// Get performs a case-insensitive lookup, returning (nil, false) when
// name is unknown.
func (m *Manager) Get(name string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[normalizeName(name)]
	return s, ok
}

// Delete removes s from the name index; the Session object itself
// remains usable by any caller still holding a reference (spec.md
// section 4.8: "the Session object remains usable").
func (m *Manager) Delete(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := normalizeName(s.Name())
	if existing, ok := m.sessions[key]; ok && existing == s {
		delete(m.sessions, key)
	}
}

// Update renames s from oldName to newName. If newName already names a
// different, registered Session, that registrant is preserved and s is
// simply removed from oldName's slot (spec.md section 4.8: "resolves
// collision by preserving the first registrant").
func (m *Manager) Update(s *Session, newName, oldName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldKey := normalizeName(oldName)
	newKey := normalizeName(newName)

	if existing, ok := m.sessions[oldKey]; ok && existing == s {
		delete(m.sessions, oldKey)
	}

	s.mu.Lock()
	s.name = newName
	s.mu.Unlock()

	if _, collide := m.sessions[newKey]; !collide {
		m.sessions[newKey] = s
	}
}

// LoadDefaults replaces the defaults block used for Sessions created
// from now on; it does not retroactively affect existing Sessions
// (spec.md section 4.8).
func (m *Manager) LoadDefaults(d Defaults) {
	m.mu.Lock()
	m.defaults = d
	m.mu.Unlock()
}

// LoadSessionProperties applies props to the Session named name if it
// exists; otherwise the properties are queued and applied if/when such
// a Session is later added (spec.md section 4.8).
func (m *Manager) LoadSessionProperties(name string, props PropertySet) {
	key := normalizeName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		applyProperties(s, props)
		return
	}
	m.pending[key] = mergeProperties(m.pending[key], props)
}

func applyProperties(s *Session, props PropertySet) {
	if props.Active != nil {
		s.SetActive(*props.Active)
	}
	if props.Level != nil {
		s.SetLevel(*props.Level)
	}
	if props.Color != nil {
		s.SetColor(*props.Color)
	}
}

func mergeProperties(base, update PropertySet) PropertySet {
	if update.Active != nil {
		base.Active = update.Active
	}
	if update.Level != nil {
		base.Level = update.Level
	}
	if update.Color != nil {
		base.Color = update.Color
	}
	return base
}
