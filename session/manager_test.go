/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tracekit/packet"
)

type nopDispatcher struct{ got []packet.Packet }

func (d *nopDispatcher) Dispatch(p packet.Packet) error {
	d.got = append(d.got, p)
	return nil
}

func TestAddRegistersAndReturnsSameSessionForDuplicateName(t *testing.T) {
	m := New(&nopDispatcher{})
	a := m.Add("Main", true)
	b := m.Add("main", true) // case-insensitive duplicate
	require.Same(t, a, b)

	got, ok := m.Get("MAIN")
	require.True(t, ok)
	require.Same(t, a, got)
}

func TestAddWithoutStoreIsNotVisible(t *testing.T) {
	m := New(&nopDispatcher{})
	m.Add("scratch", false)
	_, ok := m.Get("scratch")
	require.False(t, ok)
}

func TestDeleteRemovesFromIndexOnly(t *testing.T) {
	m := New(&nopDispatcher{})
	s := m.Add("Main", true)
	m.Delete(s)

	_, ok := m.Get("Main")
	require.False(t, ok)
	// the Session object itself remains usable.
	s.SetActive(true)
	require.True(t, s.Active())
}

func TestUpdateRenamesAndPreservesCollidingRegistrant(t *testing.T) {
	m := New(&nopDispatcher{})
	first := m.Add("A", true)
	second := m.Add("B", true)

	m.Update(first, "B", "A")

	got, ok := m.Get("B")
	require.True(t, ok)
	require.Same(t, second, got, "the first registrant at the colliding name must be preserved")

	_, ok = m.Get("A")
	require.False(t, ok)
}

func TestLoadDefaultsDoesNotAffectExistingSessions(t *testing.T) {
	m := New(&nopDispatcher{})
	existing := m.Add("old", true)
	require.Equal(t, packet.LevelDebug, existing.Level())

	m.LoadDefaults(Defaults{Level: packet.LevelError, Active: true})
	require.Equal(t, packet.LevelDebug, existing.Level(), "defaults must not retroactively apply")

	fresh := m.Add("new", true)
	require.Equal(t, packet.LevelError, fresh.Level())
	require.True(t, fresh.Active())
}

func TestLoadSessionPropertiesAppliesImmediatelyWhenPresent(t *testing.T) {
	m := New(&nopDispatcher{})
	s := m.Add("Main", true)

	lvl := packet.LevelWarning
	m.LoadSessionProperties("main", PropertySet{Level: &lvl})
	require.Equal(t, packet.LevelWarning, s.Level())
}

func TestLoadSessionPropertiesQueuesForFutureSession(t *testing.T) {
	m := New(&nopDispatcher{})

	lvl := packet.LevelFatal
	active := true
	m.LoadSessionProperties("future", PropertySet{Level: &lvl, Active: &active})

	s := m.Add("future", true)
	require.Equal(t, packet.LevelFatal, s.Level())
	require.True(t, s.Active())
}

func TestSessionIsOnGatesByActiveAndLevel(t *testing.T) {
	disp := &nopDispatcher{}
	m := New(disp)
	s := m.Add("Main", true)
	s.SetActive(true)
	s.SetLevel(packet.LevelWarning)

	require.False(t, s.IsOn(packet.LevelMessage))
	require.True(t, s.IsOn(packet.LevelError))

	entry := &packet.LogEntry{Header: packet.Header{Lvl: packet.LevelMessage}, Title: "suppressed"}
	require.NoError(t, s.Log(entry))
	require.Empty(t, disp.got, "below-floor packets must not reach the dispatcher")

	entry2 := &packet.LogEntry{Header: packet.Header{Lvl: packet.LevelError}, Title: "shown"}
	require.NoError(t, s.Log(entry2))
	require.Len(t, disp.got, 1)
}
