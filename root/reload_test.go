/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package root

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tracekit/config"
	"github.com/gravwell/tracekit/packet"
)

func TestApplyConfigPreservesUnchangedProtocolByString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.sil")

	r := New("app", "host")
	require.NoError(t, r.ApplyConnections(connStrings(t, path)))
	defer r.Shutdown()

	before := r.protocols[0]

	cfg := config.Config{Enabled: true, Level: packet.LevelError, Connections: connStrings(t, path)}
	require.NoError(t, r.ApplyConfig(cfg))

	require.Same(t, before, r.protocols[0], "an unchanged connection descriptor must keep its live protocol instance")
}

func TestApplyConfigReplacesChangedConnectionsAndDisconnectsStale(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.sil")
	newPath := filepath.Join(dir, "new.sil")

	r := New("app", "host")
	require.NoError(t, r.ApplyConnections(connStrings(t, oldPath)))
	defer r.Shutdown()

	cfg := config.Config{Enabled: true, Level: packet.LevelError, Connections: connStrings(t, newPath)}
	require.NoError(t, r.ApplyConfig(cfg))

	require.Len(t, r.protocols, 1)
	require.Contains(t, r.protocols[0].String(), newPath)
}

func TestApplyConfigUpdatesRootLevelAtomically(t *testing.T) {
	r := New("app", "host")
	require.Equal(t, packet.LevelDebug, r.Level())

	cfg := config.Config{Enabled: true, Level: packet.LevelError}
	require.NoError(t, r.ApplyConfig(cfg))
	require.Equal(t, packet.LevelError, r.Level())
	require.True(t, r.Enabled())
}
