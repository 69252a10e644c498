/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package protocol

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tracekit/options"
)

func TestTextProtocolWritesPatternedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	proto, err := newTextProtocol(options.Map{
		"filename": path,
		"pattern":  "%level%: %title%",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, proto.Connect())
	require.NoError(t, proto.Write(sampleEntry("hello")))
	require.NoError(t, proto.Write(sampleEntry("world")))
	require.NoError(t, proto.Disconnect())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Equal(t, []string{"message: hello", "message: world"}, lines)
}

func TestTextProtocolUnknownTokenPassesThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	proto, err := newTextProtocol(options.Map{"filename": path, "pattern": "%bogus% %title%"}, nil)
	require.NoError(t, err)
	require.NoError(t, proto.Connect())
	require.NoError(t, proto.Write(sampleEntry("x")))
	require.NoError(t, proto.Disconnect())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%bogus% x\n", string(raw))
}

func TestTextProtocolDefaultPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	proto, err := newTextProtocol(options.Map{"filename": path}, nil)
	require.NoError(t, err)
	require.NoError(t, proto.Connect())
	require.NoError(t, proto.Write(sampleEntry("boot")))
	require.NoError(t, proto.Disconnect())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(strings.TrimRight(string(raw), "\n"), "[message] boot"))
}

func TestTextProtocolIsValidOption(t *testing.T) {
	proto, err := newTextProtocol(options.Map{"filename": "x.log"}, nil)
	require.NoError(t, err)
	require.True(t, proto.IsValidOption("pattern"))
	require.True(t, proto.IsValidOption("level"))
	require.False(t, proto.IsValidOption("encrypt"), "text protocol never encrypts")
}
