/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tracekit/packet"
)

func TestParseBasicKeys(t *testing.T) {
	doc := `
# a comment
enabled = true
level = Message
defaultlevel = warning
appname = myapp
connections = tcp(host=localhost,port=4228)
`
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.True(t, c.Enabled)
	require.Equal(t, packet.LevelMessage, c.Level)
	require.Equal(t, packet.LevelWarning, c.DefaultLevel)
	require.Equal(t, "myapp", c.AppName)
	require.Len(t, c.Connections, 1)
	require.Equal(t, "tcp", c.Connections[0].Name)
	require.Equal(t, "localhost", c.Connections[0].Opts["host"])
}

func TestParseCommentStyles(t *testing.T) {
	doc := "enabled = true ; trailing semicolon comment\n# full line\nappname = x # trailing hash\n"
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.True(t, c.Enabled)
	require.Equal(t, "x", c.AppName)
}

func TestParseQuotedValueWithEmbeddedEquals(t *testing.T) {
	doc := `connections = "file(filename=./a=b.sil)"` + "\n"
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, c.Connections, 1)
	require.Equal(t, "./a=b.sil", c.Connections[0].Opts["filename"])
}

func TestParseSessionDefaults(t *testing.T) {
	doc := "sessiondefaults.active = true\nsessiondefaults.level = error\n"
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.True(t, c.SessionDefaults.Active)
	require.Equal(t, packet.LevelError, c.SessionDefaults.Level)
}

func TestParseSessionProperties(t *testing.T) {
	doc := "session.Main.level = warning\nsession.Main.active = false\n"
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	props, ok := c.SessionProperties["main"]
	require.True(t, ok)
	require.NotNil(t, props.Level)
	require.Equal(t, packet.LevelWarning, *props.Level)
	require.NotNil(t, props.Active)
	require.False(t, *props.Active)
}

func TestParseMissingEqualsIsError(t *testing.T) {
	_, err := Parse(strings.NewReader("not-a-kv-line\n"))
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 1, perr.Line)
}

func TestParseBlankLinesAndWhitespaceIgnored(t *testing.T) {
	doc := "\n\n   \nenabled = true\n\n"
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.True(t, c.Enabled)
}
