/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package options

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseS1 implements scenario S1 from spec.md section 8.
func TestParseS1(t *testing.T) {
	protos, err := Parse(`tcp(host=localhost,port=4228,timeout=5000),file(filename="./a.sil",append=true)`)
	require.NoError(t, err)
	require.Len(t, protos, 2)

	require.Equal(t, "tcp", protos[0].Name)
	require.Equal(t, "localhost", protos[0].Opts.String("host", ""))
	port, err := protos[0].Opts.Int("port", 0)
	require.NoError(t, err)
	require.EqualValues(t, 4228, port)
	timeout, err := protos[0].Opts.Duration("timeout", 0)
	require.NoError(t, err)
	require.EqualValues(t, 5000, timeout)

	require.Equal(t, "file", protos[1].Name)
	require.Equal(t, "./a.sil", protos[1].Opts.String("filename", ""))
	appendVal, err := protos[1].Opts.Bool("append", false)
	require.NoError(t, err)
	require.True(t, appendVal)
}

func TestParseDuplicateKeyLastWins(t *testing.T) {
	protos, err := Parse(`mem(maxsize=10,maxsize=20)`)
	require.NoError(t, err)
	sz, err := protos[0].Opts.Size("maxsize", 0)
	require.NoError(t, err)
	require.EqualValues(t, 20, sz)
}

func TestParseCaseInsensitiveKeys(t *testing.T) {
	protos, err := Parse(`tcp(HOST=foo)`)
	require.NoError(t, err)
	require.Equal(t, "foo", protos[0].Opts.String("host", ""))
}

func TestParseQuotedEscapes(t *testing.T) {
	protos, err := Parse(`file(filename="C:\\logs\\a.sil",caption="say \"hi\"")`)
	require.NoError(t, err)
	require.Equal(t, `C:\logs\a.sil`, protos[0].Opts.String("filename", ""))
	require.Equal(t, `say "hi"`, protos[0].Opts.String("caption", ""))
}

func TestParseWhitespaceIgnored(t *testing.T) {
	protos, err := Parse(` tcp( host = localhost , port = 4228 ) `)
	require.NoError(t, err)
	require.Equal(t, "localhost", protos[0].Opts.String("host", ""))
}

func TestParseEmptyOptions(t *testing.T) {
	protos, err := Parse(`mem()`)
	require.NoError(t, err)
	require.Empty(t, protos[0].Opts)
}

func TestParseErrorOffset(t *testing.T) {
	_, err := Parse(`tcp(host=foo`)
	require.Error(t, err)
	var ice *InvalidConnectionsError
	require.ErrorAs(t, err, &ice)
	require.Equal(t, 12, ice.Offset)
}

func TestParseMultipleProtocolsOrderPreserved(t *testing.T) {
	protos, err := Parse(`tcp(),file(),mem(),text()`)
	require.NoError(t, err)
	names := make([]string, len(protos))
	for i, p := range protos {
		names[i] = p.Name
	}
	require.Equal(t, []string{"tcp", "file", "mem", "text"}, names)
}

func TestSizeUnits(t *testing.T) {
	protos, err := Parse(`file(maxsize=2mb,buffer=512)`)
	require.NoError(t, err)
	sz, err := protos[0].Opts.Size("maxsize", 0)
	require.NoError(t, err)
	require.EqualValues(t, 2*1024*1024, sz)
	buf, err := protos[0].Opts.Size("buffer", 0)
	require.NoError(t, err)
	require.EqualValues(t, 512, buf)
}

func TestDurationUnits(t *testing.T) {
	cases := map[string]int64{
		"500":  500,
		"500ms": 500,
		"5s":    5000,
		"2m":    120000,
		"1h":    3600000,
		"1d":    86400000,
	}
	for in, want := range cases {
		protos, err := Parse(`tcp(timeout=` + in + `)`)
		require.NoError(t, err)
		got, err := protos[0].Opts.Duration("timeout", 0)
		require.NoError(t, err)
		require.Equalf(t, want, got, "input %q", in)
	}
}
