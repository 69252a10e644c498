/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptStreamRoundTrip(t *testing.T) {
	key := normalizeKey([]byte("short"))
	iv, err := newRandomIV()
	require.NoError(t, err)

	var buf bytes.Buffer
	es, err := newEncryptStream(&buf, key, iv)
	require.NoError(t, err)

	plain := []byte("one small log line, followed by a much longer second record to force a second block")
	n, err := es.Write(plain[:10])
	require.NoError(t, err)
	require.Equal(t, 10, n)
	_, err = es.Write(plain[10:])
	require.NoError(t, err)
	require.NoError(t, es.Close())

	got, err := decryptStream(buf.Bytes(), key, iv)
	require.NoError(t, err)
	require.Equal(t, plain, got)
}

func TestEncryptStreamDeterministic(t *testing.T) {
	key := normalizeKey([]byte("0123456789abcdef"))
	iv := bytes.Repeat([]byte{0x42}, aesBlockSize)
	plain := []byte("deterministic given a fixed key and IV")

	encodeOnce := func() []byte {
		var buf bytes.Buffer
		es, err := newEncryptStream(&buf, key, iv)
		require.NoError(t, err)
		_, err = es.Write(plain)
		require.NoError(t, err)
		require.NoError(t, es.Close())
		return buf.Bytes()
	}

	a := encodeOnce()
	b := encodeOnce()
	require.Equal(t, a, b)
}

func TestNormalizeKeyPadsAndTruncates(t *testing.T) {
	short := normalizeKey([]byte("abc"))
	require.Len(t, short, aesBlockSize)
	require.Equal(t, []byte("abc"), short[:3])
	for _, b := range short[3:] {
		require.Equal(t, byte(0), b)
	}

	long := normalizeKey([]byte("this key is far too long for one block"))
	require.Len(t, long, aesBlockSize)
	require.Equal(t, []byte("this key is far "), long)
}
