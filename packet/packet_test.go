/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, p Packet) {
	t.Helper()
	buf, err := p.Encode(nil)
	require.NoError(t, err)
	require.EqualValues(t, p.Size(), len(buf))

	dec, n, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	buf2, err := dec.Encode(nil)
	require.NoError(t, err)
	require.Equal(t, buf, buf2, "re-encode must be byte-identical")
}

func TestLogEntryRoundTrip(t *testing.T) {
	e := &LogEntry{
		Header:    Header{Lvl: LevelMessage, ThreadID: 2, ProcessID: 1},
		EntryType: EntryMessage,
		ViewerID:  ViewerTitle,
		Color:     0x00FFFFFF,
		Timestamp: Timestamp(0x08D96A1234567890),
		Title:     "hi",
		Session:   "Main",
		AppName:   "App",
		Hostname:  "H",
		Data:      nil,
	}
	roundTrip(t, e)
}

// TestLogEntryWireShapeS2 implements scenario S2 from spec.md section 8.
func TestLogEntryWireShapeS2(t *testing.T) {
	e := &LogEntry{
		Header:    Header{Lvl: LevelMessage, ThreadID: 2, ProcessID: 1},
		EntryType: EntryMessage,
		ViewerID:  ViewerTitle,
		Color:     0x00FFFFFF,
		Timestamp: Timestamp(0x08D96A1234567890),
		Title:     "hi",
		Session:   "Main",
		AppName:   "App",
		Hostname:  "H",
		Data:      nil,
	}
	buf, err := e.Encode(nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x04, 0x00}, buf[0:2], "LogEntry tag must be 4")
	size := uint32(buf[2]) | uint32(buf[3])<<8 | uint32(buf[4])<<16 | uint32(buf[5])<<24
	require.EqualValues(t, len(buf), size)

	buf2, err := e.Encode(nil)
	require.NoError(t, err)
	require.Equal(t, buf, buf2, "encoding must be reproducible")
}

func TestWatchRoundTrip(t *testing.T) {
	w := &Watch{
		Header:    Header{Lvl: LevelDebug},
		Name:      "counter",
		Value:     "42",
		WatchType: WatchInteger,
		Timestamp: Now(),
	}
	roundTrip(t, w)
}

func TestControlCommandRoundTrip(t *testing.T) {
	c := &ControlCommand{
		Header:      Header{Lvl: LevelControl},
		ControlType: ControlClearAll,
		Data:        []byte("payload"),
	}
	roundTrip(t, c)
}

func TestProcessFlowRoundTrip(t *testing.T) {
	p := &ProcessFlow{
		Header:    Header{Lvl: LevelMessage},
		FlowType:  FlowEnterMethod,
		Title:     "DoWork",
		Hostname:  "box1",
		Timestamp: Now(),
	}
	roundTrip(t, p)
}

func TestLogHeaderRoundTrip(t *testing.T) {
	h := &LogHeader{
		Header: Header{Lvl: LevelControl},
		Fields: map[string]string{"hostname": "box1", "appname": "demo"},
	}
	roundTrip(t, h)
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode([]byte{0x04, 0x00, 0x10, 0x00})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeUnknownKind(t *testing.T) {
	buf := make([]byte, HeaderSize)
	putPrefix(buf, Kind(0xFFFF), HeaderSize)
	_, _, err := Decode(buf)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestTimestampRoundTrip(t *testing.T) {
	now := Now()
	got := FromTime(now.Time())
	require.Equal(t, now, got)
}

func TestFramingMultiplePackets(t *testing.T) {
	var stream []byte
	want := 0
	for i := 0; i < 5; i++ {
		w := &Watch{Name: "n", Value: "v", WatchType: WatchString, Timestamp: Now()}
		buf, err := w.Encode(nil)
		require.NoError(t, err)
		stream = append(stream, buf...)
		want++
	}
	got := 0
	for len(stream) > 0 {
		_, n, err := Decode(stream)
		require.NoError(t, err)
		stream = stream[n:]
		got++
	}
	require.Equal(t, want, got)
}
