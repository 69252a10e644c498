/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import (
	"encoding/binary"
)

// EntryType enumerates how a LogEntry's data payload should be
// interpreted by the producer side (the viewer makes the same decision
// from ViewerID). This is not exhaustive of every wrapper-level renderer
// in the original library (those are out of scope per spec.md section 1)
// but covers every shape the core packet model needs to round-trip.
type EntryType uint32

const (
	EntrySeparator EntryType = iota
	EntryEnterMethod
	EntryLeaveMethod
	EntryResetCallstack
	EntryMessage
	EntryWarning
	EntryError
	EntryInternalError
	EntryComment
	EntryVariableValue
	EntryCheckpoint
	EntryDebug
	EntryVerbose
	EntryFatal
	EntryConditional
	EntryAssert
	EntryText
	EntryBinary
	EntryGraphic
	EntryGraphicBmp
	EntryGraphicJpg
	EntryGraphicPng
	EntryGraphicGif
	EntrySource
	EntrySourceHTML
	EntrySourceJavaScript
	EntrySourceVBScript
	EntrySourcePerl
	EntrySourceSQL
	EntrySourceINI
	EntrySourceXML
	EntrySourceJava
	EntrySourceCustom
	EntrySourceTCL
	EntrySourcePython
	EntrySourceCPP
	EntrySourceCS
	EntrySourcePAS
	EntryObject
	EntryWebContent
	EntrySystem
	EntryMemoryStatistic
	EntryDatabaseResult
	EntryDatabaseStructure
	EntryProcessFlow
	EntryText2
	EntryHeader
	EntryTrace
)

// ViewerID chooses how data is rendered; preserved opaque across decode
// when the value is unrecognized (spec.md section 4.1).
type ViewerID uint32

const (
	ViewerNoneID ViewerID = iota
	ViewerTitle
	ViewerData
	ViewerList
	ViewerValueList
	ViewerInspector
	ViewerTable
	ViewerWebContent
	ViewerBinary
	ViewerGraphic
	ViewerSource
	ViewerText
	ViewerBinaryDump
)

// LogEntry carries a caller-side logging call: message text, an optional
// rendered payload, and the context (session, process, thread, host) it
// was produced under.
type LogEntry struct {
	Header
	EntryType   EntryType
	ViewerID    ViewerID
	Color       uint32 // ARGB, 0 means "no color"/default
	Timestamp   Timestamp
	Title       string
	Session     string
	AppName     string
	Hostname    string
	Data        []byte
}

func (e *LogEntry) Kind() Kind         { return KindLogEntry }
func (e *LogEntry) ProcessID() uint32  { return e.Header.ProcessID }
func (e *LogEntry) ThreadID() uint32   { return e.Header.ThreadID }

func (e *LogEntry) Size() uint32 {
	return uint32(HeaderSize) + logEntryFixed() +
		4 + uint32(len(e.Title)) +
		4 + uint32(len(e.Session)) +
		4 + uint32(len(e.AppName)) +
		4 + uint32(len(e.Hostname)) +
		4 + uint32(len(e.Data))
}

// logEntryFixed returns the byte length of the fixed portion of a LogEntry
// body, not including the 5 variable-field length prefixes that are
// counted separately in Size (Encode writes each prefix directly before
// its field's bytes).
func logEntryFixed() uint32 {
	// log_entry_type, viewer_id, color, timestamp(8), process_id, thread_id
	return 4 + 4 + 4 + 8 + 4 + 4
}

func (e *LogEntry) Encode(buf []byte) ([]byte, error) {
	size := e.Size()
	start := len(buf)
	buf = append(buf, make([]byte, HeaderSize)...)
	putPrefix(buf[start:], KindLogEntry, size)

	var fixed [4 + 4 + 4 + 8 + 4 + 4]byte
	binary.LittleEndian.PutUint32(fixed[0:4], uint32(e.EntryType))
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(e.ViewerID))
	binary.LittleEndian.PutUint32(fixed[8:12], e.Color)
	binary.LittleEndian.PutUint64(fixed[12:20], uint64(e.Timestamp))
	binary.LittleEndian.PutUint32(fixed[20:24], e.Header.ProcessID)
	binary.LittleEndian.PutUint32(fixed[24:28], e.Header.ThreadID)
	buf = append(buf, fixed[:]...)

	buf = appendLenPrefixed(buf, []byte(e.Title), false)
	buf = appendLenPrefixed(buf, []byte(e.Session), false)
	buf = appendLenPrefixed(buf, []byte(e.AppName), false)
	buf = appendLenPrefixed(buf, []byte(e.Hostname), false)
	buf = appendLenPrefixed(buf, e.Data, false)
	return buf, nil
}

func decodeLogEntry(body []byte) (*LogEntry, error) {
	const fixedLen = 4 + 4 + 4 + 8 + 4 + 4
	if len(body) < fixedLen {
		return nil, ErrTruncated
	}
	e := &LogEntry{}
	e.EntryType = EntryType(binary.LittleEndian.Uint32(body[0:4]))
	e.ViewerID = ViewerID(binary.LittleEndian.Uint32(body[4:8]))
	e.Color = binary.LittleEndian.Uint32(body[8:12])
	e.Timestamp = Timestamp(binary.LittleEndian.Uint64(body[12:20]))
	e.Header.ProcessID = binary.LittleEndian.Uint32(body[20:24])
	e.Header.ThreadID = binary.LittleEndian.Uint32(body[24:28])
	off := fixedLen

	readStr := func() (string, error) {
		v, absent, n, err := readLenPrefixed(body[off:])
		if err != nil {
			return "", err
		}
		off += n
		if absent {
			return "", nil
		}
		return string(v), nil
	}
	var err error
	if e.Title, err = readStr(); err != nil {
		return nil, err
	}
	if e.Session, err = readStr(); err != nil {
		return nil, err
	}
	if e.AppName, err = readStr(); err != nil {
		return nil, err
	}
	if e.Hostname, err = readStr(); err != nil {
		return nil, err
	}
	data, absent, n, err := readLenPrefixed(body[off:])
	if err != nil {
		return nil, err
	}
	off += n
	if !absent {
		e.Data = append([]byte(nil), data...)
	}
	return e, nil
}
