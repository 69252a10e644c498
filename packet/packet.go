/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package packet implements the binary record model carried between a
// tracing session and its configured protocols: a closed set of packet
// kinds, their common header, and the length-prefixed encoding shared by
// all of them.
package packet

import (
	"encoding/binary"
	"errors"
)

// Kind identifies the wire-level record type. Values match the on-the-wire
// tag written as the first two bytes of every encoded packet.
type Kind uint16

const (
	KindControlCommand Kind = 1
	KindWatch           Kind = 5
	KindProcessFlow     Kind = 6
	KindLogEntry        Kind = 4
	KindLogHeader       Kind = 7
)

func (k Kind) String() string {
	switch k {
	case KindControlCommand:
		return "ControlCommand"
	case KindWatch:
		return "Watch"
	case KindProcessFlow:
		return "ProcessFlow"
	case KindLogEntry:
		return "LogEntry"
	case KindLogHeader:
		return "LogHeader"
	default:
		return "Unknown"
	}
}

// Level is the severity/floor gate attached to every packet and to every
// session. Ordering matters: IsOn compares levels numerically.
type Level uint8

const (
	LevelDebug Level = iota
	LevelVerbose
	LevelMessage
	LevelWarning
	LevelError
	LevelFatal
	LevelControl
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "Debug"
	case LevelVerbose:
		return "Verbose"
	case LevelMessage:
		return "Message"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	case LevelFatal:
		return "Fatal"
	case LevelControl:
		return "Control"
	default:
		return "Unknown"
	}
}

const (
	// HeaderSize is the 6-byte common prefix: kind(u16) + size(u32).
	HeaderSize = 6

	// absentLen marks a length-prefixed field as absent (not merely empty).
	absentLen uint32 = 0xFFFFFFFF
)

var (
	ErrInvalidHeader     = errors.New("tracekit/packet: invalid packet header")
	ErrTruncated         = errors.New("tracekit/packet: buffer truncated")
	ErrUnknownKind       = errors.New("tracekit/packet: unknown packet kind")
	ErrFieldTooLarge     = errors.New("tracekit/packet: field exceeds encodable size")
)

// Packet is the common capability every kind implements: self-describing
// size, a stable kind tag, and a binary codec. Packets are immutable after
// construction; Encode never mutates the receiver.
type Packet interface {
	Kind() Kind
	Level() Level
	ProcessID() uint32
	ThreadID() uint32

	// Size returns the total encoded size, including the 6-byte header.
	Size() uint32

	// Encode appends the packet's full wire encoding to buf and returns
	// the resulting slice.
	Encode(buf []byte) ([]byte, error)
}

// Header carries the fields common to every packet kind. Embedded by each
// concrete kind rather than used polymorphically; the set of packet kinds
// is closed (see Kind).
type Header struct {
	Lvl       Level
	ThreadID  uint32
	ProcessID uint32
}

func (h Header) Level() Level     { return h.Lvl }
func (h Header) ThreadIDOf() uint32  { return h.ThreadID }
func (h Header) ProcessIDOf() uint32 { return h.ProcessID }

// putPrefix writes the 6-byte kind+size header.
func putPrefix(buf []byte, k Kind, size uint32) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(k))
	binary.LittleEndian.PutUint32(buf[2:6], size)
}

// appendLenPrefixed appends a 4-byte little-endian length followed by the
// bytes of s, or, when absent is true, the absentLen sentinel with no
// trailing bytes. This is the "-1 denotes absent, distinct from empty"
// rule from spec.md section 4.1.
func appendLenPrefixed(buf []byte, s []byte, absent bool) []byte {
	var lb [4]byte
	if absent {
		binary.LittleEndian.PutUint32(lb[:], absentLen)
		return append(buf, lb[:]...)
	}
	binary.LittleEndian.PutUint32(lb[:], uint32(len(s)))
	buf = append(buf, lb[:]...)
	return append(buf, s...)
}

// readLenPrefixed reads one length-prefixed field from buf, returning the
// slice (nil, absent=true when the field was marked absent), and the
// number of bytes consumed including the 4-byte length.
func readLenPrefixed(buf []byte) (val []byte, absent bool, consumed int, err error) {
	if len(buf) < 4 {
		err = ErrTruncated
		return
	}
	l := binary.LittleEndian.Uint32(buf)
	if l == absentLen {
		return nil, true, 4, nil
	}
	if uint64(len(buf)) < uint64(4)+uint64(l) {
		err = ErrTruncated
		return
	}
	val = buf[4 : 4+l]
	consumed = 4 + int(l)
	return
}

// Decode inspects the 6-byte common header and dispatches to the
// kind-specific decoder. It returns the decoded Packet and the number of
// bytes consumed, so callers can iterate over a stream using only the
// in-band size field (spec.md invariant 2, "Framing").
func Decode(buf []byte) (p Packet, consumed int, err error) {
	if len(buf) < HeaderSize {
		return nil, 0, ErrTruncated
	}
	k := Kind(binary.LittleEndian.Uint16(buf[0:2]))
	size := binary.LittleEndian.Uint32(buf[2:6])
	if size < HeaderSize || uint64(len(buf)) < uint64(size) {
		return nil, 0, ErrTruncated
	}
	body := buf[HeaderSize:size]
	switch k {
	case KindLogEntry:
		p, err = decodeLogEntry(body)
	case KindWatch:
		p, err = decodeWatch(body)
	case KindControlCommand:
		p, err = decodeControlCommand(body)
	case KindProcessFlow:
		p, err = decodeProcessFlow(body)
	case KindLogHeader:
		p, err = decodeLogHeader(body)
	default:
		err = ErrUnknownKind
	}
	if err != nil {
		return nil, 0, err
	}
	return p, int(size), nil
}
