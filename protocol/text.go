/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package protocol

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gravwell/tracekit/options"
	"github.com/gravwell/tracekit/packet"
)

const defaultTextPattern = "%timestamp% [%level%] %title%"

// textProtocol renders packets as human-readable lines using a pattern
// string, rotating exactly as the file protocol does but never
// encrypting (spec.md section 6, "Text protocol... Rotation rules
// identical to section 4.6 but without encryption").
type textProtocol struct {
	Base

	filename string
	pattern  string
	rotate   RotateMode
	maxSize  uint64
	maxParts uint32
	bufSize  int

	mu      sync.Mutex
	f       *os.File
	bw      *bufio.Writer
	written uint64
	curTS   time.Time
}

var textOptionNames = map[string]bool{
	"filename": true, "pattern": true, "rotate": true,
	"maxsize": true, "maxparts": true, "buffer": true,
}

func newTextProtocol(opts options.Map, log logger) (Protocol, error) {
	bo, err := ParseBaseOptions(opts)
	if err != nil {
		return nil, err
	}
	rotate, err := parseRotateMode(opts.String("rotate", "none"))
	if err != nil {
		return nil, err
	}
	maxSize, err := opts.Size("maxsize", 0)
	if err != nil {
		return nil, err
	}
	maxParts, err := opts.Int("maxparts", 0)
	if err != nil {
		return nil, err
	}
	bufSize, err := opts.Size("buffer", 4096)
	if err != nil {
		return nil, err
	}

	tp := &textProtocol{
		filename: opts.String("filename", ""),
		pattern:  opts.String("pattern", defaultTextPattern),
		rotate:   rotate,
		maxSize:  maxSize,
		maxParts: uint32(maxParts),
		bufSize:  int(bufSize),
	}
	tp.Name = "text"
	tp.Opts = bo
	tp.Log = log
	tp.Init(tp)
	return tp, nil
}

func (tp *textProtocol) IsValidOption(name string) bool {
	return IsBaseOption(name) || textOptionNames[name]
}

func (tp *textProtocol) String() string {
	return "text(filename=" + tp.filename + ")"
}

func (tp *textProtocol) targetPath(now time.Time) string {
	if tp.rotate == RotateNone {
		return tp.filename
	}
	return rotatedFilename(tp.filename, boundary(tp.rotate, now))
}

// rotatedTargetPath is used for a rotation (not the initial open): see
// fileProtocol.rotatedTargetPath for why rotate=none with maxsize>0
// cannot reuse targetPath here without truncating over the previous part.
func (tp *textProtocol) rotatedTargetPath(now time.Time) string {
	if tp.rotate == RotateNone {
		return rotatedFilename(tp.filename, now)
	}
	return rotatedFilename(tp.filename, boundary(tp.rotate, now))
}

func (tp *textProtocol) InternalConnect() error {
	now := time.Now()
	f, err := os.OpenFile(tp.targetPath(now), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	tp.mu.Lock()
	tp.f = f
	tp.bw = bufio.NewWriterSize(f, tp.bufSize)
	tp.written = 0
	if tp.rotate != RotateNone {
		tp.curTS = boundary(tp.rotate, now)
	}
	tp.mu.Unlock()
	return nil
}

func (tp *textProtocol) InternalWritePacket(p packet.Packet) error {
	tp.mu.Lock()
	if tp.f == nil {
		tp.mu.Unlock()
		return ErrNotConnected
	}
	now := time.Now()
	line := formatPacketLine(tp.pattern, p, now) + "\n"
	needRotate := (tp.rotate != RotateNone && boundary(tp.rotate, now).After(tp.curTS)) ||
		(tp.maxSize > 0 && tp.written+uint64(len(line)) > tp.maxSize)
	tp.mu.Unlock()

	if needRotate {
		if err := tp.rotateTo(now); err != nil {
			return err
		}
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	if _, err := tp.bw.WriteString(line); err != nil {
		return err
	}
	tp.written += uint64(len(line))
	return nil
}

func (tp *textProtocol) rotateTo(now time.Time) error {
	if err := tp.closeCurrentLocked(); err != nil {
		return err
	}
	f, err := os.OpenFile(tp.rotatedTargetPath(now), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	tp.mu.Lock()
	tp.f = f
	tp.bw = bufio.NewWriterSize(f, tp.bufSize)
	tp.written = 0
	if tp.rotate != RotateNone {
		tp.curTS = boundary(tp.rotate, now)
	}
	tp.mu.Unlock()

	if tp.maxParts > 0 {
		return pruneOldRotated(tp.filename, tp.maxParts)
	}
	return nil
}

func (tp *textProtocol) closeCurrentLocked() error {
	tp.mu.Lock()
	bw, f := tp.bw, tp.f
	tp.mu.Unlock()
	if bw != nil {
		if err := bw.Flush(); err != nil {
			return err
		}
	}
	if f != nil {
		return f.Close()
	}
	return nil
}

func (tp *textProtocol) InternalDisconnect() error {
	err := tp.closeCurrentLocked()
	tp.mu.Lock()
	tp.f, tp.bw = nil, nil
	tp.mu.Unlock()
	return err
}

// formatPacketLine expands pattern's %field% tokens against p (spec.md
// section 6: "a pattern string... default includes timestamp, level,
// title"). Unrecognized tokens are copied through unchanged; for
// non-LogEntry packets the title, session, appname and hostname tokens
// expand to empty strings. There is no recursive expansion, matching
// protovars.Substitute's single-pass rule.
func formatPacketLine(pattern string, p packet.Packet, now time.Time) string {
	fields := map[string]string{
		"timestamp": packet.FromTime(now).Time().UTC().Format(time.RFC3339Nano),
		"level":     levelName(p.Level()),
		"title":     "",
		"session":   "",
		"appname":   "",
		"hostname":  "",
	}
	if e, ok := p.(*packet.LogEntry); ok {
		fields["timestamp"] = e.Timestamp.Time().UTC().Format(time.RFC3339Nano)
		fields["title"] = e.Title
		fields["session"] = e.Session
		fields["appname"] = e.AppName
		fields["hostname"] = e.Hostname
	}

	var b strings.Builder
	i := 0
	for i < len(pattern) {
		if pattern[i] != '%' {
			b.WriteByte(pattern[i])
			i++
			continue
		}
		end := strings.IndexByte(pattern[i+1:], '%')
		if end < 0 {
			b.WriteString(pattern[i:])
			break
		}
		name := strings.ToLower(pattern[i+1 : i+1+end])
		if v, ok := fields[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(pattern[i : i+2+end])
		}
		i += end + 2
	}
	return b.String()
}

func levelName(l packet.Level) string {
	switch l {
	case packet.LevelDebug:
		return "debug"
	case packet.LevelVerbose:
		return "verbose"
	case packet.LevelMessage:
		return "message"
	case packet.LevelWarning:
		return "warning"
	case packet.LevelError:
		return "error"
	case packet.LevelFatal:
		return "fatal"
	case packet.LevelControl:
		return "control"
	default:
		return strconv.Itoa(int(l))
	}
}
