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
	"sync"
	"time"

	"github.com/gravwell/tracekit/options"
	"github.com/gravwell/tracekit/packet"
)

// fileMagic identifies the on-disk format version (spec.md section 4.6,
// "a file header (magic bytes identifying the format version)").
var fileMagic = [4]byte{'S', 'I', 'L', 1}

// fileProtocol writes packets to a local file, with optional time/size
// rotation, part pruning, and CBC-encrypted payload (spec.md section
// 4.6). Grounded on the teacher's entryWriter.go/rotate pairing, adapted
// from NDJSON entry records to the framed packet.Packet wire format.
type fileProtocol struct {
	Base

	filename string
	appendTo bool
	rotate   RotateMode
	maxSize  uint64
	maxParts uint32
	bufSize  int
	encrypt  bool
	key      []byte

	mu      sync.Mutex
	f       *os.File
	bw      *bufio.Writer
	enc     *encryptStream // nil unless encrypt=true
	written uint64         // bytes written to current file's payload region
	curTS   time.Time      // current rotation boundary, zero if rotate=none
}

var fileOptionNames = map[string]bool{
	"filename": true, "append": true, "rotate": true, "maxsize": true,
	"maxparts": true, "buffer": true, "encrypt": true, "key": true,
}

func newFileProtocol(opts options.Map, log logger) (Protocol, error) {
	bo, err := ParseBaseOptions(opts)
	if err != nil {
		return nil, err
	}
	appendTo, err := opts.Bool("append", false)
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
	encrypt, err := opts.Bool("encrypt", false)
	if err != nil {
		return nil, err
	}
	var key []byte
	if encrypt {
		raw, _ := opts.Bytes("key", aesBlockSize)
		key = normalizeKey(raw)
	}

	fp := &fileProtocol{
		filename: opts.String("filename", ""),
		appendTo: appendTo,
		rotate:   rotate,
		maxSize:  maxSize,
		maxParts: uint32(maxParts),
		bufSize:  int(bufSize),
		encrypt:  encrypt,
		key:      key,
	}
	fp.Name = "file"
	fp.Opts = bo
	fp.Log = log
	fp.Init(fp)
	return fp, nil
}

func (fp *fileProtocol) IsValidOption(name string) bool {
	return IsBaseOption(name) || fileOptionNames[name]
}

func (fp *fileProtocol) String() string {
	return "file(filename=" + fp.filename + ")"
}

// targetPath returns the path the initial (unrotated) open should use:
// the base filename, or — when time rotation is enabled — the rotated
// name for the boundary now falls in, so the first part already sorts
// correctly among later time-triggered parts.
func (fp *fileProtocol) targetPath(now time.Time) string {
	if fp.rotate == RotateNone {
		return fp.filename
	}
	return rotatedFilename(fp.filename, boundary(fp.rotate, now))
}

// rotatedTargetPath returns the path a rotation (as opposed to the
// initial open) moves to. Time rotation still names the part after its
// truncated boundary. maxsize is an independent trigger (spec.md section
// 4.6): when rotate=none, reusing targetPath here would return the same
// unrotated base filename every time, so openLocked's O_TRUNC would
// silently destroy the previous part instead of starting a new one. The
// exact instant is used as the name instead, which still sorts and
// parses correctly since parseRotatedTimestamp doesn't require the
// boundary-truncated form.
func (fp *fileProtocol) rotatedTargetPath(now time.Time) string {
	if fp.rotate == RotateNone {
		return rotatedFilename(fp.filename, now)
	}
	return rotatedFilename(fp.filename, boundary(fp.rotate, now))
}

func (fp *fileProtocol) InternalConnect() error {
	now := time.Now()
	path := fp.targetPath(now)
	return fp.openLocked(path, now)
}

// openLocked opens path per the append/create rule in spec.md section
// 4.6 step 2: append+exists+unencrypted seeks to end; otherwise the file
// is (re)created and a fresh header (and IV, if encrypting) is written.
// Takes and releases fp.mu itself; the caller must not be holding it.
func (fp *fileProtocol) openLocked(path string, now time.Time) error {
	_, statErr := os.Stat(path)
	exists := statErr == nil

	var f *os.File
	var err error
	useAppendSeek := fp.appendTo && exists && !fp.encrypt
	if useAppendSeek {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	} else {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	}
	if err != nil {
		return err
	}

	fp.mu.Lock()
	fp.f = f
	fp.bw = bufio.NewWriterSize(f, fp.bufSize)
	fp.written = 0
	if fp.rotate != RotateNone {
		fp.curTS = boundary(fp.rotate, now)
	}
	fp.enc = nil
	fp.mu.Unlock()

	if !useAppendSeek {
		if _, err := fp.bw.Write(fileMagic[:]); err != nil {
			return err
		}
		if fp.encrypt {
			iv, err := newRandomIV()
			if err != nil {
				return err
			}
			if _, err := fp.bw.Write(iv); err != nil {
				return err
			}
			enc, err := newEncryptStream(fp.bw, fp.key, iv)
			if err != nil {
				return err
			}
			fp.mu.Lock()
			fp.enc = enc
			fp.mu.Unlock()
		}
	}
	return nil
}

func (fp *fileProtocol) InternalWritePacket(p packet.Packet) error {
	fp.mu.Lock()
	if fp.f == nil {
		fp.mu.Unlock()
		return ErrNotConnected
	}
	now := time.Now()
	if fp.needsRotateLocked(p, now) {
		fp.mu.Unlock()
		if err := fp.rotateTo(now); err != nil {
			return err
		}
		fp.mu.Lock()
	}
	w := fp.payloadWriterLocked()
	sz := p.Size()
	fp.mu.Unlock()

	if err := encodeToWriter(w, p); err != nil {
		return err
	}

	fp.mu.Lock()
	fp.written += uint64(sz)
	fp.mu.Unlock()
	return nil
}

// needsRotateLocked reports whether writing p would cross a time
// boundary or the size cap (spec.md section 4.6, "Triggers"). Caller
// must hold fp.mu.
func (fp *fileProtocol) needsRotateLocked(p packet.Packet, now time.Time) bool {
	if fp.rotate != RotateNone && boundary(fp.rotate, now).After(fp.curTS) {
		return true
	}
	if fp.maxSize > 0 && fp.written+uint64(p.Size()) > fp.maxSize {
		return true
	}
	return false
}

// payloadWriterLocked returns the writer packets are encoded into: the
// encryption stream when enabled, otherwise the buffered file writer
// directly. Caller must hold fp.mu.
func (fp *fileProtocol) payloadWriterLocked() interface {
	Write([]byte) (int, error)
} {
	if fp.enc != nil {
		return fp.enc
	}
	return fp.bw
}

// rotateTo closes the current file (flushing/finalizing any encryption
// stream) and opens the next one, then prunes old parts (spec.md
// section 4.6).
func (fp *fileProtocol) rotateTo(now time.Time) error {
	if err := fp.closeCurrentLocked(); err != nil {
		return err
	}
	path := fp.rotatedTargetPath(now)
	if err := fp.openLocked(path, now); err != nil {
		return err
	}
	if fp.maxParts > 0 {
		return pruneOldRotated(fp.filename, fp.maxParts)
	}
	return nil
}

func (fp *fileProtocol) closeCurrentLocked() error {
	fp.mu.Lock()
	enc, bw, f := fp.enc, fp.bw, fp.f
	fp.mu.Unlock()
	if enc != nil {
		if err := enc.Close(); err != nil {
			return err
		}
	}
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

func (fp *fileProtocol) InternalDisconnect() error {
	err := fp.closeCurrentLocked()
	fp.mu.Lock()
	fp.f, fp.bw, fp.enc = nil, nil, nil
	fp.mu.Unlock()
	return err
}
