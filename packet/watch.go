/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import "encoding/binary"

// WatchType describes how a Watch's value should be interpreted/rendered.
type WatchType uint32

const (
	WatchChar WatchType = iota
	WatchString
	WatchInteger
	WatchFloat
	WatchBoolean
	WatchAddress
	WatchTimestamp
	WatchObject
)

// Watch carries a named variable snapshot.
type Watch struct {
	Header
	Name      string
	Value     string
	WatchType WatchType
	Timestamp Timestamp
}

func (w *Watch) Kind() Kind        { return KindWatch }
func (w *Watch) ProcessID() uint32 { return w.Header.ProcessID }
func (w *Watch) ThreadID() uint32  { return w.Header.ThreadID }

func (w *Watch) Size() uint32 {
	return uint32(HeaderSize) + 4 + 8 + 4 + uint32(len(w.Name)) + 4 + uint32(len(w.Value))
}

func (w *Watch) Encode(buf []byte) ([]byte, error) {
	start := len(buf)
	buf = append(buf, make([]byte, HeaderSize)...)
	putPrefix(buf[start:], KindWatch, w.Size())

	var fixed [4 + 8]byte
	binary.LittleEndian.PutUint32(fixed[0:4], uint32(w.WatchType))
	binary.LittleEndian.PutUint64(fixed[4:12], uint64(w.Timestamp))
	buf = append(buf, fixed[:]...)
	buf = appendLenPrefixed(buf, []byte(w.Name), false)
	buf = appendLenPrefixed(buf, []byte(w.Value), false)
	return buf, nil
}

func decodeWatch(body []byte) (*Watch, error) {
	if len(body) < 12 {
		return nil, ErrTruncated
	}
	w := &Watch{}
	w.WatchType = WatchType(binary.LittleEndian.Uint32(body[0:4]))
	w.Timestamp = Timestamp(binary.LittleEndian.Uint64(body[4:12]))
	off := 12

	name, absent, n, err := readLenPrefixed(body[off:])
	if err != nil {
		return nil, err
	}
	off += n
	if !absent {
		w.Name = string(name)
	}
	val, absent, n, err := readLenPrefixed(body[off:])
	if err != nil {
		return nil, err
	}
	if !absent {
		w.Value = string(val)
	}
	return w, nil
}
