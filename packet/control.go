/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import "encoding/binary"

// ControlType enumerates the recognized control commands.
type ControlType uint32

const (
	ControlClearLog ControlType = iota
	ControlClearWatches
	ControlClearAutoViews
	ControlClearAll
	ControlClearProcessFlow
)

// ControlCommand instructs the receiving viewer to perform a side-effect
// unrelated to any single log entry (e.g. clear its watch list).
type ControlCommand struct {
	Header
	ControlType ControlType
	Data        []byte
}

func (c *ControlCommand) Kind() Kind        { return KindControlCommand }
func (c *ControlCommand) ProcessID() uint32 { return c.Header.ProcessID }
func (c *ControlCommand) ThreadID() uint32  { return c.Header.ThreadID }

func (c *ControlCommand) Size() uint32 {
	return uint32(HeaderSize) + 4 + 4 + uint32(len(c.Data))
}

func (c *ControlCommand) Encode(buf []byte) ([]byte, error) {
	start := len(buf)
	buf = append(buf, make([]byte, HeaderSize)...)
	putPrefix(buf[start:], KindControlCommand, c.Size())

	var fixed [4]byte
	binary.LittleEndian.PutUint32(fixed[:], uint32(c.ControlType))
	buf = append(buf, fixed[:]...)
	buf = appendLenPrefixed(buf, c.Data, false)
	return buf, nil
}

func decodeControlCommand(body []byte) (*ControlCommand, error) {
	if len(body) < 4 {
		return nil, ErrTruncated
	}
	c := &ControlCommand{}
	c.ControlType = ControlType(binary.LittleEndian.Uint32(body[0:4]))
	data, absent, _, err := readLenPrefixed(body[4:])
	if err != nil {
		return nil, err
	}
	if !absent {
		c.Data = append([]byte(nil), data...)
	}
	return c, nil
}
