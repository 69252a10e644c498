/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import "encoding/binary"

// FlowType marks the side of a scoped-tracker pair (spec.md section 9,
// "Scoped tracker objects"): EnterMethod/LeaveMethod or thread/process
// start/stop markers.
type FlowType uint32

const (
	FlowEnterMethod FlowType = iota
	FlowLeaveMethod
	FlowEnterThread
	FlowLeaveThread
	FlowEnterProcess
	FlowLeaveProcess
)

// ProcessFlow marks entry/exit of a tracked scope.
type ProcessFlow struct {
	Header
	FlowType  FlowType
	Title     string
	Hostname  string
	Timestamp Timestamp
}

func (p *ProcessFlow) Kind() Kind        { return KindProcessFlow }
func (p *ProcessFlow) ProcessID() uint32 { return p.Header.ProcessID }
func (p *ProcessFlow) ThreadID() uint32  { return p.Header.ThreadID }

func (p *ProcessFlow) Size() uint32 {
	return uint32(HeaderSize) + 4 + 8 + 4 + uint32(len(p.Title)) + 4 + uint32(len(p.Hostname))
}

func (p *ProcessFlow) Encode(buf []byte) ([]byte, error) {
	start := len(buf)
	buf = append(buf, make([]byte, HeaderSize)...)
	putPrefix(buf[start:], KindProcessFlow, p.Size())

	var fixed [4 + 8]byte
	binary.LittleEndian.PutUint32(fixed[0:4], uint32(p.FlowType))
	binary.LittleEndian.PutUint64(fixed[4:12], uint64(p.Timestamp))
	buf = append(buf, fixed[:]...)
	buf = appendLenPrefixed(buf, []byte(p.Title), false)
	buf = appendLenPrefixed(buf, []byte(p.Hostname), false)
	return buf, nil
}

func decodeProcessFlow(body []byte) (*ProcessFlow, error) {
	if len(body) < 12 {
		return nil, ErrTruncated
	}
	p := &ProcessFlow{}
	p.FlowType = FlowType(binary.LittleEndian.Uint32(body[0:4]))
	p.Timestamp = Timestamp(binary.LittleEndian.Uint64(body[4:12]))
	off := 12

	title, absent, n, err := readLenPrefixed(body[off:])
	if err != nil {
		return nil, err
	}
	off += n
	if !absent {
		p.Title = string(title)
	}
	host, absent, _, err := readLenPrefixed(body[off:])
	if err != nil {
		return nil, err
	}
	if !absent {
		p.Hostname = string(host)
	}
	return p, nil
}
