/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package protocol

import (
	"sync"

	"github.com/gravwell/tracekit/options"
	"github.com/gravwell/tracekit/packet"
)

// memProtocol keeps a bounded ring of packets in RAM, never touching
// disk or network, and flushes them into a supplied ProtocolWriter on
// disconnect (spec.md section 6, "Memory protocol").
type memProtocol struct {
	Base

	mu       sync.Mutex
	capBytes uint64
	packets  []packet.Packet
	curBytes uint64
	flushTo  ProtocolWriter
}

var memOptionNames = map[string]bool{"maxsize": true}

func newMemProtocol(opts options.Map, log logger) (Protocol, error) {
	bo, err := ParseBaseOptions(opts)
	if err != nil {
		return nil, err
	}
	capBytes, err := opts.Size("maxsize", defaultAsyncQueue)
	if err != nil {
		return nil, err
	}
	m := &memProtocol{capBytes: capBytes}
	m.Name = "mem"
	m.Opts = bo
	m.Log = log
	m.Init(m)
	return m, nil
}

func (m *memProtocol) IsValidOption(name string) bool {
	return IsBaseOption(name) || memOptionNames[name]
}

func (m *memProtocol) String() string {
	return "mem()"
}

// SetFlushTarget designates the writer that InternalDisconnect re-emits
// the retained ring into (the "capture, then forward on error" pattern
// from spec.md section 6).
func (m *memProtocol) SetFlushTarget(w ProtocolWriter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushTo = w
}

func (m *memProtocol) InternalConnect() error { return nil }

func (m *memProtocol) InternalWritePacket(p packet.Packet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sz := uint64(p.Size())
	for m.curBytes+sz > m.capBytes && len(m.packets) > 0 {
		evicted := m.packets[0]
		m.packets = m.packets[1:]
		m.curBytes -= uint64(evicted.Size())
	}
	m.packets = append(m.packets, p)
	m.curBytes += sz
	return nil
}

func (m *memProtocol) InternalDisconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flushTo != nil {
		for _, p := range m.packets {
			if err := m.flushTo.WritePacket(p); err != nil {
				return err
			}
		}
	}
	m.packets = nil
	m.curBytes = 0
	return nil
}

// Flush re-emits the current ring into w without disconnecting.
func (m *memProtocol) Flush(w ProtocolWriter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.packets {
		if err := w.WritePacket(p); err != nil {
			return err
		}
	}
	return nil
}
