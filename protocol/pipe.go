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
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gravwell/tracekit/options"
	"github.com/gravwell/tracekit/packet"
)

// pipeProtocol streams packets over a local duplex pipe with the same
// handshake/framing semantics as tcp (spec.md section 4.7). dialPipe is
// supplied per-platform: go-winio named pipes on Windows, a unix-domain
// socket everywhere else (see pipe_windows.go / pipe_unix.go).
type pipeProtocol struct {
	Base

	pipename string
	timeout  time.Duration

	mu     sync.Mutex
	conn   net.Conn
	banner string
}

var pipeOptionNames = map[string]bool{"pipename": true, "timeout": true}

func newPipeProtocol(opts options.Map, log logger) (Protocol, error) {
	bo, err := ParseBaseOptions(opts)
	if err != nil {
		return nil, err
	}
	timeoutMS, err := opts.Duration("timeout", int64(defaultTimeout/time.Millisecond))
	if err != nil {
		return nil, err
	}
	p := &pipeProtocol{
		pipename: opts.String("pipename", ""),
		timeout:  time.Duration(timeoutMS) * time.Millisecond,
	}
	p.Name = "pipe"
	p.Opts = bo
	p.Log = log
	p.Init(p)
	return p, nil
}

func (p *pipeProtocol) IsValidOption(name string) bool {
	return IsBaseOption(name) || pipeOptionNames[name]
}

func (p *pipeProtocol) String() string {
	return fmt.Sprintf("pipe(pipename=%s,timeout=%d)", p.pipename, p.timeout/time.Millisecond)
}

func (p *pipeProtocol) InternalConnect() error {
	conn, err := dialPipe(p.pipename, p.timeout)
	if err != nil {
		return err
	}

	conn.SetReadDeadline(time.Now().Add(p.timeout))
	banner, err := bufio.NewReader(conn).ReadString('\n')
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.banner = banner
	p.mu.Unlock()

	if p.Log != nil {
		p.Log.Info("tracekit: pipe connected, banner=" + trimCRLF(banner))
	}
	return nil
}

func (p *pipeProtocol) InternalWritePacket(pk packet.Packet) error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return encodeToWriter(conn, pk)
}

func (p *pipeProtocol) InternalDisconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
