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

const defaultTCPPort = 4228
const defaultTimeout = 30 * time.Second

// tcpProtocol streams packets to a remote viewer over TCP, reading a
// banner line on connect and otherwise sending nothing but the binary
// packet encoding (spec.md section 4.7, "Handshake"/"Framing").
type tcpProtocol struct {
	Base

	host    string
	port    int
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	banner string
}

var tcpOptionNames = map[string]bool{"host": true, "port": true, "timeout": true}

func newTCPProtocol(opts options.Map, log logger) (Protocol, error) {
	bo, err := ParseBaseOptions(opts)
	if err != nil {
		return nil, err
	}
	port, err := opts.Int("port", defaultTCPPort)
	if err != nil {
		return nil, err
	}
	timeoutMS, err := opts.Duration("timeout", int64(defaultTimeout/time.Millisecond))
	if err != nil {
		return nil, err
	}
	t := &tcpProtocol{
		host:    opts.String("host", "localhost"),
		port:    int(port),
		timeout: time.Duration(timeoutMS) * time.Millisecond,
	}
	t.Name = "tcp"
	t.Opts = bo
	t.Log = log
	t.Init(t)
	return t, nil
}

func (t *tcpProtocol) IsValidOption(name string) bool {
	return IsBaseOption(name) || tcpOptionNames[name]
}

func (t *tcpProtocol) String() string {
	return fmt.Sprintf("tcp(host=%s,port=%d,timeout=%d)", t.host, t.port, t.timeout/time.Millisecond)
}

func (t *tcpProtocol) InternalConnect() error {
	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	conn, err := net.DialTimeout("tcp", addr, t.timeout)
	if err != nil {
		return err
	}

	// read the server banner line (spec.md section 4.7/6): "SmartInspect
	// v....\r\n" terminated by '\n'. No further server->client bytes are
	// expected during normal operation.
	conn.SetReadDeadline(time.Now().Add(t.timeout))
	banner, err := bufio.NewReader(conn).ReadString('\n')
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.banner = banner
	t.mu.Unlock()

	if t.Log != nil {
		t.Log.Info("tracekit: tcp connected, banner=" + trimCRLF(banner))
	}
	return nil
}

func (t *tcpProtocol) InternalWritePacket(p packet.Packet) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return encodeToWriter(conn, p)
}

func (t *tcpProtocol) InternalDisconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
