/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package protocol

import (
	"fmt"
	"strings"

	"github.com/gravwell/tracekit/options"
	"github.com/gravwell/tracekit/packet"
)

// Protocol is the capability set spec.md section 9 asks for in place of
// a class hierarchy: parse options, connect, write, disconnect, and
// report which option names it understands.
type Protocol interface {
	Connect() error
	Write(p packet.Packet) error
	Disconnect() error
	Join()
	State() State
	IsValidOption(name string) bool
	// String returns the normalized textual description used to decide,
	// on config reload, whether a protocol instance can be preserved
	// (spec.md section 4.9).
	String() string
}

// Factory builds a Protocol from its parsed options.
type Factory func(opts options.Map, log logger) (Protocol, error)

// logger is the minimal selflog dependency a factory needs; defined here
// so that protocol does not import internal/selflog. *selflog.Logger
// satisfies it, and tests that construct protocols directly pass nil.
type logger = interface {
	Info(string)
	Error(string, error)
}

var factories = map[string]Factory{
	"tcp":  newTCPProtocol,
	"pipe": newPipeProtocol,
	"file": newFileProtocol,
	"mem":  newMemProtocol,
	"text": newTextProtocol,
}

// New constructs the named protocol with the given options.
func New(name string, opts options.Map, log logger) (Protocol, error) {
	f, ok := factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("tracekit/protocol: unknown protocol %q", name)
	}
	return f(opts, log)
}

// NewAll builds one Protocol per parsed connection-string descriptor, in
// textual order (spec.md section 6, "one root object supports multiple
// protocols separated by commas").
func NewAll(protos []options.Proto, log logger) ([]Protocol, error) {
	out := make([]Protocol, 0, len(protos))
	for _, p := range protos {
		proto, err := New(p.Name, p.Opts, log)
		if err != nil {
			return nil, err
		}
		out = append(out, proto)
	}
	return out, nil
}
