/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package root implements the process-wide coordinator that owns the
// session manager and the set of configured protocols, fanning out
// packets to every active one in connection-string order (spec.md
// section 2, "Root dispatcher"). Grounded on ingest/muxer.go's role of
// holding a set of live connections and writing every entry to each of
// them, generalized from ingest entries to tracekit packets and from a
// fixed connection list to one that can be atomically replaced on
// config reload.
package root

import (
	"sync"

	"github.com/gravwell/tracekit/internal/selflog"
	"github.com/gravwell/tracekit/options"
	"github.com/gravwell/tracekit/packet"
	"github.com/gravwell/tracekit/protocol"
	"github.com/gravwell/tracekit/session"
)

// Root owns the session manager and the live protocol set, and is the
// Dispatcher every Session forwards packets through.
type Root struct {
	mu sync.RWMutex

	enabled      bool
	level        packet.Level
	defaultLevel packet.Level
	appName      string
	hostname     string
	protocols    []protocol.Protocol // textual connection-string order

	sessions *session.Manager
	log      *selflog.Logger
}

// New builds a Root with no protocols configured; call ApplyConnections
// or ApplyConfig (package config) to attach transports.
func New(appName, hostname string) *Root {
	r := &Root{
		enabled:      true,
		defaultLevel: packet.LevelDebug,
		appName:      appName,
		hostname:     hostname,
		log:          selflog.New(hostname, appName),
	}
	r.sessions = session.New(r)
	return r
}

// Sessions returns the process-wide session manager.
func (r *Root) Sessions() *session.Manager { return r.sessions }

// SelfLog returns the self-diagnostics logger (spec.md section 7);
// callers subscribe to observe ErrorEvent/InfoEvent notices.
func (r *Root) SelfLog() *selflog.Logger { return r.log }

// Enabled reports the root-wide enable flag.
func (r *Root) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Level returns the root-wide level floor.
func (r *Root) Level() packet.Level {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.level
}

// DefaultSession returns (creating if necessary) the session named
// "Main", mirroring the source's SIAuto.Main convenience session
// (spec.md section 9, "Global singletons").
func (r *Root) DefaultSession() *session.Session {
	return r.sessions.Add("Main", true)
}

// ApplyConnections builds one Protocol per descriptor and replaces the
// entire current set, disconnecting and joining whatever was running
// before (spec.md section 4.9, simple case with no reuse-by-string-
// equality; see ApplyConfig in reload.go for the reload path
// that does preserve unchanged protocols).
func (r *Root) ApplyConnections(protos []options.Proto) error {
	built, err := protocol.NewAll(protos, r.log)
	if err != nil {
		return err
	}
	for _, p := range built {
		if err := p.Connect(); err != nil {
			r.log.Error("tracekit: protocol connect failed", err)
		}
	}

	r.mu.Lock()
	old := r.protocols
	r.protocols = built
	r.mu.Unlock()

	disconnectAndJoinAll(old)
	return nil
}

// Dispatch fans p out to every active protocol in textual order
// (spec.md section 2: "the dispatcher forwards it to each configured
// protocol"). A single protocol's failure is recorded via the self-log
// pathway and does not stop delivery to the others (spec.md section 7
// policy: the logging hot path must be non-fatal).
func (r *Root) Dispatch(p packet.Packet) error {
	if !r.Enabled() || p.Level() < r.Level() {
		return nil
	}
	r.mu.RLock()
	protos := append([]protocol.Protocol(nil), r.protocols...)
	r.mu.RUnlock()

	for _, proto := range protos {
		if err := proto.Write(p); err != nil {
			r.log.Error("tracekit: dispatch to "+proto.String()+" failed", err)
		}
	}
	return nil
}

// Shutdown disconnects and joins every protocol worker (spec.md section
// 9: "teardown joins all workers").
func (r *Root) Shutdown() {
	r.mu.Lock()
	old := r.protocols
	r.protocols = nil
	r.mu.Unlock()
	disconnectAndJoinAll(old)
}

func disconnectAndJoinAll(protos []protocol.Protocol) {
	for _, p := range protos {
		p.Disconnect()
		p.Join()
	}
}
