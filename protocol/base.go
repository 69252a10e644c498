/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package protocol implements the protocol base state machine (spec.md
// section 4.5) and the concrete transports built on it: file (section
// 4.6), tcp/pipe (section 4.7), mem, and text. Rather than the source's
// class hierarchy, a protocol is modeled as a capability set (spec.md
// section 9: "Inheritance hierarchy") dispatched through the Internal
// interface that each concrete transport implements; Base supplies the
// shared lifecycle, retry, and async-wrapping logic every transport needs.
package protocol

import (
	"strings"
	"sync"
	"time"

	"github.com/gravwell/tracekit/options"
	"github.com/gravwell/tracekit/packet"
	"github.com/gravwell/tracekit/scheduler"
)

// State is a protocol instance's connection lifecycle state (spec.md
// section 4.5).
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateReconnecting:
		return "Reconnecting"
	default:
		return "Unknown"
	}
}

// Internal is the capability set a concrete transport implements. Base
// drives these three methods through the retry/state machine; a
// transport never needs to re-implement reconnect gating or locking.
type Internal interface {
	// InternalConnect opens the underlying resource (socket/file/pipe).
	InternalConnect() error
	// InternalWritePacket writes one packet's wire encoding.
	InternalWritePacket(p packet.Packet) error
	// InternalDisconnect releases the underlying resource. Must be safe
	// to call when already closed.
	InternalDisconnect() error
}

// BaseOptions holds the options recognized by every protocol (spec.md
// section 4.5, "Recognized base options").
type BaseOptions struct {
	Level                  packet.Level
	Reconnect              bool
	ReconnectInterval      time.Duration
	Caption                string
	AsyncEnabled           bool
	AsyncQueue             uint64
	AsyncThrottle          bool
	AsyncClearOnDisconnect bool
	BacklogEnabled         bool
	BacklogQueue           uint64
	BacklogFlushOn         packet.Level
	BacklogKeepOpen        bool
}

const defaultReconnectInterval = 10 * time.Second
const defaultAsyncQueue = 2 * 1024 * 1024 // 2 MiB, spec.md section 3

// parseLevel is case-insensitive: connection-string values are never
// lowercased by the options parser (only keys are), and packet.Level's
// own String() renders the canonical capitalized form ("Message",
// "Error", ...), so both cases must match here. config.parseConfigLevel
// does the same normalization for config-file level values.
func parseLevel(s string, def packet.Level) packet.Level {
	switch strings.ToLower(s) {
	case "debug":
		return packet.LevelDebug
	case "verbose":
		return packet.LevelVerbose
	case "message":
		return packet.LevelMessage
	case "warning":
		return packet.LevelWarning
	case "error":
		return packet.LevelError
	case "fatal":
		return packet.LevelFatal
	case "control":
		return packet.LevelControl
	default:
		return def
	}
}

// ParseBaseOptions extracts the base options common to every protocol,
// leaving unrecognized keys for the concrete transport to parse.
func ParseBaseOptions(m options.Map) (BaseOptions, error) {
	var bo BaseOptions
	bo.Level = parseLevel(m.String("level", ""), packet.LevelDebug)

	reconnect, err := m.Bool("reconnect", false)
	if err != nil {
		return bo, err
	}
	bo.Reconnect = reconnect

	ri, err := m.Duration("reconnect.interval", int64(defaultReconnectInterval/time.Millisecond))
	if err != nil {
		return bo, err
	}
	bo.ReconnectInterval = time.Duration(ri) * time.Millisecond

	bo.Caption = m.String("caption", "")

	asyncEnabled, err := m.Bool("async.enabled", false)
	if err != nil {
		return bo, err
	}
	bo.AsyncEnabled = asyncEnabled

	aq, err := m.Size("async.queue", defaultAsyncQueue)
	if err != nil {
		return bo, err
	}
	bo.AsyncQueue = aq

	throttle, err := m.Bool("async.throttle", true)
	if err != nil {
		return bo, err
	}
	bo.AsyncThrottle = throttle

	clearOnDisconnect, err := m.Bool("async.clearondisconnect", false)
	if err != nil {
		return bo, err
	}
	bo.AsyncClearOnDisconnect = clearOnDisconnect

	backlogEnabled, err := m.Bool("backlog.enabled", false)
	if err != nil {
		return bo, err
	}
	bo.BacklogEnabled = backlogEnabled

	bq, err := m.Size("backlog.queue", defaultAsyncQueue)
	if err != nil {
		return bo, err
	}
	bo.BacklogQueue = bq

	bo.BacklogFlushOn = parseLevel(m.String("backlog.flushon", ""), packet.LevelError)

	backlogKeepOpen, err := m.Bool("backlog.keepopen", false)
	if err != nil {
		return bo, err
	}
	bo.BacklogKeepOpen = backlogKeepOpen

	return bo, nil
}

// baseOptionNames lists the option keys Base itself recognizes, used by
// IsValidOption implementations in concrete transports.
var baseOptionNames = map[string]bool{
	"level": true, "reconnect": true, "reconnect.interval": true, "caption": true,
	"async.enabled": true, "async.queue": true, "async.throttle": true, "async.clearondisconnect": true,
	"backlog.enabled": true, "backlog.queue": true, "backlog.flushon": true, "backlog.keepopen": true,
}

// IsBaseOption reports whether name is one of the base-recognized options.
func IsBaseOption(name string) bool {
	return baseOptionNames[name]
}

// Base implements the state machine and retry/async-wrapping logic shared
// by every transport (spec.md section 4.5). A concrete transport embeds
// Base and supplies Internal.
type Base struct {
	Name string // e.g. "tcp", "file" — used in ProtocolError and logs
	Opts BaseOptions
	Log  logger

	mu                sync.Mutex
	state             State
	lastReconnectAt   time.Time
	internal          Internal
	sched             *scheduler.Scheduler
	schedDone         chan struct{}
}

// Init wires the Internal implementation; must be called before Connect.
func (b *Base) Init(internal Internal) {
	b.internal = internal
	if b.Opts.AsyncEnabled {
		b.sched = scheduler.New(b.Opts.AsyncQueue, b.Opts.AsyncThrottle)
	}
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Connect drives Disconnected -> Connecting -> Connected. On failure the
// state returns to Disconnected and the error is returned to the caller.
func (b *Base) Connect() error {
	b.mu.Lock()
	if b.state == StateConnected {
		b.mu.Unlock()
		return nil
	}
	b.state = StateConnecting
	b.lastReconnectAt = time.Now()
	b.mu.Unlock()

	err := b.internal.InternalConnect()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.state = StateDisconnected
		return &ProtocolError{Proto: b.Name, Err: err}
	}
	b.state = StateConnected

	if b.sched != nil && b.schedDone == nil {
		done := make(chan struct{})
		b.schedDone = done
		go func() {
			b.sched.Run(b.handleCommand)
			close(done)
		}()
	}
	return nil
}

// Write submits one packet. In async mode it enqueues onto the scheduler;
// otherwise it is written synchronously under the state lock (spec.md
// section 4.4/4.5).
func (b *Base) Write(p packet.Packet) error {
	if b.sched != nil {
		if err := b.sched.Enqueue(scheduler.Command{Kind: scheduler.CommandWritePacket, Packet: p}); err != nil {
			return &ProtocolError{Proto: b.Name, Err: err}
		}
		return nil
	}
	return b.syncWrite(p)
}

// handleCommand is the scheduler's per-item handler for this protocol's
// worker goroutine.
func (b *Base) handleCommand(c scheduler.Command) error {
	switch c.Kind {
	case scheduler.CommandWritePacket:
		if p, ok := c.Packet.(packet.Packet); ok {
			if err := b.syncWrite(p); err != nil && b.Log != nil {
				b.Log.Error("tracekit: async write failed", err)
			}
		}
	case scheduler.CommandConnect:
		if err := b.Connect(); err != nil && b.Log != nil {
			b.Log.Error("tracekit: async connect failed", err)
		}
	case scheduler.CommandDisconnect:
		b.syncDisconnect()
	case scheduler.CommandDispatch:
		// maintenance tick (rotate/flush checks); no-op at the base level,
		// concrete transports that need one drive it through InternalWritePacket.
	}
	return nil
}

// syncWrite is the retry-gated synchronous writer shared by both the
// synchronous and async-worker code paths.
func (b *Base) syncWrite(p packet.Packet) error {
	b.mu.Lock()
	if b.state != StateConnected {
		if !b.Opts.Reconnect || !b.reconnectAllowedLocked() {
			b.mu.Unlock()
			return &ProtocolError{Proto: b.Name, Err: ErrNotConnected}
		}
		b.lastReconnectAt = time.Now()
		b.mu.Unlock()

		if err := b.Connect(); err != nil {
			return err
		}
		b.mu.Lock()
	}
	defer b.mu.Unlock()
	if b.state != StateConnected {
		return &ProtocolError{Proto: b.Name, Err: ErrNotConnected}
	}
	if err := b.internal.InternalWritePacket(p); err != nil {
		b.state = StateDisconnected
		if b.Log != nil {
			b.Log.Error("tracekit: "+b.Name+" write failed", err)
		}
		return &ProtocolError{Proto: b.Name, Err: err}
	}
	return nil
}

// reconnectAllowedLocked enforces "at most one reconnect attempt per
// interval" (spec.md section 4.5). Caller must hold b.mu.
func (b *Base) reconnectAllowedLocked() bool {
	return time.Since(b.lastReconnectAt) >= b.Opts.ReconnectInterval
}

// Disconnect tears down the connection; safe to call from any state.
func (b *Base) Disconnect() error {
	if b.sched != nil {
		b.sched.Stop()
		if b.schedDone != nil {
			<-b.schedDone
		}
		return nil
	}
	return b.syncDisconnect()
}

func (b *Base) syncDisconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateDisconnected {
		return nil
	}
	err := b.internal.InternalDisconnect()
	b.state = StateDisconnected
	return err
}

// Join blocks until the async worker goroutine (if any) has exited.
func (b *Base) Join() {
	if b.sched != nil {
		b.sched.Join()
	}
}
