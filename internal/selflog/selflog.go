/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package selflog is tracekit's "log about the logger" pathway (spec.md
// section 7): internal errors, warnings, and info notices about the
// library's own operation, formatted as RFC 5424 structured records the
// way ingest/log/logging.go formats gravwell's own internal diagnostics.
// It is distinct from the packet pipeline: selflog never touches a
// configured protocol, it only backs ErrorEvent/InfoEvent delivery.
package selflog

import (
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
	"github.com/google/uuid"
)

// EventKind distinguishes an error notice from an informational one
// (spec.md section 7: "InfoEvent carries non-error notices").
type EventKind int

const (
	EventInfo EventKind = iota
	EventError
)

// Event is one self-log record, delivered to any subscribed handler.
type Event struct {
	Kind      EventKind
	Timestamp time.Time
	Message   string
	Err       error
}

// Handler receives self-log events. Handlers must not block; the logger
// invokes them synchronously on the goroutine that reported the event.
type Handler func(Event)

// Logger fans an internal event out to zero or more subscribed handlers
// and renders it through the rfc5424 message format for any attached
// text sink (e.g. a "internal diagnostics" file separate from the
// packet wire format).
type Logger struct {
	mu       sync.Mutex
	hostname string
	appname  string
	instance uuid.UUID
	handlers []Handler
}

// New builds a Logger and stamps it with a fresh instance id, the way
// ingest/attach.NewAttacher is handed a uuid.UUID to correlate records
// from one running process. The id is attached to every RFC5424 record
// as structured data rather than folded into the message text.
func New(hostname, appname string) *Logger {
	return &Logger{hostname: hostname, appname: appname, instance: uuid.New()}
}

// Subscribe registers a handler invoked for every future event.
func (l *Logger) Subscribe(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

func (l *Logger) dispatch(ev Event) {
	l.mu.Lock()
	handlers := append([]Handler(nil), l.handlers...)
	l.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

// Info records a non-error notice (banners, successful reload, rotation).
func (l *Logger) Info(msg string) {
	l.dispatch(Event{Kind: EventInfo, Timestamp: time.Now(), Message: msg})
}

// Error records an internal failure. In async mode this is how
// ProtocolError reaches the application without propagating through the
// logging hot path (spec.md section 7 policy: "anything on the logging
// hot path must be non-fatal").
func (l *Logger) Error(msg string, err error) {
	l.dispatch(Event{Kind: EventError, Timestamp: time.Now(), Message: msg, Err: err})
}

// RFC5424 renders an event as a syslog-structured line, matching the
// shape of ingest/log/logging.go's GenRFCMessage.
func (l *Logger) RFC5424(ev Event) ([]byte, error) {
	prio := rfc5424.User | rfc5424.Info
	msgid := "info"
	if ev.Kind == EventError {
		prio = rfc5424.User | rfc5424.Error
		msgid = "error"
	}
	msg := ev.Message
	if ev.Err != nil {
		msg = msg + ": " + ev.Err.Error()
	}
	m := rfc5424.Message{
		Priority:  prio,
		Timestamp: ev.Timestamp,
		Hostname:  trimLength(255, l.hostname),
		AppName:   trimLength(48, l.appname),
		MessageID: trimLength(32, msgid),
		Message:   []byte(msg),
		StructuredData: []rfc5424.StructuredData{{
			ID:     "tracekit@0",
			Params: []rfc5424.SDParam{{Name: "instance", Value: l.instance.String()}},
		}},
	}
	return m.MarshalBinary()
}

func trimLength(n int, s string) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
