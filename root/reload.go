/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package root

import (
	"github.com/gravwell/tracekit/config"
	"github.com/gravwell/tracekit/protocol"
)

// ApplyConfig atomically replaces the enabled flag, level, defaultlevel,
// app name, and connection list from cfg (spec.md section 4.9,
// "Reload"). Protocol instances whose textual description (Protocol.
// String) is unchanged are preserved in place rather than torn down and
// reconnected; the rest are disconnected, joined, and replaced. An
// InfoEvent fires on success.
func (r *Root) ApplyConfig(cfg config.Config) error {
	kept, stale, fresh, err := r.reconcileProtocols(cfg)
	if err != nil {
		return err
	}

	for _, p := range fresh {
		if err := p.Connect(); err != nil {
			r.log.Error("tracekit: protocol connect failed on reload", err)
		}
	}

	r.mu.Lock()
	r.enabled = cfg.Enabled
	r.level = cfg.Level
	r.defaultLevel = cfg.DefaultLevel
	r.appName = cfg.AppName
	r.protocols = append(kept, fresh...)
	r.mu.Unlock()

	r.sessions.LoadDefaults(cfg.SessionDefaults)
	for name, props := range cfg.SessionProperties {
		r.sessions.LoadSessionProperties(name, props)
	}

	disconnectAndJoinAll(stale)
	r.log.Info("tracekit: configuration reload applied")
	return nil
}

// reconcileProtocols splits the current protocol set against cfg's
// connection descriptors: protocols whose String() matches a descriptor
// in cfg.Connections (after construction) are kept; others are staged
// for teardown; brand-new descriptors are constructed but not yet
// connected (the caller connects them once the lock-protected swap is
// ready, per spec.md invariant 9, "no observer sees a partially applied
// reload").
func (r *Root) reconcileProtocols(cfg config.Config) (kept, stale, fresh []protocol.Protocol, err error) {
	wanted, err := protocol.NewAll(cfg.Connections, r.log)
	if err != nil {
		return nil, nil, nil, err
	}

	r.mu.RLock()
	current := append([]protocol.Protocol(nil), r.protocols...)
	r.mu.RUnlock()

	matched := make([]bool, len(current))
	for _, w := range wanted {
		found := false
		for i, c := range current {
			if !matched[i] && c.String() == w.String() {
				kept = append(kept, c)
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			fresh = append(fresh, w)
		}
	}
	for i, c := range current {
		if !matched[i] {
			stale = append(stale, c)
		}
	}
	return kept, stale, fresh, nil
}
