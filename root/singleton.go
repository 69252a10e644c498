/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package root

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	autoMu   sync.Mutex
	autoRoot *Root
)

// Auto returns the process-wide Root (spec.md section 9: "the source
// exposes a process-wide root (SIAuto.Si) and default session
// (SIAuto.Main)"), creating it on first access. Callers that need an
// isolated instance instead should use New directly.
func Auto() *Root {
	autoMu.Lock()
	defer autoMu.Unlock()
	if autoRoot == nil {
		hostname, _ := os.Hostname()
		autoRoot = New(appNameFromArgs(), hostname)
	}
	return autoRoot
}

// ShutdownAuto tears down the process-wide Root, if one was created,
// joining every protocol worker (spec.md section 9, "teardown joins all
// workers"). Safe to call even if Auto was never accessed.
func ShutdownAuto() {
	autoMu.Lock()
	r := autoRoot
	autoRoot = nil
	autoMu.Unlock()
	if r != nil {
		r.Shutdown()
	}
}

// appNameFromArgs derives a default app name from the running binary,
// the way ingest/log/logging.go's guessHostnameAppname does.
func appNameFromArgs() string {
	if len(os.Args) == 0 {
		return ""
	}
	exe := filepath.Base(os.Args[0])
	if ext := filepath.Ext(exe); len(ext) > 0 && len(ext) < len(exe) {
		exe = strings.TrimSuffix(exe, ext)
	}
	return exe
}
