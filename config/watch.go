/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives a freshly parsed Config after the watched file
// changes. Parse errors are passed through so the caller can decide
// whether to keep running on the prior configuration (spec.md section 7:
// a failed reload must not crash the logging hot path).
type ReloadFunc func(Config, error)

// Watcher re-parses a single configuration file whenever fsnotify
// reports it changed, grounded on filewatch.WatchManager's use of
// fsnotify.Watcher plus a dedicated goroutine pumping its Events channel.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher
	on   ReloadFunc

	mu   sync.Mutex
	done chan struct{}
}

// NewWatcher attaches an fsnotify watch to path, calling on every time
// fsnotify reports a Write or Create event for it (spec.md section 4.9,
// "Reload"). The watch is on the file itself: replacing the file by
// renaming another file over path does not trigger a reload.
func NewWatcher(path string, on ReloadFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{path: path, fsw: fsw, on: on, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := ParseFile(w.path)
			w.on(cfg, err)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher and blocks until its goroutine has exited.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
