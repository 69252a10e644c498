/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package root

import "github.com/gravwell/tracekit/config"

// WatchConfigFile attaches a hot-reload watch to path: every write
// reported by config.Watcher triggers a re-parse and ApplyConfig (spec.md
// section 4.9, "Reload: when a configuration file is attached to a
// watcher..."); a rename over path does not (see config.NewWatcher). The
// initial contents of path are also applied immediately.
func (r *Root) WatchConfigFile(path string) (*config.Watcher, error) {
	cfg, err := config.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := r.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	return config.NewWatcher(path, func(cfg config.Config, err error) {
		if err != nil {
			r.log.Error("tracekit: config reload parse failed", err)
			return
		}
		if aerr := r.ApplyConfig(cfg); aerr != nil {
			r.log.Error("tracekit: config reload apply failed", aerr)
		}
	})
}
