/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package config

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gravwell/tracekit/options"
	"github.com/gravwell/tracekit/packet"
	"github.com/gravwell/tracekit/session"
)

// Config is the fully parsed, structured form of a configuration file
// (spec.md section 4.9). It is the unit atomically swapped in by a
// reload.
type Config struct {
	Enabled          bool
	Level            packet.Level
	DefaultLevel     packet.Level
	AppName          string
	Connections      []options.Proto
	SessionDefaults  session.Defaults
	SessionProperties map[string]session.PropertySet
}

// ParseFile reads and parses path.
func ParseFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a configuration document from r and builds a Config
// (spec.md section 4.9, "Recognized keys").
func Parse(r io.Reader) (Config, error) {
	entries, err := rawEntries(r)
	if err != nil {
		return Config{}, err
	}
	m := toMap(entries)

	var c Config
	c.SessionProperties = make(map[string]session.PropertySet)
	// Matches the Active: true default that session.New seeds: a config file
	// that never mentions sessiondefaults.active must not silently turn
	// every future session inactive on reload.
	c.SessionDefaults.Active = true

	if v, ok := m["enabled"]; ok {
		c.Enabled, err = parseBool(v)
		if err != nil {
			return Config{}, err
		}
	}
	if v, ok := m["level"]; ok {
		c.Level = parseConfigLevel(v)
	}
	if v, ok := m["defaultlevel"]; ok {
		c.DefaultLevel = parseConfigLevel(v)
	}
	c.AppName = m["appname"]

	if v, ok := m["connections"]; ok && v != "" {
		c.Connections, err = options.Parse(v)
		if err != nil {
			return Config{}, err
		}
	}

	for key, val := range m {
		switch {
		case strings.HasPrefix(key, "sessiondefaults."):
			attr := strings.TrimPrefix(key, "sessiondefaults.")
			applyDefaultAttr(&c.SessionDefaults, attr, val)
		case strings.HasPrefix(key, "session."):
			rest := strings.TrimPrefix(key, "session.")
			name, attr, ok := splitLast(rest)
			if !ok {
				continue
			}
			props := c.SessionProperties[name]
			applyPropertyAttr(&props, attr, val)
			c.SessionProperties[name] = props
		}
	}

	return c, nil
}

// splitLast splits "name.attr" (name may itself contain dots) at the
// final '.'.
func splitLast(s string) (name, attr string, ok bool) {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

func applyDefaultAttr(d *session.Defaults, attr, val string) {
	switch attr {
	case "active":
		if b, err := parseBool(val); err == nil {
			d.Active = b
		}
	case "level":
		d.Level = parseConfigLevel(val)
	case "color":
		if c, err := strconv.ParseUint(val, 0, 32); err == nil {
			d.Color = uint32(c)
		}
	}
}

func applyPropertyAttr(p *session.PropertySet, attr, val string) {
	switch attr {
	case "active":
		if b, err := parseBool(val); err == nil {
			p.Active = &b
		}
	case "level":
		l := parseConfigLevel(val)
		p.Level = &l
	case "color":
		if c, err := strconv.ParseUint(val, 0, 32); err == nil {
			v := uint32(c)
			p.Color = &v
		}
	}
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, &ParseError{Msg: "invalid bool value " + strconv.Quote(v)}
	}
}

func parseConfigLevel(v string) packet.Level {
	switch strings.ToLower(v) {
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
		return packet.LevelDebug
	}
}
