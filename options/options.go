/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package options parses tracekit connection strings ("proto(k=v,...),...")
// into typed per-protocol option maps, following the grammar in spec.md
// section 4.2. The suffix-parsing helpers (size and duration units) are
// written in the idiom of ingest/config/parse.go's AppendDefaultPort/
// multSuff helpers, generalized to the spec's size+duration grammar.
package options

import (
	"fmt"
	"strconv"
	"strings"

	bytesize "github.com/inhies/go-bytesize"
)

// Proto is one parsed "name(opt=val,...)" descriptor from a connection
// string, in textual order.
type Proto struct {
	Name string
	Opts Map
}

// Map is a case-insensitive option bag: key lookups normalize to
// lowercase, and the last assignment for a duplicate key wins (spec.md
// section 4.2).
type Map map[string]string

func (m Map) get(key string) (string, bool) {
	v, ok := m[strings.ToLower(key)]
	return v, ok
}

// String returns the raw string value, or def if absent.
func (m Map) String(key, def string) string {
	if v, ok := m.get(key); ok {
		return v
	}
	return def
}

// Bool parses true/false/yes/no/1/0, case-insensitive (spec.md section 4.2).
func (m Map) Bool(key string, def bool) (bool, error) {
	v, ok := m.get(key)
	if !ok {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("tracekit/options: invalid bool value %q for key %q", v, key)
	}
}

// Int parses a decimal integer with no unit suffix.
func (m Map) Int(key string, def int64) (int64, error) {
	v, ok := m.get(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tracekit/options: invalid integer %q for key %q: %w", v, key, err)
	}
	return n, nil
}

// Size parses a byte count, with an optional kb|mb|gb suffix (binary
// units); a bare number is bytes. Grounded on github.com/inhies/go-bytesize,
// already a teacher dependency, rather than hand-rolling a second suffix
// table next to the duration parser below.
func (m Map) Size(key string, def uint64) (uint64, error) {
	v, ok := m.get(key)
	if !ok {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseUint(v, 10, 64); err == nil {
		return n, nil // bare number = bytes
	}
	bs, err := bytesize.Parse(v)
	if err != nil {
		return 0, fmt.Errorf("tracekit/options: invalid size %q for key %q: %w", v, key, err)
	}
	return uint64(bs), nil
}

var durationUnits = []struct {
	suffix string
	mult   int64 // milliseconds per unit
}{
	{"ms", 1},
	{"s", 1000},
	{"m", 60 * 1000},
	{"h", 60 * 60 * 1000},
	{"d", 24 * 60 * 60 * 1000},
}

// Duration parses a duration with suffix ms|s|m|h|d; a bare number is
// milliseconds (spec.md section 4.2).
func (m Map) Duration(key string, def int64) (int64, error) {
	v, ok := m.get(key)
	if !ok {
		return def, nil
	}
	v = strings.TrimSpace(v)
	// check longer suffixes ("ms") before shorter ones ("m", "s") so "ms" isn't
	// mistaken for the "m" (minutes) unit.
	for _, u := range durationUnits {
		if strings.HasSuffix(v, u.suffix) && isSuffixUnambiguous(v, u.suffix) {
			numPart := strings.TrimSuffix(v, u.suffix)
			n, err := strconv.ParseInt(strings.TrimSpace(numPart), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("tracekit/options: invalid duration %q for key %q: %w", v, key, err)
			}
			return n * u.mult, nil
		}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tracekit/options: invalid duration %q for key %q: %w", v, key, err)
	}
	return n, nil // bare number = milliseconds
}

// isSuffixUnambiguous rejects matching the "m" (minutes) suffix against a
// value that actually ends in "ms" (milliseconds); durationUnits is
// ordered longest-suffix-first so this only needs to guard "m" vs "ms".
func isSuffixUnambiguous(v, suffix string) bool {
	if suffix != "m" {
		return true
	}
	return !strings.HasSuffix(v, "ms")
}

// Bytes interprets the raw string as a key, normalized (padded or
// truncated with zero bytes) to blockSize, matching the `key=` coercion
// rule in spec.md section 4.2.
func (m Map) Bytes(key string, blockSize int) ([]byte, bool) {
	v, ok := m.get(key)
	if !ok {
		return nil, false
	}
	b := make([]byte, blockSize)
	copy(b, v)
	return b, true
}
