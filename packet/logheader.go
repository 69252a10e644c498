/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import (
	"fmt"
	"sort"
	"strings"
)

// LogHeader is written once, typically at the start of a stream, and
// describes the producer as a key=value block (e.g. hostname, app name,
// protocol version).
type LogHeader struct {
	Header
	Fields map[string]string
}

func (h *LogHeader) Kind() Kind        { return KindLogHeader }
func (h *LogHeader) ProcessID() uint32 { return h.Header.ProcessID }
func (h *LogHeader) ThreadID() uint32  { return h.Header.ThreadID }

// content renders Fields as a deterministic "key=value\r\n" block so
// Encode is reproducible across calls (spec.md invariant 1, round-trip).
func (h *LogHeader) content() string {
	keys := make([]string, 0, len(h.Fields))
	for k := range h.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\r\n", k, h.Fields[k])
	}
	return b.String()
}

func (h *LogHeader) Size() uint32 {
	return uint32(HeaderSize) + 4 + uint32(len(h.content()))
}

func (h *LogHeader) Encode(buf []byte) ([]byte, error) {
	start := len(buf)
	buf = append(buf, make([]byte, HeaderSize)...)
	putPrefix(buf[start:], KindLogHeader, h.Size())
	buf = appendLenPrefixed(buf, []byte(h.content()), false)
	return buf, nil
}

func decodeLogHeader(body []byte) (*LogHeader, error) {
	content, absent, _, err := readLenPrefixed(body)
	if err != nil {
		return nil, err
	}
	h := &LogHeader{Fields: map[string]string{}}
	if absent {
		return h, nil
	}
	for _, line := range strings.Split(string(content), "\r\n") {
		if line == "" {
			continue
		}
		if idx := strings.IndexByte(line, '='); idx >= 0 {
			h.Fields[line[:idx]] = line[idx+1:]
		}
	}
	return h, nil
}
