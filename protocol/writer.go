/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package protocol

import (
	"io"

	"github.com/gravwell/tracekit/packet"
)

// ProtocolWriter is the minimal sink a packet can be written to,
// independent of any particular transport. The memory protocol's
// flush-on-disconnect hook re-emits its retained packets into a supplied
// ProtocolWriter (spec.md section 6, "Memory protocol").
type ProtocolWriter interface {
	WritePacket(p packet.Packet) error
}

// ioWriterAdapter lets any io.Writer-backed transport (file, tcp, pipe)
// satisfy ProtocolWriter, matching how entry.go's EncodeWriter fully
// encodes a record onto an io.Writer in one call.
type ioWriterAdapter struct {
	w io.Writer
}

func (a ioWriterAdapter) WritePacket(p packet.Packet) error {
	return encodeToWriter(a.w, p)
}

// encodeToWriter encodes p and writes the full byte sequence to w,
// retrying partial writes the way entry.go's writeAll helper does.
func encodeToWriter(w io.Writer, p packet.Packet) error {
	buf, err := p.Encode(nil)
	if err != nil {
		return err
	}
	written := 0
	for written < len(buf) {
		n, err := w.Write(buf[written:])
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}
