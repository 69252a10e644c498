/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

//go:build !windows

package protocol

import (
	"net"
	"time"
)

// dialPipe opens a unix-domain socket standing in for a local duplex
// pipe on non-Windows platforms (spec.md section 4.7, "Pipe wire format:
// same as TCP over a local duplex byte stream").
func dialPipe(pipename string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", pipename, timeout)
}
