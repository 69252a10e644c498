/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

//go:build windows

package protocol

import (
	"context"
	"net"
	"time"

	winio "github.com/Microsoft/go-winio"
)

// dialPipe opens a Windows named pipe by name (spec.md section 4.7, pipe
// options). pipename is expected in the \\.\pipe\<name> form accepted by
// go-winio; a bare name is prefixed for convenience.
func dialPipe(pipename string, timeout time.Duration) (net.Conn, error) {
	if len(pipename) < 2 || pipename[0] != '\\' {
		pipename = `\\.\pipe\` + pipename
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return winio.DialPipeContext(ctx, pipename)
}
