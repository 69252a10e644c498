/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package root

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/tracekit/options"
)

// connStrings builds one file() descriptor per path, joined the way a
// real connection string would be. buffer=1 makes the file protocol's
// bufio.Writer pass each multi-byte write straight to the file, so tests
// can stat the file before shutdown.
func connStrings(t *testing.T, paths ...string) []options.Proto {
	t.Helper()
	var parts []string
	for _, p := range paths {
		parts = append(parts, `file(filename="`+p+`",buffer=1)`)
	}
	protos, err := options.Parse(strings.Join(parts, ","))
	require.NoError(t, err)
	return protos
}
