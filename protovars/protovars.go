/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package protovars implements the $name$ substitution table applied to
// connection-string values before option parsing (spec.md section 4.3).
package protovars

import "strings"

// Table maps variable name to replacement string.
type Table map[string]string

// Substitute performs a single, non-recursive pass replacing every
// $name$ occurrence in s with its Table value. A variable with no entry
// in the table is left untouched, literal delimiters and all.
func (t Table) Substitute(s string) string {
	if len(t) == 0 || !strings.Contains(s, "$") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}
		// look for a closing '$' to bound a candidate variable name.
		end := strings.IndexByte(s[i+1:], '$')
		if end < 0 {
			b.WriteByte(s[i])
			i++
			continue
		}
		name := s[i+1 : i+1+end]
		if val, ok := t[name]; ok {
			b.WriteString(val)
		} else {
			// missing variable: leave the literal "$name$" in place.
			b.WriteString(s[i : i+1+end+1])
		}
		i = i + 1 + end + 1
	}
	return b.String()
}
