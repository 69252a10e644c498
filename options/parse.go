/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package options

import (
	"fmt"
	"strings"
)

// InvalidConnectionsError identifies a connection-string syntax error at a
// byte offset, with the token the parser expected (spec.md section 4.2).
type InvalidConnectionsError struct {
	Offset   int
	Expected string
	Input    string
}

func (e *InvalidConnectionsError) Error() string {
	return fmt.Sprintf("tracekit/options: invalid connection string at offset %d: expected %s", e.Offset, e.Expected)
}

type parser struct {
	s   string
	pos int
}

// Parse parses a connection string of the form "proto(k=v,...),proto(...)"
// into an ordered list of Proto descriptors. Order is preserved: it is the
// textual order used for producer-side dispatch fan-out (spec.md section 4.4).
func Parse(s string) ([]Proto, error) {
	p := &parser{s: s}
	var out []Proto
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			if len(out) == 0 {
				return nil, &InvalidConnectionsError{Offset: p.pos, Expected: "protocol name", Input: s}
			}
			return out, nil
		}
		proto, err := p.parseProto()
		if err != nil {
			return nil, err
		}
		out = append(out, proto)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return out, nil
		}
		if p.s[p.pos] != ',' {
			return nil, &InvalidConnectionsError{Offset: p.pos, Expected: "',' or end of input", Input: s}
		}
		p.pos++
	}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func isNameByte(b byte) bool {
	return b == '_' || b == '.' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *parser) parseProto() (Proto, error) {
	start := p.pos
	for p.pos < len(p.s) && isNameByte(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return Proto{}, &InvalidConnectionsError{Offset: p.pos, Expected: "protocol name", Input: p.s}
	}
	name := p.s[start:p.pos]
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '(' {
		return Proto{}, &InvalidConnectionsError{Offset: p.pos, Expected: "'('", Input: p.s}
	}
	p.pos++ // consume '('

	opts := Map{}
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ')' {
		p.pos++
		return Proto{Name: name, Opts: opts}, nil
	}
	for {
		key, val, err := p.parseOpt()
		if err != nil {
			return Proto{}, err
		}
		opts[strings.ToLower(key)] = val // last assignment wins
		p.skipSpace()
		if p.pos >= len(p.s) {
			return Proto{}, &InvalidConnectionsError{Offset: p.pos, Expected: "',' or ')'", Input: p.s}
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
			p.skipSpace()
		case ')':
			p.pos++
			return Proto{Name: name, Opts: opts}, nil
		default:
			return Proto{}, &InvalidConnectionsError{Offset: p.pos, Expected: "',' or ')'", Input: p.s}
		}
	}
}

func (p *parser) parseOpt() (key, val string, err error) {
	start := p.pos
	for p.pos < len(p.s) && isNameByte(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", "", &InvalidConnectionsError{Offset: p.pos, Expected: "option key", Input: p.s}
	}
	key = p.s[start:p.pos]
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '=' {
		return "", "", &InvalidConnectionsError{Offset: p.pos, Expected: "'='", Input: p.s}
	}
	p.pos++ // consume '='
	p.skipSpace()

	if p.pos < len(p.s) && p.s[p.pos] == '"' {
		val, err = p.parseQuoted()
		return key, val, err
	}
	val, err = p.parseBare()
	return key, val, err
}

func (p *parser) parseQuoted() (string, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for {
		if p.pos >= len(p.s) {
			return "", &InvalidConnectionsError{Offset: p.pos, Expected: "closing '\"'", Input: p.s}
		}
		c := p.s[p.pos]
		if c == '\\' {
			if p.pos+1 >= len(p.s) {
				return "", &InvalidConnectionsError{Offset: p.pos, Expected: "escape sequence", Input: p.s}
			}
			next := p.s[p.pos+1]
			switch next {
			case '\\', '"':
				b.WriteByte(next)
			default:
				return "", &InvalidConnectionsError{Offset: p.pos, Expected: `'\\' or '"' after backslash`, Input: p.s}
			}
			p.pos += 2
			continue
		}
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
}

func (p *parser) parseBare() (string, error) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != ',' && p.s[p.pos] != ')' {
		p.pos++
	}
	return strings.TrimSpace(p.s[start:p.pos]), nil
}
