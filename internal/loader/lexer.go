package loader

import (
	"bytes"

	"github.com/sauronlib/sauron/pkg/ipaddr"
)

// opKind distinguishes the two change forms in the grammar: an absolute
// set versus a relative increment.
type opKind int

const (
	opSetAbsolute opKind = iota
	opRelative
)

// lineResult is the outcome of scanning one input line.
type lineResult struct {
	// skip is true for a line the grammar treats as lexer-level noise
	// (blank, or comment-only) — never counted in any tally.
	skip bool

	// valid is false for a counted line that failed to parse; only
	// meaningful when skip is false.
	valid bool

	ip    uint32
	delta int16
	op    opKind
}

const maxMagnitude = 32767

// parseLine scans one line against the bulk-load grammar:
//
//	line   ::= ip ',' change
//	ip     ::= octet '.' octet '.' octet '.' octet
//	change ::= '+' digits | '+-' digits | '-' digits | digits
//
// Leading/trailing whitespace is tolerated; '#' starts a comment, whether
// the whole line or only its tail.
func parseLine(raw []byte) lineResult {
	s := bytes.TrimSpace(raw)
	if len(s) == 0 || s[0] == '#' {
		return lineResult{skip: true}
	}

	if idx := bytes.IndexByte(s, '#'); idx >= 0 {
		s = bytes.TrimSpace(s[:idx])
	}
	if len(s) == 0 {
		return lineResult{skip: true}
	}

	commaIdx := bytes.IndexByte(s, ',')
	if commaIdx < 0 {
		return lineResult{valid: false}
	}

	ipPart := bytes.TrimSpace(s[:commaIdx])
	changePart := bytes.TrimSpace(s[commaIdx+1:])

	ip, ok := ipaddr.ParseV4(string(ipPart))
	if !ok {
		return lineResult{valid: false}
	}

	op, magnitude, ok := parseChange(changePart)
	if !ok {
		return lineResult{valid: false}
	}

	delta := int16(magnitude)
	if (op == opSetAbsolute && changeIsNegativeSet(changePart)) || (op == opRelative && changeIsRelativeSubtract(changePart)) {
		delta = -delta
	}

	return lineResult{valid: true, ip: ip, delta: delta, op: op}
}

// parseChange classifies the change token and parses its digit magnitude,
// saturating at 32767 as the grammar requires.
func parseChange(b []byte) (op opKind, magnitude int32, ok bool) {
	switch {
	case len(b) >= 2 && b[0] == '+' && b[1] == '-':
		magnitude, ok = parseDigits(b[2:])
		return opRelative, magnitude, ok
	case len(b) >= 1 && b[0] == '+':
		magnitude, ok = parseDigits(b[1:])
		return opRelative, magnitude, ok
	case len(b) >= 1 && b[0] == '-':
		magnitude, ok = parseDigits(b[1:])
		return opSetAbsolute, magnitude, ok
	default:
		magnitude, ok = parseDigits(b)
		return opSetAbsolute, magnitude, ok
	}
}

func changeIsNegativeSet(b []byte) bool {
	return len(b) >= 1 && b[0] == '-'
}

func changeIsRelativeSubtract(b []byte) bool {
	return len(b) >= 2 && b[0] == '+' && b[1] == '-'
}

// parseDigits parses one or more decimal digits, saturating the
// accumulated value at 32767.
func parseDigits(b []byte) (int32, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var acc int32
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		acc = acc*10 + int32(c-'0')
		if acc > maxMagnitude {
			acc = maxMagnitude
		}
	}
	return acc, true
}
