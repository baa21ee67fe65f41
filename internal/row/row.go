// Package row implements bells, rows and the permutation algebra shared by
// every table in ringer.
//
// A Row is a permutation of the bells 0..stage-1. Rows are values: every
// operation returns a fresh slice and nothing mutates a row after it has been
// built, so rows can be shared freely between goroutines.
package row

import (
	"fmt"
	"strings"
)

// bellNames maps a 0-indexed bell to its conventional single-character name.
const bellNames = "1234567890ETABCDFGHJKLMNPQRSUVWYZ"

// MaxStage is the largest stage whose bells all have single-character names.
const MaxStage = len(bellNames)

// Bell is a 0-indexed bell number; the treble is Bell(0).
type Bell uint8

// BellFromName parses a bell name such as '1', '0', 'E' or 'T'.
func BellFromName(c byte) (Bell, bool) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	idx := strings.IndexByte(bellNames, c)
	if idx < 0 {
		return 0, false
	}
	return Bell(idx), true
}

// Name returns the single-character name of the bell.
func (b Bell) Name() byte {
	if int(b) >= MaxStage {
		return '?'
	}
	return bellNames[b]
}

// String implements fmt.Stringer.
func (b Bell) String() string { return string(b.Name()) }

// Number returns the 1-indexed bell number used in place notation.
func (b Bell) Number() int { return int(b) + 1 }

// Stage is the number of bells.
type Stage int

// Named stages.
const (
	Doubles Stage = 5
	Minor   Stage = 6
	Triples Stage = 7
	Major   Stage = 8
	Caters  Stage = 9
	Royal   Stage = 10
	Cinques Stage = 11
	Maximus Stage = 12
)

// Tenor returns the heaviest bell at this stage.
func (s Stage) Tenor() Bell { return Bell(s - 1) }

// IsEven reports whether the stage has an even number of bells.
func (s Stage) IsEven() bool { return s%2 == 0 }

// Row is a permutation of bells. Index i holds the bell ringing in place i.
type Row []Bell

// ParseError is returned when a row or pattern string cannot be parsed.
type ParseError struct {
	Input   string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid row %q: %s", e.Input, e.Message)
}

// Rounds returns the identity row at stage.
func Rounds(stage Stage) Row {
	r := make(Row, stage)
	for i := range r {
		r[i] = Bell(i)
	}
	return r
}

// Parse parses a row such as "13527486". The stage is the string length.
func Parse(s string) (Row, error) {
	if len(s) == 0 {
		return nil, &ParseError{Input: s, Message: "empty row"}
	}
	if len(s) > MaxStage {
		return nil, &ParseError{Input: s, Message: "too many bells"}
	}
	r := make(Row, len(s))
	seen := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		b, ok := BellFromName(s[i])
		if !ok {
			return nil, &ParseError{Input: s, Message: fmt.Sprintf("unknown bell %q", s[i])}
		}
		if int(b) >= len(s) {
			return nil, &ParseError{Input: s, Message: fmt.Sprintf("bell %c out of stage %d", s[i], len(s))}
		}
		if seen[b] {
			return nil, &ParseError{Input: s, Message: fmt.Sprintf("bell %c repeated", s[i])}
		}
		seen[b] = true
		r[i] = b
	}
	return r, nil
}

// ParseStage parses a row and checks that it has the expected stage.
func ParseStage(s string, stage Stage) (Row, error) {
	r, err := Parse(s)
	if err != nil {
		return nil, err
	}
	if r.Stage() != stage {
		return nil, &ParseError{Input: s, Message: fmt.Sprintf("expected %d bells, got %d", stage, r.Stage())}
	}
	return r, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or for literals known to be valid.
func MustParse(s string) Row {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Stage returns the number of bells in the row.
func (r Row) Stage() Stage { return Stage(len(r)) }

// String renders the row using bell names.
func (r Row) String() string {
	var sb strings.Builder
	sb.Grow(len(r))
	for _, b := range r {
		sb.WriteByte(b.Name())
	}
	return sb.String()
}

// Key returns a compact string usable as a map key.
func (r Row) Key() string {
	buf := make([]byte, len(r))
	for i, b := range r {
		buf[i] = byte(b)
	}
	return string(buf)
}

// IsRounds reports whether r is the identity row.
func (r Row) IsRounds() bool {
	for i, b := range r {
		if int(b) != i {
			return false
		}
	}
	return true
}

// Equal reports whether two rows are identical.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Less orders rows lexicographically by bell.
func (r Row) Less(o Row) bool {
	for i := range r {
		if i >= len(o) {
			return false
		}
		if r[i] != o[i] {
			return r[i] < o[i]
		}
	}
	return len(r) < len(o)
}

// PlaceOf returns the 0-indexed place of bell b, or -1 if b is not in the row.
func (r Row) PlaceOf(b Bell) int {
	for i, x := range r {
		if x == b {
			return i
		}
	}
	return -1
}

// Mul composes two rows: the result is a with b applied after it, so
// Mul(a, b)[i] == a[b[i]]. Mul(Rounds, b) == b and Mul(a, Rounds) == a.
// Both rows must have the same stage.
func Mul(a, b Row) Row {
	out := make(Row, len(b))
	for i, x := range b {
		out[i] = a[x]
	}
	return out
}

// Inv returns the inverse permutation, so Mul(r, r.Inv()) is rounds.
func (r Row) Inv() Row {
	out := make(Row, len(r))
	for i, b := range r {
		out[b] = Bell(i)
	}
	return out
}

// Pow returns r multiplied by itself n times. Pow(r, 0) is rounds.
func (r Row) Pow(n int) Row {
	out := Rounds(r.Stage())
	for i := 0; i < n; i++ {
		out = Mul(out, r)
	}
	return out
}

// Order returns the smallest n >= 1 such that r^n is rounds.
func (r Row) Order() int {
	acc := r
	n := 1
	for !acc.IsRounds() {
		acc = Mul(acc, r)
		n++
	}
	return n
}

// Fixes reports whether bell b rings in its home place.
func (r Row) Fixes(b Bell) bool {
	return int(b) < len(r) && r[b] == b
}

// Matches reports whether r matches a fixed-length pattern. Pattern
// characters are bell names or 'x'/'.' for any bell; a pattern whose length
// differs from the stage never matches.
func (r Row) Matches(pattern string) bool {
	if len(pattern) != len(r) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == 'x' || c == 'X' || c == '.' {
			continue
		}
		b, ok := BellFromName(c)
		if !ok || r[i] != b {
			return false
		}
	}
	return true
}
