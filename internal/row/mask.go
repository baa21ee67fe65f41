package row

import (
	"fmt"
	"strings"
)

// Any marks a wildcard position in a Mask.
const Any = -1

// Mask is a fixed-length row pattern. Each place holds a bell or Any.
// Masks describe course-head classes, e.g. "xxxxxx78".
type Mask []int

// ParseMask parses a mask at the given stage. 'x' and '.' match any bell; a
// single '*' expands to as many wildcards as needed to fill the stage.
func ParseMask(s string, stage Stage) (Mask, error) {
	star := strings.IndexByte(s, '*')
	if star >= 0 {
		if strings.Count(s, "*") > 1 {
			return nil, &ParseError{Input: s, Message: "mask may contain at most one '*'"}
		}
		fill := int(stage) - (len(s) - 1)
		if fill < 0 {
			return nil, &ParseError{Input: s, Message: fmt.Sprintf("mask longer than stage %d", stage)}
		}
		s = s[:star] + strings.Repeat("x", fill) + s[star+1:]
	}
	if len(s) != int(stage) {
		return nil, &ParseError{Input: s, Message: fmt.Sprintf("expected %d places, got %d", stage, len(s))}
	}
	m := make(Mask, len(s))
	seen := make([]bool, stage)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 'x' || c == 'X' || c == '.' {
			m[i] = Any
			continue
		}
		b, ok := BellFromName(c)
		if !ok || int(b) >= int(stage) {
			return nil, &ParseError{Input: s, Message: fmt.Sprintf("unknown bell %q", c)}
		}
		if seen[b] {
			return nil, &ParseError{Input: s, Message: fmt.Sprintf("bell %c repeated", c)}
		}
		seen[b] = true
		m[i] = int(b)
	}
	return m, nil
}

// MustParseMask is like ParseMask but panics on error.
func MustParseMask(s string, stage Stage) Mask {
	m, err := ParseMask(s, stage)
	if err != nil {
		panic(err)
	}
	return m
}

// AnyMask returns a mask matching every row at stage.
func AnyMask(stage Stage) Mask {
	m := make(Mask, stage)
	for i := range m {
		m[i] = Any
	}
	return m
}

// FixedBellsMask returns a mask with the given bells fixed in their home
// places and every other place a wildcard.
func FixedBellsMask(stage Stage, bells []Bell) Mask {
	m := AnyMask(stage)
	for _, b := range bells {
		m[b] = int(b)
	}
	return m
}

// Matches reports whether r fits the mask.
func (m Mask) Matches(r Row) bool {
	if len(m) != len(r) {
		return false
	}
	for i, want := range m {
		if want != Any && Bell(want) != r[i] {
			return false
		}
	}
	return true
}

// PreMul relabels the mask's bells through g, giving the mask that matches
// Mul(g, r) whenever m matches r.
func (m Mask) PreMul(g Row) Mask {
	out := make(Mask, len(m))
	for i, b := range m {
		if b == Any {
			out[i] = Any
			continue
		}
		out[i] = int(g[b])
	}
	return out
}

// IsSubsetOf reports whether every row matched by m is also matched by o.
func (m Mask) IsSubsetOf(o Mask) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if o[i] != Any && o[i] != m[i] {
			return false
		}
	}
	return true
}

// String renders the mask with 'x' for wildcards.
func (m Mask) String() string {
	var sb strings.Builder
	for _, b := range m {
		if b == Any {
			sb.WriteByte('x')
			continue
		}
		sb.WriteByte(Bell(b).Name())
	}
	return sb.String()
}

// Pattern is a glob over a row: bell names, 'x'/'.' for any single bell and
// '*' for any run of bells, possibly empty. Music patterns such as "5678*"
// and "*5678*" are Patterns.
type Pattern struct {
	src   string
	elems []int // Any for a single wildcard, -2 for a star, otherwise a bell
}

const starElem = -2

// ParsePattern compiles a glob pattern for rows of the given stage.
func ParsePattern(s string, stage Stage) (Pattern, error) {
	p := Pattern{src: s}
	fixed := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '*':
			if n := len(p.elems); n > 0 && p.elems[n-1] == starElem {
				continue
			}
			p.elems = append(p.elems, starElem)
		case c == 'x' || c == 'X' || c == '.':
			p.elems = append(p.elems, Any)
			fixed++
		default:
			b, ok := BellFromName(c)
			if !ok || int(b) >= int(stage) {
				return Pattern{}, &ParseError{Input: s, Message: fmt.Sprintf("unknown bell %q", c)}
			}
			p.elems = append(p.elems, int(b))
			fixed++
		}
	}
	if fixed > int(stage) {
		return Pattern{}, &ParseError{Input: s, Message: fmt.Sprintf("pattern longer than stage %d", stage)}
	}
	hasStar := false
	for _, e := range p.elems {
		if e == starElem {
			hasStar = true
		}
	}
	if !hasStar && fixed != int(stage) {
		return Pattern{}, &ParseError{Input: s, Message: fmt.Sprintf("expected %d places, got %d", stage, fixed)}
	}
	return p, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(s string, stage Stage) Pattern {
	p, err := ParsePattern(s, stage)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source text of the pattern.
func (p Pattern) String() string { return p.src }

// Matches reports whether the whole row matches the pattern.
func (p Pattern) Matches(r Row) bool {
	return globMatch(p.elems, r)
}

// globMatch is the usual two-pointer glob algorithm with single-star
// backtracking.
func globMatch(elems []int, r Row) bool {
	pi, ri := 0, 0
	starPi, starRi := -1, 0
	for ri < len(r) {
		switch {
		case pi < len(elems) && elems[pi] == starElem:
			starPi, starRi = pi, ri
			pi++
		case pi < len(elems) && (elems[pi] == Any || Bell(elems[pi]) == r[ri]):
			pi++
			ri++
		case starPi >= 0:
			starRi++
			pi, ri = starPi+1, starRi
		default:
			return false
		}
	}
	for pi < len(elems) && elems[pi] == starElem {
		pi++
	}
	return pi == len(elems)
}
