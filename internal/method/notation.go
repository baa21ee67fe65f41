package method

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/ringer/internal/row"
)

// Change is a single transition between rows: the set of places made, with
// every other bell swapping with its neighbour.
type Change struct {
	places []int
	perm   row.Row
}

// Perm returns the permutation applied by the change, so the next row is
// row.Mul(current, c.Perm()).
func (c Change) Perm() row.Row { return c.perm }

// IsCross reports whether no places are made.
func (c Change) IsCross() bool { return len(c.places) == 0 }

// Places returns the 0-indexed places made, including implicit ones.
func (c Change) Places() []int { return c.places }

// Makes reports whether place p (0-indexed) is made.
func (c Change) Makes(p int) bool {
	for _, x := range c.places {
		if x == p {
			return true
		}
	}
	return false
}

// String renders the change as "x" or its places, e.g. "14".
func (c Change) String() string {
	if c.IsCross() {
		return "x"
	}
	var sb strings.Builder
	for _, p := range c.places {
		sb.WriteByte(row.Bell(p).Name())
	}
	return sb.String()
}

// ParseChange parses one change such as "x", "14" or "1258" at the given
// stage. Missing external places are implied: "4" on six bells is "14" and
// "3" is "36".
func ParseChange(tok string, stage row.Stage) (Change, error) {
	if tok == "x" || tok == "X" || tok == "-" {
		tok = ""
	}
	made := make([]bool, stage)
	for i := 0; i < len(tok); i++ {
		b, ok := row.BellFromName(tok[i])
		if !ok {
			return Change{}, fmt.Errorf("unknown place %q", tok[i])
		}
		if int(b) >= int(stage) {
			return Change{}, fmt.Errorf("place %c is outside stage %d", tok[i], stage)
		}
		made[b] = true
	}

	var places []int
	for p, ok := range made {
		if ok {
			places = append(places, p)
		}
	}

	// The gap before the first place and after the last may be odd; an
	// external place is implied there. Internal gaps must be even.
	if len(places) == 0 {
		if !stage.IsEven() {
			return Change{}, fmt.Errorf("cross change on odd stage %d", stage)
		}
	} else {
		if places[0]%2 == 1 {
			made[0] = true
		}
		last := places[len(places)-1]
		if (int(stage)-1-last)%2 == 1 {
			made[stage-1] = true
		}
		for i := 1; i < len(places); i++ {
			if (places[i]-places[i-1]-1)%2 == 1 {
				return Change{}, fmt.Errorf("places %c and %c leave an odd number of bells between them",
					row.Bell(places[i-1]).Name(), row.Bell(places[i]).Name())
			}
		}
		places = places[:0]
		for p, ok := range made {
			if ok {
				places = append(places, p)
			}
		}
	}

	perm := row.Rounds(stage)
	for i := 0; i < int(stage); {
		if made[i] {
			i++
			continue
		}
		perm[i], perm[i+1] = perm[i+1], perm[i]
		i += 2
	}
	return Change{places: places, perm: perm}, nil
}

// ParseNotation expands a place notation string into its changes.
//
// Changes are separated by '.', spaces or crosses ('x', 'X' or '-'). A comma
// splits the notation into segments that are each reflected about their
// last change, so "x16x16x16,12" is the twelve changes of Plain Bob Minor.
// A segment prefixed with '&' is always reflected and one prefixed with '+'
// never is.
func ParseNotation(s string, stage row.Stage) ([]Change, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty place notation")
	}
	segments := strings.Split(s, ",")
	var out []Change
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		reflect := len(segments) > 1
		switch {
		case strings.HasPrefix(seg, "&"):
			reflect, seg = true, seg[1:]
		case strings.HasPrefix(seg, "+"):
			reflect, seg = false, seg[1:]
		}
		changes, err := parseSequence(seg, stage)
		if err != nil {
			return nil, err
		}
		if len(changes) == 0 {
			return nil, fmt.Errorf("empty segment in %q", s)
		}
		out = append(out, changes...)
		if reflect {
			for i := len(changes) - 2; i >= 0; i-- {
				out = append(out, changes[i])
			}
		}
	}
	return out, nil
}

func parseSequence(seg string, stage row.Stage) ([]Change, error) {
	var out []Change
	var tok strings.Builder
	flush := func() error {
		if tok.Len() == 0 {
			return nil
		}
		c, err := ParseChange(tok.String(), stage)
		tok.Reset()
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	}
	for i := 0; i < len(seg); i++ {
		switch c := seg[i]; c {
		case 'x', 'X', '-':
			if err := flush(); err != nil {
				return nil, err
			}
			cross, err := ParseChange("x", stage)
			if err != nil {
				return nil, err
			}
			out = append(out, cross)
		case '.', ' ':
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			tok.WriteByte(c)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// NotationString renders changes back into compact place notation, without
// reflection, e.g. "x16x16x16x16x16x12".
func NotationString(changes []Change) string {
	var sb strings.Builder
	prevCross := true
	for _, c := range changes {
		if c.IsCross() {
			sb.WriteByte('x')
			prevCross = true
			continue
		}
		if !prevCross {
			sb.WriteByte('.')
		}
		sb.WriteString(c.String())
		prevCross = false
	}
	return sb.String()
}

// sortedLabels returns the labels of a map in a stable order.
func sortedLabels(m map[string][]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
