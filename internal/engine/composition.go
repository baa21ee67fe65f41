package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ringer/internal/graph"
	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/row"
)

// Composition is one accepted result.
type Composition struct {
	// ID is the content hash of the composition (see ir.CompositionID).
	ID     string
	Length int
	// PartLengths holds the length of each part.
	PartLengths []int
	PartHead    row.Row
	Score       float64
	// AvgScore is the score per row.
	AvgScore   float64
	CallString string
	// MethodCounts is the number of rows of each method.
	MethodCounts []int
	// MusicCounts is the number of matches of each music type.
	MusicCounts []int
	// Rows holds every row from rounds to the row before the final
	// rounds, over all parts.
	Rows []row.Row
}

// String renders the composition as one line of the result listing.
func (c *Composition) String() string {
	ms := make([]string, len(c.PartLengths))
	for i, l := range c.PartLengths {
		ms[i] = strconv.Itoa(l)
	}
	return fmt.Sprintf("len: %d, ms: [%s], score: %.2f, avg: %.6f, str: %s",
		c.Length, strings.Join(ms, ", "), c.Score, c.AvgScore, c.CallString)
}

// firstPart expands a path into the rows of the first part, and returns
// the part-head power reached after them.
func firstPart(g *graph.Graph, path []graph.Link) ([]row.Row, int) {
	var (
		rows []row.Row
		rot  int
	)
	for _, l := range path {
		rot += l.Rot
		if l.To == graph.Terminal {
			return rows, rot
		}
		c := &g.Chunks[l.To]
		elem := g.Course.Parts.Elem(rot)
		for _, r := range c.Rows {
			rows = append(rows, row.Mul(elem, r))
		}
		if c.End {
			rot += c.EndRot
		}
	}
	return rows, rot
}

// allParts repeats the first part under each power of the part head
// reached at its end.
func allParts(g *graph.Graph, part []row.Row, final int) []row.Row {
	n := g.Parts()
	rows := make([]row.Row, 0, len(part)*n)
	for j := 0; j < n; j++ {
		head := g.Course.Parts.Elem(final * j)
		for _, r := range part {
			rows = append(rows, row.Mul(head, r))
		}
	}
	return rows
}

// callString renders a path in the usual notation: calls as symbol and
// calling position, method shorthands for each lead when spliced or
// leadwise, "<" and ">" for snap starts and finishes, and a leading "#"
// for leadwise compositions.
func callString(g *graph.Graph, path []graph.Link) string {
	leadwise := g.Course.Leadwise
	showMethods := leadwise || g.Spec.IsSpliced()

	var sb strings.Builder
	if leadwise {
		sb.WriteByte('#')
	}
	if len(path) > 0 && path[0].To >= 0 && g.LeadIndex(path[0].To) != 0 {
		sb.WriteByte('<')
	}

	lead := 1
	last := -1
	for i, l := range path {
		if i > 0 && l.IsCall() {
			c := g.Calls.Call(l.Call)
			switch {
			case leadwise:
				fmt.Fprintf(&sb, "[%s%d]", c.Debug, lead)
			case showMethods:
				fmt.Fprintf(&sb, "[%s%s]", c.Symbol, l.Position)
			default:
				sb.WriteString(c.Symbol + l.Position)
			}
		}
		if l.To == graph.Terminal {
			break
		}

		last = l.To
		c := &g.Chunks[l.To]
		L := g.Methods[c.Method].LeadLen()
		starts := 0
		for k := 0; k < c.Len; k++ {
			if (c.Index+k)%L != 0 {
				continue
			}
			starts++
			if i > 0 || k > 0 {
				lead++
			}
		}
		if showMethods {
			if starts == 0 && (i == 0 || l.Splice) {
				starts = 1
			}
			sb.WriteString(strings.Repeat(g.Methods[c.Method].Shorthand, starts))
		}
	}

	if last >= 0 {
		c := &g.Chunks[last]
		if (c.Index+c.Len)%g.Methods[c.Method].LeadLen() != 0 {
			sb.WriteByte('>')
		}
	}
	return sb.String()
}

// compose builds the Composition for a completed path. It returns false
// when the composition breaks a music count range.
func compose(g *graph.Graph, path []graph.Link, length int, score float64, counts []int) (*Composition, bool, error) {
	part, final := firstPart(g, path)
	rows := allParts(g, part, final)

	music := g.Score.Music.Count(rows, g.Score.Start)
	if g.Score.Music.CheckCounts(music) >= 0 {
		return nil, false, nil
	}

	n := g.Parts()
	if n > 1 && length%2 == 1 && g.Score.StrokeSensitive() {
		score = rescore(g, path, rows)
	}
	str := callString(g, path)
	titles := make([]string, len(g.Methods))
	for i, m := range g.Methods {
		titles[i] = m.Title
	}
	partHead := g.Course.Parts.Elem(final)
	id, err := ir.CompositionID(int(g.Stage), partHead.String(), titles, g.LeadIndex(path[0].To), str, length*n)
	if err != nil {
		return nil, false, err
	}

	partLengths := make([]int, n)
	for i := range partLengths {
		partLengths[i] = length
	}
	return &Composition{
		ID:           id,
		Length:       length * n,
		PartLengths:  partLengths,
		PartHead:     partHead,
		Score:        score,
		AvgScore:     score / float64(length*n),
		CallString:   str,
		MethodCounts: append([]int(nil), counts...),
		MusicCounts:  music,
		Rows:         rows,
	}, true, nil
}

// rescore sums a composition's score directly from its rows. Chunk tables
// assume a fixed order of parts, which stroke-restricted music over an odd
// part length does not see.
func rescore(g *graph.Graph, path []graph.Link, rows []row.Row) float64 {
	total := g.Score.Music.Score(rows, g.Score.Start)
	for _, l := range path {
		total += l.Weight
		if l.To == graph.Terminal {
			continue
		}
		c := &g.Chunks[l.To]
		for _, e := range g.Course.Parts.Elems() {
			total += g.Score.CourseHeadWeight(row.Mul(e, c.Head)) * float64(c.Len)
		}
	}
	return total
}
