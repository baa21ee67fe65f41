// Package score aggregates everything that contributes to a composition's
// score: music, course-head weights, call weights and splices. It also owns
// the method-count ranges and the optimistic per-row rate used to bound the
// search.
package score

import (
	"fmt"
	"math"

	"github.com/roach88/ringer/internal/course"
	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/music"
	"github.com/roach88/ringer/internal/row"
)

// Table is indexed by the parity of the part length, then by the parity of
// the number of rows rung before the scored rows. Multi-part compositions
// with an odd part length ring alternate parts at opposite strokes, so the
// score of a block of rows depends on both.
type Table [2][2]float64

// Add returns the element-wise sum.
func (t Table) Add(o Table) Table {
	for q := range t {
		for s := range t[q] {
			t[q][s] += o[q][s]
		}
	}
	return t
}

// Max returns the largest entry.
func (t Table) Max() float64 {
	best := math.Inf(-1)
	for q := range t {
		for s := range t[q] {
			best = math.Max(best, t[q][s])
		}
	}
	return best
}

// Flat returns a table with every entry set to v.
func Flat(v float64) Table { return Table{{v, v}, {v, v}} }

type weightedPattern struct {
	pattern row.Pattern
	weight  float64
}

// Aggregator scores blocks of rows and transitions for one search.
//
// Thread-safety: Aggregator is immutable after New and safe for concurrent
// use.
type Aggregator struct {
	Music *music.Scorer
	Parts *course.PartGroup
	Start ir.Stroke

	chWeights    []weightedPattern
	spliceWeight float64
	ranges       []ir.Range
	length       ir.Length
}

// New compiles music and course-head weights and checks that the method
// count ranges can be satisfied within the length range.
func New(spec *ir.SearchSpec, stage row.Stage, parts *course.PartGroup) (*Aggregator, error) {
	m, err := music.Compile(spec.Music, stage)
	if err != nil {
		return nil, err
	}
	a := &Aggregator{
		Music:        m,
		Parts:        parts,
		Start:        spec.StartStroke,
		spliceWeight: spec.SpliceWeight,
		length:       spec.Length,
	}

	for i, w := range spec.CourseHeadWeights {
		for _, src := range w.Patterns {
			p, err := row.ParsePattern(src, stage)
			if err != nil {
				return nil, ir.NewConfigError(fmt.Sprintf("ch_weights[%d].patterns", i), src, err.Error())
			}
			a.chWeights = append(a.chWeights, weightedPattern{pattern: p, weight: w.Weight})
		}
	}
	if spec.HandbellCoursingWeight != 0 {
		for _, src := range HandbellPatterns(stage) {
			a.chWeights = append(a.chWeights, weightedPattern{
				pattern: row.MustParsePattern(src, stage),
				weight:  spec.HandbellCoursingWeight,
			})
		}
	}

	a.ranges = make([]ir.Range, len(spec.Methods))
	minSum, maxSum := 0, 0
	for i, ms := range spec.Methods {
		r := spec.MethodCount
		if ms.CountRange != nil {
			r = *ms.CountRange
		}
		if r.Min == 0 && r.Max == 0 {
			r = ir.OpenRange()
		}
		if r.Min > r.Max {
			return nil, ir.NewConfigError(fmt.Sprintf("methods[%d].count_range", i), r.String(), "minimum exceeds maximum")
		}
		a.ranges[i] = r
		minSum += r.Min
		if maxSum < math.MaxInt-r.Max {
			maxSum += r.Max
		} else {
			maxSum = math.MaxInt
		}
	}
	if minSum > spec.Length.Max {
		return nil, ir.NewConfigError("method_count", fmt.Sprint(minSum),
			fmt.Sprintf("method count minimums add up to %d rows, more than the maximum length %d", minSum, spec.Length.Max))
	}
	if maxSum < spec.Length.Min {
		return nil, ir.NewConfigError("method_count", fmt.Sprint(maxSum),
			fmt.Sprintf("method count maximums add up to %d rows, less than the minimum length %d", maxSum, spec.Length.Min))
	}
	return a, nil
}

// HandbellPatterns returns course-head patterns with a handbell pair
// coursing at the back, in either order.
func HandbellPatterns(stage row.Stage) []string {
	var out []string
	for b := 0; b+1 < int(stage); b += 2 {
		lo, hi := row.Bell(b).String(), row.Bell(b+1).String()
		out = append(out, "*"+hi+lo, "*"+lo+hi)
	}
	return out
}

// CourseHeadWeight returns the per-row weight earned in a course whose head
// is ch.
func (a *Aggregator) CourseHeadWeight(ch row.Row) float64 {
	var w float64
	for _, p := range a.chWeights {
		if p.pattern.Matches(ch) {
			w += p.weight
		}
	}
	return w
}

// Block scores a block of rows from every part of the composition. ch is
// the course head (or lead head) of the first part and rows are the
// first part's rows.
func (a *Aggregator) Block(ch row.Row, rows []row.Row) Table {
	var t Table
	n := len(rows)
	moved := make(row.Row, len(ch))
	for j, g := range a.Parts.Elems() {
		chw := a.CourseHeadWeight(row.Mul(g, ch)) * float64(n)

		// Music earned by this part's rows when the first is at each stroke.
		var m [2]float64
		for _, first := range []ir.Stroke{ir.Back, ir.Hand} {
			for i, r := range rows {
				for k, b := range r {
					moved[k] = g[b]
				}
				d, _ := a.Music.ScoreRow(moved, first.Offset(i))
				m[first] += d
			}
		}

		for q := 0; q < 2; q++ {
			for s := 0; s < 2; s++ {
				t[q][s] += chw + m[a.Start.Offset(j*q+s)]
			}
		}
	}
	return t
}

// Ceiling bounds the score of a block of rows over every part whatever
// stroke each part starts at. Block's entries assume the parts are rung in
// the order of the part head's powers, so with an odd part length and
// stroke-restricted music the real score can differ from them; Ceiling
// never falls below it.
func (a *Aggregator) Ceiling(ch row.Row, rows []row.Row) float64 {
	var total float64
	moved := make(row.Row, len(ch))
	for _, g := range a.Parts.Elems() {
		total += a.CourseHeadWeight(row.Mul(g, ch)) * float64(len(rows))
		var m [2]float64
		for _, first := range []ir.Stroke{ir.Back, ir.Hand} {
			for i, r := range rows {
				for k, b := range r {
					moved[k] = g[b]
				}
				d, _ := a.Music.ScoreRow(moved, first.Offset(i))
				m[first] += d
			}
		}
		total += math.Max(m[0], m[1])
	}
	return total
}

// StrokeSensitive reports whether any music type is restricted to one
// stroke.
func (a *Aggregator) StrokeSensitive() bool {
	for _, t := range a.Music.Types() {
		if t.Strokes != ir.StrokeBoth {
			return true
		}
	}
	return false
}

// Link returns the weight of a transition, counted once per part.
func (a *Aggregator) Link(callWeight float64, splice bool) float64 {
	w := callWeight
	if splice {
		w += a.spliceWeight
	}
	return w * float64(a.Parts.Size())
}

// MethodRange returns the allowed row count for method mi over the whole
// composition.
func (a *Aggregator) MethodRange(mi int) ir.Range { return a.ranges[mi] }

// CheckMethodCounts returns the first method whose count is out of range,
// or -1.
func (a *Aggregator) CheckMethodCounts(counts []int) int {
	for mi, c := range counts {
		if !a.ranges[mi].Contains(c) {
			return mi
		}
	}
	return -1
}

// Rate is the best score per row a block can earn, given its ceiling.
func Rate(ceiling float64, rows int) float64 {
	if rows == 0 {
		return 0
	}
	return ceiling / float64(rows)
}

// Bound returns an upper bound on the final score of a composition whose
// score so far is current, with between minRows and maxRows rows still to
// come, each earning at most rate, and one final transition worth at most
// lastLink.
func Bound(current, rate float64, minRows, maxRows int, lastLink float64) float64 {
	rest := rate * float64(maxRows)
	if rate < 0 {
		rest = rate * float64(minRows)
	}
	return current + rest + math.Max(0, lastLink)
}
