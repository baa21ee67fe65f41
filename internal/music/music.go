// Package music compiles music definitions into a scorer that is evaluated
// against every row of a composition at its stroke.
package music

import (
	"fmt"
	"strings"

	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/row"
)

// DefaultWeight is used when a music definition gives no weight.
const DefaultWeight = 1.0

// Type is one compiled kind of music. A row scores once for every pattern
// it matches.
type Type struct {
	Name     string
	Patterns []row.Pattern
	Weight   float64
	Strokes  ir.StrokeSet
	// Count is checked only when a composition completes. Nil means any
	// count is accepted.
	Count *ir.Range
}

// Scorer evaluates every music type against rows.
//
// Thread-safety: Scorer is immutable after Compile and safe for concurrent
// use.
type Scorer struct {
	stage row.Stage
	types []Type
}

// Compile turns music specs into a Scorer for rows of stage. A spec with
// count_each becomes one type per pattern, each carrying the range.
func Compile(specs []ir.MusicSpec, stage row.Stage) (*Scorer, error) {
	s := &Scorer{stage: stage}
	for i, spec := range specs {
		field := fmt.Sprintf("music[%d]", i)
		if spec.Count != nil && spec.CountEach != nil {
			return nil, ir.NewConfigError(field, spec.Name, "count and count_each cannot both be set")
		}

		sources := append([]string(nil), spec.Patterns...)
		for _, n := range spec.RunLengths {
			runs, err := RunPatterns(n, stage, spec.Internal)
			if err != nil {
				return nil, ir.NewConfigError(field+".run_lengths", fmt.Sprint(n), err.Error())
			}
			sources = append(sources, runs...)
		}
		if len(sources) == 0 {
			return nil, ir.NewConfigError(field, spec.Name, "music needs at least one pattern or run length")
		}

		patterns := make([]row.Pattern, 0, len(sources))
		for _, src := range sources {
			p, err := row.ParsePattern(src, stage)
			if err != nil {
				return nil, ir.NewConfigError(field+".patterns", src, err.Error())
			}
			patterns = append(patterns, p)
		}

		name := spec.Name
		if name == "" {
			name = strings.Join(sources, ",")
		}

		if spec.CountEach != nil {
			for _, p := range patterns {
				r := *spec.CountEach
				s.types = append(s.types, Type{
					Name:     p.String(),
					Patterns: []row.Pattern{p},
					Weight:   spec.Weight,
					Strokes:  spec.Stroke,
					Count:    &r,
				})
			}
			continue
		}
		s.types = append(s.types, Type{
			Name:     name,
			Patterns: patterns,
			Weight:   spec.Weight,
			Strokes:  spec.Stroke,
			Count:    spec.Count,
		})
	}
	return s, nil
}

// RunPatterns returns the patterns matching ascending and descending runs of
// n consecutive bells at the front or back of a row. With internal the runs
// may occur anywhere in the row.
func RunPatterns(n int, stage row.Stage, internal bool) ([]string, error) {
	if n < 2 || n > int(stage) {
		return nil, fmt.Errorf("run length must be between 2 and %d", stage)
	}
	var runs []string
	for start := 0; start+n <= int(stage); start++ {
		var asc, desc strings.Builder
		for i := 0; i < n; i++ {
			asc.WriteByte(row.Bell(start + i).Name())
			desc.WriteByte(row.Bell(start + n - 1 - i).Name())
		}
		runs = append(runs, asc.String(), desc.String())
	}

	var out []string
	for _, r := range runs {
		switch {
		case internal:
			out = append(out, "*"+r+"*")
		case n == int(stage):
			out = append(out, r)
		default:
			out = append(out, r+"*", "*"+r)
		}
	}
	return out, nil
}

// Types returns the compiled music types. The slice is shared and must not
// be modified.
func (s *Scorer) Types() []Type { return s.types }

// Len returns the number of music types.
func (s *Scorer) Len() int { return len(s.types) }

// ScoreRow returns the weight earned by r at stroke and the index of every
// music type it matched, once per matching pattern.
func (s *Scorer) ScoreRow(r row.Row, stroke ir.Stroke) (float64, []int) {
	var (
		score   float64
		matched []int
	)
	for ti := range s.types {
		t := &s.types[ti]
		if !t.Strokes.Contains(stroke) {
			continue
		}
		for _, p := range t.Patterns {
			if p.Matches(r) {
				score += t.Weight
				matched = append(matched, ti)
			}
		}
	}
	return score, matched
}

// Score sums ScoreRow over rows, the first of which is at stroke start.
func (s *Scorer) Score(rows []row.Row, start ir.Stroke) float64 {
	var total float64
	for i, r := range rows {
		d, _ := s.ScoreRow(r, start.Offset(i))
		total += d
	}
	return total
}

// Count tallies matches per music type over rows, the first of which is at
// stroke start.
func (s *Scorer) Count(rows []row.Row, start ir.Stroke) []int {
	counts := make([]int, len(s.types))
	for i, r := range rows {
		_, matched := s.ScoreRow(r, start.Offset(i))
		for _, ti := range matched {
			counts[ti]++
		}
	}
	return counts
}

// CheckCounts reports the first music type whose count lies outside its
// range, or -1 when every count is acceptable.
func (s *Scorer) CheckCounts(counts []int) int {
	for ti, t := range s.types {
		if t.Count != nil && !t.Count.Contains(counts[ti]) {
			return ti
		}
	}
	return -1
}
