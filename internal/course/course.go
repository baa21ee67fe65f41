// Package course models the part-head group and the course-head classes
// that bound the search, and decides whether compositions are tracked
// leadwise or coursewise.
package course

import (
	"fmt"

	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/row"
)

// PartGroup is the cyclic group generated by a part head. Element k is the
// part head raised to the k-th power; element 0 is rounds.
//
// Thread-safety: PartGroup is immutable and safe for concurrent use.
type PartGroup struct {
	elems []row.Row
}

// NewPartGroup builds the group generated by head.
func NewPartGroup(head row.Row) *PartGroup {
	n := head.Order()
	g := &PartGroup{elems: make([]row.Row, n)}
	acc := row.Rounds(head.Stage())
	for i := 0; i < n; i++ {
		g.elems[i] = acc
		acc = row.Mul(acc, head)
	}
	return g
}

// Size returns the number of parts.
func (g *PartGroup) Size() int { return len(g.elems) }

// Head returns the part head, or rounds for a one-part composition.
func (g *PartGroup) Head() row.Row {
	if len(g.elems) == 1 {
		return g.elems[0]
	}
	return g.elems[1]
}

// Elem returns the part head raised to the power k (mod Size).
func (g *PartGroup) Elem(k int) row.Row {
	n := len(g.elems)
	return g.elems[((k%n)+n)%n]
}

// Elems returns every element in power order. The slice is shared and must
// not be modified.
func (g *PartGroup) Elems() []row.Row { return g.elems }

// IndexOf returns k such that r is the part head raised to the power k.
func (g *PartGroup) IndexOf(r row.Row) (int, bool) {
	for k, e := range g.elems {
		if e.Equal(r) {
			return k, true
		}
	}
	return 0, false
}

// Canonical picks the representative of r's class under left
// multiplication by the group. It returns c and d with
// r == row.Mul(g.Elem(d), c), where c is the smallest row in the class.
func (g *PartGroup) Canonical(r row.Row) (row.Row, int) {
	n := len(g.elems)
	if n == 1 {
		return r, 0
	}
	best, bestD := r, 0
	for d := 1; d < n; d++ {
		c := row.Mul(g.elems[n-d], r)
		if c.Less(best) {
			best, bestD = c, d
		}
	}
	return best, bestD
}

// IsGenerator reports whether element k generates the whole group, so that
// a part ending on it returns to rounds after exactly Size parts.
func (g *PartGroup) IsGenerator(k int) bool {
	return gcd(((k%len(g.elems))+len(g.elems))%len(g.elems), len(g.elems)) == 1
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Model holds the part group, tracking mode and course-head classes for one
// search. It is immutable after Build returns.
type Model struct {
	Stage row.Stage
	Parts *PartGroup

	// Leadwise is true when chunks are identified by lead heads rather than
	// course heads.
	Leadwise bool

	// Observe is the bell whose position names calling positions.
	Observe row.Bell

	courseHeads []row.Mask
	perMethod   [][]row.Mask
}

// Build validates the part head and derives the tracking mode and
// course-head masks for spec.
//
// Fails with InvalidPartHead when the part head is not a row of the stage,
// IncompatiblePartHead when coursewise tracking is requested but the part
// head moves the tenor or the course heads are not closed under the part
// group, and a config error when leadwise tracking is combined with course
// heads.
func Build(spec *ir.SearchSpec, stage row.Stage) (*Model, error) {
	head := row.Rounds(stage)
	if spec.PartHead != "" {
		r, err := row.ParseStage(spec.PartHead, stage)
		if err != nil {
			return nil, ir.NewInvalidPartHead(spec.PartHead, err.Error())
		}
		head = r
	}
	parts := NewPartGroup(head)

	m := &Model{Stage: stage, Parts: parts, Observe: stage.Tenor()}

	explicit := len(spec.CourseHeads) > 0
	for _, ms := range spec.Methods {
		if len(ms.CourseHeads) > 0 {
			explicit = true
		}
	}
	tenorFixed := head.Fixes(m.Observe)

	if spec.Leadwise != nil {
		if *spec.Leadwise && explicit {
			return nil, ir.NewConfigError("leadwise", "true", "course_heads cannot be used with leadwise tracking")
		}
		if !*spec.Leadwise && !tenorFixed {
			return nil, ir.NewIncompatiblePartHead("leadwise", "false",
				fmt.Sprintf("part head %s moves the tenor, so course heads are undefined", head))
		}
		m.Leadwise = *spec.Leadwise
	} else {
		m.Leadwise = !tenorFixed
		if m.Leadwise && explicit {
			return nil, ir.NewIncompatiblePartHead("course_heads", fmt.Sprintf("%v", spec.CourseHeads),
				fmt.Sprintf("part head %s moves the tenor, so course heads are undefined", head))
		}
	}

	if m.Leadwise {
		return m, nil
	}

	var err error
	if explicit && len(spec.CourseHeads) > 0 {
		m.courseHeads, err = parseMasks("course_heads", spec.CourseHeads, stage, parts)
	} else {
		m.courseHeads = []row.Mask{DefaultCourseHead(stage, head, spec.SplitTenors)}
	}
	if err != nil {
		return nil, err
	}

	m.perMethod = make([][]row.Mask, len(spec.Methods))
	for i, ms := range spec.Methods {
		if len(ms.CourseHeads) == 0 {
			continue
		}
		m.perMethod[i], err = parseMasks(fmt.Sprintf("method %q course_heads", ms.Title), ms.CourseHeads, stage, parts)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// DefaultCourseHead returns the tenors-together mask: the seventh and
// higher bells fixed in their home places, leaving out any bell the part
// head moves. With splitTenors every course head is allowed.
func DefaultCourseHead(stage row.Stage, partHead row.Row, splitTenors bool) row.Mask {
	if splitTenors {
		return row.AnyMask(stage)
	}
	var fixed []row.Bell
	for b := row.Bell(6); int(b) < int(stage); b++ {
		if partHead.Fixes(b) {
			fixed = append(fixed, b)
		}
	}
	return row.FixedBellsMask(stage, fixed)
}

func parseMasks(field string, patterns []string, stage row.Stage, parts *PartGroup) ([]row.Mask, error) {
	masks := make([]row.Mask, 0, len(patterns))
	for _, p := range patterns {
		mk, err := row.ParseMask(p, stage)
		if err != nil {
			return nil, ir.NewConfigError(field, p, err.Error())
		}
		masks = append(masks, mk)
	}
	// Every part of a composition must start in an allowed course, so the
	// masks must be closed under the part group.
	for _, mk := range masks {
		for _, g := range parts.Elems() {
			moved := mk.PreMul(g)
			covered := false
			for _, other := range masks {
				if moved.IsSubsetOf(other) {
					covered = true
					break
				}
			}
			if !covered {
				return nil, ir.NewIncompatiblePartHead(field, mk.String(),
					fmt.Sprintf("part head %s maps course head %s to %s, which is not allowed", parts.Head(), mk, moved))
			}
		}
	}
	return masks, nil
}

// Masks returns the course-head masks for method mi. In leadwise mode there
// are none and every lead head is allowed.
func (m *Model) Masks(mi int) []row.Mask {
	if m.Leadwise {
		return nil
	}
	if mi < len(m.perMethod) && m.perMethod[mi] != nil {
		return m.perMethod[mi]
	}
	return m.courseHeads
}

// Allows reports whether ch is an allowed course head for method mi.
func (m *Model) Allows(mi int, ch row.Row) bool {
	if m.Leadwise {
		return true
	}
	for _, mk := range m.Masks(mi) {
		if mk.Matches(ch) {
			return true
		}
	}
	return false
}
