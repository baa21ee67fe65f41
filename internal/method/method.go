// Package method expands place notation into leads and plain courses and
// records the named lead locations where calls and splices may happen.
package method

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/row"
)

// LeadEnd is the default lead-location label, placed at index 0 so that it
// marks the boundary between one lead and the next.
const LeadEnd = "LE"

// Method is one expanded method. It is immutable after Expand returns and
// safe for concurrent use.
type Method struct {
	Title     string
	Shorthand string
	Notation  string

	stage    row.Stage
	changes  []Change
	lead     []row.Row
	leadHead row.Row
	course   []row.Row
	labels   [][]string
	labelIdx map[string][]int
}

// Expand parses spec.PlaceNotation at spec.Stage and builds the lead, plain
// course and lead-location tables.
//
// Fails with an InvalidPlaceNotation error when a change is malformed or a
// place lies outside the stage, or when the lead repeats a row before it
// closes. Lead locations outside the lead are a config error.
func Expand(spec ir.MethodSpec) (*Method, error) {
	field := fmt.Sprintf("method %q place_notation", spec.Title)
	if spec.Stage < 2 || spec.Stage > row.MaxStage {
		return nil, ir.NewConfigError(fmt.Sprintf("method %q stage", spec.Title), fmt.Sprintf("%d", spec.Stage),
			fmt.Sprintf("stage must be between 2 and %d", row.MaxStage))
	}
	stage := row.Stage(spec.Stage)

	changes, err := ParseNotation(spec.PlaceNotation, stage)
	if err != nil {
		return nil, ir.NewInvalidPlaceNotation(field, spec.PlaceNotation, err.Error())
	}

	m := &Method{
		Title:     spec.Title,
		Shorthand: spec.Shorthand,
		Notation:  spec.PlaceNotation,
		stage:     stage,
		changes:   changes,
	}
	if m.Shorthand == "" {
		m.Shorthand = DefaultShorthand(spec.Title)
	}

	// One lead starting from rounds. Every row of the lead must be distinct,
	// otherwise the lead never closes cyclically.
	seen := make(map[string]int, len(changes))
	r := row.Rounds(stage)
	for i, c := range changes {
		if prev, ok := seen[r.Key()]; ok {
			return nil, ir.NewInvalidPlaceNotation(field, spec.PlaceNotation,
				fmt.Sprintf("row %s repeats at indices %d and %d within the lead", r, prev, i))
		}
		seen[r.Key()] = i
		m.lead = append(m.lead, r)
		r = row.Mul(r, c.Perm())
	}
	m.leadHead = r
	if prev, ok := seen[r.Key()]; ok && prev != 0 {
		return nil, ir.NewInvalidPlaceNotation(field, spec.PlaceNotation,
			fmt.Sprintf("lead head %s repeats row %d of the lead", r, prev))
	}

	// The plain course repeats the lead until the lead head returns to rounds.
	leads := m.leadHead.Order()
	lh := row.Rounds(stage)
	m.course = make([]row.Row, 0, leads*len(m.lead))
	for l := 0; l < leads; l++ {
		for _, lr := range m.lead {
			m.course = append(m.course, row.Mul(lh, lr))
		}
		lh = row.Mul(lh, m.leadHead)
	}

	if err := m.buildLabels(spec.LeadLocations); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Method) buildLabels(locations map[string][]int) error {
	if len(locations) == 0 {
		locations = map[string][]int{LeadEnd: {0}}
	}
	n := len(m.lead)
	m.labels = make([][]string, n)
	m.labelIdx = make(map[string][]int, len(locations))
	for _, label := range sortedLabels(locations) {
		for _, idx := range locations[label] {
			if idx <= -n || idx >= n {
				return ir.NewConfigError(fmt.Sprintf("method %q lead_locations.%s", m.Title, label),
					fmt.Sprintf("%d", idx), fmt.Sprintf("index outside lead of length %d", n))
			}
			i := (idx + n) % n
			m.labels[i] = append(m.labels[i], label)
			m.labelIdx[label] = append(m.labelIdx[label], i)
		}
	}
	if len(m.labelIdx) == 0 {
		return ir.NewConfigError(fmt.Sprintf("method %q lead_locations", m.Title), "", "at least one lead location is required")
	}
	return nil
}

// DefaultShorthand is the first character of a title.
func DefaultShorthand(title string) string {
	if title == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(title)
	return title[:size]
}

// Stage returns the method's stage.
func (m *Method) Stage() row.Stage { return m.stage }

// LeadLen returns the number of rows in one lead.
func (m *Method) LeadLen() int { return len(m.lead) }

// LeadHead returns the first row of the second lead of the plain course.
func (m *Method) LeadHead() row.Row { return m.leadHead }

// LeadRow returns row i (0 <= i < LeadLen) of the lead starting at rounds.
func (m *Method) LeadRow(i int) row.Row { return m.lead[i] }

// Lead returns the rows of the lead starting at rounds. The slice is shared
// and must not be modified.
func (m *Method) Lead() []row.Row { return m.lead }

// Change returns the change taking lead row i to row i+1; the last change
// produces the next lead head.
func (m *Method) Change(i int) Change { return m.changes[i] }

// LeadEndChange returns the change that produces the lead head.
func (m *Method) LeadEndChange() Change { return m.changes[len(m.changes)-1] }

// PlainCourse returns the rows of the plain course, starting at rounds. The
// slice is shared and must not be modified.
func (m *Method) PlainCourse() []row.Row { return m.course }

// CourseLen returns the number of rows in the plain course.
func (m *Method) CourseLen() int { return len(m.course) }

// LeadsPerCourse returns the number of leads in the plain course.
func (m *Method) LeadsPerCourse() int { return len(m.course) / len(m.lead) }

// Labels returns the lead-location labels at lead index i.
func (m *Method) Labels(i int) []string { return m.labels[i%len(m.lead)] }

// IsLabelled reports whether any label sits at lead index i.
func (m *Method) IsLabelled(i int) bool { return len(m.labels[i%len(m.lead)]) > 0 }

// LabelIndices returns the lead indices carrying label.
func (m *Method) LabelIndices(label string) []int { return m.labelIdx[label] }

// HasLabel reports whether the method defines label.
func (m *Method) HasLabel(label string) bool { return len(m.labelIdx[label]) > 0 }

// NextLabelled returns the distance from lead index i to the next labelled
// index strictly after it, wrapping into the next lead. A method always has
// at least one label, so the distance is between 1 and LeadLen.
func (m *Method) NextLabelled(i int) int {
	n := len(m.lead)
	for d := 1; d <= n; d++ {
		if len(m.labels[(i+d)%n]) > 0 {
			return d
		}
	}
	return n
}

// String implements fmt.Stringer.
func (m *Method) String() string {
	return fmt.Sprintf("%s (%s)", m.Title, m.Notation)
}
