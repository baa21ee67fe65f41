// Package call builds the table of calls available at each lead location of
// each method, including the automatically generated bobs and singles.
package call

import (
	"fmt"
	"sort"

	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/method"
	"github.com/roach88/ringer/internal/row"
)

// Default weights.
const (
	DefaultBobWeight    = -1.8
	DefaultSingleWeight = -2.5
	DefaultMiscWeight   = -3.0
)

// Call replaces the change leading into a lead location with a different
// change.
type Call struct {
	// Symbol is shown in call strings; the plain bob's symbol is empty.
	Symbol string
	// Debug is the unambiguous symbol, "-" for a bob.
	Debug string
	// Label is the lead location whose incoming change is replaced.
	Label string
	// Change is the replacement change.
	Change method.Change
	// Positions names the calling position for each place of the
	// observation bell in the row after the call.
	Positions []string
	// Weight is added to the score each time the call is made.
	Weight float64
}

// Position returns the calling position for a row reached by this call.
func (c *Call) Position(after row.Row, observe row.Bell) string {
	p := after.PlaceOf(observe)
	if p < 0 || p >= len(c.Positions) {
		return "?"
	}
	return c.Positions[p]
}

// Table holds every call and, for each method, the calls available at each
// of its labels. It is immutable after BuildTable returns.
type Table struct {
	calls    []Call
	byMethod []map[string][]int
}

// BuildTable resolves base calls and custom calls against the methods.
//
// Fails with DuplicateCallSymbol when two calls at one lead location share a
// symbol, and with a config error when a call names a lead location that no
// method defines or gives the wrong number of calling positions.
func BuildTable(specs []ir.CallSpec, base ir.BaseCalls, bobWeight, singleWeight float64, methods []*method.Method) (*Table, error) {
	if len(methods) == 0 {
		return nil, ir.NewConfigError("methods", "", "at least one method is required")
	}
	stage := methods[0].Stage()

	t := &Table{}
	baseCalls, err := BaseCalls(base, stage, bobWeight, singleWeight)
	if err != nil {
		return nil, err
	}
	t.calls = append(t.calls, baseCalls...)

	for i, spec := range specs {
		c, err := fromSpec(i, spec, stage)
		if err != nil {
			return nil, err
		}
		t.calls = append(t.calls, c)
	}

	// Every call's label must exist somewhere, and symbols must be unique
	// per label.
	symbols := make(map[string]map[string]bool)
	for _, c := range t.calls {
		found := false
		for _, m := range methods {
			if m.HasLabel(c.Label) {
				found = true
				break
			}
		}
		if !found {
			return nil, ir.NewConfigError("calls.lead_location", c.Label,
				fmt.Sprintf("call %q uses a lead location no method defines", c.Debug))
		}
		if symbols[c.Label] == nil {
			symbols[c.Label] = make(map[string]bool)
		}
		if symbols[c.Label][c.Symbol] {
			return nil, ir.NewDuplicateCallSymbol(c.Label, c.Symbol)
		}
		symbols[c.Label][c.Symbol] = true
	}

	t.byMethod = make([]map[string][]int, len(methods))
	for mi, m := range methods {
		t.byMethod[mi] = make(map[string][]int)
		for ci, c := range t.calls {
			if m.HasLabel(c.Label) {
				t.byMethod[mi][c.Label] = append(t.byMethod[mi][c.Label], ci)
			}
		}
	}
	return t, nil
}

func fromSpec(i int, spec ir.CallSpec, stage row.Stage) (Call, error) {
	field := fmt.Sprintf("calls[%d]", i)
	change, err := method.ParseChange(spec.PlaceNotation, stage)
	if err != nil {
		return Call{}, ir.NewInvalidPlaceNotation(field+".place_notation", spec.PlaceNotation, err.Error())
	}
	label := spec.LeadLocation
	if label == "" {
		label = method.LeadEnd
	}
	debug := spec.DebugSymbol
	if debug == "" {
		debug = spec.Symbol
	}
	positions := spec.CallingPositions
	if len(positions) == 0 {
		positions = DefaultCallingPositions(change, stage)
	} else if len(positions) != int(stage) {
		return Call{}, ir.NewConfigError(field+".calling_positions", fmt.Sprintf("%v", positions),
			fmt.Sprintf("expected %d calling positions, got %d", stage, len(positions)))
	}
	return Call{
		Symbol:    spec.Symbol,
		Debug:     debug,
		Label:     label,
		Change:    change,
		Positions: positions,
		Weight:    spec.Weight,
	}, nil
}

// BaseCalls generates the bob and single for a base call type at the lead
// end. Near calls are 14 bobs and 1234 singles; far calls make places at
// the back, 1(n-2) bobs and 1(n-2)(n-1)n singles.
func BaseCalls(base ir.BaseCalls, stage row.Stage, bobWeight, singleWeight float64) ([]Call, error) {
	if base == ir.BaseCallsNone {
		return nil, nil
	}
	n := int(stage)
	var bobPN, singlePN string
	switch base {
	case ir.BaseCallsNear:
		bobPN, singlePN = "14", "1234"
	case ir.BaseCallsFar:
		name := func(place int) string { return row.Bell(place - 1).String() }
		bobPN = "1" + name(n-2)
		singlePN = "1" + name(n-2) + name(n-1) + name(n)
	}

	bob, err := method.ParseChange(bobPN, stage)
	if err != nil {
		return nil, ir.NewInvalidPlaceNotation("base_calls", bobPN, err.Error())
	}
	single, err := method.ParseChange(singlePN, stage)
	if err != nil {
		return nil, ir.NewInvalidPlaceNotation("base_calls", singlePN, err.Error())
	}
	return []Call{
		{Symbol: "", Debug: "-", Label: method.LeadEnd, Change: bob, Positions: DefaultCallingPositions(bob, stage), Weight: bobWeight},
		{Symbol: "s", Debug: "s", Label: method.LeadEnd, Change: single, Positions: DefaultCallingPositions(single, stage), Weight: singleWeight},
	}, nil
}

// DefaultCallingPositions names the calling positions for a call's change:
// L, I, B, F, V, X, S, E, N then "<n>ths", with B and T replacing I and B
// when seconds are made, and M, W and H for the back three places (W, M, H
// on odd stages) from fifths up.
func DefaultCallingPositions(c method.Change, stage row.Stage) []string {
	const named = "LIBFVXSEN"
	n := int(stage)
	positions := make([]string, n)
	for i := range positions {
		if i < len(named) {
			positions[i] = string(named[i])
		} else {
			positions[i] = fmt.Sprintf("%dths", i+1)
		}
	}

	if c.Makes(1) {
		set(positions, 1, "B")
		set(positions, 2, "T")
	}

	back := [3]string{"H", "W", "M"}
	if !stage.IsEven() {
		back = [3]string{"H", "M", "W"}
	}
	for fromBack, name := range back {
		place := n - 1 - fromBack
		if place >= 4 {
			set(positions, place, name)
		}
	}
	return positions
}

func set(positions []string, i int, v string) {
	if i < len(positions) {
		positions[i] = v
	}
}

// Calls returns every call. The slice is shared and must not be modified.
func (t *Table) Calls() []Call { return t.calls }

// Call returns call i.
func (t *Table) Call(i int) *Call { return &t.calls[i] }

// Len returns the number of calls.
func (t *Table) Len() int { return len(t.calls) }

// At returns the indices of the calls available to method mi at label.
func (t *Table) At(mi int, label string) []int { return t.byMethod[mi][label] }

// AtLabels returns the calls available to method mi at any of labels, in
// call order.
func (t *Table) AtLabels(mi int, labels []string) []int {
	if len(labels) == 1 {
		return t.At(mi, labels[0])
	}
	var out []int
	for _, l := range labels {
		out = append(out, t.At(mi, l)...)
	}
	sort.Ints(out)
	return out
}

// MaxWeight returns the largest call weight, or 0 with no calls.
func (t *Table) MaxWeight() float64 {
	if len(t.calls) == 0 {
		return 0
	}
	best := t.calls[0].Weight
	for _, c := range t.calls[1:] {
		if c.Weight > best {
			best = c.Weight
		}
	}
	return best
}
