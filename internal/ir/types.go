package ir

import (
	"fmt"
	"math"
)

// Length is an inclusive range of total composition lengths in rows.
type Length struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Named length presets.
var (
	LengthPractice = Length{Min: 0, Max: 300}
	LengthQP       = Length{Min: 1250, Max: 1350}
	LengthHalfPeal = Length{Min: 2500, Max: 2600}
	LengthPeal     = Length{Min: 5000, Max: 5200}
)

// LengthPresets maps preset names to their ranges.
var LengthPresets = map[string]Length{
	"practice":  LengthPractice,
	"QP":        LengthQP,
	"half peal": LengthHalfPeal,
	"peal":      LengthPeal,
}

// ExactLength returns the range containing only n.
func ExactLength(n int) Length { return Length{Min: n, Max: n} }

// Contains reports whether n lies inside the range.
func (l Length) Contains(n int) bool { return n >= l.Min && n <= l.Max }

// Range is an inclusive count range. An unbounded maximum is math.MaxInt.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// OpenRange returns the range [0, ∞).
func OpenRange() Range { return Range{Min: 0, Max: math.MaxInt} }

// Contains reports whether n lies inside the range.
func (r Range) Contains(n int) bool { return n >= r.Min && n <= r.Max }

// String renders the range as "min..max" with an empty upper bound when open.
func (r Range) String() string {
	if r.Max == math.MaxInt {
		return fmt.Sprintf("%d..", r.Min)
	}
	return fmt.Sprintf("%d..%d", r.Min, r.Max)
}

// SpliceStyle controls where the search may change method.
type SpliceStyle int

const (
	// SpliceLeads allows a method change at every lead location.
	SpliceLeads SpliceStyle = iota
	// SpliceCallLocations allows a change only where a call could occur.
	SpliceCallLocations
	// SpliceCalls allows a change only where a call is actually made.
	SpliceCalls
)

var spliceStyleNames = map[SpliceStyle]string{
	SpliceLeads:         "leads",
	SpliceCallLocations: "call locations",
	SpliceCalls:         "calls",
}

// String implements fmt.Stringer.
func (s SpliceStyle) String() string { return spliceStyleNames[s] }

// ParseSpliceStyle parses the configuration spelling of a splice style.
func ParseSpliceStyle(s string) (SpliceStyle, error) {
	for k, v := range spliceStyleNames {
		if v == s {
			return k, nil
		}
	}
	return 0, NewConfigError("splice_style", s, `expected "leads", "call locations" or "calls"`)
}

// BaseCalls selects which bob and single are generated automatically.
type BaseCalls int

const (
	// BaseCallsNear generates 14 bobs and 1234 singles.
	BaseCallsNear BaseCalls = iota
	// BaseCallsFar generates bobs and singles made at the back.
	BaseCallsFar
	// BaseCallsNone generates no calls.
	BaseCallsNone
)

var baseCallNames = map[BaseCalls]string{
	BaseCallsNear: "near",
	BaseCallsFar:  "far",
	BaseCallsNone: "none",
}

// String implements fmt.Stringer.
func (b BaseCalls) String() string { return baseCallNames[b] }

// ParseBaseCalls parses the configuration spelling of a base call type.
func ParseBaseCalls(s string) (BaseCalls, error) {
	for k, v := range baseCallNames {
		if v == s {
			return k, nil
		}
	}
	return 0, NewConfigError("base_calls", s, `expected "near", "far" or "none"`)
}

// Stroke is handstroke or backstroke.
type Stroke int

const (
	// Back is backstroke.
	Back Stroke = iota
	// Hand is handstroke.
	Hand
)

// String implements fmt.Stringer.
func (s Stroke) String() string {
	if s == Hand {
		return "hand"
	}
	return "back"
}

// Offset returns the stroke i rows after s.
func (s Stroke) Offset(i int) Stroke {
	if i%2 == 0 {
		return s
	}
	return 1 - s
}

// ParseStroke parses "hand" or "back".
func ParseStroke(s string) (Stroke, error) {
	switch s {
	case "back":
		return Back, nil
	case "hand":
		return Hand, nil
	}
	return 0, NewConfigError("start_stroke", s, `expected "back" or "hand"`)
}

// StrokeSet restricts music to one or both strokes.
type StrokeSet int

const (
	// StrokeBoth counts music at either stroke.
	StrokeBoth StrokeSet = iota
	// StrokeHand counts music only at handstroke.
	StrokeHand
	// StrokeBack counts music only at backstroke.
	StrokeBack
)

// Contains reports whether the set includes s.
func (ss StrokeSet) Contains(s Stroke) bool {
	switch ss {
	case StrokeHand:
		return s == Hand
	case StrokeBack:
		return s == Back
	}
	return true
}

// ParseStrokeSet parses "both", "hand" or "back".
func ParseStrokeSet(s string) (StrokeSet, error) {
	switch s {
	case "", "both":
		return StrokeBoth, nil
	case "hand":
		return StrokeHand, nil
	case "back":
		return StrokeBack, nil
	}
	return 0, NewConfigError("music.stroke", s, `expected "both", "hand" or "back"`)
}

// MethodSpec is one method as requested by the configuration, after title
// lookup.
type MethodSpec struct {
	Title         string `json:"title"`
	Shorthand     string `json:"shorthand"`
	PlaceNotation string `json:"place_notation"`
	Stage         int    `json:"stage"`

	// LeadLocations maps a label to its indices within the lead. Negative
	// indices count back from the lead end. Empty means {"LE": [0]}.
	LeadLocations map[string][]int `json:"lead_locations,omitempty"`

	// CourseHeads overrides the global course-head masks for this method.
	CourseHeads []string `json:"course_heads,omitempty"`

	// CountRange overrides the global method count range for this method.
	CountRange *Range `json:"count_range,omitempty"`
}

// CallSpec is a custom call.
type CallSpec struct {
	Symbol           string   `json:"symbol"`
	DebugSymbol      string   `json:"debug_symbol,omitempty"`
	PlaceNotation    string   `json:"place_notation"`
	LeadLocation     string   `json:"lead_location"`
	CallingPositions []string `json:"calling_positions,omitempty"`
	Weight           float64  `json:"weight"`
}

// MusicSpec is one kind of music to score.
type MusicSpec struct {
	Name       string    `json:"name,omitempty"`
	Patterns   []string  `json:"patterns,omitempty"`
	RunLengths []int     `json:"run_lengths,omitempty"`
	Internal   bool      `json:"internal,omitempty"`
	Weight     float64   `json:"weight"`
	Count      *Range    `json:"count,omitempty"`
	CountEach  *Range    `json:"count_each,omitempty"`
	Stroke     StrokeSet `json:"stroke"`
}

// CourseHeadWeight scores every row in a course whose head matches one of
// the patterns.
type CourseHeadWeight struct {
	Patterns []string `json:"patterns"`
	Weight   float64  `json:"weight"`
}

// SearchSpec is the normalized parameter set consumed by the table builders
// and the search engine. It carries no defaults of its own: the compiler
// fills every field.
type SearchSpec struct {
	Length     Length `json:"length"`
	NumComps   int    `json:"num_comps"`
	AllowFalse bool   `json:"allow_false"`

	Methods      []MethodSpec `json:"methods"`
	SpliceStyle  SpliceStyle  `json:"splice_style"`
	SpliceWeight float64      `json:"splice_weight"`
	MethodCount  Range        `json:"method_count"`

	BaseCalls    BaseCalls  `json:"base_calls"`
	BobWeight    float64    `json:"bob_weight"`
	SingleWeight float64    `json:"single_weight"`
	Calls        []CallSpec `json:"calls,omitempty"`

	Music       []MusicSpec `json:"music,omitempty"`
	StartStroke Stroke      `json:"start_stroke"`

	PartHead               string             `json:"part_head,omitempty"`
	CourseHeads            []string           `json:"course_heads,omitempty"`
	SplitTenors            bool               `json:"split_tenors"`
	CourseHeadWeights      []CourseHeadWeight `json:"ch_weights,omitempty"`
	HandbellCoursingWeight float64            `json:"handbell_coursing_weight"`

	// Leadwise forces leadwise (true) or coursewise (false) tracking. Nil
	// derives the mode from the part head.
	Leadwise *bool `json:"leadwise,omitempty"`

	SnapStart    bool  `json:"snap_start"`
	StartIndices []int `json:"start_indices"`
	// EndIndices restricts where a composition may come round. Nil allows
	// any index.
	EndIndices []int `json:"end_indices,omitempty"`
}

// Stage returns the stage shared by every method, or 0 when there are none.
func (s *SearchSpec) Stage() int {
	if len(s.Methods) == 0 {
		return 0
	}
	return s.Methods[0].Stage
}

// IsSpliced reports whether more than one method is in play.
func (s *SearchSpec) IsSpliced() bool { return len(s.Methods) > 1 }
