package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/course"
	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/row"
)

func baseSpec() *ir.SearchSpec {
	return &ir.SearchSpec{
		Length:  ir.LengthQP,
		Methods: []ir.MethodSpec{{Title: "Plain Bob Major", PlaceNotation: "x18x18x18x18,12", Stage: 8}},
	}
}

func rows(ss ...string) []row.Row {
	out := make([]row.Row, len(ss))
	for i, s := range ss {
		out[i] = row.MustParse(s)
	}
	return out
}

func onePart() *course.PartGroup { return course.NewPartGroup(row.Rounds(row.Major)) }

func TestAggregator_BlockMusicByStroke(t *testing.T) {
	spec := baseSpec()
	spec.Music = []ir.MusicSpec{{Patterns: []string{"*5678"}, Weight: 1, Stroke: ir.StrokeBack}}

	a, err := New(spec, row.Major, onePart())
	require.NoError(t, err)

	// Both rows end in 5678; one of them is always at backstroke.
	tab := a.Block(row.Rounds(row.Major), rows("12345678", "21345678"))
	assert.Equal(t, 1.0, tab[0][0])
	assert.Equal(t, 1.0, tab[0][1])

	tab = a.Block(row.Rounds(row.Major), rows("12345678"))
	assert.Equal(t, 1.0, tab[0][0])
	assert.Equal(t, 0.0, tab[0][1])
}

func TestAggregator_BlockSumsOverParts(t *testing.T) {
	spec := baseSpec()
	spec.PartHead = "13425678"
	spec.Music = []ir.MusicSpec{{Patterns: []string{"1234*"}, Weight: 1}}

	parts := course.NewPartGroup(row.MustParse("13425678"))
	a, err := New(spec, row.Major, parts)
	require.NoError(t, err)

	// Only the first part's copy of rounds starts 1234.
	tab := a.Block(row.Rounds(row.Major), rows("12345678"))
	assert.Equal(t, Flat(1), tab)
	assert.False(t, a.StrokeSensitive())
}

func TestAggregator_OddPartLengthAlternatesStrokes(t *testing.T) {
	spec := baseSpec()
	spec.PartHead = "12345687"
	spec.Music = []ir.MusicSpec{{Patterns: []string{"*78"}, Weight: 1, Stroke: ir.StrokeBack}}

	parts := course.NewPartGroup(row.MustParse("12345687"))
	a, err := New(spec, row.Major, parts)
	require.NoError(t, err)

	// Part 0 rings 12345678 and part 1 rings 12345687.
	tab := a.Block(row.Rounds(row.Major), rows("12345678"))
	assert.Equal(t, 1.0, tab[0][0], "even part length, first row at back")
	assert.Equal(t, 0.0, tab[0][1], "even part length, first row at hand")
	assert.Equal(t, 1.0, tab[1][0], "odd part length, part 0 at back")
	assert.Equal(t, 0.0, tab[1][1], "odd part length, part 0 at hand")
}

func TestAggregator_CeilingCoversEveryAlignment(t *testing.T) {
	spec := baseSpec()
	spec.PartHead = "12345687"
	spec.Music = []ir.MusicSpec{{Patterns: []string{"*78"}, Weight: 1, Stroke: ir.StrokeBack}}

	parts := course.NewPartGroup(row.MustParse("12345687"))
	a, err := New(spec, row.Major, parts)
	require.NoError(t, err)
	assert.True(t, a.StrokeSensitive())

	block := rows("12345678", "12345687")
	tab := a.Block(row.Rounds(row.Major), block)
	ceiling := a.Ceiling(row.Rounds(row.Major), block)
	assert.Equal(t, 2.0, ceiling)
	assert.GreaterOrEqual(t, ceiling, tab.Max())
}

func TestAggregator_CourseHeadWeights(t *testing.T) {
	spec := baseSpec()
	spec.CourseHeadWeights = []ir.CourseHeadWeight{{Patterns: []string{"1*", "*78"}, Weight: 0.5}}

	a, err := New(spec, row.Major, onePart())
	require.NoError(t, err)

	assert.Equal(t, 1.0, a.CourseHeadWeight(row.MustParse("12345678")))
	assert.Equal(t, 0.5, a.CourseHeadWeight(row.MustParse("21345678")))
	assert.Equal(t, 0.0, a.CourseHeadWeight(row.MustParse("21345687")))

	tab := a.Block(row.Rounds(row.Major), rows("12345678", "21436587", "24163857"))
	assert.Equal(t, Flat(3), tab)
}

func TestHandbellPatterns(t *testing.T) {
	assert.Equal(t, []string{"*21", "*12", "*43", "*34", "*65", "*56"}, HandbellPatterns(row.Minor))
	assert.Len(t, HandbellPatterns(row.Triples), 6)
}

func TestAggregator_HandbellCoursing(t *testing.T) {
	spec := baseSpec()
	spec.HandbellCoursingWeight = 0.1

	a, err := New(spec, row.Major, onePart())
	require.NoError(t, err)
	assert.InDelta(t, 0.1, a.CourseHeadWeight(row.MustParse("12345678")), 1e-9)
	assert.InDelta(t, 0.1, a.CourseHeadWeight(row.MustParse("13245687")), 1e-9)
	assert.InDelta(t, 0.0, a.CourseHeadWeight(row.MustParse("12345768")), 1e-9)
}

func TestAggregator_LinkCountsEveryPart(t *testing.T) {
	spec := baseSpec()
	spec.SpliceWeight = -0.5
	a, err := New(spec, row.Major, course.NewPartGroup(row.MustParse("13425678")))
	require.NoError(t, err)

	assert.InDelta(t, -5.4, a.Link(-1.8, false), 1e-9)
	assert.InDelta(t, -6.9, a.Link(-1.8, true), 1e-9)
	assert.InDelta(t, -1.5, a.Link(0, true), 1e-9)
}

func TestAggregator_MethodRanges(t *testing.T) {
	spec := baseSpec()
	spec.Methods = append(spec.Methods, ir.MethodSpec{
		Title: "Little Bob Major", PlaceNotation: "x18x14,12", Stage: 8,
		CountRange: &ir.Range{Min: 100, Max: 400},
	})
	spec.MethodCount = ir.Range{Min: 200, Max: 1000}

	a, err := New(spec, row.Major, onePart())
	require.NoError(t, err)

	assert.Equal(t, ir.Range{Min: 200, Max: 1000}, a.MethodRange(0))
	assert.Equal(t, ir.Range{Min: 100, Max: 400}, a.MethodRange(1))
	assert.Equal(t, -1, a.CheckMethodCounts([]int{900, 380}))
	assert.Equal(t, 1, a.CheckMethodCounts([]int{900, 420}))
	assert.Equal(t, 0, a.CheckMethodCounts([]int{100, 200}))
}

func TestNew_UnsatisfiableMethodCounts(t *testing.T) {
	tests := []struct {
		name  string
		count ir.Range
	}{
		{"minimums too large", ir.Range{Min: 700, Max: 2000}},
		{"maximums too small", ir.Range{Min: 0, Max: 100}},
		{"inverted", ir.Range{Min: 50, Max: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := baseSpec()
			spec.Methods = append(spec.Methods, ir.MethodSpec{Title: "Little Bob Major", PlaceNotation: "x18x14,12", Stage: 8})
			spec.MethodCount = tt.count
			_, err := New(spec, row.Major, onePart())
			require.Error(t, err)
			assert.True(t, ir.IsConfigError(err))
		})
	}
}

func TestNew_ZeroMethodCountIsOpen(t *testing.T) {
	a, err := New(baseSpec(), row.Major, onePart())
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, a.MethodRange(0).Max)
}

func TestBound(t *testing.T) {
	assert.Equal(t, 10.0+2*50, Bound(10, 2, 20, 50, -1))
	assert.Equal(t, 10.0-2*20+3, Bound(10, -2, 20, 50, 3))
	assert.Equal(t, 0.5, Rate(2, 4))
	assert.Equal(t, 0.0, Rate(3, 0))
}
