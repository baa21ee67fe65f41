package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/ir"
)

func plainBobMinor() ir.MethodSpec {
	return ir.MethodSpec{Title: "Plain Bob Minor", PlaceNotation: "x16x16x16,12", Stage: 6}
}

func cambridgeMinor() ir.MethodSpec {
	return ir.MethodSpec{Title: "Cambridge Surprise Minor", PlaceNotation: "x36x14x12x36x14x56,12", Stage: 6}
}

func minorSpec(length ir.Length, base ir.BaseCalls) *ir.SearchSpec {
	return &ir.SearchSpec{
		Length:       length,
		NumComps:     10,
		Methods:      []ir.MethodSpec{plainBobMinor()},
		BaseCalls:    base,
		BobWeight:    -1.8,
		SingleWeight: -2.5,
	}
}

func TestBuild_PlainCourseOnly(t *testing.T) {
	g, err := Build(minorSpec(ir.ExactLength(60), ir.BaseCallsNone), Options{})
	require.NoError(t, err)

	assert.Len(t, g.Chunks, 5)
	require.Len(t, g.Starts, 1)
	start := g.Chunks[g.Starts[0].To]
	assert.True(t, start.Rows[0].IsRounds())
	assert.Equal(t, 12, start.Len)
	assert.Equal(t, 60, start.DistToEnd)

	terminals := 0
	for _, c := range g.Chunks {
		assert.False(t, c.End)
		for _, l := range c.Links {
			if l.To == Terminal {
				terminals++
				assert.Equal(t, 0, l.Rot)
				assert.False(t, l.IsCall())
			}
		}
	}
	assert.Equal(t, 1, terminals)
	assert.Equal(t, 1, g.Parts())
}

func TestBuild_ChunksAreFalseAgainstThemselves(t *testing.T) {
	g, err := Build(minorSpec(ir.Length{Min: 0, Max: 720}, ir.BaseCallsNear), Options{})
	require.NoError(t, err)

	require.NotEmpty(t, g.Chunks)
	for i := range g.Chunks {
		assert.Contains(t, g.Falseness.Against(i), int32(i))
		assert.GreaterOrEqual(t, g.Chunks[i].DistToEnd, g.Chunks[i].Len)
	}
}

func TestBuild_CallLinksCarryWeightAndPosition(t *testing.T) {
	g, err := Build(minorSpec(ir.Length{Min: 0, Max: 720}, ir.BaseCallsNear), Options{})
	require.NoError(t, err)

	var bobs, singles int
	for _, c := range g.Chunks {
		for _, l := range c.Links {
			if !l.IsCall() {
				continue
			}
			switch g.Calls.Call(l.Call).Debug {
			case "-":
				bobs++
				assert.Equal(t, -1.8, l.Weight)
			case "s":
				singles++
				assert.Equal(t, -2.5, l.Weight)
			}
			assert.NotEmpty(t, l.Position)
		}
	}
	assert.Positive(t, bobs)
	assert.Positive(t, singles)
}

func TestBuild_SpliceLinks(t *testing.T) {
	spec := minorSpec(ir.Length{Min: 0, Max: 720}, ir.BaseCallsNear)
	spec.Methods = append(spec.Methods, cambridgeMinor())
	spec.SpliceWeight = -1

	g, err := Build(spec, Options{})
	require.NoError(t, err)

	spliced := 0
	for _, c := range g.Chunks {
		for _, l := range c.Links {
			if !l.Splice || l.To == Terminal {
				continue
			}
			spliced++
			assert.NotEqual(t, c.Method, g.Chunks[l.To].Method)
			if !l.IsCall() {
				assert.Equal(t, -1.0, l.Weight)
			}
		}
	}
	assert.Positive(t, spliced)
}

func TestBuild_SpliceOnlyAtCalls(t *testing.T) {
	spec := minorSpec(ir.Length{Min: 0, Max: 720}, ir.BaseCallsNear)
	spec.Methods = append(spec.Methods, cambridgeMinor())
	spec.SpliceStyle = ir.SpliceCalls

	g, err := Build(spec, Options{})
	require.NoError(t, err)

	for _, c := range g.Chunks {
		for _, l := range c.Links {
			if l.Splice {
				assert.True(t, l.IsCall())
			}
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ir.SearchSpec)
		opts   Options
		check  func(error) bool
	}{
		{
			name:   "no methods",
			modify: func(s *ir.SearchSpec) { s.Methods = nil },
			check:  ir.IsConfigError,
		},
		{
			name: "mixed stages",
			modify: func(s *ir.SearchSpec) {
				s.Methods = append(s.Methods, ir.MethodSpec{Title: "Plain Bob Major", PlaceNotation: "x18x18x18x18,12", Stage: 8})
			},
			check: ir.IsConfigError,
		},
		{
			name: "duplicate shorthand",
			modify: func(s *ir.SearchSpec) {
				m := cambridgeMinor()
				m.Shorthand = "P"
				s.Methods = append(s.Methods, m)
			},
			check: ir.IsConfigError,
		},
		{
			name:   "cannot come round in time",
			modify: func(s *ir.SearchSpec) { s.Length = ir.ExactLength(30) },
			check:  ir.IsConfigError,
		},
		{
			name:   "graph too large",
			modify: func(s *ir.SearchSpec) { s.BaseCalls = ir.BaseCallsNear },
			opts:   Options{SizeLimit: 3},
			check:  ir.IsGraphSizeLimit,
		},
		{
			name: "duplicate call symbol",
			modify: func(s *ir.SearchSpec) {
				s.BaseCalls = ir.BaseCallsNear
				s.Calls = []ir.CallSpec{{Symbol: "s", PlaceNotation: "16", LeadLocation: "LE"}}
			},
			check: ir.IsDuplicateCallSymbol,
		},
		{
			name:   "invalid part head",
			modify: func(s *ir.SearchSpec) { s.PartHead = "1234567" },
			check:  ir.IsInvalidPartHead,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := minorSpec(ir.ExactLength(60), ir.BaseCallsNone)
			tt.modify(spec)
			_, err := Build(spec, tt.opts)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestBuild_EndIndicesRestrictFinishes(t *testing.T) {
	spec := minorSpec(ir.ExactLength(60), ir.BaseCallsNone)
	spec.EndIndices = []int{6}

	_, err := Build(spec, Options{})
	require.Error(t, err)
	assert.True(t, ir.IsConfigError(err))
}
