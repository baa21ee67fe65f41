package call

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/method"
	"github.com/roach88/ringer/internal/row"
)

func expand(t *testing.T, spec ir.MethodSpec) *method.Method {
	t.Helper()
	m, err := method.Expand(spec)
	require.NoError(t, err)
	return m
}

func plainBobMajor(t *testing.T) *method.Method {
	return expand(t, ir.MethodSpec{Title: "Plain Bob Major", PlaceNotation: "x18x18x18x18,12", Stage: 8})
}

func TestDefaultCallingPositions(t *testing.T) {
	tests := []struct {
		pn    string
		stage row.Stage
		want  string
	}{
		{"14", row.Major, "LIBFVMWH"},
		{"1234", row.Major, "LBTFVMWH"},
		{"14", row.Minor, "LIBFWH"},
		{"1234", row.Minor, "LBTFWH"},
		{"145", row.Doubles, "LIBFH"},
		{"125", row.Doubles, "LBTFH"},
		{"147", row.Triples, "LIBFWMH"},
		{"14", row.Royal, "LIBFVXSMWH"},
		{"14", row.Maximus, "LIBFVXSENMWH"},
	}
	for _, tt := range tests {
		t.Run(tt.pn+"/"+tt.want, func(t *testing.T) {
			c, err := method.ParseChange(tt.pn, tt.stage)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.Join(DefaultCallingPositions(c, tt.stage), ""))
		})
	}
}

func TestDefaultCallingPositions_LongStagesUseOrdinals(t *testing.T) {
	c, err := method.ParseChange("14", 16)
	require.NoError(t, err)

	positions := DefaultCallingPositions(c, 16)
	assert.Equal(t, "10ths", positions[9])
	assert.Equal(t, "13ths", positions[12])
	assert.Equal(t, []string{"M", "W", "H"}, positions[13:])
}

func TestBaseCalls(t *testing.T) {
	near, err := BaseCalls(ir.BaseCallsNear, row.Major, DefaultBobWeight, DefaultSingleWeight)
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, "14", near[0].Change.String())
	assert.Equal(t, "", near[0].Symbol)
	assert.Equal(t, "-", near[0].Debug)
	assert.Equal(t, DefaultBobWeight, near[0].Weight)
	assert.Equal(t, "1234", near[1].Change.String())
	assert.Equal(t, "s", near[1].Symbol)
	assert.Equal(t, DefaultSingleWeight, near[1].Weight)

	far, err := BaseCalls(ir.BaseCallsFar, row.Major, -1, -2)
	require.NoError(t, err)
	assert.Equal(t, "16", far[0].Change.String())
	assert.Equal(t, "1678", far[1].Change.String())

	none, err := BaseCalls(ir.BaseCallsNone, row.Major, -1, -2)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBuildTable_DuplicateSymbol(t *testing.T) {
	methods := []*method.Method{plainBobMajor(t)}
	specs := []ir.CallSpec{
		{Symbol: "x", PlaceNotation: "16", LeadLocation: "LE", Weight: -3},
		{Symbol: "x", PlaceNotation: "1456", LeadLocation: "LE", Weight: -3},
	}

	_, err := BuildTable(specs, ir.BaseCallsNone, 0, 0, methods)
	require.Error(t, err)
	assert.True(t, ir.IsDuplicateCallSymbol(err))
}

func TestBuildTable_CustomCallClashesWithBaseSingle(t *testing.T) {
	methods := []*method.Method{plainBobMajor(t)}
	specs := []ir.CallSpec{{Symbol: "s", PlaceNotation: "1678", LeadLocation: "LE"}}

	_, err := BuildTable(specs, ir.BaseCallsNear, DefaultBobWeight, DefaultSingleWeight, methods)
	assert.True(t, ir.IsDuplicateCallSymbol(err))
}

func TestBuildTable_SameSymbolDifferentLocations(t *testing.T) {
	spec := ir.MethodSpec{
		Title: "Plain Bob Major", PlaceNotation: "x18x18x18x18,12", Stage: 8,
		LeadLocations: map[string][]int{"LE": {0}, "HL": {8}},
	}
	methods := []*method.Method{expand(t, spec)}
	specs := []ir.CallSpec{{Symbol: "s", PlaceNotation: "1458", LeadLocation: "HL", Weight: -3}}

	table, err := BuildTable(specs, ir.BaseCallsNear, DefaultBobWeight, DefaultSingleWeight, methods)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []int{0, 1}, table.At(0, "LE"))
	assert.Equal(t, []int{2}, table.At(0, "HL"))
	assert.Equal(t, []int{0, 1, 2}, table.AtLabels(0, []string{"HL", "LE"}))
}

func TestBuildTable_UndefinedLabel(t *testing.T) {
	methods := []*method.Method{plainBobMajor(t)}
	specs := []ir.CallSpec{{Symbol: "b", PlaceNotation: "14", LeadLocation: "HL"}}

	_, err := BuildTable(specs, ir.BaseCallsNone, 0, 0, methods)
	require.Error(t, err)
	assert.True(t, ir.IsConfigError(err))
	assert.Contains(t, err.Error(), "HL")
}

func TestBuildTable_WrongCallingPositionsLength(t *testing.T) {
	methods := []*method.Method{plainBobMajor(t)}
	specs := []ir.CallSpec{{Symbol: "b", PlaceNotation: "14", CallingPositions: []string{"L", "I"}}}

	_, err := BuildTable(specs, ir.BaseCallsNone, 0, 0, methods)
	assert.True(t, ir.IsConfigError(err))
}

func TestBuildTable_InvalidCallNotation(t *testing.T) {
	methods := []*method.Method{plainBobMajor(t)}
	specs := []ir.CallSpec{{Symbol: "b", PlaceNotation: "19"}}

	_, err := BuildTable(specs, ir.BaseCallsNone, 0, 0, methods)
	assert.True(t, ir.IsInvalidPlaceNotation(err))
}

func TestCall_Position(t *testing.T) {
	methods := []*method.Method{plainBobMajor(t)}
	table, err := BuildTable(nil, ir.BaseCallsNear, DefaultBobWeight, DefaultSingleWeight, methods)
	require.NoError(t, err)

	bob := table.Call(0)
	// A bob at Home leaves the tenor in eighths place.
	assert.Equal(t, "H", bob.Position(row.MustParse("14263758"), row.Major.Tenor()))
	// Tenor in sevenths after the call is a Wrong.
	assert.Equal(t, "W", bob.Position(row.MustParse("13527486"), row.Major.Tenor()))
	assert.Equal(t, -1.8, table.MaxWeight())
}
