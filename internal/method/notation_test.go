package method

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/row"
)

func TestParseChange_ImpliedPlaces(t *testing.T) {
	tests := []struct {
		tok   string
		stage row.Stage
		want  string
	}{
		{"14", row.Major, "14"},
		{"4", row.Minor, "14"},
		{"3", row.Minor, "36"},
		{"1", row.Minor, "16"},
		{"2", row.Minor, "12"},
		{"5", row.Doubles, "5"},
		{"125", row.Doubles, "125"},
		{"x", row.Major, "x"},
		{"-", row.Major, "x"},
		{"0", row.Royal, "10"},
		{"1T", row.Maximus, "1T"},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			c, err := ParseChange(tt.tok, tt.stage)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestParseChange_Errors(t *testing.T) {
	tests := []struct {
		name  string
		tok   string
		stage row.Stage
	}{
		{"place beyond stage", "9", row.Major},
		{"cross on odd stage", "x", row.Doubles},
		{"odd internal gap", "13", row.Minor},
		{"not a place", "1?", row.Minor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChange(tt.tok, tt.stage)
			assert.Error(t, err)
		})
	}
}

func TestChange_Perm(t *testing.T) {
	c, err := ParseChange("14", row.Major)
	require.NoError(t, err)

	next := row.Mul(row.Rounds(row.Major), c.Perm())
	assert.Equal(t, "13246587", next.String())
	assert.True(t, c.Makes(0))
	assert.True(t, c.Makes(3))
	assert.False(t, c.Makes(1))
}

func TestParseNotation_Reflection(t *testing.T) {
	tests := []struct {
		name     string
		notation string
		stage    row.Stage
		length   int
		compact  string
	}{
		{"plain bob minor", "x16x16x16,12", row.Minor, 12, "x16x16x16x16x16x12"},
		{"plain bob doubles", "5.1.5.1.5,125", row.Doubles, 10, "5.1.5.1.5.1.5.1.5.125"},
		{"unreflected", "x16x16x16x16x16x12", row.Minor, 12, "x16x16x16x16x16x12"},
		{"explicit prefixes", "&x16x16x16,+12", row.Minor, 12, "x16x16x16x16x16x12"},
		{"dashes", "-36-14-12-36-14-56,12", row.Minor, 24, "x36x14x12x36x14x56x14x36x12x14x36x12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := ParseNotation(tt.notation, tt.stage)
			require.NoError(t, err)
			assert.Len(t, changes, tt.length)
			assert.Equal(t, tt.compact, NotationString(changes))
		})
	}
}

func TestParseNotation_Empty(t *testing.T) {
	_, err := ParseNotation("  ", row.Minor)
	assert.Error(t, err)

	_, err = ParseNotation("x16,", row.Minor)
	assert.Error(t, err)
}
