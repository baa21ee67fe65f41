package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/method"
)

func TestDefault_EveryEntryExpands(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, lib.Entries())

	for _, e := range lib.Entries() {
		t.Run(e.Title, func(t *testing.T) {
			spec, ok := lib.Lookup(e.Title)
			require.True(t, ok)
			m, err := method.Expand(spec)
			require.NoError(t, err)
			assert.Equal(t, e.Stage, int(m.Stage()))
		})
	}
}

func TestLookup_FoldsCaseAndSpacing(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	spec, ok := lib.Lookup("  yorkshire   SURPRISE major ")
	require.True(t, ok)
	assert.Equal(t, "Yorkshire Surprise Major", spec.Title)
	assert.Equal(t, 8, spec.Stage)
	assert.Equal(t, "x38x14x58x16x12x38x14x78,12", spec.PlaceNotation)

	_, ok = lib.Lookup("Nonexistent Delight Major")
	assert.False(t, ok)
}

func TestParse_RejectsDuplicates(t *testing.T) {
	data := []byte(`
- title: Plain Bob Minor
  stage: 6
  place_notation: x16x16x16,12
- title: plain bob minor
  stage: 6
  place_notation: x16x16x16,12
`)
	_, err := Parse(data)
	assert.Error(t, err)
}

func TestEntries_SortedByStage(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	entries := lib.Entries()
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Stage, entries[i].Stage)
	}
}
