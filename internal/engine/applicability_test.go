package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/clang-tidy-reviewer/internal/diff"
	"github.com/bkyoung/clang-tidy-reviewer/internal/engine"
)

func TestApplies(t *testing.T) {
	ranges := []diff.LineRange{{Start: 10, End: 20}}

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"fully contained", 10, 19, true},
		{"starts before range", 5, 19, false},
		{"ends at exclusive boundary", 10, 20, false},
		{"single line inside", 15, 15, true},
		{"single line outside", 25, 25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Applies(ranges, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplies_SecondRangeMatches(t *testing.T) {
	ranges := []diff.LineRange{{Start: 102, End: 113}, {Start: 127, End: 134}}

	got, err := engine.Applies(ranges, 130, 131)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestApplies_StraddlingTwoHunksIsRejected(t *testing.T) {
	ranges := []diff.LineRange{{Start: 10, End: 15}, {Start: 15, End: 20}}

	got, err := engine.Applies(ranges, 12, 17)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestApplies_InvertedRangeIsAnInvariantViolation(t *testing.T) {
	_, err := engine.Applies([]diff.LineRange{{Start: 1, End: 10}}, 5, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &engine.InvariantError{}))
}

func TestApplies_NoRanges(t *testing.T) {
	got, err := engine.Applies(nil, 1, 1)
	require.NoError(t, err)
	assert.False(t, got)
}
