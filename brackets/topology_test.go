package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTopologyAcceptsGeneratedBrackets(t *testing.T) {
	se := NewSingleEliminationGenerator()
	for n := 2; n <= 32; n++ {
		ids := make([]int, n)
		for i := range ids {
			ids[i] = i + 1
		}
		matches, err := se.Generate(entriesFor(ids...))
		require.NoError(t, err, "n=%d", n)
		assert.NoError(t, ValidateTopology(matches), "n=%d", n)
	}
}

func TestValidateTopologyRejectsCycle(t *testing.T) {
	matches := []*Match{
		{UID: "A", WinnerTo: &Link{MatchUID: "B", Slot: 1}},
		{UID: "B", WinnerTo: &Link{MatchUID: "A", Slot: 1}},
		{UID: "C"},
	}
	assert.ErrorIs(t, ValidateTopology(matches), ErrBracketCyclic)
}

func TestValidateTopologyRejectsUnknownTarget(t *testing.T) {
	matches := []*Match{
		{UID: "A", WinnerTo: &Link{MatchUID: "missing", Slot: 1}},
		{UID: "B"},
	}
	assert.ErrorIs(t, ValidateTopology(matches), ErrUnknownLinkTarget)
}

func TestValidateTopologyRejectsDoubleFedSlot(t *testing.T) {
	matches := []*Match{
		{UID: "A", WinnerTo: &Link{MatchUID: "C", Slot: 1}},
		{UID: "B", WinnerTo: &Link{MatchUID: "C", Slot: 1}},
		{UID: "C"},
	}
	assert.ErrorIs(t, ValidateTopology(matches), ErrSlotFedTwice)
}

func TestValidateTopologyRequiresSingleTerminal(t *testing.T) {
	matches := []*Match{
		{UID: "A", WinnerTo: &Link{MatchUID: "B", Slot: 1}},
		{UID: "B"},
		{UID: "C"},
	}
	assert.ErrorIs(t, ValidateTopology(matches), ErrMultipleTerminals)

	assert.NoError(t, ValidateTopology([]*Match{
		{UID: "A", WinnerTo: &Link{MatchUID: "B", Slot: 1}},
		{UID: "B"},
	}))
}

func TestValidateTopologyRejectsInvalidSlot(t *testing.T) {
	matches := []*Match{
		{UID: "A", WinnerTo: &Link{MatchUID: "B", Slot: 3}},
		{UID: "B"},
	}
	assert.Error(t, ValidateTopology(matches))
}
