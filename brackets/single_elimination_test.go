package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesFor(playerIDs ...int) []Entry {
	entries := make([]Entry, len(playerIDs))
	for i, id := range playerIDs {
		entries[i] = Entry{PlayerID: id, Seed: i + 1}
	}
	return entries
}

func matchByUID(t *testing.T, matches []*Match, uid string) *Match {
	t.Helper()
	for _, m := range matches {
		if m.UID == uid {
			return m
		}
	}
	t.Fatalf("no match with uid %s", uid)
	return nil
}

func TestSeedOrder(t *testing.T) {
	assert.Equal(t, []int{1, 2}, seedOrder(2))
	assert.Equal(t, []int{1, 4, 2, 3}, seedOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, seedOrder(8))
}

func TestSingleEliminationFullField(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	matches, err := gen.Generate(entriesFor(10, 20, 30, 40, 50, 60, 70, 80))
	require.NoError(t, err)
	require.Len(t, matches, 7)

	// Top seed opens against the bottom seed.
	r1m1 := matchByUID(t, matches, "R1M1")
	require.NotNil(t, r1m1.Player1ID)
	require.NotNil(t, r1m1.Player2ID)
	assert.Equal(t, 10, *r1m1.Player1ID)
	assert.Equal(t, 80, *r1m1.Player2ID)

	// Seeds 2 and 7 land in the opposite half.
	r1m3 := matchByUID(t, matches, "R1M3")
	assert.Equal(t, 20, *r1m3.Player1ID)
	assert.Equal(t, 70, *r1m3.Player2ID)

	for _, m := range matches {
		assert.False(t, m.Bye, "full field must not produce byes")
	}

	// The final is terminal, everything else progresses.
	final := matchByUID(t, matches, "R3M1")
	assert.Nil(t, final.WinnerTo)
	for _, m := range matches {
		if m.UID != "R3M1" {
			assert.NotNil(t, m.WinnerTo, "match %s has no winner link", m.UID)
		}
		assert.Nil(t, m.LoserTo, "knockout match %s must not have a loser link", m.UID)
	}

	r1m2 := matchByUID(t, matches, "R1M2")
	assert.Equal(t, &Link{MatchUID: "R2M1", Slot: 2}, r1m2.WinnerTo)

	require.NoError(t, ValidateTopology(matches))
}

func TestSingleEliminationByesLandOnTopSeeds(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	matches, err := gen.Generate(entriesFor(1, 2, 3, 4, 5))
	require.NoError(t, err)
	// Padded to 8: 7 matches, 3 byes.
	require.Len(t, matches, 7)

	byes := 0
	for _, m := range matches {
		if m.Bye {
			byes++
			require.NotNil(t, m.WinnerID, "bye %s must be pre-decided", m.UID)
			assert.Equal(t, 1, m.Round)
		}
	}
	assert.Equal(t, 3, byes)

	// Seeds 2 and 3 face the missing seeds 7 and 6.
	assert.True(t, matchByUID(t, matches, "R1M3").Bye)
	assert.Equal(t, 2, *matchByUID(t, matches, "R1M3").WinnerID)
	assert.True(t, matchByUID(t, matches, "R1M4").Bye)
	assert.Equal(t, 3, *matchByUID(t, matches, "R1M4").WinnerID)

	// Seed 1 plays its bye, seed 4 meets seed 5 for real.
	assert.True(t, matchByUID(t, matches, "R1M1").Bye)
	r1m2 := matchByUID(t, matches, "R1M2")
	assert.False(t, r1m2.Bye)
	assert.Equal(t, 4, *r1m2.Player1ID)
	assert.Equal(t, 5, *r1m2.Player2ID)

	require.NoError(t, ValidateTopology(matches))
}

func TestSingleEliminationTwoPlayers(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	matches, err := gen.Generate(entriesFor(7, 9))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].WinnerTo)
	assert.False(t, matches[0].Bye)
	require.NoError(t, ValidateTopology(matches))
}

func TestSingleEliminationRejectsBadEntries(t *testing.T) {
	gen := NewSingleEliminationGenerator()

	_, err := gen.Generate(entriesFor(1))
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = gen.Generate([]Entry{{PlayerID: 1, Seed: 1}, {PlayerID: 2, Seed: 1}})
	assert.ErrorIs(t, err, ErrDuplicateSeed)

	_, err = gen.Generate([]Entry{{PlayerID: 1, Seed: 1}, {PlayerID: 1, Seed: 2}})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)

	_, err = gen.Generate([]Entry{{PlayerID: 1, Seed: 1}, {PlayerID: 2, Seed: 3}})
	assert.ErrorIs(t, err, ErrSeedOutOfRange)

	big := make([]Entry, MaxBracketSize+1)
	for i := range big {
		big[i] = Entry{PlayerID: i + 1, Seed: i + 1}
	}
	_, err = gen.Generate(big)
	assert.ErrorIs(t, err, ErrTooManyPlayers)
}
