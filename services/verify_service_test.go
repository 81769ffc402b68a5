package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPlayerCleanAfterIngest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.games.RecordCompletedGame(ctx, twoPlayerGame("alice", "bob"))
	require.NoError(t, err)
	_, err = env.games.RecordCompletedGame(ctx, maximumGame("bob", "alice"))
	require.NoError(t, err)

	alice, err := env.playerRepo.GetByName(ctx, nil, "alice")
	require.NoError(t, err)

	discrepancies, err := env.verify.VerifyPlayer(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func TestVerifyPlayerUnknown(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.verify.VerifyPlayer(context.Background(), 404)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestVerifyPlayerDetectsDriftedTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.games.RecordCompletedGame(ctx, twoPlayerGame("alice", "bob"))
	require.NoError(t, err)

	alice, err := env.playerRepo.GetByName(ctx, nil, "alice")
	require.NoError(t, err)

	// Corrupt two lifetime counters behind the service's back.
	totals := alice.Totals()
	goodScore, goodWins := totals.TotalScore, totals.TotalGamesWon
	totals.TotalScore += 100
	totals.TotalGamesWon = 0
	require.NoError(t, env.playerRepo.OverwriteTotals(ctx, nil, alice.ID, totals))

	discrepancies, err := env.verify.VerifyPlayer(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, discrepancies, 2)

	byField := make(map[string]Discrepancy, len(discrepancies))
	for _, d := range discrepancies {
		assert.Equal(t, "player", d.Scope)
		assert.Equal(t, alice.ID, d.EntityID)
		byField[d.Field] = d
	}
	require.Contains(t, byField, "total_score")
	assert.Equal(t, goodScore+100, byField["total_score"].Stored)
	assert.Equal(t, goodScore, byField["total_score"].Computed)
	require.Contains(t, byField, "total_games_won")
	assert.Equal(t, 0, byField["total_games_won"].Stored)
	assert.Equal(t, goodWins, byField["total_games_won"].Computed)
}

func TestVerifyGameDetectsDriftedParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	game, err := env.games.RecordCompletedGame(ctx, twoPlayerGame("alice", "bob"))
	require.NoError(t, err)

	clean, err := env.verify.VerifyGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Empty(t, clean)

	_, participants, err := env.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	corrupted := participants[0]
	corrupted.DartsThrown += 5
	require.NoError(t, env.participantRepo.OverwriteCounters(ctx, nil, corrupted))

	discrepancies, err := env.verify.VerifyGame(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, discrepancies, 1)
	d := discrepancies[0]
	assert.Equal(t, "participant", d.Scope)
	assert.Equal(t, corrupted.ID, d.EntityID)
	assert.Equal(t, "darts_thrown", d.Field)
	assert.Equal(t, d.Computed+5, d.Stored)

	_, err = env.verify.VerifyGame(ctx, 999)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestVerifyAllAggregatesAndSorts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.games.RecordCompletedGame(ctx, twoPlayerGame("alice", "bob"))
	require.NoError(t, err)
	_, err = env.games.RecordCompletedGame(ctx, twoPlayerGame("carol", "bob"))
	require.NoError(t, err)

	discrepancies, err := env.verify.VerifyAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)

	for _, name := range []string{"bob", "carol"} {
		player, err := env.playerRepo.GetByName(ctx, nil, name)
		require.NoError(t, err)
		totals := player.Totals()
		totals.TotalTurns += 1
		totals.TotalDartsThrown += 2
		require.NoError(t, env.playerRepo.OverwriteTotals(ctx, nil, player.ID, totals))
	}

	discrepancies, err = env.verify.VerifyAll(ctx)
	require.NoError(t, err)
	require.Len(t, discrepancies, 4)

	// Output order is deterministic regardless of worker scheduling.
	for i := 1; i < len(discrepancies); i++ {
		a, b := discrepancies[i-1], discrepancies[i]
		if a.Scope != b.Scope {
			assert.Less(t, a.Scope, b.Scope)
			continue
		}
		if a.EntityID != b.EntityID {
			assert.Less(t, a.EntityID, b.EntityID)
			continue
		}
		assert.Less(t, a.Field, b.Field)
	}
}

func TestRepairPlayerRestoresTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.games.RecordCompletedGame(ctx, maximumGame("alice", "bob"))
	require.NoError(t, err)

	alice, err := env.playerRepo.GetByName(ctx, nil, "alice")
	require.NoError(t, err)
	want := alice.Totals()

	// Drift both layers: the lifetime totals and a participant row.
	broken := want
	broken.TotalScore = 1
	broken.TotalMaximums = 9
	require.NoError(t, env.playerRepo.OverwriteTotals(ctx, nil, alice.ID, broken))

	participants, err := env.participantRepo.ListAggregatedByPlayer(ctx, nil, alice.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	participants[0].Score = 7
	require.NoError(t, env.participantRepo.OverwriteCounters(ctx, nil, participants[0]))

	found, err := env.verify.VerifyPlayer(ctx, alice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, found)

	require.NoError(t, env.verify.RepairPlayer(ctx, alice.ID))

	clean, err := env.verify.VerifyPlayer(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, clean)

	repaired, err := env.playerRepo.GetByID(ctx, nil, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, want, repaired.Totals())
}

func TestRepairPlayerUnknown(t *testing.T) {
	env := newTestEnv(t)
	err := env.verify.RepairPlayer(context.Background(), 404)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
