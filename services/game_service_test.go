package services

import (
	"context"
	"testing"

	"github.com/Dosada05/darts-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCompletedGameCreatesPlayersAndAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	game, err := env.games.RecordCompletedGame(ctx, twoPlayerGame("alice", "bob"))
	require.NoError(t, err)
	require.NotZero(t, game.ID)
	require.NotNil(t, game.CompletedAt)
	require.NotNil(t, game.WinnerPlayerID)

	stored, participants, err := env.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, stored.Aggregated(), "ingest must aggregate synchronously")
	require.Len(t, participants, 2)

	// Counters on the winner's participant row are derived from the turns.
	winner := participants[0]
	assert.Equal(t, 1, winner.Turns)
	assert.Equal(t, 2, winner.DartsThrown)
	assert.Equal(t, 40, winner.Score)
	assert.Equal(t, 20, winner.MaxDartScore)
	assert.Equal(t, 40, winner.MaxTurnScore)
	assert.Equal(t, 1, winner.CheckoutAttempts)
	assert.Equal(t, 1, winner.CheckoutSuccesses)

	alice, err := env.playerRepo.GetByName(ctx, nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.TotalGames)
	assert.Equal(t, 1, alice.TotalGamesWon)
	assert.Equal(t, 40, alice.TotalScore)
	assert.Equal(t, 1, alice.TotalCheckoutSuccesses)

	bob, err := env.playerRepo.GetByName(ctx, nil, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bob.TotalGames)
	assert.Equal(t, 0, bob.TotalGamesWon)
	assert.Equal(t, 15, bob.TotalScore)
}

func TestRecordCompletedGameReusesExistingPlayers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.games.RecordCompletedGame(ctx, twoPlayerGame("alice", "bob"))
	require.NoError(t, err)
	_, err = env.games.RecordCompletedGame(ctx, twoPlayerGame("bob", "alice"))
	require.NoError(t, err)

	players, err := env.playerRepo.List(ctx, nil, false)
	require.NoError(t, err)
	require.Len(t, players, 2)

	for _, p := range players {
		assert.Equal(t, 2, p.TotalGames, "player %s", p.Name)
		assert.Equal(t, 1, p.TotalGamesWon, "player %s", p.Name)
	}
}

func TestRecordCompletedGameCountsMaximums(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	game, err := env.games.RecordCompletedGame(ctx, maximumGame("alice", "bob"))
	require.NoError(t, err)

	_, participants, err := env.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	winner := participants[0]
	assert.Equal(t, 1, winner.Maximums)
	assert.Equal(t, 0, winner.HighScores)
	assert.Equal(t, 60, winner.MaxDartScore)
	assert.Equal(t, 180, winner.MaxTurnScore)

	alice, err := env.playerRepo.GetByName(ctx, nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.TotalMaximums)
	assert.Equal(t, 180, alice.MaxTurnScore)
	assert.Equal(t, 60, alice.MaxDartScore)
}

func TestRecordGame501Checkout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A full-length 501 leg: two maximums, then a 141 checkout.
	input := RecordGameInput{
		TargetScore:  501,
		WinCondition: models.WinExact,
		ScoringMode:  models.ScoringPerDart,
		Participants: []ParticipantInput{
			{
				PlayerName:    "alice",
				OrderIndex:    1,
				StartingScore: 501,
				FinalScore:    0,
				Winner:        true,
				Turns: []TurnInput{
					{
						TurnNumber: 1, RoundNumber: 1,
						Dart1: 60, Dart2: intPtr(60), Dart3: intPtr(60),
						TurnTotal: 180, ScoreBefore: 501, ScoreAfter: 321,
					},
					{
						TurnNumber: 2, RoundNumber: 2,
						Dart1: 60, Dart2: intPtr(60), Dart3: intPtr(60),
						TurnTotal: 180, ScoreBefore: 321, ScoreAfter: 141,
					},
					{
						TurnNumber: 3, RoundNumber: 3,
						Dart1: 60, Dart2: intPtr(57), Dart3: intPtr(24),
						TurnTotal: 141, ScoreBefore: 141, ScoreAfter: 0,
						CheckoutAttempt: true, CheckoutSuccess: true,
					},
				},
			},
			{
				PlayerName:    "bob",
				OrderIndex:    2,
				StartingScore: 501,
				FinalScore:    430,
				Turns: []TurnInput{
					{
						TurnNumber: 1, RoundNumber: 1,
						Dart1: 20, Dart2: intPtr(20), Dart3: intPtr(5),
						TurnTotal: 45, ScoreBefore: 501, ScoreAfter: 456,
					},
					{
						TurnNumber: 2, RoundNumber: 2,
						Dart1: 26,
						TurnTotal: 26, ScoreBefore: 456, ScoreAfter: 430,
					},
				},
			},
		},
	}

	game, err := env.games.RecordCompletedGame(ctx, input)
	require.NoError(t, err)

	_, participants, err := env.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	winner := participants[0]
	assert.Equal(t, 3, winner.Turns)
	assert.Equal(t, 9, winner.DartsThrown)
	assert.Equal(t, 501, winner.Score)
	assert.Equal(t, 2, winner.Maximums)
	assert.Equal(t, 1, winner.HighScores, "the 141 checkout is a high score")
	assert.Equal(t, 180, winner.MaxTurnScore)
	assert.Equal(t, 1, winner.CheckoutAttempts)
	assert.Equal(t, 1, winner.CheckoutSuccesses)

	alice, err := env.playerRepo.GetByName(ctx, nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, alice.TotalMaximums)
	assert.Equal(t, 1, alice.TotalHighScores)
	assert.Equal(t, 501, alice.TotalScore)
}

func TestRecordAbandonedGameWithoutWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := twoPlayerGame("alice", "bob")
	input.Abandoned = true
	input.Participants[0].Winner = false
	input.Participants[0].Turns[0].CheckoutSuccess = false

	game, err := env.games.RecordCompletedGame(ctx, input)
	require.NoError(t, err)
	assert.True(t, game.Abandoned)
	assert.Nil(t, game.WinnerPlayerID)

	// Abandoned games still count toward play volume, just not wins.
	alice, err := env.playerRepo.GetByName(ctx, nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.TotalGames)
	assert.Equal(t, 0, alice.TotalGamesWon)
}

func TestRecordGameValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*RecordGameInput)
		wantErr error
	}{
		{
			name:    "target score must be positive",
			mutate:  func(in *RecordGameInput) { in.TargetScore = 0 },
			wantErr: ErrTargetScoreInvalid,
		},
		{
			name:    "unknown win condition",
			mutate:  func(in *RecordGameInput) { in.WinCondition = "sudden_death" },
			wantErr: ErrGameConfigInvalid,
		},
		{
			name:    "unknown scoring mode",
			mutate:  func(in *RecordGameInput) { in.ScoringMode = "guesswork" },
			wantErr: ErrGameConfigInvalid,
		},
		{
			name:    "single participant",
			mutate:  func(in *RecordGameInput) { in.Participants = in.Participants[:1] },
			wantErr: ErrParticipantsRequired,
		},
		{
			name: "duplicate player name",
			mutate: func(in *RecordGameInput) {
				in.Participants[1].PlayerName = in.Participants[0].PlayerName
			},
			wantErr: ErrDuplicatePlayerEntry,
		},
		{
			name: "duplicate order index",
			mutate: func(in *RecordGameInput) {
				in.Participants[1].OrderIndex = in.Participants[0].OrderIndex
			},
			wantErr: ErrOrderIndexConflict,
		},
		{
			name:    "empty player name",
			mutate:  func(in *RecordGameInput) { in.Participants[0].PlayerName = "" },
			wantErr: ErrPlayerNameRequired,
		},
		{
			name: "no winner and not abandoned",
			mutate: func(in *RecordGameInput) {
				in.Participants[0].Winner = false
			},
			wantErr: ErrOutcomeMissing,
		},
		{
			name: "two winners",
			mutate: func(in *RecordGameInput) {
				in.Participants[1].Winner = true
			},
			wantErr: ErrOutcomeMissing,
		},
		{
			name: "dart value out of range",
			mutate: func(in *RecordGameInput) {
				in.Participants[1].Turns[0].Dart1 = 61
				in.Participants[1].Turns[0].TurnTotal = 71
				in.Participants[1].Turns[0].ScoreAfter = 40 - 71
			},
			wantErr: ErrDartValueOutOfRange,
		},
		{
			name: "turn total mismatch",
			mutate: func(in *RecordGameInput) {
				in.Participants[1].Turns[0].TurnTotal = 16
			},
			wantErr: ErrTurnTotalMismatch,
		},
		{
			name: "score arithmetic mismatch",
			mutate: func(in *RecordGameInput) {
				in.Participants[1].Turns[0].ScoreAfter = 24
			},
			wantErr: ErrScoreMismatch,
		},
		{
			name: "gapped turn numbers",
			mutate: func(in *RecordGameInput) {
				in.Participants[1].Turns[0].TurnNumber = 3
			},
			wantErr: ErrTurnNumbersInvalid,
		},
		{
			name: "third dart without second",
			mutate: func(in *RecordGameInput) {
				in.Participants[1].Turns[0].Dart2 = nil
				in.Participants[1].Turns[0].Dart3 = intPtr(5)
				in.Participants[1].Turns[0].TurnTotal = 10
				in.Participants[1].Turns[0].ScoreAfter = 30
			},
			wantErr: ErrDartOrderInvalid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := twoPlayerGame("alice", "bob")
			tc.mutate(&input)
			_, err := env.games.RecordCompletedGame(ctx, input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// Nothing was persisted by any of the rejected inputs.
	players, err := env.playerRepo.List(ctx, nil, false)
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestBustedTurnSkipsScoreArithmetic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := twoPlayerGame("alice", "bob")
	// The loser busts: score stays where it was despite the darts thrown.
	input.Participants[1].Turns[0] = TurnInput{
		TurnNumber: 1, RoundNumber: 1,
		Dart1: 20, Dart2: intPtr(20), Dart3: intPtr(5),
		TurnTotal: 45, ScoreBefore: 40, ScoreAfter: 40,
		Busted: true,
	}
	input.Participants[1].FinalScore = 40

	_, err := env.games.RecordCompletedGame(ctx, input)
	require.NoError(t, err)

	bob, err := env.playerRepo.GetByName(ctx, nil, "bob")
	require.NoError(t, err)
	// Busted turns still count for turn and dart volume.
	assert.Equal(t, 1, bob.TotalTurns)
	assert.Equal(t, 3, bob.TotalDartsThrown)
	assert.Equal(t, 45, bob.TotalScore)
}

func TestGetGameNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.games.GetGame(context.Background(), 999)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestRecordGameRejectsUnknownModels(t *testing.T) {
	// Guard against enum drift: the two valid values stay accepted.
	for _, wc := range []models.WinCondition{models.WinExact, models.WinOpen} {
		input := twoPlayerGame("a", "b")
		input.WinCondition = wc
		assert.NoError(t, validateGameInput(input), "win condition %s", wc)
	}
}
