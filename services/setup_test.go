package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/darts-system/metrics"
	"github.com/Dosada05/darts-system/models"
	"github.com/Dosada05/darts-system/repositories"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// The production schema with the Postgres-only types swapped out. Repositories
// keep their SQL portable ($N placeholders, CASE instead of GREATEST, RETURNING
// for generated ids) exactly so the suite can run against in-memory sqlite.
const testSchema = `
CREATE TABLE players (
    id                       INTEGER PRIMARY KEY,
    name                     TEXT      NOT NULL UNIQUE,
    created_at               TIMESTAMP NOT NULL,
    total_games              INTEGER   NOT NULL DEFAULT 0,
    total_games_won          INTEGER   NOT NULL DEFAULT 0,
    total_turns              INTEGER   NOT NULL DEFAULT 0,
    total_darts_thrown       INTEGER   NOT NULL DEFAULT 0,
    total_score              INTEGER   NOT NULL DEFAULT 0,
    total_maximums           INTEGER   NOT NULL DEFAULT 0,
    total_high_scores        INTEGER   NOT NULL DEFAULT 0,
    max_dart_score           INTEGER   NOT NULL DEFAULT 0,
    max_turn_score           INTEGER   NOT NULL DEFAULT 0,
    total_checkout_attempts  INTEGER   NOT NULL DEFAULT 0,
    total_checkout_successes INTEGER   NOT NULL DEFAULT 0
);

CREATE TABLE games (
    id               INTEGER PRIMARY KEY,
    target_score     INTEGER   NOT NULL,
    win_condition    TEXT      NOT NULL,
    scoring_mode     TEXT      NOT NULL,
    created_at       TIMESTAMP NOT NULL,
    completed_at     TIMESTAMP,
    winner_player_id INTEGER REFERENCES players (id),
    abandoned        BOOLEAN   NOT NULL DEFAULT FALSE,
    aggregated_at    TIMESTAMP
);

CREATE TABLE participants (
    id                 INTEGER PRIMARY KEY,
    game_id            INTEGER NOT NULL REFERENCES games (id),
    player_id          INTEGER NOT NULL REFERENCES players (id),
    order_index        INTEGER NOT NULL,
    starting_score     INTEGER NOT NULL,
    final_score        INTEGER NOT NULL,
    winner             BOOLEAN NOT NULL DEFAULT FALSE,
    finish_rank        INTEGER,
    finish_round       INTEGER,
    turns              INTEGER NOT NULL DEFAULT 0,
    darts_thrown       INTEGER NOT NULL DEFAULT 0,
    score              INTEGER NOT NULL DEFAULT 0,
    maximums           INTEGER NOT NULL DEFAULT 0,
    high_scores        INTEGER NOT NULL DEFAULT 0,
    max_dart_score     INTEGER NOT NULL DEFAULT 0,
    max_turn_score     INTEGER NOT NULL DEFAULT 0,
    checkout_attempts  INTEGER NOT NULL DEFAULT 0,
    checkout_successes INTEGER NOT NULL DEFAULT 0,
    UNIQUE (game_id, player_id),
    UNIQUE (game_id, order_index)
);

CREATE TABLE turns (
    id               INTEGER PRIMARY KEY,
    game_id          INTEGER NOT NULL REFERENCES games (id),
    participant_id   INTEGER NOT NULL REFERENCES participants (id),
    turn_number      INTEGER NOT NULL,
    round_number     INTEGER NOT NULL,
    dart1            INTEGER NOT NULL,
    dart2            INTEGER,
    dart3            INTEGER,
    turn_total       INTEGER NOT NULL,
    score_before     INTEGER NOT NULL,
    score_after      INTEGER NOT NULL,
    busted           BOOLEAN NOT NULL DEFAULT FALSE,
    checkout_attempt BOOLEAN NOT NULL DEFAULT FALSE,
    checkout_success BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (participant_id, turn_number)
);

CREATE TABLE tournaments (
    id               INTEGER PRIMARY KEY,
    name             TEXT      NOT NULL,
    format           TEXT      NOT NULL,
    size             INTEGER   NOT NULL,
    status           TEXT      NOT NULL,
    winner_player_id INTEGER REFERENCES players (id),
    created_at       TIMESTAMP NOT NULL,
    completed_at     TIMESTAMP
);

CREATE TABLE tournament_participants (
    id                  INTEGER PRIMARY KEY,
    tournament_id       INTEGER NOT NULL REFERENCES tournaments (id),
    player_id           INTEGER NOT NULL REFERENCES players (id),
    seed                INTEGER NOT NULL,
    eliminated          BOOLEAN NOT NULL DEFAULT FALSE,
    eliminated_in_round INTEGER,
    final_placement     INTEGER,
    UNIQUE (tournament_id, player_id),
    UNIQUE (tournament_id, seed)
);

CREATE TABLE matches (
    id                   INTEGER PRIMARY KEY,
    tournament_id        INTEGER   NOT NULL REFERENCES tournaments (id),
    bracket_uid          TEXT      NOT NULL,
    round                INTEGER   NOT NULL,
    position             INTEGER   NOT NULL,
    status               TEXT      NOT NULL,
    player1_id           INTEGER REFERENCES players (id),
    player2_id           INTEGER REFERENCES players (id),
    winner_player_id     INTEGER REFERENCES players (id),
    game_id              INTEGER REFERENCES games (id),
    bye                  BOOLEAN   NOT NULL DEFAULT FALSE,
    winner_next_match_id INTEGER REFERENCES matches (id),
    winner_next_slot     INTEGER,
    loser_next_match_id  INTEGER REFERENCES matches (id),
    loser_next_slot      INTEGER,
    created_at           TIMESTAMP NOT NULL,
    completed_at         TIMESTAMP,
    UNIQUE (tournament_id, bracket_uid)
);

CREATE TABLE leagues (
    id              INTEGER PRIMARY KEY,
    name            TEXT      NOT NULL,
    passes          INTEGER   NOT NULL,
    points_for_win  INTEGER   NOT NULL,
    points_for_draw INTEGER   NOT NULL,
    points_for_loss INTEGER   NOT NULL,
    status          TEXT      NOT NULL,
    created_at      TIMESTAMP NOT NULL
);

CREATE TABLE league_participants (
    id        INTEGER PRIMARY KEY,
    league_id INTEGER NOT NULL REFERENCES leagues (id),
    player_id INTEGER NOT NULL REFERENCES players (id),
    played    INTEGER NOT NULL DEFAULT 0,
    wins      INTEGER NOT NULL DEFAULT 0,
    draws     INTEGER NOT NULL DEFAULT 0,
    losses    INTEGER NOT NULL DEFAULT 0,
    points    INTEGER NOT NULL DEFAULT 0,
    legs_won  INTEGER NOT NULL DEFAULT 0,
    legs_lost INTEGER NOT NULL DEFAULT 0,
    UNIQUE (league_id, player_id)
);

CREATE TABLE league_matches (
    id               INTEGER PRIMARY KEY,
    league_id        INTEGER NOT NULL REFERENCES leagues (id),
    round            INTEGER NOT NULL,
    pass             INTEGER NOT NULL,
    home_player_id   INTEGER NOT NULL REFERENCES players (id),
    away_player_id   INTEGER NOT NULL REFERENCES players (id),
    home_legs        INTEGER,
    away_legs        INTEGER,
    status           TEXT    NOT NULL,
    winner_player_id INTEGER REFERENCES players (id),
    game_id          INTEGER REFERENCES games (id),
    completed_at     TIMESTAMP,
    applied_at       TIMESTAMP
);

CREATE TABLE leaderboard_rows (
    dimension    TEXT      NOT NULL,
    rank         INTEGER   NOT NULL,
    player_id    INTEGER   NOT NULL REFERENCES players (id),
    player_name  TEXT      NOT NULL,
    value        REAL      NOT NULL,
    tiebreak1    REAL      NOT NULL,
    tiebreak2    REAL      NOT NULL,
    games_played INTEGER   NOT NULL,
    refreshed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (dimension, player_id),
    UNIQUE (dimension, rank)
);
`

type testEnv struct {
	db *sql.DB

	playerRepo      repositories.PlayerRepository
	gameRepo        repositories.GameRepository
	participantRepo repositories.ParticipantRepository
	turnRepo        repositories.TurnRepository
	leaderboardRepo repositories.LeaderboardRepository
	tournamentRepo  repositories.TournamentRepository
	tpRepo          repositories.TournamentParticipantRepository
	matchRepo       repositories.MatchRepository
	leagueRepo      repositories.LeagueRepository
	lpRepo          repositories.LeagueParticipantRepository
	lmRepo          repositories.LeagueMatchRepository

	stats       StatsService
	games       GameService
	leaderboard LeaderboardService
	tournaments TournamentService
	leagues     LeagueService
	verify      VerifyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection keeps every statement on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())

	env := &testEnv{
		db:              db,
		playerRepo:      repositories.NewPostgresPlayerRepository(db),
		gameRepo:        repositories.NewPostgresGameRepository(db),
		participantRepo: repositories.NewPostgresParticipantRepository(db),
		turnRepo:        repositories.NewPostgresTurnRepository(db),
		leaderboardRepo: repositories.NewPostgresLeaderboardRepository(db),
		tournamentRepo:  repositories.NewPostgresTournamentRepository(db),
		tpRepo:          repositories.NewPostgresTournamentParticipantRepository(db),
		matchRepo:       repositories.NewPostgresMatchRepository(db),
		leagueRepo:      repositories.NewPostgresLeagueRepository(db),
		lpRepo:          repositories.NewPostgresLeagueParticipantRepository(db),
		lmRepo:          repositories.NewPostgresLeagueMatchRepository(db),
	}

	env.stats = NewStatsService(db, env.gameRepo, env.participantRepo, env.playerRepo, m, log)
	env.games = NewGameService(db, env.gameRepo, env.playerRepo, env.participantRepo, env.turnRepo, env.stats, m, log)
	env.leaderboard = NewLeaderboardService(db, env.playerRepo, env.leaderboardRepo, m, log)
	env.tournaments = NewTournamentService(db, env.tournamentRepo, env.tpRepo, env.matchRepo, env.playerRepo, env.stats, nil, m, log)
	env.leagues = NewLeagueService(db, env.leagueRepo, env.lpRepo, env.lmRepo, env.playerRepo, env.stats, nil, m, log)
	env.verify = NewVerifyService(db, env.playerRepo, env.participantRepo, env.turnRepo, env.gameRepo, m, log)
	return env
}

func (env *testEnv) seedPlayers(t *testing.T, names ...string) []int {
	t.Helper()
	ids := make([]int, len(names))
	now := time.Now().UTC()
	for i, name := range names {
		p := &models.Player{Name: name, CreatedAt: now}
		require.NoError(t, env.playerRepo.Create(context.Background(), nil, p))
		ids[i] = p.ID
	}
	return ids
}

func intPtr(v int) *int { return &v }

// twoPlayerGame builds a minimal valid finished game of 40 up: the winner
// checks out with double tops and a single 20, the loser scores one turn of
// 5s. Winner counters: 1 turn, 2 darts, 40 scored, one successful checkout.
func twoPlayerGame(winner, loser string) RecordGameInput {
	return RecordGameInput{
		TargetScore:  40,
		WinCondition: models.WinExact,
		ScoringMode:  models.ScoringPerDart,
		Participants: []ParticipantInput{
			{
				PlayerName:    winner,
				OrderIndex:    1,
				StartingScore: 40,
				FinalScore:    0,
				Winner:        true,
				Turns: []TurnInput{
					{
						TurnNumber: 1, RoundNumber: 1,
						Dart1: 20, Dart2: intPtr(20),
						TurnTotal: 40, ScoreBefore: 40, ScoreAfter: 0,
						CheckoutAttempt: true, CheckoutSuccess: true,
					},
				},
			},
			{
				PlayerName:    loser,
				OrderIndex:    2,
				StartingScore: 40,
				FinalScore:    25,
				Turns: []TurnInput{
					{
						TurnNumber: 1, RoundNumber: 1,
						Dart1: 5, Dart2: intPtr(5), Dart3: intPtr(5),
						TurnTotal: 15, ScoreBefore: 40, ScoreAfter: 25,
					},
				},
			},
		},
	}
}

// maximumGame scores a 180 on the way to a 240 checkout in two turns.
func maximumGame(winner, loser string) RecordGameInput {
	return RecordGameInput{
		TargetScore:  240,
		WinCondition: models.WinExact,
		ScoringMode:  models.ScoringPerDart,
		Participants: []ParticipantInput{
			{
				PlayerName:    winner,
				OrderIndex:    1,
				StartingScore: 240,
				FinalScore:    0,
				Winner:        true,
				Turns: []TurnInput{
					{
						TurnNumber: 1, RoundNumber: 1,
						Dart1: 60, Dart2: intPtr(60), Dart3: intPtr(60),
						TurnTotal: 180, ScoreBefore: 240, ScoreAfter: 60,
					},
					{
						TurnNumber: 2, RoundNumber: 2,
						Dart1: 20, Dart2: intPtr(20), Dart3: intPtr(20),
						TurnTotal: 60, ScoreBefore: 60, ScoreAfter: 0,
						CheckoutAttempt: true, CheckoutSuccess: true,
					},
				},
			},
			{
				PlayerName:    loser,
				OrderIndex:    2,
				StartingScore: 240,
				FinalScore:    214,
				Turns: []TurnInput{
					{
						TurnNumber: 1, RoundNumber: 1,
						Dart1: 26,
						TurnTotal: 26, ScoreBefore: 240, ScoreAfter: 214,
					},
				},
			},
		},
	}
}
