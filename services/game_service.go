package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/darts-system/metrics"
	"github.com/Dosada05/darts-system/models"
	"github.com/Dosada05/darts-system/repositories"
)

// TurnInput is one turn of a finalized game as delivered by the gameplay
// engine. Bust and checkout flags arrive already decided; only record-level
// arithmetic is re-checked here.
type TurnInput struct {
	TurnNumber      int  `json:"turn_number"`
	RoundNumber     int  `json:"round_number"`
	Dart1           int  `json:"dart1"`
	Dart2           *int `json:"dart2,omitempty"`
	Dart3           *int `json:"dart3,omitempty"`
	TurnTotal       int  `json:"turn_total"`
	ScoreBefore     int  `json:"score_before"`
	ScoreAfter      int  `json:"score_after"`
	Busted          bool `json:"busted"`
	CheckoutAttempt bool `json:"checkout_attempt"`
	CheckoutSuccess bool `json:"checkout_success"`
}

// ParticipantInput is one player's side of a finalized game. Players are
// referenced by name and created on first appearance.
type ParticipantInput struct {
	PlayerName    string      `json:"player_name"`
	OrderIndex    int         `json:"order_index"`
	StartingScore int         `json:"starting_score"`
	FinalScore    int         `json:"final_score"`
	Winner        bool        `json:"winner"`
	FinishRank    *int        `json:"finish_rank,omitempty"`
	FinishRound   *int        `json:"finish_round,omitempty"`
	Turns         []TurnInput `json:"turns"`
}

type RecordGameInput struct {
	TargetScore  int                 `json:"target_score"`
	WinCondition models.WinCondition `json:"win_condition"`
	ScoringMode  models.ScoringMode  `json:"scoring_mode"`
	Abandoned    bool                `json:"abandoned"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	Participants []ParticipantInput  `json:"participants"`
}

type GameService interface {
	// RecordCompletedGame persists a finalized game with its participants
	// and turns in one transaction and then folds it into the lifetime
	// aggregates. A game that fails validation is never partially stored.
	RecordCompletedGame(ctx context.Context, input RecordGameInput) (*models.Game, error)
	GetGame(ctx context.Context, gameID int) (*models.Game, []*models.Participant, error)
}

type gameService struct {
	db              *sql.DB
	gameRepo        repositories.GameRepository
	playerRepo      repositories.PlayerRepository
	participantRepo repositories.ParticipantRepository
	turnRepo        repositories.TurnRepository
	stats           StatsService
	metrics         *metrics.Metrics
	log             *slog.Logger
}

func NewGameService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	playerRepo repositories.PlayerRepository,
	participantRepo repositories.ParticipantRepository,
	turnRepo repositories.TurnRepository,
	stats StatsService,
	m *metrics.Metrics,
	log *slog.Logger,
) GameService {
	return &gameService{
		db:              db,
		gameRepo:        gameRepo,
		playerRepo:      playerRepo,
		participantRepo: participantRepo,
		turnRepo:        turnRepo,
		stats:           stats,
		metrics:         m,
		log:             log,
	}
}

func (s *gameService) RecordCompletedGame(ctx context.Context, input RecordGameInput) (*models.Game, error) {
	if err := validateGameInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	completedAt := now
	if input.CompletedAt != nil {
		completedAt = input.CompletedAt.UTC()
	}

	game := &models.Game{
		TargetScore:  input.TargetScore,
		WinCondition: input.WinCondition,
		ScoringMode:  input.ScoringMode,
		CreatedAt:    now,
		CompletedAt:  &completedAt,
		Abandoned:    input.Abandoned,
	}

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		// Resolve or create every player first so the winner reference
		// exists before the game row is written.
		playerIDs := make([]int, len(input.Participants))
		for i, pi := range input.Participants {
			id, err := s.resolvePlayer(ctx, tx, pi.PlayerName, now)
			if err != nil {
				return err
			}
			playerIDs[i] = id
			if pi.Winner {
				game.WinnerPlayerID = &playerIDs[i]
			}
		}

		if err := s.gameRepo.Create(ctx, tx, game); err != nil {
			return err
		}

		for i, pi := range input.Participants {
			turns := make([]*models.Turn, len(pi.Turns))
			for j, ti := range pi.Turns {
				turns[j] = &models.Turn{
					GameID:          game.ID,
					TurnNumber:      ti.TurnNumber,
					RoundNumber:     ti.RoundNumber,
					Dart1:           ti.Dart1,
					Dart2:           ti.Dart2,
					Dart3:           ti.Dart3,
					TurnTotal:       ti.TurnTotal,
					ScoreBefore:     ti.ScoreBefore,
					ScoreAfter:      ti.ScoreAfter,
					Busted:          ti.Busted,
					CheckoutAttempt: ti.CheckoutAttempt,
					CheckoutSuccess: ti.CheckoutSuccess,
				}
			}
			counters := countersFromTurns(turns)

			participant := &models.Participant{
				GameID:            game.ID,
				PlayerID:          playerIDs[i],
				OrderIndex:        pi.OrderIndex,
				StartingScore:     pi.StartingScore,
				FinalScore:        pi.FinalScore,
				Winner:            pi.Winner,
				FinishRank:        pi.FinishRank,
				FinishRound:       pi.FinishRound,
				Turns:             counters.Turns,
				DartsThrown:       counters.DartsThrown,
				Score:             counters.Score,
				Maximums:          counters.Maximums,
				HighScores:        counters.HighScores,
				MaxDartScore:      counters.MaxDartScore,
				MaxTurnScore:      counters.MaxTurnScore,
				CheckoutAttempts:  counters.CheckoutAttempts,
				CheckoutSuccesses: counters.CheckoutSuccesses,
			}
			if err := s.participantRepo.Create(ctx, tx, participant); err != nil {
				return err
			}
			for _, turn := range turns {
				turn.ParticipantID = participant.ID
				if err := s.turnRepo.Create(ctx, tx, turn); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.GamesRecorded.Inc()
	}
	s.log.Info("game recorded", "game_id", game.ID, "participants", len(input.Participants))

	// Fold into the lifetime aggregates synchronously; a failure here
	// leaves the game persisted and retriable through the aggregate
	// endpoint, so it is reported but does not undo the write.
	if err := s.stats.ApplyGameCompletion(ctx, game.ID); err != nil {
		s.log.Error("failed to aggregate recorded game", "game_id", game.ID, "error", err)
		return game, err
	}
	return game, nil
}

func (s *gameService) GetGame(ctx context.Context, gameID int) (*models.Game, []*models.Participant, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, nil, ErrGameNotFound
		}
		return nil, nil, err
	}
	participants, err := s.participantRepo.ListByGame(ctx, nil, gameID)
	if err != nil {
		return nil, nil, err
	}
	return game, participants, nil
}

func (s *gameService) resolvePlayer(ctx context.Context, tx *sql.Tx, name string, now time.Time) (int, error) {
	player, err := s.playerRepo.GetByName(ctx, tx, name)
	if err == nil {
		return player.ID, nil
	}
	if !errors.Is(err, repositories.ErrPlayerNotFound) {
		return 0, err
	}
	created := &models.Player{Name: name, CreatedAt: now}
	if err := s.playerRepo.Create(ctx, tx, created); err != nil {
		return 0, err
	}
	s.log.Info("player created on first appearance", "player_id", created.ID, "name", name)
	return created.ID, nil
}

func validateGameInput(input RecordGameInput) error {
	if input.TargetScore <= 0 {
		return ErrTargetScoreInvalid
	}
	switch input.WinCondition {
	case models.WinExact, models.WinOpen:
	default:
		return fmt.Errorf("%w: win condition %q", ErrGameConfigInvalid, input.WinCondition)
	}
	switch input.ScoringMode {
	case models.ScoringPerDart, models.ScoringPerTurn:
	default:
		return fmt.Errorf("%w: scoring mode %q", ErrGameConfigInvalid, input.ScoringMode)
	}
	if len(input.Participants) < 2 {
		return ErrParticipantsRequired
	}

	winners := 0
	names := make(map[string]bool, len(input.Participants))
	orders := make(map[int]bool, len(input.Participants))
	for _, pi := range input.Participants {
		if pi.PlayerName == "" {
			return ErrPlayerNameRequired
		}
		if names[pi.PlayerName] {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayerEntry, pi.PlayerName)
		}
		names[pi.PlayerName] = true
		if orders[pi.OrderIndex] {
			return fmt.Errorf("%w: index %d", ErrOrderIndexConflict, pi.OrderIndex)
		}
		orders[pi.OrderIndex] = true
		if pi.Winner {
			winners++
		}
		for j, ti := range pi.Turns {
			if ti.TurnNumber != j+1 {
				return fmt.Errorf("%w: %s turn %d", ErrTurnNumbersInvalid, pi.PlayerName, ti.TurnNumber)
			}
			turn := &models.Turn{
				TurnNumber:  ti.TurnNumber,
				RoundNumber: ti.RoundNumber,
				Dart1:       ti.Dart1,
				Dart2:       ti.Dart2,
				Dart3:       ti.Dart3,
				TurnTotal:   ti.TurnTotal,
				ScoreBefore: ti.ScoreBefore,
				ScoreAfter:  ti.ScoreAfter,
				Busted:      ti.Busted,
			}
			if err := validateTurn(turn); err != nil {
				return fmt.Errorf("%s turn %d: %w", pi.PlayerName, ti.TurnNumber, err)
			}
		}
	}

	if winners == 0 && !input.Abandoned {
		return ErrOutcomeMissing
	}
	if winners > 1 {
		return fmt.Errorf("%w: %d winners reported", ErrOutcomeMissing, winners)
	}
	return nil
}
