package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/darts-system/metrics"
	"github.com/Dosada05/darts-system/repositories"
)

type StatsService interface {
	// ApplyGameCompletion folds one completed game into its players'
	// lifetime aggregates, exactly once per game. Re-invoking for an
	// already-aggregated game is a successful no-op so callers can retry
	// freely.
	ApplyGameCompletion(ctx context.Context, gameID int) error
	// ApplyPending aggregates every completed game that has not been
	// applied yet and reports how many it picked up. Used by the backlog
	// sweep in cmd/main.
	ApplyPending(ctx context.Context) (int, error)
}

type statsService struct {
	db              *sql.DB
	gameRepo        repositories.GameRepository
	participantRepo repositories.ParticipantRepository
	playerRepo      repositories.PlayerRepository
	metrics         *metrics.Metrics
	log             *slog.Logger
}

func NewStatsService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	participantRepo repositories.ParticipantRepository,
	playerRepo repositories.PlayerRepository,
	m *metrics.Metrics,
	log *slog.Logger,
) StatsService {
	return &statsService{
		db:              db,
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		playerRepo:      playerRepo,
		metrics:         m,
		log:             log,
	}
}

func (s *statsService) ApplyGameCompletion(ctx context.Context, gameID int) error {
	applied := false
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		game, err := s.gameRepo.GetByID(ctx, tx, gameID)
		if err != nil {
			if errors.Is(err, repositories.ErrGameNotFound) {
				return ErrGameNotFound
			}
			return err
		}
		if !game.Completed() {
			return ErrGameNotCompleted
		}

		// The marker claim and the counter increments commit together:
		// losing the claim means another call already applied this game,
		// and a rollback releases the claim along with any increments.
		claimed, err := s.gameRepo.ClaimAggregation(ctx, tx, gameID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		participants, err := s.participantRepo.ListByGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		for _, p := range participants {
			if err := s.playerRepo.ApplyAggregate(ctx, tx, p.PlayerID, p); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return err
	}

	if applied {
		if s.metrics != nil {
			s.metrics.GamesAggregated.Inc()
		}
		s.log.Info("game aggregated", "game_id", gameID)
	} else {
		if s.metrics != nil {
			s.metrics.AggregationReplays.Inc()
		}
		s.log.Debug("game already aggregated, skipping", "game_id", gameID)
	}
	return nil
}

func (s *statsService) ApplyPending(ctx context.Context) (int, error) {
	games, err := s.gameRepo.ListUnaggregated(ctx, nil)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, game := range games {
		if err := s.ApplyGameCompletion(ctx, game.ID); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}
