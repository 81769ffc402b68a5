package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/Dosada05/darts-system/metrics"
	"github.com/Dosada05/darts-system/models"
	"github.com/Dosada05/darts-system/repositories"
	"golang.org/x/sync/errgroup"
)

// Discrepancy is one field whose stored value diverged from the value
// recomputed from raw records. Scope is "player" (lifetime counter vs
// participant rows) or "participant" (per-game counter vs turn rows).
type Discrepancy struct {
	Scope    string `json:"scope"`
	EntityID int    `json:"entity_id"`
	Field    string `json:"field"`
	Stored   int    `json:"stored"`
	Computed int    `json:"computed"`
}

type VerifyService interface {
	// VerifyPlayer recomputes one player's lifetime counters from their
	// aggregated participant rows and each of those rows from its turns,
	// reporting every divergence rather than failing on the first.
	VerifyPlayer(ctx context.Context, playerID int) ([]Discrepancy, error)
	// VerifyGame checks each participant of one game against its turns.
	VerifyGame(ctx context.Context, gameID int) ([]Discrepancy, error)
	// VerifyAll runs VerifyPlayer for every known player, fanned out over
	// a bounded worker group.
	VerifyAll(ctx context.Context) ([]Discrepancy, error)
	// RepairPlayer overwrites the player's stored counters (and their
	// participants' counters) with recomputed values. Verification never
	// corrects implicitly; this is the explicit repair path.
	RepairPlayer(ctx context.Context, playerID int) error
}

type verifyService struct {
	db              *sql.DB
	playerRepo      repositories.PlayerRepository
	participantRepo repositories.ParticipantRepository
	turnRepo        repositories.TurnRepository
	gameRepo        repositories.GameRepository
	metrics         *metrics.Metrics
	log             *slog.Logger
}

func NewVerifyService(
	db *sql.DB,
	playerRepo repositories.PlayerRepository,
	participantRepo repositories.ParticipantRepository,
	turnRepo repositories.TurnRepository,
	gameRepo repositories.GameRepository,
	m *metrics.Metrics,
	log *slog.Logger,
) VerifyService {
	return &verifyService{
		db:              db,
		playerRepo:      playerRepo,
		participantRepo: participantRepo,
		turnRepo:        turnRepo,
		gameRepo:        gameRepo,
		metrics:         m,
		log:             log,
	}
}

const verifyWorkers = 8

func (s *verifyService) VerifyPlayer(ctx context.Context, playerID int) ([]Discrepancy, error) {
	player, err := s.playerRepo.GetByID(ctx, nil, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return s.verifyPlayer(ctx, player)
}

func (s *verifyService) verifyPlayer(ctx context.Context, player *models.Player) ([]Discrepancy, error) {
	participants, err := s.participantRepo.ListAggregatedByPlayer(ctx, nil, player.ID)
	if err != nil {
		return nil, err
	}

	discrepancies := comparePlayerTotals(player.ID, player.Totals(), totalsFromParticipants(participants))
	for _, p := range participants {
		found, err := s.verifyParticipant(ctx, p)
		if err != nil {
			return nil, err
		}
		discrepancies = append(discrepancies, found...)
	}
	return discrepancies, nil
}

func (s *verifyService) VerifyGame(ctx context.Context, gameID int) ([]Discrepancy, error) {
	if _, err := s.gameRepo.GetByID(ctx, nil, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	participants, err := s.participantRepo.ListByGame(ctx, nil, gameID)
	if err != nil {
		return nil, err
	}

	discrepancies := make([]Discrepancy, 0)
	for _, p := range participants {
		found, err := s.verifyParticipant(ctx, p)
		if err != nil {
			return nil, err
		}
		discrepancies = append(discrepancies, found...)
	}
	return discrepancies, nil
}

func (s *verifyService) VerifyAll(ctx context.Context) ([]Discrepancy, error) {
	players, err := s.playerRepo.List(ctx, nil, false)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	discrepancies := make([]Discrepancy, 0)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(verifyWorkers)
	for _, player := range players {
		player := player
		g.Go(func() error {
			found, err := s.verifyPlayer(gCtx, player)
			if err != nil {
				return err
			}
			mu.Lock()
			discrepancies = append(discrepancies, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(discrepancies, func(i, j int) bool {
		a, b := discrepancies[i], discrepancies[j]
		if a.Scope != b.Scope {
			return a.Scope < b.Scope
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return a.Field < b.Field
	})

	if s.metrics != nil {
		s.metrics.VerifierDiscrepancies.Set(float64(len(discrepancies)))
	}
	if len(discrepancies) > 0 {
		s.log.Warn("verification found discrepancies", "count", len(discrepancies))
	}
	return discrepancies, nil
}

func (s *verifyService) RepairPlayer(ctx context.Context, playerID int) error {
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.playerRepo.GetByID(ctx, tx, playerID); err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}
		participants, err := s.participantRepo.ListAggregatedByPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}

		// Participant counters are rebuilt from turns first so the player
		// totals sum over corrected rows.
		for _, p := range participants {
			turns, err := s.turnRepo.ListByParticipant(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			c := countersFromTurns(turns)
			p.Turns = c.Turns
			p.DartsThrown = c.DartsThrown
			p.Score = c.Score
			p.Maximums = c.Maximums
			p.HighScores = c.HighScores
			p.MaxDartScore = c.MaxDartScore
			p.MaxTurnScore = c.MaxTurnScore
			p.CheckoutAttempts = c.CheckoutAttempts
			p.CheckoutSuccesses = c.CheckoutSuccesses
			if err := s.participantRepo.OverwriteCounters(ctx, tx, p); err != nil {
				return err
			}
		}
		return s.playerRepo.OverwriteTotals(ctx, tx, playerID, totalsFromParticipants(participants))
	})
	if err != nil {
		return err
	}
	s.log.Info("player aggregates repaired", "player_id", playerID)
	return nil
}

func (s *verifyService) verifyParticipant(ctx context.Context, p *models.Participant) ([]Discrepancy, error) {
	turns, err := s.turnRepo.ListByParticipant(ctx, nil, p.ID)
	if err != nil {
		return nil, err
	}
	c := countersFromTurns(turns)

	checks := []struct {
		field            string
		stored, computed int
	}{
		{"turns", p.Turns, c.Turns},
		{"darts_thrown", p.DartsThrown, c.DartsThrown},
		{"score", p.Score, c.Score},
		{"maximums", p.Maximums, c.Maximums},
		{"high_scores", p.HighScores, c.HighScores},
		{"max_dart_score", p.MaxDartScore, c.MaxDartScore},
		{"max_turn_score", p.MaxTurnScore, c.MaxTurnScore},
		{"checkout_attempts", p.CheckoutAttempts, c.CheckoutAttempts},
		{"checkout_successes", p.CheckoutSuccesses, c.CheckoutSuccesses},
	}

	discrepancies := make([]Discrepancy, 0)
	for _, check := range checks {
		if check.stored != check.computed {
			discrepancies = append(discrepancies, Discrepancy{
				Scope:    "participant",
				EntityID: p.ID,
				Field:    check.field,
				Stored:   check.stored,
				Computed: check.computed,
			})
		}
	}
	return discrepancies, nil
}

func totalsFromParticipants(participants []*models.Participant) models.PlayerTotals {
	var t models.PlayerTotals
	for _, p := range participants {
		t.TotalGames++
		if p.Winner {
			t.TotalGamesWon++
		}
		t.TotalTurns += p.Turns
		t.TotalDartsThrown += p.DartsThrown
		t.TotalScore += p.Score
		t.TotalMaximums += p.Maximums
		t.TotalHighScores += p.HighScores
		if p.MaxDartScore > t.MaxDartScore {
			t.MaxDartScore = p.MaxDartScore
		}
		if p.MaxTurnScore > t.MaxTurnScore {
			t.MaxTurnScore = p.MaxTurnScore
		}
		t.TotalCheckoutAttempts += p.CheckoutAttempts
		t.TotalCheckoutSuccesses += p.CheckoutSuccesses
	}
	return t
}

func comparePlayerTotals(playerID int, stored, computed models.PlayerTotals) []Discrepancy {
	checks := []struct {
		field            string
		stored, computed int
	}{
		{"total_games", stored.TotalGames, computed.TotalGames},
		{"total_games_won", stored.TotalGamesWon, computed.TotalGamesWon},
		{"total_turns", stored.TotalTurns, computed.TotalTurns},
		{"total_darts_thrown", stored.TotalDartsThrown, computed.TotalDartsThrown},
		{"total_score", stored.TotalScore, computed.TotalScore},
		{"total_maximums", stored.TotalMaximums, computed.TotalMaximums},
		{"total_high_scores", stored.TotalHighScores, computed.TotalHighScores},
		{"max_dart_score", stored.MaxDartScore, computed.MaxDartScore},
		{"max_turn_score", stored.MaxTurnScore, computed.MaxTurnScore},
		{"total_checkout_attempts", stored.TotalCheckoutAttempts, computed.TotalCheckoutAttempts},
		{"total_checkout_successes", stored.TotalCheckoutSuccesses, computed.TotalCheckoutSuccesses},
	}

	discrepancies := make([]Discrepancy, 0)
	for _, check := range checks {
		if check.stored != check.computed {
			discrepancies = append(discrepancies, Discrepancy{
				Scope:    "player",
				EntityID: playerID,
				Field:    check.field,
				Stored:   check.stored,
				Computed: check.computed,
			})
		}
	}
	return discrepancies
}
