package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/darts-system/metrics"
	"github.com/Dosada05/darts-system/models"
	"github.com/Dosada05/darts-system/repositories"
)

type LeaderboardService interface {
	// Refresh rebuilds every dimension of the materialized leaderboard
	// from the current player aggregates.
	Refresh(ctx context.Context) error
	// RefreshOne re-reads a single player and re-ranks the stored
	// projection around them, without rescanning every player.
	RefreshOne(ctx context.Context, playerID int) error
	GetLeaderboard(ctx context.Context, dimension models.LeaderboardDimension, page, perPage int) ([]*models.LeaderboardRow, error)
}

type leaderboardService struct {
	db              *sql.DB
	playerRepo      repositories.PlayerRepository
	leaderboardRepo repositories.LeaderboardRepository
	metrics         *metrics.Metrics
	log             *slog.Logger
}

func NewLeaderboardService(
	db *sql.DB,
	playerRepo repositories.PlayerRepository,
	leaderboardRepo repositories.LeaderboardRepository,
	m *metrics.Metrics,
	log *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		db:              db,
		playerRepo:      playerRepo,
		leaderboardRepo: leaderboardRepo,
		metrics:         m,
		log:             log,
	}
}

func (s *leaderboardService) Refresh(ctx context.Context) error {
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		players, err := s.playerRepo.List(ctx, tx, true)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		rows := make([]*models.LeaderboardRow, 0, len(players)*len(models.LeaderboardDimensions))
		for _, dimension := range models.LeaderboardDimensions {
			rows = append(rows, buildDimension(dimension, players, now)...)
		}
		return s.leaderboardRepo.ReplaceAll(ctx, tx, rows)
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.LeaderboardRefreshes.Inc()
	}
	s.log.Info("leaderboard refreshed")
	return nil
}

func (s *leaderboardService) RefreshOne(ctx context.Context, playerID int) error {
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		player, err := s.playerRepo.GetByID(ctx, tx, playerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}

		stored, err := s.leaderboardRepo.ListAll(ctx, tx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		byDimension := make(map[models.LeaderboardDimension][]*models.LeaderboardRow, len(models.LeaderboardDimensions))
		for _, row := range stored {
			if row.PlayerID == playerID {
				continue
			}
			byDimension[row.Dimension] = append(byDimension[row.Dimension], row)
		}

		rows := make([]*models.LeaderboardRow, 0, len(stored)+len(models.LeaderboardDimensions))
		for _, dimension := range models.LeaderboardDimensions {
			dimRows := byDimension[dimension]
			if player.TotalGames > 0 {
				dimRows = append(dimRows, scoreRow(dimension, player, now))
			}
			sortRows(dimRows)
			for i, row := range dimRows {
				row.Rank = i + 1
			}
			rows = append(rows, dimRows...)
		}
		return s.leaderboardRepo.ReplaceAll(ctx, tx, rows)
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.LeaderboardRefreshes.Inc()
	}
	s.log.Info("leaderboard refreshed for player", "player_id", playerID)
	return nil
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, dimension models.LeaderboardDimension, page, perPage int) ([]*models.LeaderboardRow, error) {
	if _, err := models.ParseLeaderboardDimension(string(dimension)); err != nil {
		return nil, ErrUnknownDimension
	}
	limit, offset := normalizePage(page, perPage)
	return s.leaderboardRepo.ListByDimension(ctx, nil, dimension, limit, offset)
}

func buildDimension(dimension models.LeaderboardDimension, players []*models.Player, now time.Time) []*models.LeaderboardRow {
	rows := make([]*models.LeaderboardRow, 0, len(players))
	for _, p := range players {
		rows = append(rows, scoreRow(dimension, p, now))
	}
	sortRows(rows)
	for i, row := range rows {
		row.Rank = i + 1
	}
	return rows
}

// scoreRow computes a player's value and tie-break keys for one dimension.
// Volume tie-breaks keep small samples from ranking above established
// players on rate dimensions.
func scoreRow(dimension models.LeaderboardDimension, p *models.Player, now time.Time) *models.LeaderboardRow {
	row := &models.LeaderboardRow{
		Dimension:   dimension,
		PlayerID:    p.ID,
		PlayerName:  p.Name,
		GamesPlayed: p.TotalGames,
		RefreshedAt: now,
	}
	switch dimension {
	case models.DimensionWins:
		row.Value = float64(p.TotalGamesWon)
		row.Tiebreak1 = p.WinRate()
		row.Tiebreak2 = float64(p.TotalGames)
	case models.DimensionWinRate:
		row.Value = p.WinRate()
		row.Tiebreak1 = float64(p.TotalGames)
	case models.DimensionAvgPerDart:
		row.Value = p.AverageScorePerDart()
		row.Tiebreak1 = float64(p.TotalDartsThrown)
	case models.DimensionAvgPerTurn:
		row.Value = p.AverageScorePerTurn()
		row.Tiebreak1 = float64(p.TotalTurns)
	case models.DimensionMaximums:
		row.Value = float64(p.TotalMaximums)
		row.Tiebreak1 = float64(p.TotalDartsThrown)
	case models.DimensionCheckoutPct:
		row.Value = p.CheckoutPercentage()
		row.Tiebreak1 = float64(p.TotalCheckoutAttempts)
	}
	return row
}

// sortRows orders by (value desc, tiebreak1 desc, tiebreak2 desc, player id
// asc): a total order, so ranks are always distinct.
func sortRows(rows []*models.LeaderboardRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.Tiebreak1 != b.Tiebreak1 {
			return a.Tiebreak1 > b.Tiebreak1
		}
		if a.Tiebreak2 != b.Tiebreak2 {
			return a.Tiebreak2 > b.Tiebreak2
		}
		return a.PlayerID < b.PlayerID
	})
}
