package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/darts-system/models"
)

// LeaderboardRepository stores the materialized ranking projection. Rows are
// only ever written wholesale by a refresh; reads may lag aggregation by up
// to one refresh interval.
type LeaderboardRepository interface {
	ReplaceAll(ctx context.Context, exec SQLExecutor, rows []*models.LeaderboardRow) error
	ListByDimension(ctx context.Context, exec SQLExecutor, dimension models.LeaderboardDimension, limit, offset int) ([]*models.LeaderboardRow, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]*models.LeaderboardRow, error)
}

type postgresLeaderboardRepository struct {
	db *sql.DB
}

func NewPostgresLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &postgresLeaderboardRepository{db: db}
}

func (r *postgresLeaderboardRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const leaderboardColumns = `dimension, rank, player_id, player_name, value,
	tiebreak1, tiebreak2, games_played, refreshed_at`

func (r *postgresLeaderboardRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, rows []*models.LeaderboardRow) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM leaderboard_rows`); err != nil {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}
	query := `
		INSERT INTO leaderboard_rows
			(dimension, rank, player_id, player_name, value, tiebreak1, tiebreak2, games_played, refreshed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, row := range rows {
		_, err := executor.ExecContext(ctx, query,
			row.Dimension, row.Rank, row.PlayerID, row.PlayerName, row.Value,
			row.Tiebreak1, row.Tiebreak2, row.GamesPlayed, row.RefreshedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert leaderboard row %s/%d: %w", row.Dimension, row.Rank, err)
		}
	}
	return nil
}

func (r *postgresLeaderboardRepository) ListByDimension(ctx context.Context, exec SQLExecutor, dimension models.LeaderboardDimension, limit, offset int) ([]*models.LeaderboardRow, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + leaderboardColumns + ` FROM leaderboard_rows
		WHERE dimension = $1 ORDER BY rank LIMIT $2 OFFSET $3`
	return r.list(ctx, executor, query, dimension, limit, offset)
}

func (r *postgresLeaderboardRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]*models.LeaderboardRow, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + leaderboardColumns + ` FROM leaderboard_rows ORDER BY dimension, rank`
	return r.list(ctx, executor, query)
}

func (r *postgresLeaderboardRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.LeaderboardRow, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*models.LeaderboardRow, 0)
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(
			&row.Dimension, &row.Rank, &row.PlayerID, &row.PlayerName, &row.Value,
			&row.Tiebreak1, &row.Tiebreak2, &row.GamesPlayed, &row.RefreshedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}
