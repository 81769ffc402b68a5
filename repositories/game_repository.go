package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/darts-system/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	// ClaimAggregation performs the exactly-once check-and-set: it stamps
	// aggregated_at if and only if the game is completed and not yet
	// aggregated, reporting whether this call won the claim. The stamp is
	// atomic with the counter updates because both run in one transaction.
	ClaimAggregation(ctx context.Context, exec SQLExecutor, gameID int, at time.Time) (bool, error)
	// ListUnaggregated returns completed games whose aggregation never ran,
	// oldest first. Used by audits.
	ListUnaggregated(ctx context.Context, exec SQLExecutor) ([]*models.Game, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `id, target_score, win_condition, scoring_mode, created_at,
	completed_at, winner_player_id, abandoned, aggregated_at`

func (r *postgresGameRepository) scanGame(rowScanner interface{ Scan(...interface{}) error }) (*models.Game, error) {
	var g models.Game
	var completedAt, aggregatedAt sql.NullTime
	err := rowScanner.Scan(
		&g.ID, &g.TargetScore, &g.WinCondition, &g.ScoringMode, &g.CreatedAt,
		&completedAt, &g.WinnerPlayerID, &g.Abandoned, &aggregatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	if completedAt.Valid {
		g.CompletedAt = &completedAt.Time
	}
	if aggregatedAt.Valid {
		g.AggregatedAt = &aggregatedAt.Time
	}
	return &g, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO games
			(target_score, win_condition, scoring_mode, created_at,
			 completed_at, winner_player_id, abandoned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		game.TargetScore, game.WinCondition, game.ScoringMode, game.CreatedAt,
		game.CompletedAt, game.WinnerPlayerID, game.Abandoned,
	).Scan(&game.ID)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return r.scanGame(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) ClaimAggregation(ctx context.Context, exec SQLExecutor, gameID int, at time.Time) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE games SET aggregated_at = $1
		WHERE id = $2 AND completed_at IS NOT NULL AND aggregated_at IS NULL`
	result, err := executor.ExecContext(ctx, query, at, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to claim aggregation for game %d: %w", gameID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postgresGameRepository) ListUnaggregated(ctx context.Context, exec SQLExecutor) ([]*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + gameColumns + ` FROM games
		WHERE completed_at IS NOT NULL AND aggregated_at IS NULL
		ORDER BY completed_at`
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		g, errScan := r.scanGame(rows)
		if errScan != nil {
			return nil, errScan
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
