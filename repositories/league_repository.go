package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/darts-system/models"
)

var ErrLeagueNotFound = errors.New("league not found")

type LeagueRepository interface {
	Create(ctx context.Context, exec SQLExecutor, league *models.League) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.League, error)
	SetStatus(ctx context.Context, exec SQLExecutor, id int, status models.LeagueStatus) error
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresLeagueRepository) Create(ctx context.Context, exec SQLExecutor, league *models.League) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO leagues (name, passes, points_for_win, points_for_draw, points_for_loss, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		league.Name, league.Passes, league.PointsForWin, league.PointsForDraw,
		league.PointsForLoss, league.Status, league.CreatedAt,
	).Scan(&league.ID)
	if err != nil {
		return fmt.Errorf("failed to create league %q: %w", league.Name, err)
	}
	return nil
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.League, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, name, passes, points_for_win, points_for_draw, points_for_loss, status, created_at
		FROM leagues WHERE id = $1`
	var l models.League
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.Name, &l.Passes, &l.PointsForWin, &l.PointsForDraw,
		&l.PointsForLoss, &l.Status, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *postgresLeagueRepository) SetStatus(ctx context.Context, exec SQLExecutor, id int, status models.LeagueStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE leagues SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update league %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}
