package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/darts-system/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// SetCompleted records the tournament winner; it is conditional on the
	// tournament still being active so a replayed final report is a no-op.
	SetCompleted(ctx context.Context, exec SQLExecutor, id int, winnerPlayerID int, at time.Time) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (name, format, size, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		tournament.Name, tournament.Format, tournament.Size, tournament.Status, tournament.CreatedAt,
	).Scan(&tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to create tournament %q: %w", tournament.Name, err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, name, format, size, status, winner_player_id, created_at, completed_at
		FROM tournaments WHERE id = $1`
	var t models.Tournament
	var completedAt sql.NullTime
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Format, &t.Size, &t.Status,
		&t.WinnerPlayerID, &t.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

func (r *postgresTournamentRepository) SetCompleted(ctx context.Context, exec SQLExecutor, id int, winnerPlayerID int, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET status = $1, winner_player_id = $2, completed_at = $3
		WHERE id = $4 AND status = $5`
	result, err := executor.ExecContext(ctx, query,
		models.TournamentCompleted, winnerPlayerID, at, id, models.TournamentActive,
	)
	if err != nil {
		return fmt.Errorf("failed to complete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
