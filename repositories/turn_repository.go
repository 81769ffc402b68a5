package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/darts-system/models"
)

var ErrTurnNotFound = errors.New("turn not found")

type TurnRepository interface {
	Create(ctx context.Context, exec SQLExecutor, turn *models.Turn) error
	ListByParticipant(ctx context.Context, exec SQLExecutor, participantID int) ([]*models.Turn, error)
	ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Turn, error)
}

type postgresTurnRepository struct {
	db *sql.DB
}

func NewPostgresTurnRepository(db *sql.DB) TurnRepository {
	return &postgresTurnRepository{db: db}
}

func (r *postgresTurnRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const turnColumns = `id, game_id, participant_id, turn_number, round_number,
	dart1, dart2, dart3, turn_total, score_before, score_after,
	busted, checkout_attempt, checkout_success`

func (r *postgresTurnRepository) scanTurn(rowScanner interface{ Scan(...interface{}) error }) (*models.Turn, error) {
	var t models.Turn
	err := rowScanner.Scan(
		&t.ID, &t.GameID, &t.ParticipantID, &t.TurnNumber, &t.RoundNumber,
		&t.Dart1, &t.Dart2, &t.Dart3, &t.TurnTotal, &t.ScoreBefore, &t.ScoreAfter,
		&t.Busted, &t.CheckoutAttempt, &t.CheckoutSuccess,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTurnNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTurnRepository) Create(ctx context.Context, exec SQLExecutor, turn *models.Turn) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO turns
			(game_id, participant_id, turn_number, round_number, dart1, dart2, dart3,
			 turn_total, score_before, score_after, busted, checkout_attempt, checkout_success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		turn.GameID, turn.ParticipantID, turn.TurnNumber, turn.RoundNumber,
		turn.Dart1, turn.Dart2, turn.Dart3, turn.TurnTotal,
		turn.ScoreBefore, turn.ScoreAfter, turn.Busted,
		turn.CheckoutAttempt, turn.CheckoutSuccess,
	).Scan(&turn.ID)
	if err != nil {
		return fmt.Errorf("failed to create turn %d for participant %d: %w",
			turn.TurnNumber, turn.ParticipantID, err)
	}
	return nil
}

func (r *postgresTurnRepository) ListByParticipant(ctx context.Context, exec SQLExecutor, participantID int) ([]*models.Turn, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + turnColumns + ` FROM turns
		WHERE participant_id = $1 ORDER BY turn_number`
	return r.list(ctx, executor, query, participantID)
}

func (r *postgresTurnRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Turn, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + turnColumns + ` FROM turns
		WHERE game_id = $1 ORDER BY round_number, participant_id`
	return r.list(ctx, executor, query, gameID)
}

func (r *postgresTurnRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Turn, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := make([]*models.Turn, 0)
	for rows.Next() {
		t, errScan := r.scanTurn(rows)
		if errScan != nil {
			return nil, errScan
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
