package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/darts-system/models"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchSlotOccupied = errors.New("match slot already occupied")
	ErrMatchWrongState   = errors.New("match is not in the required state")
	ErrMatchSlotInvalid  = errors.New("match slot must be 1 or 2")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	// SetNextPointers links a created match to the matches its winner and
	// loser advance to (second pass of bracket creation).
	SetNextPointers(ctx context.Context, exec SQLExecutor, matchID int, winnerNext, winnerSlot, loserNext, loserSlot *int) error
	// FillSlot places a player into an empty slot. The update is conditional
	// on the slot being NULL so concurrent sibling completions serialize on
	// the store; an occupied slot returns ErrMatchSlotOccupied.
	FillSlot(ctx context.Context, exec SQLExecutor, matchID, slot, playerID int) error
	// PromoteIfReady moves a pending match to ready once both slots are
	// populated, reporting whether the transition happened.
	PromoteIfReady(ctx context.Context, exec SQLExecutor, matchID int) (bool, error)
	// SetInProgress moves a ready match to in_progress, optionally linking
	// the live game.
	SetInProgress(ctx context.Context, exec SQLExecutor, matchID int, gameID *int) error
	// Complete records the winner; conditional on the match not yet being
	// completed so a replayed report is detected by the caller.
	Complete(ctx context.Context, exec SQLExecutor, matchID, winnerPlayerID int, at time.Time) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, bracket_uid, round, position, status,
	player1_id, player2_id, winner_player_id, game_id, bye,
	winner_next_match_id, winner_next_slot, loser_next_match_id, loser_next_slot,
	created_at, completed_at`

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var completedAt sql.NullTime
	err := rowScanner.Scan(
		&m.ID, &m.TournamentID, &m.BracketUID, &m.Round, &m.Position, &m.Status,
		&m.Player1ID, &m.Player2ID, &m.WinnerPlayerID, &m.GameID, &m.Bye,
		&m.WinnerNextMatchID, &m.WinnerNextSlot, &m.LoserNextMatchID, &m.LoserNextSlot,
		&m.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Time
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, bracket_uid, round, position, status,
			 player1_id, player2_id, winner_player_id, bye, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		match.TournamentID, match.BracketUID, match.Round, match.Position, match.Status,
		match.Player1ID, match.Player2ID, match.WinnerPlayerID, match.Bye,
		match.CreatedAt, match.CompletedAt,
	).Scan(&match.ID)
	if err != nil {
		return fmt.Errorf("failed to create match %s: %w", match.BracketUID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE tournament_id = $1 ORDER BY round, position`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, errScan := r.scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) SetNextPointers(ctx context.Context, exec SQLExecutor, matchID int, winnerNext, winnerSlot, loserNext, loserSlot *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			winner_next_match_id = $1, winner_next_slot = $2,
			loser_next_match_id = $3, loser_next_slot = $4
		WHERE id = $5`
	result, err := executor.ExecContext(ctx, query, winnerNext, winnerSlot, loserNext, loserSlot, matchID)
	if err != nil {
		return fmt.Errorf("failed to link match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) FillSlot(ctx context.Context, exec SQLExecutor, matchID, slot, playerID int) error {
	executor := r.getExecutor(exec)
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET player1_id = $1 WHERE id = $2 AND player1_id IS NULL`
	case 2:
		query = `UPDATE matches SET player2_id = $1 WHERE id = $2 AND player2_id IS NULL`
	default:
		return ErrMatchSlotInvalid
	}
	result, err := executor.ExecContext(ctx, query, playerID, matchID)
	if err != nil {
		return fmt.Errorf("failed to fill slot %d of match %d: %w", slot, matchID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMatchSlotOccupied
	}
	return nil
}

func (r *postgresMatchRepository) PromoteIfReady(ctx context.Context, exec SQLExecutor, matchID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET status = $1
		WHERE id = $2 AND status = $3
		  AND player1_id IS NOT NULL AND player2_id IS NOT NULL`
	result, err := executor.ExecContext(ctx, query, models.MatchReady, matchID, models.MatchPending)
	if err != nil {
		return false, fmt.Errorf("failed to promote match %d: %w", matchID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postgresMatchRepository) SetInProgress(ctx context.Context, exec SQLExecutor, matchID int, gameID *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET status = $1, game_id = $2
		WHERE id = $3 AND status = $4`
	result, err := executor.ExecContext(ctx, query, models.MatchInProgress, gameID, matchID, models.MatchReady)
	if err != nil {
		return fmt.Errorf("failed to start match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchWrongState)
}

func (r *postgresMatchRepository) Complete(ctx context.Context, exec SQLExecutor, matchID, winnerPlayerID int, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET status = $1, winner_player_id = $2, completed_at = $3
		WHERE id = $4 AND status IN ($5, $6)`
	result, err := executor.ExecContext(ctx, query,
		models.MatchCompleted, winnerPlayerID, at, matchID,
		models.MatchReady, models.MatchInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to complete match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchWrongState)
}
