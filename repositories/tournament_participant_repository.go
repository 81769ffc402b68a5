package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/darts-system/models"
)

var (
	ErrTournamentParticipantNotFound = errors.New("tournament participant not found")
	ErrSeedConflict                  = errors.New("player or seed already present in tournament")
)

type TournamentParticipantRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, participants []*models.TournamentParticipant) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentParticipant, error)
	// SetEliminated marks the player out of the tournament, recording the
	// bracket round of the deciding loss (negative = losers bracket).
	SetEliminated(ctx context.Context, exec SQLExecutor, tournamentID, playerID, round int) error
	SetPlacement(ctx context.Context, exec SQLExecutor, tournamentID, playerID, placement int) error
}

type postgresTournamentParticipantRepository struct {
	db *sql.DB
}

func NewPostgresTournamentParticipantRepository(db *sql.DB) TournamentParticipantRepository {
	return &postgresTournamentParticipantRepository{db: db}
}

func (r *postgresTournamentParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentParticipantRepository) BatchCreate(ctx context.Context, exec SQLExecutor, participants []*models.TournamentParticipant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_participants (tournament_id, player_id, seed)
		VALUES ($1, $2, $3)
		RETURNING id`
	for _, tp := range participants {
		err := executor.QueryRowContext(ctx, query, tp.TournamentID, tp.PlayerID, tp.Seed).Scan(&tp.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrSeedConflict
			}
			return fmt.Errorf("failed to create tournament participant seed %d: %w", tp.Seed, err)
		}
	}
	return nil
}

func (r *postgresTournamentParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentParticipant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, player_id, seed, eliminated, eliminated_in_round, final_placement
		FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY seed`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.TournamentParticipant, 0)
	for rows.Next() {
		var tp models.TournamentParticipant
		if err := rows.Scan(
			&tp.ID, &tp.TournamentID, &tp.PlayerID, &tp.Seed,
			&tp.Eliminated, &tp.EliminatedInRound, &tp.FinalPlacement,
		); err != nil {
			return nil, err
		}
		participants = append(participants, &tp)
	}
	return participants, rows.Err()
}

func (r *postgresTournamentParticipantRepository) SetEliminated(ctx context.Context, exec SQLExecutor, tournamentID, playerID, round int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_participants SET eliminated = $1, eliminated_in_round = $2
		WHERE tournament_id = $3 AND player_id = $4`
	result, err := executor.ExecContext(ctx, query, true, round, tournamentID, playerID)
	if err != nil {
		return fmt.Errorf("failed to eliminate player %d in tournament %d: %w", playerID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrTournamentParticipantNotFound)
}

func (r *postgresTournamentParticipantRepository) SetPlacement(ctx context.Context, exec SQLExecutor, tournamentID, playerID, placement int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_participants SET final_placement = $1
		WHERE tournament_id = $2 AND player_id = $3`
	result, err := executor.ExecContext(ctx, query, placement, tournamentID, playerID)
	if err != nil {
		return fmt.Errorf("failed to set placement for player %d in tournament %d: %w", playerID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrTournamentParticipantNotFound)
}
