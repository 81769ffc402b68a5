package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/darts-system/models"
)

var ErrLeagueParticipantNotFound = errors.New("league participant not found")

// LeagueResultDelta is the standings increment for one player from one
// completed fixture. Exactly one of Wins/Draws/Losses is 1.
type LeagueResultDelta struct {
	Wins     int
	Draws    int
	Losses   int
	Points   int
	LegsWon  int
	LegsLost int
}

type LeagueParticipantRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, participants []*models.LeagueParticipant) error
	ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.LeagueParticipant, error)
	// ApplyResult folds one fixture result into a standings row with relative
	// increments, mirroring the player aggregate update discipline.
	ApplyResult(ctx context.Context, exec SQLExecutor, leagueID, playerID int, delta LeagueResultDelta) error
}

type postgresLeagueParticipantRepository struct {
	db *sql.DB
}

func NewPostgresLeagueParticipantRepository(db *sql.DB) LeagueParticipantRepository {
	return &postgresLeagueParticipantRepository{db: db}
}

func (r *postgresLeagueParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresLeagueParticipantRepository) BatchCreate(ctx context.Context, exec SQLExecutor, participants []*models.LeagueParticipant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO league_participants (league_id, player_id)
		VALUES ($1, $2)
		RETURNING id`
	for _, lp := range participants {
		err := executor.QueryRowContext(ctx, query, lp.LeagueID, lp.PlayerID).Scan(&lp.ID)
		if err != nil {
			return fmt.Errorf("failed to create league participant player %d: %w", lp.PlayerID, err)
		}
	}
	return nil
}

func (r *postgresLeagueParticipantRepository) ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.LeagueParticipant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, league_id, player_id, played, wins, draws, losses, points, legs_won, legs_lost
		FROM league_participants
		WHERE league_id = $1
		ORDER BY player_id`
	rows, err := executor.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.LeagueParticipant, 0)
	for rows.Next() {
		var lp models.LeagueParticipant
		if err := rows.Scan(
			&lp.ID, &lp.LeagueID, &lp.PlayerID, &lp.Played, &lp.Wins, &lp.Draws,
			&lp.Losses, &lp.Points, &lp.LegsWon, &lp.LegsLost,
		); err != nil {
			return nil, err
		}
		participants = append(participants, &lp)
	}
	return participants, rows.Err()
}

func (r *postgresLeagueParticipantRepository) ApplyResult(ctx context.Context, exec SQLExecutor, leagueID, playerID int, delta LeagueResultDelta) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE league_participants SET
			played = played + 1,
			wins = wins + $1,
			draws = draws + $2,
			losses = losses + $3,
			points = points + $4,
			legs_won = legs_won + $5,
			legs_lost = legs_lost + $6
		WHERE league_id = $7 AND player_id = $8`
	result, err := executor.ExecContext(ctx, query,
		delta.Wins, delta.Draws, delta.Losses, delta.Points,
		delta.LegsWon, delta.LegsLost, leagueID, playerID,
	)
	if err != nil {
		return fmt.Errorf("failed to apply result for player %d in league %d: %w", playerID, leagueID, err)
	}
	return checkAffectedRows(result, ErrLeagueParticipantNotFound)
}
