package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/darts-system/models"
)

var ErrLeagueMatchNotFound = errors.New("league match not found")

type LeagueMatchRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, matches []*models.LeagueMatch) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.LeagueMatch, error)
	ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.LeagueMatch, error)
	// ClaimResult is the exactly-once check-and-set for standings
	// application: it records the legs, winner and applied_at stamp if and
	// only if the fixture has not been applied yet, reporting whether this
	// call won the claim.
	ClaimResult(ctx context.Context, exec SQLExecutor, matchID, homeLegs, awayLegs int, winnerPlayerID *int, at time.Time) (bool, error)
	SetGame(ctx context.Context, exec SQLExecutor, matchID int, gameID int) error
	CountUnapplied(ctx context.Context, exec SQLExecutor, leagueID int) (int, error)
}

type postgresLeagueMatchRepository struct {
	db *sql.DB
}

func NewPostgresLeagueMatchRepository(db *sql.DB) LeagueMatchRepository {
	return &postgresLeagueMatchRepository{db: db}
}

func (r *postgresLeagueMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const leagueMatchColumns = `id, league_id, round, pass, home_player_id, away_player_id,
	home_legs, away_legs, status, winner_player_id, game_id, completed_at, applied_at`

func (r *postgresLeagueMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.LeagueMatch, error) {
	var m models.LeagueMatch
	var completedAt, appliedAt sql.NullTime
	err := rowScanner.Scan(
		&m.ID, &m.LeagueID, &m.Round, &m.Pass, &m.HomePlayerID, &m.AwayPlayerID,
		&m.HomeLegs, &m.AwayLegs, &m.Status, &m.WinnerPlayerID, &m.GameID,
		&completedAt, &appliedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueMatchNotFound
		}
		return nil, err
	}
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Time
	}
	if appliedAt.Valid {
		m.AppliedAt = &appliedAt.Time
	}
	return &m, nil
}

func (r *postgresLeagueMatchRepository) BatchCreate(ctx context.Context, exec SQLExecutor, matches []*models.LeagueMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO league_matches (league_id, round, pass, home_player_id, away_player_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	for _, m := range matches {
		err := executor.QueryRowContext(ctx, query,
			m.LeagueID, m.Round, m.Pass, m.HomePlayerID, m.AwayPlayerID, m.Status,
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("failed to create fixture %d vs %d: %w", m.HomePlayerID, m.AwayPlayerID, err)
		}
	}
	return nil
}

func (r *postgresLeagueMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.LeagueMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + leagueMatchColumns + ` FROM league_matches WHERE id = $1`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresLeagueMatchRepository) ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.LeagueMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + leagueMatchColumns + ` FROM league_matches
		WHERE league_id = $1 ORDER BY pass, round, id`
	rows, err := executor.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.LeagueMatch, 0)
	for rows.Next() {
		m, errScan := r.scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresLeagueMatchRepository) ClaimResult(ctx context.Context, exec SQLExecutor, matchID, homeLegs, awayLegs int, winnerPlayerID *int, at time.Time) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE league_matches SET
			home_legs = $1, away_legs = $2, winner_player_id = $3,
			status = $4, completed_at = $5, applied_at = $6
		WHERE id = $7 AND applied_at IS NULL`
	result, err := executor.ExecContext(ctx, query,
		homeLegs, awayLegs, winnerPlayerID, models.MatchCompleted, at, at, matchID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim result for league match %d: %w", matchID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postgresLeagueMatchRepository) SetGame(ctx context.Context, exec SQLExecutor, matchID int, gameID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE league_matches SET game_id = $1 WHERE id = $2`, gameID, matchID)
	if err != nil {
		return fmt.Errorf("failed to link game %d to league match %d: %w", gameID, matchID, err)
	}
	return checkAffectedRows(result, ErrLeagueMatchNotFound)
}

func (r *postgresLeagueMatchRepository) CountUnapplied(ctx context.Context, exec SQLExecutor, leagueID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM league_matches WHERE league_id = $1 AND applied_at IS NULL`,
		leagueID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unapplied fixtures for league %d: %w", leagueID, err)
	}
	return count, nil
}
