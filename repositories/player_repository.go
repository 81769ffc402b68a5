package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/darts-system/models"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player name is already in use")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	GetByName(ctx context.Context, exec SQLExecutor, name string) (*models.Player, error)
	// List returns players ordered by id; onlyWithGames restricts to players
	// with at least one aggregated game.
	List(ctx context.Context, exec SQLExecutor, onlyWithGames bool) ([]*models.Player, error)
	// ApplyAggregate folds one participant's per-game counters into the
	// player's lifetime counters. Increments are relative and maxima are
	// pairwise so concurrent aggregations of different games cannot lose
	// updates.
	ApplyAggregate(ctx context.Context, exec SQLExecutor, playerID int, delta *models.Participant) error
	// OverwriteTotals replaces every lifetime counter. Only the explicit
	// repair path uses it.
	OverwriteTotals(ctx context.Context, exec SQLExecutor, playerID int, totals models.PlayerTotals) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `id, name, created_at,
	total_games, total_games_won, total_turns, total_darts_thrown, total_score,
	total_maximums, total_high_scores, max_dart_score, max_turn_score,
	total_checkout_attempts, total_checkout_successes`

func (r *postgresPlayerRepository) scanPlayer(rowScanner interface{ Scan(...interface{}) error }) (*models.Player, error) {
	var p models.Player
	err := rowScanner.Scan(
		&p.ID, &p.Name, &p.CreatedAt,
		&p.TotalGames, &p.TotalGamesWon, &p.TotalTurns, &p.TotalDartsThrown, &p.TotalScore,
		&p.TotalMaximums, &p.TotalHighScores, &p.MaxDartScore, &p.MaxTurnScore,
		&p.TotalCheckoutAttempts, &p.TotalCheckoutSuccesses,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO players (name, created_at)
		VALUES ($1, $2)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query, player.Name, player.CreatedAt).Scan(&player.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPlayerNameConflict
		}
		return fmt.Errorf("failed to create player %q: %w", player.Name, err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return r.scanPlayer(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) GetByName(ctx context.Context, exec SQLExecutor, name string) (*models.Player, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + playerColumns + ` FROM players WHERE name = $1`
	return r.scanPlayer(executor.QueryRowContext(ctx, query, name))
}

func (r *postgresPlayerRepository) List(ctx context.Context, exec SQLExecutor, onlyWithGames bool) ([]*models.Player, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + playerColumns + ` FROM players`
	if onlyWithGames {
		query += ` WHERE total_games > 0`
	}
	query += ` ORDER BY id`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, errScan := r.scanPlayer(rows)
		if errScan != nil {
			return nil, errScan
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) ApplyAggregate(ctx context.Context, exec SQLExecutor, playerID int, delta *models.Participant) error {
	executor := r.getExecutor(exec)
	won := 0
	if delta.Winner {
		won = 1
	}
	// CASE instead of GREATEST keeps the statement portable to the sqlite
	// test store; both arguments appear in order of use.
	query := `
		UPDATE players SET
			total_games = total_games + 1,
			total_games_won = total_games_won + $1,
			total_turns = total_turns + $2,
			total_darts_thrown = total_darts_thrown + $3,
			total_score = total_score + $4,
			total_maximums = total_maximums + $5,
			total_high_scores = total_high_scores + $6,
			max_dart_score = CASE WHEN $7 > max_dart_score THEN $8 ELSE max_dart_score END,
			max_turn_score = CASE WHEN $9 > max_turn_score THEN $10 ELSE max_turn_score END,
			total_checkout_attempts = total_checkout_attempts + $11,
			total_checkout_successes = total_checkout_successes + $12
		WHERE id = $13`
	result, err := executor.ExecContext(ctx, query,
		won, delta.Turns, delta.DartsThrown, delta.Score,
		delta.Maximums, delta.HighScores,
		delta.MaxDartScore, delta.MaxDartScore,
		delta.MaxTurnScore, delta.MaxTurnScore,
		delta.CheckoutAttempts, delta.CheckoutSuccesses,
		playerID,
	)
	if err != nil {
		return fmt.Errorf("failed to apply aggregate for player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) OverwriteTotals(ctx context.Context, exec SQLExecutor, playerID int, totals models.PlayerTotals) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE players SET
			total_games = $1,
			total_games_won = $2,
			total_turns = $3,
			total_darts_thrown = $4,
			total_score = $5,
			total_maximums = $6,
			total_high_scores = $7,
			max_dart_score = $8,
			max_turn_score = $9,
			total_checkout_attempts = $10,
			total_checkout_successes = $11
		WHERE id = $12`
	result, err := executor.ExecContext(ctx, query,
		totals.TotalGames, totals.TotalGamesWon, totals.TotalTurns,
		totals.TotalDartsThrown, totals.TotalScore, totals.TotalMaximums,
		totals.TotalHighScores, totals.MaxDartScore, totals.MaxTurnScore,
		totals.TotalCheckoutAttempts, totals.TotalCheckoutSuccesses,
		playerID,
	)
	if err != nil {
		return fmt.Errorf("failed to overwrite totals for player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
