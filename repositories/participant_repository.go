package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/darts-system/models"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("participant player or order already present in game")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participant, error)
	ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Participant, error)
	// ListAggregatedByPlayer returns the player's participant rows for games
	// whose aggregation has been applied. The verifier sums exactly these.
	ListAggregatedByPlayer(ctx context.Context, exec SQLExecutor, playerID int) ([]*models.Participant, error)
	// OverwriteCounters replaces a participant's per-game counters. Only the
	// explicit repair path uses it.
	OverwriteCounters(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `id, game_id, player_id, order_index, starting_score, final_score,
	winner, finish_rank, finish_round, turns, darts_thrown, score, maximums, high_scores,
	max_dart_score, max_turn_score, checkout_attempts, checkout_successes`

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	var p models.Participant
	err := rowScanner.Scan(
		&p.ID, &p.GameID, &p.PlayerID, &p.OrderIndex, &p.StartingScore, &p.FinalScore,
		&p.Winner, &p.FinishRank, &p.FinishRound, &p.Turns, &p.DartsThrown, &p.Score,
		&p.Maximums, &p.HighScores, &p.MaxDartScore, &p.MaxTurnScore,
		&p.CheckoutAttempts, &p.CheckoutSuccesses,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants
			(game_id, player_id, order_index, starting_score, final_score, winner,
			 finish_rank, finish_round, turns, darts_thrown, score, maximums,
			 high_scores, max_dart_score, max_turn_score, checkout_attempts, checkout_successes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		participant.GameID, participant.PlayerID, participant.OrderIndex,
		participant.StartingScore, participant.FinalScore, participant.Winner,
		participant.FinishRank, participant.FinishRound, participant.Turns,
		participant.DartsThrown, participant.Score, participant.Maximums,
		participant.HighScores, participant.MaxDartScore, participant.MaxTurnScore,
		participant.CheckoutAttempts, participant.CheckoutSuccesses,
	).Scan(&participant.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrParticipantConflict
		}
		return fmt.Errorf("failed to create participant for game %d player %d: %w",
			participant.GameID, participant.PlayerID, err)
	}
	return nil
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.scanParticipant(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresParticipantRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + participantColumns + ` FROM participants
		WHERE game_id = $1 ORDER BY order_index`
	return r.list(ctx, executor, query, gameID)
}

func (r *postgresParticipantRepository) ListAggregatedByPlayer(ctx context.Context, exec SQLExecutor, playerID int) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT p.id, p.game_id, p.player_id, p.order_index, p.starting_score, p.final_score,
			p.winner, p.finish_rank, p.finish_round, p.turns, p.darts_thrown, p.score,
			p.maximums, p.high_scores, p.max_dart_score, p.max_turn_score,
			p.checkout_attempts, p.checkout_successes
		FROM participants p
		JOIN games g ON g.id = p.game_id
		WHERE p.player_id = $1 AND g.aggregated_at IS NOT NULL
		ORDER BY p.game_id`
	return r.list(ctx, executor, query, playerID)
}

func (r *postgresParticipantRepository) OverwriteCounters(ctx context.Context, exec SQLExecutor, participant *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE participants SET
			turns = $1, darts_thrown = $2, score = $3, maximums = $4, high_scores = $5,
			max_dart_score = $6, max_turn_score = $7, checkout_attempts = $8, checkout_successes = $9
		WHERE id = $10`
	result, err := executor.ExecContext(ctx, query,
		participant.Turns, participant.DartsThrown, participant.Score,
		participant.Maximums, participant.HighScores, participant.MaxDartScore,
		participant.MaxTurnScore, participant.CheckoutAttempts, participant.CheckoutSuccesses,
		participant.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to overwrite counters for participant %d: %w", participant.ID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Participant, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, errScan := r.scanParticipant(rows)
		if errScan != nil {
			return nil, errScan
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
