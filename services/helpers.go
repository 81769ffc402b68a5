package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/darts-system/models"
)

// runInTx wraps fn in a transaction, rolling back on error or panic.
// Services own the transaction boundary; repositories only ever see the
// executor they are handed.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// turnCounters is the per-game counter set derivable from a participant's
// turn records. It is the single source for both ingest (filling a fresh
// participant row) and verification (recomputing a stored one).
type turnCounters struct {
	Turns             int
	DartsThrown       int
	Score             int
	Maximums          int
	HighScores        int
	MaxDartScore      int
	MaxTurnScore      int
	CheckoutAttempts  int
	CheckoutSuccesses int
}

func countersFromTurns(turns []*models.Turn) turnCounters {
	var c turnCounters
	for _, t := range turns {
		c.Turns++
		c.DartsThrown += t.DartCount()
		c.Score += t.TurnTotal
		if t.IsMaximum() {
			c.Maximums++
		}
		if t.IsHighScore() {
			c.HighScores++
		}
		if d := t.MaxDart(); d > c.MaxDartScore {
			c.MaxDartScore = d
		}
		if t.TurnTotal > c.MaxTurnScore {
			c.MaxTurnScore = t.TurnTotal
		}
		if t.CheckoutAttempt {
			c.CheckoutAttempts++
		}
		if t.CheckoutSuccess {
			c.CheckoutSuccesses++
		}
	}
	return c
}

// validateTurn enforces the record-level turn invariants. Game rules (bust
// detection, checkout legality) are the producing engine's job and are
// trusted here.
func validateTurn(t *models.Turn) error {
	darts := t.DartScores()
	if len(darts) < models.MinDartsPerTurn || len(darts) > models.MaxDartsPerTurn {
		return ErrDartCountInvalid
	}
	if t.Dart2 == nil && t.Dart3 != nil {
		return ErrDartOrderInvalid
	}
	total := 0
	for _, d := range darts {
		if d < 0 || d > models.MaxDartValue {
			return fmt.Errorf("%w: got %d", ErrDartValueOutOfRange, d)
		}
		total += d
	}
	if total != t.TurnTotal {
		return fmt.Errorf("%w: darts sum to %d, turn total is %d", ErrTurnTotalMismatch, total, t.TurnTotal)
	}
	if !t.Busted && t.ScoreAfter != t.ScoreBefore-t.TurnTotal {
		return fmt.Errorf("%w: %d - %d != %d", ErrScoreMismatch, t.ScoreBefore, t.TurnTotal, t.ScoreAfter)
	}
	return nil
}

func normalizePage(page, perPage int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 100 {
		perPage = 100
	}
	return perPage, (page - 1) * perPage
}
