package models

import "time"

// WinCondition controls how a game may be finished.
type WinCondition string

const (
	// WinExact requires landing exactly on zero; overshooting busts the turn.
	WinExact WinCondition = "exact"
	// WinOpen allows the score to go to zero or below.
	WinOpen WinCondition = "open"
)

// ScoringMode is the granularity the game was recorded at.
type ScoringMode string

const (
	ScoringPerDart ScoringMode = "per_dart"
	ScoringPerTurn ScoringMode = "per_turn"
)

// Game is one finished (or abandoned) darts game. AggregatedAt is the
// exactly-once marker claimed by the stats service before any player counter
// is touched; it is never cleared.
type Game struct {
	ID             int          `json:"id" db:"id"`
	TargetScore    int          `json:"target_score" db:"target_score"`
	WinCondition   WinCondition `json:"win_condition" db:"win_condition"`
	ScoringMode    ScoringMode  `json:"scoring_mode" db:"scoring_mode"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	WinnerPlayerID *int         `json:"winner_player_id,omitempty" db:"winner_player_id"`
	Abandoned      bool         `json:"abandoned" db:"abandoned"`
	AggregatedAt   *time.Time   `json:"aggregated_at,omitempty" db:"aggregated_at"`
}

func (g *Game) Completed() bool {
	return g.CompletedAt != nil
}

func (g *Game) Aggregated() bool {
	return g.AggregatedAt != nil
}
