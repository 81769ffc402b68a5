package models

import "time"

// TournamentFormat selects the bracket shape.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
)

// TournamentStatus tracks the competition lifecycle. A tournament completes
// when its final match (the unique match with no outgoing edges) completes.
type TournamentStatus string

const (
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

// Tournament is an elimination competition over a fixed power-of-two bracket.
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Format         TournamentFormat `json:"format" db:"format"`
	Size           int              `json:"size" db:"size"`
	Status         TournamentStatus `json:"status" db:"status"`
	WinnerPlayerID *int             `json:"winner_player_id,omitempty" db:"winner_player_id"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty" db:"completed_at"`

	// Populated by the service layer, not mapped directly.
	Participants []*TournamentParticipant `json:"participants,omitempty" db:"-"`
	Matches      []*Match                 `json:"matches,omitempty" db:"-"`
}

// TournamentParticipant is one seeded player's progress through a bracket.
// EliminatedInRound keeps the bracket round sign convention: positive for the
// winners bracket, negative for the losers bracket.
type TournamentParticipant struct {
	ID                int  `json:"id" db:"id"`
	TournamentID      int  `json:"tournament_id" db:"tournament_id"`
	PlayerID          int  `json:"player_id" db:"player_id"`
	Seed              int  `json:"seed" db:"seed"`
	Eliminated        bool `json:"eliminated" db:"eliminated"`
	EliminatedInRound *int `json:"eliminated_in_round,omitempty" db:"eliminated_in_round"`
	FinalPlacement    *int `json:"final_placement,omitempty" db:"final_placement"`
}
