package models

import "time"

// MatchStatus is the per-match state machine. Bracket matches move
// pending -> ready -> in_progress -> completed; league fixtures only use
// scheduled -> completed.
type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchReady      MatchStatus = "ready"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchScheduled  MatchStatus = "scheduled"
)

// Match is one node of a tournament bracket. Round is positive in the winners
// bracket and negative in the losers bracket; the grand final carries the
// highest positive round. WinnerNext/LoserNext point at the match (and slot 1
// or 2) the winner respectively loser advances to; both are nil on terminal
// matches.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	BracketUID   string      `json:"bracket_uid" db:"bracket_uid"`
	Round        int         `json:"round" db:"round"`
	Position     int         `json:"position" db:"position"`
	Status       MatchStatus `json:"status" db:"status"`

	Player1ID      *int `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID      *int `json:"player2_id,omitempty" db:"player2_id"`
	WinnerPlayerID *int `json:"winner_player_id,omitempty" db:"winner_player_id"`
	GameID         *int `json:"game_id,omitempty" db:"game_id"`
	Bye            bool `json:"bye" db:"bye"`

	WinnerNextMatchID *int `json:"winner_next_match_id,omitempty" db:"winner_next_match_id"`
	WinnerNextSlot    *int `json:"winner_next_slot,omitempty" db:"winner_next_slot"`
	LoserNextMatchID  *int `json:"loser_next_match_id,omitempty" db:"loser_next_match_id"`
	LoserNextSlot     *int `json:"loser_next_slot,omitempty" db:"loser_next_slot"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// LoserPlayerID returns the non-winning slot of a completed match, nil for
// byes or unfinished matches.
func (m *Match) LoserPlayerID() *int {
	if m.WinnerPlayerID == nil || m.Player1ID == nil || m.Player2ID == nil {
		return nil
	}
	if *m.WinnerPlayerID == *m.Player1ID {
		return m.Player2ID
	}
	return m.Player1ID
}

// HasPlayer reports whether the given player occupies one of the match slots.
func (m *Match) HasPlayer(playerID int) bool {
	if m.Player1ID != nil && *m.Player1ID == playerID {
		return true
	}
	if m.Player2ID != nil && *m.Player2ID == playerID {
		return true
	}
	return false
}
