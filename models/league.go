package models

import "time"

type LeagueStatus string

const (
	LeagueActive    LeagueStatus = "active"
	LeagueCompleted LeagueStatus = "completed"
)

// League is a round-robin competition. Passes is 1 for a single round robin
// (every pair once) or 2 for a double round robin (mirrored second pass).
type League struct {
	ID            int          `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Passes        int          `json:"passes" db:"passes"`
	PointsForWin  int          `json:"points_for_win" db:"points_for_win"`
	PointsForDraw int          `json:"points_for_draw" db:"points_for_draw"`
	PointsForLoss int          `json:"points_for_loss" db:"points_for_loss"`
	Status        LeagueStatus `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// LeagueParticipant is one player's standings row. Points must always equal
// wins*W + draws*D + losses*L for the league's configured point values.
type LeagueParticipant struct {
	ID       int `json:"id" db:"id"`
	LeagueID int `json:"league_id" db:"league_id"`
	PlayerID int `json:"player_id" db:"player_id"`
	Played   int `json:"played" db:"played"`
	Wins     int `json:"wins" db:"wins"`
	Draws    int `json:"draws" db:"draws"`
	Losses   int `json:"losses" db:"losses"`
	Points   int `json:"points" db:"points"`
	LegsWon  int `json:"legs_won" db:"legs_won"`
	LegsLost int `json:"legs_lost" db:"legs_lost"`

	// Rank is assigned by the standings ordering, not stored.
	Rank int `json:"rank,omitempty" db:"-"`
}

// LegDifference is derived, never stored.
func (p *LeagueParticipant) LegDifference() int {
	return p.LegsWon - p.LegsLost
}

// LeagueMatch is one fixture. A completed fixture with a nil winner is a
// draw. AppliedAt is the exactly-once marker for standings application.
type LeagueMatch struct {
	ID           int         `json:"id" db:"id"`
	LeagueID     int         `json:"league_id" db:"league_id"`
	Round        int         `json:"round" db:"round"`
	Pass         int         `json:"pass" db:"pass"`
	HomePlayerID int         `json:"home_player_id" db:"home_player_id"`
	AwayPlayerID int         `json:"away_player_id" db:"away_player_id"`
	HomeLegs     *int        `json:"home_legs,omitempty" db:"home_legs"`
	AwayLegs     *int        `json:"away_legs,omitempty" db:"away_legs"`
	Status       MatchStatus `json:"status" db:"status"`

	WinnerPlayerID *int       `json:"winner_player_id,omitempty" db:"winner_player_id"`
	GameID         *int       `json:"game_id,omitempty" db:"game_id"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	AppliedAt      *time.Time `json:"applied_at,omitempty" db:"applied_at"`
}
