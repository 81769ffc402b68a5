package models

import (
	"fmt"
	"time"
)

// LeaderboardDimension names one ranking of the materialized leaderboard.
type LeaderboardDimension string

const (
	DimensionWins        LeaderboardDimension = "wins"
	DimensionWinRate     LeaderboardDimension = "win_rate"
	DimensionAvgPerDart  LeaderboardDimension = "avg_per_dart"
	DimensionAvgPerTurn  LeaderboardDimension = "avg_per_turn"
	DimensionMaximums    LeaderboardDimension = "maximums"
	DimensionCheckoutPct LeaderboardDimension = "checkout_pct"
)

// LeaderboardDimensions lists every materialized dimension in a stable order.
var LeaderboardDimensions = []LeaderboardDimension{
	DimensionWins,
	DimensionWinRate,
	DimensionAvgPerDart,
	DimensionAvgPerTurn,
	DimensionMaximums,
	DimensionCheckoutPct,
}

func ParseLeaderboardDimension(s string) (LeaderboardDimension, error) {
	for _, d := range LeaderboardDimensions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown leaderboard dimension %q", s)
}

// LeaderboardRow is one materialized, already-ranked row of one dimension.
// Tiebreak1/Tiebreak2 persist the secondary sort keys so an incremental
// refresh can re-rank the projection without rescanning every player; ranks
// form a total order over (value desc, tiebreak1 desc, tiebreak2 desc,
// player_id asc).
type LeaderboardRow struct {
	Dimension   LeaderboardDimension `json:"dimension" db:"dimension"`
	Rank        int                  `json:"rank" db:"rank"`
	PlayerID    int                  `json:"player_id" db:"player_id"`
	PlayerName  string               `json:"player_name" db:"player_name"`
	Value       float64              `json:"value" db:"value"`
	Tiebreak1   float64              `json:"-" db:"tiebreak1"`
	Tiebreak2   float64              `json:"-" db:"tiebreak2"`
	GamesPlayed int                  `json:"games_played" db:"games_played"`
	RefreshedAt time.Time            `json:"refreshed_at" db:"refreshed_at"`
}
