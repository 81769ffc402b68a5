package models

import "time"

// Player carries the lifetime aggregate counters owned by the stats service.
// Counters are only ever mutated by game aggregation (or an explicit repair);
// the rate values are derived on read and never stored.
type Player struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	TotalGames             int `json:"total_games" db:"total_games"`
	TotalGamesWon          int `json:"total_games_won" db:"total_games_won"`
	TotalTurns             int `json:"total_turns" db:"total_turns"`
	TotalDartsThrown       int `json:"total_darts_thrown" db:"total_darts_thrown"`
	TotalScore             int `json:"total_score" db:"total_score"`
	TotalMaximums          int `json:"total_maximums" db:"total_maximums"`
	TotalHighScores        int `json:"total_high_scores" db:"total_high_scores"`
	MaxDartScore           int `json:"max_dart_score" db:"max_dart_score"`
	MaxTurnScore           int `json:"max_turn_score" db:"max_turn_score"`
	TotalCheckoutAttempts  int `json:"total_checkout_attempts" db:"total_checkout_attempts"`
	TotalCheckoutSuccesses int `json:"total_checkout_successes" db:"total_checkout_successes"`
}

// PlayerTotals is the counter portion of a Player, detached from identity.
// The consistency verifier recomputes one of these from raw participant rows
// and compares it field by field against the stored player.
type PlayerTotals struct {
	TotalGames             int
	TotalGamesWon          int
	TotalTurns             int
	TotalDartsThrown       int
	TotalScore             int
	TotalMaximums          int
	TotalHighScores        int
	MaxDartScore           int
	MaxTurnScore           int
	TotalCheckoutAttempts  int
	TotalCheckoutSuccesses int
}

func (p *Player) Totals() PlayerTotals {
	return PlayerTotals{
		TotalGames:             p.TotalGames,
		TotalGamesWon:          p.TotalGamesWon,
		TotalTurns:             p.TotalTurns,
		TotalDartsThrown:       p.TotalDartsThrown,
		TotalScore:             p.TotalScore,
		TotalMaximums:          p.TotalMaximums,
		TotalHighScores:        p.TotalHighScores,
		MaxDartScore:           p.MaxDartScore,
		MaxTurnScore:           p.MaxTurnScore,
		TotalCheckoutAttempts:  p.TotalCheckoutAttempts,
		TotalCheckoutSuccesses: p.TotalCheckoutSuccesses,
	}
}

// WinRate returns won/played in [0,1], 0 for players without games.
func (p *Player) WinRate() float64 {
	if p.TotalGames == 0 {
		return 0
	}
	return float64(p.TotalGamesWon) / float64(p.TotalGames)
}

func (p *Player) AverageScorePerDart() float64 {
	if p.TotalDartsThrown == 0 {
		return 0
	}
	return float64(p.TotalScore) / float64(p.TotalDartsThrown)
}

func (p *Player) AverageScorePerTurn() float64 {
	if p.TotalTurns == 0 {
		return 0
	}
	return float64(p.TotalScore) / float64(p.TotalTurns)
}

func (p *Player) CheckoutPercentage() float64 {
	if p.TotalCheckoutAttempts == 0 {
		return 0
	}
	return float64(p.TotalCheckoutSuccesses) / float64(p.TotalCheckoutAttempts)
}
