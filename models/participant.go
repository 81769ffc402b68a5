package models

// Participant is the per-game result of one player: the join row between a
// game and a player, carrying the same counters that are folded into the
// player's lifetime aggregate. (game_id, player_id) and (game_id, order_index)
// are unique; the counters must agree with the game's turn rows.
type Participant struct {
	ID            int  `json:"id" db:"id"`
	GameID        int  `json:"game_id" db:"game_id"`
	PlayerID      int  `json:"player_id" db:"player_id"`
	OrderIndex    int  `json:"order_index" db:"order_index"`
	StartingScore int  `json:"starting_score" db:"starting_score"`
	FinalScore    int  `json:"final_score" db:"final_score"`
	Winner        bool `json:"winner" db:"winner"`
	FinishRank    *int `json:"finish_rank,omitempty" db:"finish_rank"`
	FinishRound   *int `json:"finish_round,omitempty" db:"finish_round"`

	Turns             int `json:"turns" db:"turns"`
	DartsThrown       int `json:"darts_thrown" db:"darts_thrown"`
	Score             int `json:"score" db:"score"`
	Maximums          int `json:"maximums" db:"maximums"`
	HighScores        int `json:"high_scores" db:"high_scores"`
	MaxDartScore      int `json:"max_dart_score" db:"max_dart_score"`
	MaxTurnScore      int `json:"max_turn_score" db:"max_turn_score"`
	CheckoutAttempts  int `json:"checkout_attempts" db:"checkout_attempts"`
	CheckoutSuccesses int `json:"checkout_successes" db:"checkout_successes"`
}
