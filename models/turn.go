package models

// Scoring bounds for a single turn of up to three darts.
const (
	MaxDartValue    = 60
	MaxTurnValue    = 180
	HighScoreMin    = 140
	MinDartsPerTurn = 1
	MaxDartsPerTurn = 3
)

// Turn is one player's set of up to three throws within one game.
// TurnNumber is 1-based per participant, RoundNumber is the 0-based index
// shared across all participants of the game.
type Turn struct {
	ID            int  `json:"id" db:"id"`
	GameID        int  `json:"game_id" db:"game_id"`
	ParticipantID int  `json:"participant_id" db:"participant_id"`
	TurnNumber    int  `json:"turn_number" db:"turn_number"`
	RoundNumber   int  `json:"round_number" db:"round_number"`
	Dart1         int  `json:"dart1" db:"dart1"`
	Dart2         *int `json:"dart2,omitempty" db:"dart2"`
	Dart3         *int `json:"dart3,omitempty" db:"dart3"`
	TurnTotal     int  `json:"turn_total" db:"turn_total"`
	ScoreBefore   int  `json:"score_before" db:"score_before"`
	ScoreAfter    int  `json:"score_after" db:"score_after"`
	Busted        bool `json:"busted" db:"busted"`

	CheckoutAttempt bool `json:"checkout_attempt" db:"checkout_attempt"`
	CheckoutSuccess bool `json:"checkout_success" db:"checkout_success"`
}

// DartScores returns the thrown darts in order, length 1 to 3.
func (t *Turn) DartScores() []int {
	scores := []int{t.Dart1}
	if t.Dart2 != nil {
		scores = append(scores, *t.Dart2)
	}
	if t.Dart3 != nil {
		scores = append(scores, *t.Dart3)
	}
	return scores
}

func (t *Turn) DartCount() int {
	return len(t.DartScores())
}

// IsMaximum reports a 180: three darts summing to the maximum turn value.
func (t *Turn) IsMaximum() bool {
	return t.TurnTotal == MaxTurnValue
}

// IsHighScore reports a turn total of 140-179.
func (t *Turn) IsHighScore() bool {
	return t.TurnTotal >= HighScoreMin && t.TurnTotal < MaxTurnValue
}

// MaxDart returns the highest single dart of the turn.
func (t *Turn) MaxDart() int {
	max := 0
	for _, d := range t.DartScores() {
		if d > max {
			max = d
		}
	}
	return max
}
