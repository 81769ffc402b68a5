package brackets

// Fixture is one scheduled league pairing. Rounds are 1-based within a
// pass; every player appears at most once per round.
type Fixture struct {
	Round        int
	Pass         int
	HomePlayerID int
	AwayPlayerID int
}

// GenerateRoundRobin schedules each player against every other once per
// pass using the circle method: one player stays fixed while the rest
// rotate, producing n-1 rounds for even fields and n rounds (one bye each)
// for odd fields. Passes beyond the first mirror home and away.
func GenerateRoundRobin(playerIDs []int, passes int) ([]Fixture, error) {
	if len(playerIDs) < 2 {
		return nil, ErrNotEnoughPlayers
	}
	if passes < 1 {
		passes = 1
	}
	seen := make(map[int]bool, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			return nil, ErrDuplicatePlayer
		}
		seen[id] = true
	}

	// The rotation needs an even circle; a zero sentinel marks the bye
	// opponent for odd fields.
	circle := make([]int, len(playerIDs))
	copy(circle, playerIDs)
	if len(circle)%2 == 1 {
		circle = append(circle, 0)
	}

	n := len(circle)
	roundsPerPass := n - 1
	fixtures := make([]Fixture, 0, passes*roundsPerPass*n/2)

	for round := 1; round <= roundsPerPass; round++ {
		for i := 0; i < n/2; i++ {
			home := circle[i]
			away := circle[n-1-i]
			if home == 0 || away == 0 {
				continue
			}
			// Alternate sides across rounds so the fixed player does
			// not host every week.
			if round%2 == 0 && i == 0 {
				home, away = away, home
			}
			for pass := 1; pass <= passes; pass++ {
				h, a := home, away
				if pass%2 == 0 {
					h, a = a, h
				}
				fixtures = append(fixtures, Fixture{
					Round:        round,
					Pass:         pass,
					HomePlayerID: h,
					AwayPlayerID: a,
				})
			}
		}
		// Rotate everyone but the first position one step clockwise.
		last := circle[n-1]
		copy(circle[2:], circle[1:n-1])
		circle[1] = last
	}

	return fixtures, nil
}
