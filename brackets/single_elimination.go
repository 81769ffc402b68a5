package brackets

import "fmt"

// SingleEliminationGenerator builds a classic knockout bracket. The bracket
// is padded to the next power of two; missing entries become first-round
// byes, which land on the top seeds by construction of the seed order.
type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "single_elimination"
}

func (g *SingleEliminationGenerator) Generate(entries []Entry) ([]*Match, error) {
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	n := len(entries)
	size, rounds := bracketSize(n)
	players := bySeed(entries)
	order := seedOrder(size)

	matches := make([]*Match, 0, size-1)

	for m := 1; m <= size/2; m++ {
		seed1 := order[2*m-2]
		seed2 := order[2*m-1]
		match := &Match{
			UID:      winnersUID(1, m),
			Round:    1,
			Position: m,
		}
		if seed1 <= n {
			pid := players[seed1]
			match.Player1ID = &pid
		}
		if seed2 <= n {
			pid := players[seed2]
			match.Player2ID = &pid
		}
		// Seeds pair s against size+1-s, so at most one side of any
		// first-round match can be missing.
		if match.Player2ID == nil {
			match.Bye = true
			match.WinnerID = match.Player1ID
		} else if match.Player1ID == nil {
			match.Bye = true
			match.WinnerID = match.Player2ID
		}
		matches = append(matches, match)
	}

	for r := 2; r <= rounds; r++ {
		count := size >> uint(r)
		for m := 1; m <= count; m++ {
			matches = append(matches, &Match{
				UID:      winnersUID(r, m),
				Round:    r,
				Position: m,
			})
		}
	}

	for _, match := range matches {
		if match.Round == rounds {
			continue
		}
		match.WinnerTo = &Link{
			MatchUID: winnersUID(match.Round+1, (match.Position+1)/2),
			Slot:     winnerSlot(match.Position),
		}
	}

	return matches, nil
}

func winnersUID(round, position int) string {
	return fmt.Sprintf("R%dM%d", round, position)
}
