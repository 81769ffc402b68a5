package brackets

import "fmt"

// DoubleEliminationGenerator builds a winners bracket, a losers bracket and
// a single grand final. The losers bracket alternates "minor" rounds (two
// losers-bracket survivors meet) and "major" rounds (a survivor meets the
// fresh dropdown from the winners bracket); major-round dropdowns are
// reversed on alternating rounds so first-round opponents cannot meet again
// immediately. The grand final is played once: the losers-bracket champion
// gets no second life.
//
// Entry counts must be an exact power of two; byes would let a player reach
// the losers bracket without having lost, which breaks placement math.
type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() Generator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) Name() string {
	return "double_elimination"
}

func (g *DoubleEliminationGenerator) Generate(entries []Entry) ([]*Match, error) {
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	n := len(entries)
	size, rounds := bracketSize(n)
	if size != n {
		return nil, fmt.Errorf("%w: got %d players", ErrNotPowerOfTwo, n)
	}
	if rounds < 2 {
		return nil, fmt.Errorf("%w: double elimination needs at least 4", ErrNotEnoughPlayers)
	}

	players := bySeed(entries)
	order := seedOrder(size)

	matches := make([]*Match, 0, 2*size-2)

	// Winners bracket, rounds 1..rounds.
	for m := 1; m <= size/2; m++ {
		p1 := players[order[2*m-2]]
		p2 := players[order[2*m-1]]
		matches = append(matches, &Match{
			UID:       winnersUID(1, m),
			Round:     1,
			Position:  m,
			Player1ID: &p1,
			Player2ID: &p2,
		})
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

	// Losers bracket, rounds 1..2*(rounds-1), stored with negative round
	// numbers. Minor round 2j-1 and major round 2j both hold n/2^(j+1)
	// matches.
	for lr := 1; lr <= 2*(rounds-1); lr++ {
		count := losersRoundSize(size, lr)
		for m := 1; m <= count; m++ {
			matches = append(matches, &Match{
				UID:      losersUID(lr, m),
				Round:    -lr,
				Position: m,
			})
		}
	}

	grandFinal := &Match{
		UID:      grandFinalUID,
		Round:    rounds + 1,
		Position: 1,
	}
	matches = append(matches, grandFinal)

	for _, match := range matches {
		switch {
		case match.Round == rounds+1:
			// Grand final: terminal.
		case match.Round == rounds:
			// Winners final: winner to the grand final, loser drops to
			// the last losers round.
			match.WinnerTo = &Link{MatchUID: grandFinalUID, Slot: 1}
			match.LoserTo = &Link{MatchUID: losersUID(2*(rounds-1), 1), Slot: 2}
		case match.Round == 1:
			match.WinnerTo = &Link{
				MatchUID: winnersUID(2, (match.Position+1)/2),
				Slot:     winnerSlot(match.Position),
			}
			match.LoserTo = &Link{
				MatchUID: losersUID(1, (match.Position+1)/2),
				Slot:     winnerSlot(match.Position),
			}
		case match.Round > 1:
			match.WinnerTo = &Link{
				MatchUID: winnersUID(match.Round+1, (match.Position+1)/2),
				Slot:     winnerSlot(match.Position),
			}
			match.LoserTo = &Link{
				MatchUID: losersUID(2*(match.Round-1), dropdownPosition(size, match.Round, match.Position)),
				Slot:     2,
			}
		case -match.Round == 2*(rounds-1):
			// Losers final: winner earns the grand final.
			match.WinnerTo = &Link{MatchUID: grandFinalUID, Slot: 2}
		case (-match.Round)%2 == 1:
			// Minor round: winner stays at the same position and waits
			// for the winners-bracket dropdown in slot 2.
			match.WinnerTo = &Link{
				MatchUID: losersUID(-match.Round+1, match.Position),
				Slot:     1,
			}
		default:
			// Major round: the field halves into the next minor round.
			match.WinnerTo = &Link{
				MatchUID: losersUID(-match.Round+1, (match.Position+1)/2),
				Slot:     winnerSlot(match.Position),
			}
		}
	}

	return matches, nil
}

// losersRoundSize returns the number of matches in losers round lr (1-based
// magnitude) for a full bracket of the given size.
func losersRoundSize(size, lr int) int {
	j := (lr + 1) / 2
	return size >> uint(j+1)
}

// dropdownPosition places the loser of winners round r, position p into the
// matching major losers round. The mapping reverses on even winners rounds
// so players from the same quarter of the draw do not immediately rematch.
func dropdownPosition(size, r, p int) int {
	count := size >> uint(r)
	if r%2 == 0 {
		return count + 1 - p
	}
	return p
}

const grandFinalUID = "GF"

func losersUID(round, position int) string {
	return fmt.Sprintf("LR%dM%d", round, position)
}
