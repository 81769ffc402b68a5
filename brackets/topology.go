package brackets

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
)

func matchUID(m *Match) string { return m.UID }

// ValidateTopology checks the structural soundness of a generated bracket
// before anything is persisted: every link must point at an existing match
// and a free slot, progression must be acyclic, and exactly one match (the
// final) may have no winner destination. Generators are expected to always
// produce valid brackets; this guards the persistence path against
// generator regressions.
func ValidateTopology(matches []*Match) error {
	if len(matches) == 0 {
		return ErrNotEnoughPlayers
	}

	g := graph.New(matchUID, graph.Directed(), graph.PreventCycles())
	for _, m := range matches {
		if err := g.AddVertex(m); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return fmt.Errorf("duplicate match uid %s", m.UID)
			}
			return err
		}
	}

	feeders := make(map[string]string, len(matches))
	terminals := 0
	for _, m := range matches {
		if m.WinnerTo == nil {
			terminals++
		}
		for _, link := range []*Link{m.WinnerTo, m.LoserTo} {
			if link == nil {
				continue
			}
			if link.Slot != 1 && link.Slot != 2 {
				return fmt.Errorf("match %s links to invalid slot %d", m.UID, link.Slot)
			}
			slotKey := fmt.Sprintf("%s/%d", link.MatchUID, link.Slot)
			if prev, taken := feeders[slotKey]; taken {
				return fmt.Errorf("%w: %s and %s both feed %s slot %d",
					ErrSlotFedTwice, prev, m.UID, link.MatchUID, link.Slot)
			}
			feeders[slotKey] = m.UID
			if err := g.AddEdge(m.UID, link.MatchUID); err != nil {
				switch {
				case errors.Is(err, graph.ErrEdgeCreatesCycle):
					return fmt.Errorf("%w: %s -> %s", ErrBracketCyclic, m.UID, link.MatchUID)
				case errors.Is(err, graph.ErrVertexNotFound):
					return fmt.Errorf("%w: %s -> %s", ErrUnknownLinkTarget, m.UID, link.MatchUID)
				case errors.Is(err, graph.ErrEdgeAlreadyExists):
					// Winner and loser of one match may feed the same
					// destination (grand final after a losers final).
				default:
					return err
				}
			}
		}
	}

	if terminals != 1 {
		return fmt.Errorf("%w: found %d", ErrMultipleTerminals, terminals)
	}
	return nil
}
