package brackets

import (
	"errors"
	"fmt"
)

var (
	ErrNotEnoughPlayers  = errors.New("at least two players are required")
	ErrNotPowerOfTwo     = errors.New("bracket size must be a power of two")
	ErrDuplicateSeed     = errors.New("duplicate seed in entry list")
	ErrDuplicatePlayer   = errors.New("duplicate player in entry list")
	ErrSeedOutOfRange    = errors.New("seeds must form a contiguous range starting at 1")
	ErrTooManyPlayers    = errors.New("entry list exceeds the supported bracket size")
	ErrUnknownLinkTarget = errors.New("link points to an unknown match")
	ErrSlotFedTwice      = errors.New("two matches feed the same slot")
	ErrBracketCyclic     = errors.New("bracket progression contains a cycle")
	ErrMultipleTerminals = errors.New("bracket must have exactly one terminal match")
)

// MaxBracketSize bounds generated brackets. 256 players is far beyond any
// realistic pub or club event and keeps UID strings short.
const MaxBracketSize = 256

// Entry is one seeded player handed to a generator. Seeds are 1-based and
// contiguous; seed 1 is the strongest player.
type Entry struct {
	PlayerID int
	Seed     int
}

// Link names the match a result feeds into, by bracket UID. Slot is 1 or 2.
type Link struct {
	MatchUID string
	Slot     int
}

// Match is one generated bracket node, not yet persisted. Round is positive
// for the winners bracket, negative for the losers bracket, and Rounds+1 for
// a grand final. Byes are emitted as already-decided matches with WinnerID
// set so the caller can propagate them like any other completed match.
type Match struct {
	UID      string
	Round    int
	Position int

	Player1ID *int
	Player2ID *int

	Bye      bool
	WinnerID *int

	WinnerTo *Link
	LoserTo  *Link
}

// Generator produces the full static match graph for one tournament.
// Generated matches are ordered by round then position, winners-bracket
// rounds first.
type Generator interface {
	Generate(entries []Entry) ([]*Match, error)
	Name() string
}

func validateEntries(entries []Entry) error {
	if len(entries) < 2 {
		return ErrNotEnoughPlayers
	}
	if len(entries) > MaxBracketSize {
		return ErrTooManyPlayers
	}
	seeds := make(map[int]bool, len(entries))
	players := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seeds[e.Seed] {
			return fmt.Errorf("%w: seed %d", ErrDuplicateSeed, e.Seed)
		}
		seeds[e.Seed] = true
		if players[e.PlayerID] {
			return fmt.Errorf("%w: player %d", ErrDuplicatePlayer, e.PlayerID)
		}
		players[e.PlayerID] = true
	}
	for s := 1; s <= len(entries); s++ {
		if !seeds[s] {
			return fmt.Errorf("%w: missing seed %d", ErrSeedOutOfRange, s)
		}
	}
	return nil
}

// bySeed returns player IDs indexed by seed, so bySeed(entries)[1] is the
// top seed. Index 0 is unused.
func bySeed(entries []Entry) []int {
	players := make([]int, len(entries)+1)
	for _, e := range entries {
		players[e.Seed] = e.PlayerID
	}
	return players
}

// bracketSize returns the smallest power of two >= n and its log2.
func bracketSize(n int) (size, rounds int) {
	size = 1
	for size < n {
		size <<= 1
		rounds++
	}
	return size, rounds
}

// seedOrder returns the canonical first-round placement of seeds for a
// bracket of the given power-of-two size: seed 1 meets seed size in the
// final only, 1 meets 2 only in the final, and so on. Built by the usual
// doubling interleave: order(2n) places s and 2n+1-s adjacent for every s
// in order(n). For size 8 this yields 1,8,4,5,2,7,3,6.
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		doubled := make([]int, 0, len(order)*2)
		for _, s := range order {
			doubled = append(doubled, s, len(order)*2+1-s)
		}
		order = doubled
	}
	return order
}

// winnerSlot maps a match position to the slot it feeds in the next round:
// odd positions feed slot 1, even positions slot 2.
func winnerSlot(position int) int {
	if position%2 == 1 {
		return 1
	}
	return 2
}
