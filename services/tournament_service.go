package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/Dosada05/darts-system/brackets"
	"github.com/Dosada05/darts-system/metrics"
	"github.com/Dosada05/darts-system/models"
	"github.com/Dosada05/darts-system/repositories"
	"golang.org/x/sync/errgroup"
)

var ErrTournamentFormatInvalid = errors.New("unsupported tournament format")

type CreateTournamentInput struct {
	Name   string                  `json:"name"`
	Format models.TournamentFormat `json:"format"`
	// SeededPlayerIDs in seed order: index 0 is seed 1.
	SeededPlayerIDs []int `json:"seeded_player_ids"`
}

type TournamentService interface {
	// CreateTournament generates and persists the full bracket: matches
	// first, progression pointers second, byes propagated last, all in one
	// transaction. The bracket topology is validated before anything is
	// written.
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	// StartMatch moves a ready match to in_progress, optionally linking
	// the live game record.
	StartMatch(ctx context.Context, matchID int, gameID *int) error
	// ReportMatchResult completes a match and advances the bracket:
	// winner into the winner_next slot, loser into loser_next or out of
	// the tournament. Completing the final match completes the tournament
	// and assigns placements. Reporting the same winner again is a no-op;
	// a different winner is a conflict.
	ReportMatchResult(ctx context.Context, matchID, winnerPlayerID int) (*models.Match, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	tpRepo         repositories.TournamentParticipantRepository
	matchRepo      repositories.MatchRepository
	playerRepo     repositories.PlayerRepository
	stats          StatsService
	hub            *brackets.Hub
	metrics        *metrics.Metrics
	log            *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	tpRepo repositories.TournamentParticipantRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	stats StatsService,
	hub *brackets.Hub,
	m *metrics.Metrics,
	log *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		tpRepo:         tpRepo,
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		stats:          stats,
		hub:            hub,
		metrics:        m,
		log:            log,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	var generator brackets.Generator
	switch input.Format {
	case models.FormatSingleElimination:
		generator = brackets.NewSingleEliminationGenerator()
	case models.FormatDoubleElimination:
		generator = brackets.NewDoubleEliminationGenerator()
	default:
		return nil, fmt.Errorf("%w: %q", ErrTournamentFormatInvalid, input.Format)
	}

	entries := make([]brackets.Entry, len(input.SeededPlayerIDs))
	for i, playerID := range input.SeededPlayerIDs {
		entries[i] = brackets.Entry{PlayerID: playerID, Seed: i + 1}
	}

	generated, err := generator.Generate(entries)
	if err != nil {
		return nil, err
	}
	if err := brackets.ValidateTopology(generated); err != nil {
		return nil, err
	}

	size := 1
	for size < len(entries) {
		size <<= 1
	}

	now := time.Now().UTC()
	tournament := &models.Tournament{
		Name:      input.Name,
		Format:    input.Format,
		Size:      size,
		Status:    models.TournamentActive,
		CreatedAt: now,
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, playerID := range input.SeededPlayerIDs {
			if _, err := s.playerRepo.GetByID(ctx, tx, playerID); err != nil {
				if errors.Is(err, repositories.ErrPlayerNotFound) {
					return fmt.Errorf("%w: id %d", ErrPlayerNotFound, playerID)
				}
				return err
			}
		}

		if err := s.tournamentRepo.Create(ctx, tx, tournament); err != nil {
			return err
		}

		participants := make([]*models.TournamentParticipant, len(entries))
		for i, e := range entries {
			participants[i] = &models.TournamentParticipant{
				TournamentID: tournament.ID,
				PlayerID:     e.PlayerID,
				Seed:         e.Seed,
			}
		}
		if err := s.tpRepo.BatchCreate(ctx, tx, participants); err != nil {
			if errors.Is(err, repositories.ErrSeedConflict) {
				return ErrSeedConflict
			}
			return err
		}

		// First pass: persist every match and remember its id by UID.
		idByUID := make(map[string]int, len(generated))
		byUID := make(map[string]*brackets.Match, len(generated))
		for _, gm := range generated {
			byUID[gm.UID] = gm
			match := &models.Match{
				TournamentID:   tournament.ID,
				BracketUID:     gm.UID,
				Round:          gm.Round,
				Position:       gm.Position,
				Player1ID:      gm.Player1ID,
				Player2ID:      gm.Player2ID,
				WinnerPlayerID: gm.WinnerID,
				Bye:            gm.Bye,
				CreatedAt:      now,
			}
			switch {
			case gm.Bye:
				match.Status = models.MatchCompleted
				completed := now
				match.CompletedAt = &completed
			case gm.Player1ID != nil && gm.Player2ID != nil:
				match.Status = models.MatchReady
			default:
				match.Status = models.MatchPending
			}
			if err := s.matchRepo.Create(ctx, tx, match); err != nil {
				return err
			}
			idByUID[gm.UID] = match.ID
		}

		// Second pass: resolve the UID links into next-match pointers.
		for _, gm := range generated {
			if gm.WinnerTo == nil && gm.LoserTo == nil {
				continue
			}
			var winnerNext, winnerSlot, loserNext, loserSlot *int
			if gm.WinnerTo != nil {
				id, slot := idByUID[gm.WinnerTo.MatchUID], gm.WinnerTo.Slot
				winnerNext, winnerSlot = &id, &slot
			}
			if gm.LoserTo != nil {
				id, slot := idByUID[gm.LoserTo.MatchUID], gm.LoserTo.Slot
				loserNext, loserSlot = &id, &slot
			}
			if err := s.matchRepo.SetNextPointers(ctx, tx, idByUID[gm.UID], winnerNext, winnerSlot, loserNext, loserSlot); err != nil {
				return err
			}
		}

		// Third pass: byes are completed matches, so their winners advance
		// immediately. A target fed by two byes becomes ready here.
		for _, gm := range generated {
			if !gm.Bye || gm.WinnerTo == nil {
				continue
			}
			targetID := idByUID[gm.WinnerTo.MatchUID]
			if err := s.matchRepo.FillSlot(ctx, tx, targetID, gm.WinnerTo.Slot, *gm.WinnerID); err != nil {
				return err
			}
			if _, err := s.matchRepo.PromoteIfReady(ctx, tx, targetID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tournament created",
		"tournament_id", tournament.ID, "format", tournament.Format,
		"players", len(entries), "size", size, "matches", len(generated))
	return s.GetTournament(ctx, tournament.ID)
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.tpRepo.ListByTournament(gCtx, nil, id)
		if err != nil {
			return err
		}
		tournament.Participants = participants
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, nil, id)
		if err != nil {
			return err
		}
		tournament.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) StartMatch(ctx context.Context, matchID int, gameID *int) error {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	if err := s.matchRepo.SetInProgress(ctx, nil, matchID, gameID); err != nil {
		if errors.Is(err, repositories.ErrMatchWrongState) {
			return ErrMatchNotStartable
		}
		return err
	}
	s.broadcast(match.TournamentID, "MATCH_UPDATED", map[string]interface{}{
		"match_id": matchID,
		"status":   models.MatchInProgress,
	})
	return nil
}

func (s *tournamentService) ReportMatchResult(ctx context.Context, matchID, winnerPlayerID int) (*models.Match, error) {
	var (
		match               *models.Match
		replayed            bool
		tournamentCompleted bool
	)

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}

		if match.Status == models.MatchCompleted {
			if match.WinnerPlayerID != nil && *match.WinnerPlayerID == winnerPlayerID {
				replayed = true
				return nil
			}
			return ErrMatchResultConflict
		}
		if match.Player1ID == nil || match.Player2ID == nil {
			return ErrMatchNotReady
		}
		if !match.HasPlayer(winnerPlayerID) {
			return ErrWinnerNotInMatch
		}

		tournament, err := s.tournamentRepo.GetByID(ctx, tx, match.TournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.TournamentActive {
			return ErrTournamentNotActive
		}

		now := time.Now().UTC()
		if err := s.matchRepo.Complete(ctx, tx, matchID, winnerPlayerID, now); err != nil {
			if errors.Is(err, repositories.ErrMatchWrongState) {
				return ErrMatchResultConflict
			}
			return err
		}

		loserID := *match.Player1ID
		if loserID == winnerPlayerID {
			loserID = *match.Player2ID
		}

		if match.WinnerNextMatchID != nil {
			if err := s.advance(ctx, tx, *match.WinnerNextMatchID, *match.WinnerNextSlot, winnerPlayerID); err != nil {
				return err
			}
		}

		if match.LoserNextMatchID != nil {
			if err := s.advance(ctx, tx, *match.LoserNextMatchID, *match.LoserNextSlot, loserID); err != nil {
				return err
			}
		} else {
			if err := s.tpRepo.SetEliminated(ctx, tx, match.TournamentID, loserID, match.Round); err != nil {
				return err
			}
		}

		if match.WinnerNextMatchID == nil {
			tournamentCompleted = true
			if err := s.tournamentRepo.SetCompleted(ctx, tx, match.TournamentID, winnerPlayerID, now); err != nil {
				return err
			}
			if err := s.assignPlacements(ctx, tx, match.TournamentID, winnerPlayerID); err != nil {
				return err
			}
		}

		match.Status = models.MatchCompleted
		match.WinnerPlayerID = &winnerPlayerID
		match.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		return match, nil
	}

	if s.metrics != nil {
		s.metrics.MatchesCompleted.WithLabelValues("tournament").Inc()
	}
	s.log.Info("match result recorded",
		"tournament_id", match.TournamentID, "match_id", matchID,
		"bracket_uid", match.BracketUID, "winner", winnerPlayerID)

	s.broadcast(match.TournamentID, "MATCH_UPDATED", match)
	if tournamentCompleted {
		s.broadcast(match.TournamentID, "TOURNAMENT_COMPLETED", map[string]interface{}{
			"tournament_id":    match.TournamentID,
			"winner_player_id": winnerPlayerID,
		})
	}

	// A linked game can now be folded into the lifetime stats. Aggregation
	// is idempotent and retriable through its own endpoint, so a failure
	// here does not undo the bracket advance.
	if match.GameID != nil {
		if err := s.stats.ApplyGameCompletion(ctx, *match.GameID); err != nil {
			s.log.Warn("failed to aggregate game linked to match",
				"match_id", matchID, "game_id", *match.GameID, "error", err)
		}
	}
	return match, nil
}

// advance places a player into a slot of their next match and promotes the
// target to ready once both slots are filled. The slot-conditional fill
// serializes sibling completions racing for the same target.
func (s *tournamentService) advance(ctx context.Context, tx *sql.Tx, targetMatchID, slot, playerID int) error {
	if err := s.matchRepo.FillSlot(ctx, tx, targetMatchID, slot, playerID); err != nil {
		return err
	}
	_, err := s.matchRepo.PromoteIfReady(ctx, tx, targetMatchID)
	return err
}

// assignPlacements walks eliminations in reverse: the round a player was
// eliminated in determines their placement tier, later rounds placing
// higher. Ties within a tier share the placement number.
func (s *tournamentService) assignPlacements(ctx context.Context, tx *sql.Tx, tournamentID, winnerPlayerID int) error {
	participants, err := s.tpRepo.ListByTournament(ctx, tx, tournamentID)
	if err != nil {
		return err
	}

	if err := s.tpRepo.SetPlacement(ctx, tx, tournamentID, winnerPlayerID, 1); err != nil {
		return err
	}

	tiers := make(map[int][]int)
	depths := make([]int, 0)
	for _, tp := range participants {
		if tp.PlayerID == winnerPlayerID || tp.EliminatedInRound == nil {
			continue
		}
		depth := eliminationDepth(*tp.EliminatedInRound)
		if _, seen := tiers[depth]; !seen {
			depths = append(depths, depth)
		}
		tiers[depth] = append(tiers[depth], tp.PlayerID)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(depths)))

	placed := 1
	for _, depth := range depths {
		placement := placed + 1
		for _, playerID := range tiers[depth] {
			if err := s.tpRepo.SetPlacement(ctx, tx, tournamentID, playerID, placement); err != nil {
				return err
			}
		}
		placed += len(tiers[depth])
	}
	return nil
}

// eliminationDepth orders elimination rounds from earliest exit to latest.
// Losers-bracket rounds (negative) count by their magnitude; an exit in any
// winners-bracket round or the grand final outranks every losers-bracket
// exit of the same tournament.
func eliminationDepth(round int) int {
	if round < 0 {
		return -round
	}
	return 1<<16 + round
}

func (s *tournamentService) broadcast(tournamentID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom("tournament:"+strconv.Itoa(tournamentID), brackets.Event{
		Type:    eventType,
		Payload: payload,
	})
}
