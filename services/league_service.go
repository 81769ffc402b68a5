package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/Dosada05/darts-system/brackets"
	"github.com/Dosada05/darts-system/metrics"
	"github.com/Dosada05/darts-system/models"
	"github.com/Dosada05/darts-system/repositories"
)

type CreateLeagueInput struct {
	Name      string `json:"name"`
	PlayerIDs []int  `json:"player_ids"`
	// Passes is 1 for a single round-robin, 2 for a mirrored double.
	Passes        int `json:"passes"`
	PointsForWin  int `json:"points_for_win"`
	PointsForDraw int `json:"points_for_draw"`
	PointsForLoss int `json:"points_for_loss"`
}

type LeagueService interface {
	// CreateLeague persists the league with its full fixture list, one
	// circle-method round-robin pass per configured pass.
	CreateLeague(ctx context.Context, input CreateLeagueInput) (*models.League, error)
	GetLeague(ctx context.Context, id int) (*models.League, []*models.LeagueMatch, error)
	// ApplyMatchResult records a fixture result and folds it into both
	// standings rows exactly once; repeating the same result is a no-op.
	ApplyMatchResult(ctx context.Context, matchID, homeLegs, awayLegs int) (*models.LeagueMatch, error)
	// GetStandings returns ranked standings: points desc, leg difference
	// desc, legs won desc, head-to-head for two-way ties, player id asc.
	GetStandings(ctx context.Context, leagueID int) ([]*models.LeagueParticipant, error)
}

type leagueService struct {
	db         *sql.DB
	leagueRepo repositories.LeagueRepository
	lpRepo     repositories.LeagueParticipantRepository
	lmRepo     repositories.LeagueMatchRepository
	playerRepo repositories.PlayerRepository
	stats      StatsService
	hub        *brackets.Hub
	metrics    *metrics.Metrics
	log        *slog.Logger
}

func NewLeagueService(
	db *sql.DB,
	leagueRepo repositories.LeagueRepository,
	lpRepo repositories.LeagueParticipantRepository,
	lmRepo repositories.LeagueMatchRepository,
	playerRepo repositories.PlayerRepository,
	stats StatsService,
	hub *brackets.Hub,
	m *metrics.Metrics,
	log *slog.Logger,
) LeagueService {
	return &leagueService{
		db:         db,
		leagueRepo: leagueRepo,
		lpRepo:     lpRepo,
		lmRepo:     lmRepo,
		playerRepo: playerRepo,
		stats:      stats,
		hub:        hub,
		metrics:    m,
		log:        log,
	}
}

func (s *leagueService) CreateLeague(ctx context.Context, input CreateLeagueInput) (*models.League, error) {
	if input.Passes != 1 && input.Passes != 2 {
		return nil, ErrLeaguePassesInvalid
	}

	fixtures, err := brackets.GenerateRoundRobin(input.PlayerIDs, input.Passes)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughPlayers) || errors.Is(err, brackets.ErrDuplicatePlayer) {
			return nil, ErrLeaguePlayersRequired
		}
		return nil, err
	}

	now := time.Now().UTC()
	league := &models.League{
		Name:          input.Name,
		Passes:        input.Passes,
		PointsForWin:  input.PointsForWin,
		PointsForDraw: input.PointsForDraw,
		PointsForLoss: input.PointsForLoss,
		Status:        models.LeagueActive,
		CreatedAt:     now,
	}
	// The usual darts league scoring when none is configured.
	if league.PointsForWin == 0 && league.PointsForDraw == 0 && league.PointsForLoss == 0 {
		league.PointsForWin, league.PointsForDraw = 2, 1
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, playerID := range input.PlayerIDs {
			if _, err := s.playerRepo.GetByID(ctx, tx, playerID); err != nil {
				if errors.Is(err, repositories.ErrPlayerNotFound) {
					return ErrPlayerNotFound
				}
				return err
			}
		}

		if err := s.leagueRepo.Create(ctx, tx, league); err != nil {
			return err
		}

		participants := make([]*models.LeagueParticipant, len(input.PlayerIDs))
		for i, playerID := range input.PlayerIDs {
			participants[i] = &models.LeagueParticipant{
				LeagueID: league.ID,
				PlayerID: playerID,
			}
		}
		if err := s.lpRepo.BatchCreate(ctx, tx, participants); err != nil {
			return err
		}

		matches := make([]*models.LeagueMatch, len(fixtures))
		for i, f := range fixtures {
			matches[i] = &models.LeagueMatch{
				LeagueID:     league.ID,
				Round:        f.Round,
				Pass:         f.Pass,
				HomePlayerID: f.HomePlayerID,
				AwayPlayerID: f.AwayPlayerID,
				Status:       models.MatchScheduled,
			}
		}
		return s.lmRepo.BatchCreate(ctx, tx, matches)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("league created",
		"league_id", league.ID, "players", len(input.PlayerIDs),
		"passes", league.Passes, "fixtures", len(fixtures))
	return league, nil
}

func (s *leagueService) GetLeague(ctx context.Context, id int) (*models.League, []*models.LeagueMatch, error) {
	league, err := s.leagueRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, nil, ErrLeagueNotFound
		}
		return nil, nil, err
	}
	matches, err := s.lmRepo.ListByLeague(ctx, nil, id)
	if err != nil {
		return nil, nil, err
	}
	return league, matches, nil
}

func (s *leagueService) ApplyMatchResult(ctx context.Context, matchID, homeLegs, awayLegs int) (*models.LeagueMatch, error) {
	if homeLegs < 0 || awayLegs < 0 {
		return nil, ErrLegsInvalid
	}

	var (
		match          *models.LeagueMatch
		replayed       bool
		leagueFinished bool
	)

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.lmRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrLeagueMatchNotFound) {
				return ErrLeagueMatchNotFound
			}
			return err
		}

		league, err := s.leagueRepo.GetByID(ctx, tx, match.LeagueID)
		if err != nil {
			return err
		}

		var winnerID *int
		switch {
		case homeLegs > awayLegs:
			winnerID = &match.HomePlayerID
		case awayLegs > homeLegs:
			winnerID = &match.AwayPlayerID
		}

		now := time.Now().UTC()
		claimed, err := s.lmRepo.ClaimResult(ctx, tx, matchID, homeLegs, awayLegs, winnerID, now)
		if err != nil {
			return err
		}
		if !claimed {
			// Already applied: the same result is a tolerated retry,
			// anything else is a conflict.
			if match.HomeLegs != nil && *match.HomeLegs == homeLegs &&
				match.AwayLegs != nil && *match.AwayLegs == awayLegs {
				replayed = true
				return nil
			}
			return ErrMatchResultConflict
		}

		homeDelta, awayDelta := resultDeltas(league, homeLegs, awayLegs)
		if err := s.lpRepo.ApplyResult(ctx, tx, league.ID, match.HomePlayerID, homeDelta); err != nil {
			return err
		}
		if err := s.lpRepo.ApplyResult(ctx, tx, league.ID, match.AwayPlayerID, awayDelta); err != nil {
			return err
		}

		remaining, err := s.lmRepo.CountUnapplied(ctx, tx, league.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			leagueFinished = true
			if err := s.leagueRepo.SetStatus(ctx, tx, league.ID, models.LeagueCompleted); err != nil {
				return err
			}
		}

		match.HomeLegs = &homeLegs
		match.AwayLegs = &awayLegs
		match.WinnerPlayerID = winnerID
		match.Status = models.MatchCompleted
		match.CompletedAt = &now
		match.AppliedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		return match, nil
	}

	if s.metrics != nil {
		s.metrics.MatchesCompleted.WithLabelValues("league").Inc()
	}
	s.log.Info("league fixture applied",
		"league_id", match.LeagueID, "match_id", matchID,
		"home_legs", homeLegs, "away_legs", awayLegs)

	s.broadcast(match.LeagueID, "MATCH_UPDATED", match)
	if leagueFinished {
		s.broadcast(match.LeagueID, "LEAGUE_COMPLETED", map[string]interface{}{
			"league_id": match.LeagueID,
		})
	}

	if match.GameID != nil {
		if err := s.stats.ApplyGameCompletion(ctx, *match.GameID); err != nil {
			s.log.Warn("failed to aggregate game linked to fixture",
				"match_id", matchID, "game_id", *match.GameID, "error", err)
		}
	}
	return match, nil
}

func (s *leagueService) GetStandings(ctx context.Context, leagueID int) ([]*models.LeagueParticipant, error) {
	if _, err := s.leagueRepo.GetByID(ctx, nil, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	standings, err := s.lpRepo.ListByLeague(ctx, nil, leagueID)
	if err != nil {
		return nil, err
	}
	matches, err := s.lmRepo.ListByLeague(ctx, nil, leagueID)
	if err != nil {
		return nil, err
	}

	sortStandings(standings, matches)
	for i, row := range standings {
		row.Rank = i + 1
	}
	return standings, nil
}

func resultDeltas(league *models.League, homeLegs, awayLegs int) (home, away repositories.LeagueResultDelta) {
	home = repositories.LeagueResultDelta{LegsWon: homeLegs, LegsLost: awayLegs}
	away = repositories.LeagueResultDelta{LegsWon: awayLegs, LegsLost: homeLegs}
	switch {
	case homeLegs > awayLegs:
		home.Wins, home.Points = 1, league.PointsForWin
		away.Losses, away.Points = 1, league.PointsForLoss
	case awayLegs > homeLegs:
		away.Wins, away.Points = 1, league.PointsForWin
		home.Losses, home.Points = 1, league.PointsForLoss
	default:
		home.Draws, home.Points = 1, league.PointsForDraw
		away.Draws, away.Points = 1, league.PointsForDraw
	}
	return home, away
}

// sortStandings orders the table by points, leg difference and legs won.
// An exact two-way tie falls back to the head-to-head points between the
// pair; deeper ties (and tied head-to-heads) settle on player id, keeping
// the order total.
func sortStandings(standings []*models.LeagueParticipant, matches []*models.LeagueMatch) {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.LegDifference() != b.LegDifference() {
			return a.LegDifference() > b.LegDifference()
		}
		if a.LegsWon != b.LegsWon {
			return a.LegsWon > b.LegsWon
		}
		return a.PlayerID < b.PlayerID
	})

	// Head-to-head applies only to exact two-way ties on all three keys.
	for i := 0; i+1 < len(standings); i++ {
		a, b := standings[i], standings[i+1]
		if !tiedOnKeys(a, b) {
			continue
		}
		if i+2 < len(standings) && tiedOnKeys(b, standings[i+2]) {
			continue
		}
		if i > 0 && tiedOnKeys(standings[i-1], a) {
			continue
		}
		if headToHeadPoints(b.PlayerID, a.PlayerID, matches) > headToHeadPoints(a.PlayerID, b.PlayerID, matches) {
			standings[i], standings[i+1] = b, a
		}
	}
}

func tiedOnKeys(a, b *models.LeagueParticipant) bool {
	return a.Points == b.Points && a.LegDifference() == b.LegDifference() && a.LegsWon == b.LegsWon
}

// headToHeadPoints counts wins of one player over another across their
// completed mutual fixtures.
func headToHeadPoints(playerID, opponentID int, matches []*models.LeagueMatch) int {
	wins := 0
	for _, m := range matches {
		if m.WinnerPlayerID == nil || *m.WinnerPlayerID != playerID {
			continue
		}
		if (m.HomePlayerID == playerID && m.AwayPlayerID == opponentID) ||
			(m.HomePlayerID == opponentID && m.AwayPlayerID == playerID) {
			wins++
		}
	}
	return wins
}

func (s *leagueService) broadcast(leagueID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom("league:"+strconv.Itoa(leagueID), brackets.Event{
		Type:    eventType,
		Payload: payload,
	})
}
