package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Validation of inbound game records. These are rejected before
	// anything is persisted.
	ErrDartValueOutOfRange  = errors.New("dart value must be between 0 and 60")
	ErrDartCountInvalid     = errors.New("a turn must contain between 1 and 3 darts")
	ErrDartOrderInvalid     = errors.New("dart three cannot be set without dart two")
	ErrTurnTotalMismatch    = errors.New("turn total does not equal the sum of its dart scores")
	ErrScoreMismatch        = errors.New("score after does not follow from score before")
	ErrTurnNumbersInvalid   = errors.New("turn numbers must be contiguous starting at 1")
	ErrParticipantsRequired = errors.New("a game requires at least two participants")
	ErrOrderIndexConflict   = errors.New("participants must have distinct order indexes")
	ErrPlayerNameRequired   = errors.New("player name is required")
	ErrDuplicatePlayerEntry = errors.New("a player cannot appear twice in one game")
	ErrOutcomeMissing       = errors.New("a completed game needs a winner or the abandoned flag")
	ErrTargetScoreInvalid   = errors.New("target score must be positive")
	ErrGameConfigInvalid    = errors.New("invalid game configuration")
	ErrLegsInvalid          = errors.New("leg counts must be non-negative")

	// Aggregation preconditions.
	ErrGameNotCompleted = errors.New("game has not completed yet")

	// Referential lookups. Repositories carry their own not-found
	// sentinels; these are the service-level equivalents surfaced to
	// handlers.
	ErrGameNotFound        = errors.New("game not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrLeagueNotFound      = errors.New("league not found")
	ErrLeagueMatchNotFound = errors.New("league fixture not found")

	// Competition state conflicts.
	ErrMatchNotReady         = errors.New("match does not have both players yet")
	ErrMatchNotStartable     = errors.New("match cannot be started in its current state")
	ErrWinnerNotInMatch      = errors.New("reported winner is not a player of this match")
	ErrMatchResultConflict   = errors.New("match already completed with a different result")
	ErrTournamentNotActive   = errors.New("tournament is not active")
	ErrSeedConflict          = errors.New("seeds must be unique within a tournament")
	ErrLeaguePassesInvalid   = errors.New("a league runs one or two round-robin passes")
	ErrLeaguePlayersRequired = errors.New("a league requires at least two distinct players")

	// Leaderboard reads.
	ErrUnknownDimension = errors.New("unknown leaderboard dimension")
)
