package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/darts-system/brackets"
	"github.com/Dosada05/darts-system/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", "error", err, "path", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", "error", err, "method", r.Method, "path", r.URL.Path)
	errorResponse(w, r, http.StatusInternalServerError,
		"the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

// idParam reads a positive integer URL parameter.
func idParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name, fallback string) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		value = fallback
	}
	return strconv.Atoi(value)
}

// mapServiceErrorToHTTP translates service-layer sentinels into responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrLeagueNotFound),
		errors.Is(err, services.ErrLeagueMatchNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrMatchResultConflict),
		errors.Is(err, services.ErrSeedConflict):
		conflictResponse(w, r, err.Error())

	// Record-level validation of inbound games.
	case errors.Is(err, services.ErrDartValueOutOfRange),
		errors.Is(err, services.ErrDartCountInvalid),
		errors.Is(err, services.ErrDartOrderInvalid),
		errors.Is(err, services.ErrTurnTotalMismatch),
		errors.Is(err, services.ErrScoreMismatch),
		errors.Is(err, services.ErrTurnNumbersInvalid),
		errors.Is(err, services.ErrParticipantsRequired),
		errors.Is(err, services.ErrOrderIndexConflict),
		errors.Is(err, services.ErrPlayerNameRequired),
		errors.Is(err, services.ErrDuplicatePlayerEntry),
		errors.Is(err, services.ErrOutcomeMissing),
		errors.Is(err, services.ErrTargetScoreInvalid),
		errors.Is(err, services.ErrGameConfigInvalid),
		errors.Is(err, services.ErrLegsInvalid):
		failedValidationResponse(w, r, err)

	// Bracket topology rejected at creation time.
	case errors.Is(err, brackets.ErrNotEnoughPlayers),
		errors.Is(err, brackets.ErrNotPowerOfTwo),
		errors.Is(err, brackets.ErrTooManyPlayers),
		errors.Is(err, brackets.ErrDuplicateSeed),
		errors.Is(err, brackets.ErrDuplicatePlayer),
		errors.Is(err, brackets.ErrSeedOutOfRange):
		failedValidationResponse(w, r, err)

	case errors.Is(err, services.ErrGameNotCompleted),
		errors.Is(err, services.ErrMatchNotReady),
		errors.Is(err, services.ErrMatchNotStartable),
		errors.Is(err, services.ErrWinnerNotInMatch),
		errors.Is(err, services.ErrTournamentNotActive),
		errors.Is(err, services.ErrTournamentFormatInvalid),
		errors.Is(err, services.ErrLeaguePassesInvalid),
		errors.Is(err, services.ErrLeaguePlayersRequired),
		errors.Is(err, services.ErrUnknownDimension):
		badRequestResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}
