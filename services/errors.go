package services

import (
	"errors"
	"fmt"

	"github.com/eytgaming/tournament-platform/models"
)

// Shared errors surfaced across services and mapped to HTTP in handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrRegistrationNotOpen  = errors.New("tournament registration is not open")
	ErrTournamentFull       = errors.New("tournament registration is full")
	ErrRegistrationConflict = errors.New("user or team is already registered for this tournament")

	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")
	ErrTeamNameConflict       = errors.New("team name is already in use")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")
	ErrTokenInvalid           = errors.New("token is invalid or expired")

	ErrUserNotFound        = errors.New("user not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")

	ErrTournamentDatesRequired    = errors.New("tournament schedule timestamps are required")
	ErrTournamentInvalidSchedule  = errors.New("tournament schedule timestamps are out of order")
	ErrTournamentInvalidCapacity  = errors.New("tournament max participants must be positive")
	ErrTournamentNotEnoughChecked = errors.New("not enough checked-in participants to start")

	ErrBracketHasResults = errors.New("bracket already has recorded results")

	ErrMatchAlreadyCompleted   = errors.New("match result has already been recorded")
	ErrMatchMissingParticipant = errors.New("match does not have both participants yet")
	ErrMatchScoreTied          = errors.New("match score cannot be a tie")
)

// InvalidTransitionError rejects a status change not present in the
// transition table. The stored status is left untouched.
type InvalidTransitionError struct {
	From models.TournamentStatus
	To   models.TournamentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid tournament status transition from %q to %q", e.From, e.To)
}

// CheckInWindowError rejects a check-in attempted outside any permitted
// window. Organizer-initiated check-ins may override it with force.
type CheckInWindowError struct {
	Status models.TournamentStatus
	Reason string
}

func (e *CheckInWindowError) Error() string {
	return fmt.Sprintf("check-in not permitted while tournament is %q: %s", e.Status, e.Reason)
}

// statusTransitions is the only source of truth for lifecycle moves.
// Forward along the lifecycle or out to cancelled; never backward.
var statusTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusDraft:        {models.StatusRegistration, models.StatusCancelled},
	models.StatusRegistration: {models.StatusCheckIn, models.StatusCancelled},
	models.StatusCheckIn:      {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress:   {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:    {},
	models.StatusCancelled:    {},
}

// ValidateTransition returns an InvalidTransitionError unless the move is in
// the transition table. Same-status moves are rejected too; callers treat a
// no-op explicitly where they want idempotence.
func ValidateTransition(from, to models.TournamentStatus) error {
	for _, allowed := range statusTransitions[from] {
		if to == allowed {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}
