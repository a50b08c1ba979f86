package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytgaming/tournament-platform/models"
)

func TestValidateTransition(t *testing.T) {
	testCases := []struct {
		name    string
		from    models.TournamentStatus
		to      models.TournamentStatus
		allowed bool
	}{
		{"draft to registration", models.StatusDraft, models.StatusRegistration, true},
		{"draft to cancelled", models.StatusDraft, models.StatusCancelled, true},
		{"draft to in_progress skips steps", models.StatusDraft, models.StatusInProgress, false},
		{"registration to check_in", models.StatusRegistration, models.StatusCheckIn, true},
		{"registration back to draft", models.StatusRegistration, models.StatusDraft, false},
		{"check_in to in_progress", models.StatusCheckIn, models.StatusInProgress, true},
		{"check_in to completed skips play", models.StatusCheckIn, models.StatusCompleted, false},
		{"in_progress to completed", models.StatusInProgress, models.StatusCompleted, true},
		{"in_progress to cancelled", models.StatusInProgress, models.StatusCancelled, true},
		{"in_progress back to check_in", models.StatusInProgress, models.StatusCheckIn, false},
		{"completed is terminal", models.StatusCompleted, models.StatusCancelled, false},
		{"cancelled is terminal", models.StatusCancelled, models.StatusRegistration, false},
		{"same status is rejected", models.StatusRegistration, models.StatusRegistration, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransition(tc.from, tc.to)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			var transitionErr *InvalidTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, tc.from, transitionErr.From)
			assert.Equal(t, tc.to, transitionErr.To)
		})
	}
}

func TestCancelReachableFromEveryNonTerminalStatus(t *testing.T) {
	for _, from := range []models.TournamentStatus{
		models.StatusDraft, models.StatusRegistration, models.StatusCheckIn, models.StatusInProgress,
	} {
		assert.NoError(t, ValidateTransition(from, models.StatusCancelled), string(from))
	}
}

func TestTerminalStatusesAllowNothing(t *testing.T) {
	targets := []models.TournamentStatus{
		models.StatusDraft, models.StatusRegistration, models.StatusCheckIn,
		models.StatusInProgress, models.StatusCompleted, models.StatusCancelled,
	}
	for _, from := range []models.TournamentStatus{models.StatusCompleted, models.StatusCancelled} {
		for _, to := range targets {
			err := ValidateTransition(from, to)
			assert.True(t, errors.As(err, new(*InvalidTransitionError)), "%s to %s", from, to)
		}
	}
}
