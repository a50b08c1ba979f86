package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytgaming/tournament-platform/models"
)

func TestStatusCheckerOpensRegistration(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	now := time.Now().UTC()

	tournament := env.addTournament(organizer.ID, models.StatusDraft, models.FormatSingleElimination)
	tournament.RegistrationStart = now.Add(-time.Hour)
	tournament.RegistrationEnd = now.Add(time.Hour)

	env.statusChecker.RunOnce(context.Background(), now)
	assert.Equal(t, models.StatusRegistration, env.tournaments.tournaments[tournament.ID].Status)
}

func TestStatusCheckerLeavesFutureDraftAlone(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	now := time.Now().UTC()

	tournament := env.addTournament(organizer.ID, models.StatusDraft, models.FormatSingleElimination)
	tournament.RegistrationStart = now.Add(time.Hour)
	tournament.RegistrationEnd = now.Add(2 * time.Hour)

	env.statusChecker.RunOnce(context.Background(), now)
	assert.Equal(t, models.StatusDraft, env.tournaments.tournaments[tournament.ID].Status)
}

func TestStatusCheckerStartsCheckIn(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	now := time.Now().UTC()

	tournament := env.addTournament(organizer.ID, models.StatusRegistration, models.FormatSingleElimination)
	tournament.RegistrationEnd = now.Add(-time.Minute)
	tournament.CheckInStart = now.Add(-time.Minute)

	env.statusChecker.RunOnce(context.Background(), now)
	assert.Equal(t, models.StatusCheckIn, env.tournaments.tournaments[tournament.ID].Status)
}

func TestStatusCheckerStartsTournament(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	now := time.Now().UTC()

	tournament := env.addTournament(organizer.ID, models.StatusCheckIn, models.FormatSingleElimination)
	tournament.StartTime = now.Add(-time.Minute)
	tournament.MinParticipants = 2
	tournament.TotalCheckedIn = 2
	for i := 0; i < 2; i++ {
		player := env.addUser(models.RolePlayer)
		env.addParticipant(tournament.ID, player.ID, true)
	}

	env.statusChecker.RunOnce(context.Background(), now)
	assert.Equal(t, models.StatusInProgress, env.tournaments.tournaments[tournament.ID].Status)

	matches, err := env.matchRepo.ListByTournament(context.Background(), tournament.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestStatusCheckerStartsWithPartialCheckIn(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	now := time.Now().UTC()

	tournament := env.addTournament(organizer.ID, models.StatusCheckIn, models.FormatSingleElimination)
	tournament.StartTime = now.Add(-time.Minute)
	tournament.MinParticipants = 2
	tournament.TotalCheckedIn = 3

	// Five registered, only the first three checked in.
	var checkedIn []int
	for i := 0; i < 5; i++ {
		player := env.addUser(models.RolePlayer)
		p := env.addParticipant(tournament.ID, player.ID, i < 3)
		if i < 3 {
			checkedIn = append(checkedIn, p.ID)
		}
	}

	env.statusChecker.RunOnce(context.Background(), now)
	assert.Equal(t, models.StatusInProgress, env.tournaments.tournaments[tournament.ID].Status)

	// Three entrants fill a four slot bracket: one semifinal plus the final.
	matches, err := env.matchRepo.ListByTournament(context.Background(), tournament.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	inBracket := map[int]bool{}
	for _, m := range matches {
		for _, pid := range []*int{m.Participant1ID, m.Participant2ID} {
			if pid != nil {
				inBracket[*pid] = true
			}
		}
	}
	require.Len(t, inBracket, 3)
	for _, id := range checkedIn {
		assert.True(t, inBracket[id])
	}
}

func TestStatusCheckerDefersShortHandedStart(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	now := time.Now().UTC()

	tournament := env.addTournament(organizer.ID, models.StatusCheckIn, models.FormatSingleElimination)
	tournament.StartTime = now.Add(-time.Minute)
	tournament.MinParticipants = 4
	tournament.TotalCheckedIn = 1

	// Too few checked in: the tournament waits for the organizer instead
	// of starting or erroring.
	env.statusChecker.RunOnce(context.Background(), now)
	assert.Equal(t, models.StatusCheckIn, env.tournaments.tournaments[tournament.ID].Status)
}

func TestStatusCheckerCompletionGrace(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	now := time.Now().UTC()

	tournament := env.addTournament(organizer.ID, models.StatusInProgress, models.FormatSingleElimination)
	tournament.EstimatedEnd = now.Add(-30 * time.Minute)

	// Past the estimated end but inside the one hour grace: still running.
	env.statusChecker.RunOnce(context.Background(), now)
	assert.Equal(t, models.StatusInProgress, env.tournaments.tournaments[tournament.ID].Status)

	// Past the grace too: completed.
	env.statusChecker.RunOnce(context.Background(), now.Add(time.Hour))
	assert.Equal(t, models.StatusCompleted, env.tournaments.tournaments[tournament.ID].Status)
}

func TestStatusCheckerIsolatesFailures(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	now := time.Now().UTC()

	// The counter claims enough checked in, but no participant rows
	// exist, so bracket generation fails and the transition rolls back.
	broken := env.addTournament(organizer.ID, models.StatusCheckIn, models.FormatSwiss)
	broken.StartTime = now.Add(-time.Minute)
	broken.MinParticipants = 2
	broken.TotalCheckedIn = 2

	healthy := env.addTournament(organizer.ID, models.StatusDraft, models.FormatSingleElimination)
	healthy.RegistrationStart = now.Add(-time.Hour)
	healthy.RegistrationEnd = now.Add(time.Hour)

	env.statusChecker.RunOnce(context.Background(), now)

	assert.Equal(t, models.StatusCheckIn, env.tournaments.tournaments[broken.ID].Status)
	assert.Equal(t, models.StatusRegistration, env.tournaments.tournaments[healthy.ID].Status)
}
