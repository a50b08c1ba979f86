package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytgaming/tournament-platform/models"
)

func seedRunningTournament(env *testEnv, format models.TournamentFormat, entrants int) (*models.Tournament, []*models.Participant) {
	organizer := env.addUser(models.RoleOrganizer)
	tournament := env.addTournament(organizer.ID, models.StatusInProgress, format)
	tournament.TotalRegistered = entrants
	tournament.TotalCheckedIn = entrants

	var participants []*models.Participant
	for i := 0; i < entrants; i++ {
		player := env.addUser(models.RolePlayer)
		participants = append(participants, env.addParticipant(tournament.ID, player.ID, true))
	}
	return tournament, participants
}

func TestGenerateForTournamentPersistsBracket(t *testing.T) {
	env := newTestEnv()
	tournament, participants := seedRunningTournament(env, models.FormatSingleElimination, 5)

	err := env.bracketService.GenerateForTournament(context.Background(), nil, tournament)
	require.NoError(t, err)

	bracketList, err := env.bracketRepo.ListByTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, bracketList, 1)
	assert.Equal(t, models.BracketSingle, bracketList[0].Type)

	// Five entrants: four playable matches, the three byes are not rows.
	matches, err := env.matchRepo.ListByTournament(context.Background(), tournament.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	for _, m := range matches {
		assert.Equal(t, models.MatchScheduled, m.Status)
		assert.Equal(t, bracketList[0].ID, m.BracketID)
		assert.Equal(t, tournament.StartTime, m.ScheduledAt)
	}

	// Every match but the final carries a winner advancement link, and all
	// links point at persisted rows.
	byID := map[int]*models.Match{}
	for _, m := range matches {
		byID[m.ID] = m
	}
	var finals int
	for _, m := range matches {
		if m.NextMatchID == nil {
			finals++
			continue
		}
		target, ok := byID[*m.NextMatchID]
		require.True(t, ok, "match %s links to unknown row", m.BracketUID)
		assert.Greater(t, target.Round, m.Round)
		require.NotNil(t, m.NextMatchSlot)
		assert.Contains(t, []int{1, 2}, *m.NextMatchSlot)
	}
	assert.Equal(t, 1, finals)

	// Seeds were written back to the participant rows.
	for i, p := range participants {
		assert.Equal(t, i+1, env.participants.participants[p.ID].Seed)
	}
}

func TestGenerateForTournamentDoubleElimination(t *testing.T) {
	env := newTestEnv()
	tournament, _ := seedRunningTournament(env, models.FormatDoubleElimination, 4)

	require.NoError(t, env.bracketService.GenerateForTournament(context.Background(), nil, tournament))

	bracketList, err := env.bracketRepo.ListByTournament(context.Background(), tournament.ID)
	require.NoError(t, err)

	types := map[models.BracketType]bool{}
	for _, b := range bracketList {
		types[b.Type] = true
	}
	assert.True(t, types[models.BracketWinners])
	assert.True(t, types[models.BracketLosers])

	// Full field of four: 3 winners matches, 2 losers matches, 1 grand final.
	matches, err := env.matchRepo.ListByTournament(context.Background(), tournament.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 6)

	var loserLinks int
	for _, m := range matches {
		if m.LoserNextMatchID != nil {
			loserLinks++
		}
	}
	// Every winners-bracket match drops its loser somewhere.
	assert.Equal(t, 3, loserLinks)
}

func TestGenerateForTournamentReplacesPrevious(t *testing.T) {
	env := newTestEnv()
	tournament, _ := seedRunningTournament(env, models.FormatSingleElimination, 4)

	require.NoError(t, env.bracketService.GenerateForTournament(context.Background(), nil, tournament))
	require.NoError(t, env.bracketService.GenerateForTournament(context.Background(), nil, tournament))

	bracketList, err := env.bracketRepo.ListByTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Len(t, bracketList, 1)

	matches, err := env.matchRepo.ListByTournament(context.Background(), tournament.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestRegenerate(t *testing.T) {
	env := newTestEnv()
	tournament, _ := seedRunningTournament(env, models.FormatSingleElimination, 4)
	organizerID := tournament.OrganizerID
	require.NoError(t, env.bracketService.GenerateForTournament(context.Background(), nil, tournament))

	player := env.addUser(models.RolePlayer)
	err := env.bracketService.Regenerate(context.Background(), tournament.ID, player.ID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	require.NoError(t, env.bracketService.Regenerate(context.Background(), tournament.ID, organizerID))

	matches, err := env.matchRepo.ListByTournament(context.Background(), tournament.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestRegenerateRejectedWithResults(t *testing.T) {
	env := newTestEnv()
	tournament, _ := seedRunningTournament(env, models.FormatSingleElimination, 4)
	require.NoError(t, env.bracketService.GenerateForTournament(context.Background(), nil, tournament))

	matches, err := env.matchRepo.ListByTournament(context.Background(), tournament.ID, nil, nil)
	require.NoError(t, err)
	winner := *matches[0].Participant1ID
	require.NoError(t, env.matchRepo.UpdateResult(context.Background(), nil, matches[0].ID, 2, 0, models.MatchCompleted, &winner))

	err = env.bracketService.Regenerate(context.Background(), tournament.ID, tournament.OrganizerID)
	assert.ErrorIs(t, err, ErrBracketHasResults)
}

func TestRegenerateOnlyWhileRunning(t *testing.T) {
	env := newTestEnv()
	organizer := env.addUser(models.RoleOrganizer)
	tournament := env.addTournament(organizer.ID, models.StatusCheckIn, models.FormatSingleElimination)

	err := env.bracketService.Regenerate(context.Background(), tournament.ID, organizer.ID)
	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestGetTournamentBracket(t *testing.T) {
	env := newTestEnv()
	tournament, participants := seedRunningTournament(env, models.FormatSingleElimination, 4)
	require.NoError(t, env.bracketService.GenerateForTournament(context.Background(), nil, tournament))

	view, err := env.bracketService.GetTournamentBracket(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, view.Tournament.ID)
	require.Len(t, view.Brackets, 1)
	assert.Len(t, view.Brackets[0].Matches, 3)
	assert.Len(t, view.Participants, len(participants))
}

func TestGetTournamentBracketUnknownTournament(t *testing.T) {
	env := newTestEnv()
	_, err := env.bracketService.GetTournamentBracket(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
