package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eytgaming/tournament-platform/models"
)

func newTeamEnv() (*TeamService, *testEnv) {
	env := newTestEnv()
	return NewTeamService(env.teams, env.users, nil), env
}

func TestCreateTeam(t *testing.T) {
	svc, env := newTeamEnv()
	captain := env.addUser(models.RolePlayer)

	team, err := svc.Create(context.Background(), captain.ID, TeamInput{Name: "Frame Traps"})
	require.NoError(t, err)
	assert.Equal(t, captain.ID, team.CaptainID)

	// The captain is a member from the start.
	members, err := env.teams.ListMembers(context.Background(), team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, captain.ID, members[0].ID)

	_, err = svc.Create(context.Background(), captain.ID, TeamInput{Name: ""})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Create(context.Background(), captain.ID, TeamInput{Name: "Frame Traps"})
	assert.ErrorIs(t, err, ErrTeamNameConflict)
}

func TestAddAndRemoveMember(t *testing.T) {
	svc, env := newTeamEnv()
	captain := env.addUser(models.RolePlayer)
	member := env.addUser(models.RolePlayer)
	outsider := env.addUser(models.RolePlayer)

	team, err := svc.Create(context.Background(), captain.ID, TeamInput{Name: "Frame Traps"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.AddMember(context.Background(), team.ID, outsider.ID, member.ID), ErrCaptainActionForbidden)
	require.NoError(t, svc.AddMember(context.Background(), team.ID, captain.ID, member.ID))
	// Adding twice is a no-op.
	assert.NoError(t, svc.AddMember(context.Background(), team.ID, captain.ID, member.ID))

	// Members leave on their own; strangers cannot remove them.
	assert.ErrorIs(t, svc.RemoveMember(context.Background(), team.ID, outsider.ID, member.ID), ErrCaptainActionForbidden)
	require.NoError(t, svc.RemoveMember(context.Background(), team.ID, member.ID, member.ID))

	// The captain can never be removed.
	assert.ErrorIs(t, svc.RemoveMember(context.Background(), team.ID, captain.ID, captain.ID), ErrCaptainActionForbidden)
}

func TestSetCoCaptain(t *testing.T) {
	svc, env := newTeamEnv()
	captain := env.addUser(models.RolePlayer)
	member := env.addUser(models.RolePlayer)
	outsider := env.addUser(models.RolePlayer)

	team, err := svc.Create(context.Background(), captain.ID, TeamInput{Name: "Frame Traps"})
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(context.Background(), team.ID, captain.ID, member.ID))

	// Only a member can be promoted, and only by the captain.
	assert.ErrorIs(t, svc.SetCoCaptain(context.Background(), team.ID, member.ID, &member.ID), ErrCaptainActionForbidden)
	assert.ErrorIs(t, svc.SetCoCaptain(context.Background(), team.ID, captain.ID, &outsider.ID), ErrValidationFailed)

	require.NoError(t, svc.SetCoCaptain(context.Background(), team.ID, captain.ID, &member.ID))
	stored, err := env.teams.GetByID(context.Background(), team.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CoCaptainID)
	assert.Equal(t, member.ID, *stored.CoCaptainID)

	// A co-captain leads: they can now add members.
	newcomer := env.addUser(models.RolePlayer)
	assert.NoError(t, svc.AddMember(context.Background(), team.ID, member.ID, newcomer.ID))

	require.NoError(t, svc.SetCoCaptain(context.Background(), team.ID, captain.ID, nil))
	stored, err = env.teams.GetByID(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CoCaptainID)
}

func TestDeleteTeamCaptainOnly(t *testing.T) {
	svc, env := newTeamEnv()
	captain := env.addUser(models.RolePlayer)
	coCaptain := env.addUser(models.RolePlayer)

	team, err := svc.Create(context.Background(), captain.ID, TeamInput{Name: "Frame Traps"})
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(context.Background(), team.ID, captain.ID, coCaptain.ID))
	require.NoError(t, svc.SetCoCaptain(context.Background(), team.ID, captain.ID, &coCaptain.ID))

	assert.ErrorIs(t, svc.Delete(context.Background(), team.ID, coCaptain.ID), ErrCaptainActionForbidden)
	require.NoError(t, svc.Delete(context.Background(), team.ID, captain.ID))

	_, err = svc.GetByID(context.Background(), team.ID)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}
