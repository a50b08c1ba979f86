package services

import (
	"context"

	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
)

// requireOrganizerOrAdmin allows the tournament's organizer and platform
// admins through; everyone else gets ErrForbiddenOperation.
func requireOrganizerOrAdmin(ctx context.Context, userRepo repositories.UserRepository, tournament *models.Tournament, actorUserID int) error {
	if tournament.OrganizerID == actorUserID {
		return nil
	}
	user, err := userRepo.GetByID(ctx, actorUserID)
	if err != nil {
		return mapUserRepoError(err)
	}
	if user.Role == models.RoleAdmin {
		return nil
	}
	return ErrForbiddenOperation
}
