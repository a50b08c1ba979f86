package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
	"github.com/eytgaming/tournament-platform/storage"
)

type TeamService struct {
	repo     repositories.TeamRepository
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewTeamService(repo repositories.TeamRepository, userRepo repositories.UserRepository, uploader storage.FileUploader) *TeamService {
	return &TeamService{repo: repo, userRepo: userRepo, uploader: uploader}
}

type TeamInput struct {
	Name string  `json:"name"`
	Tag  *string `json:"tag,omitempty"`
}

// Create makes the caller the captain of a new team.
func (s *TeamService) Create(ctx context.Context, captainID int, input TeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	if _, err := s.userRepo.GetByID(ctx, captainID); err != nil {
		return nil, mapUserRepoError(err)
	}

	team := &models.Team{
		Name:      input.Name,
		Tag:       input.Tag,
		CaptainID: captainID,
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, mapTeamRepoError(err)
	}
	if err := s.repo.AddMember(ctx, team.ID, captainID); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	members, err := s.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	team.Members = members
	if team.LogoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*team.LogoKey)
		team.LogoURL = &url
	}
	return team, nil
}

func (s *TeamService) Update(ctx context.Context, teamID, actorUserID int, input TeamInput) (*models.Team, error) {
	team, err := s.requireLeader(ctx, teamID, actorUserID)
	if err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	team.Name = input.Name
	team.Tag = input.Tag
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, mapTeamRepoError(err)
	}
	return team, nil
}

func (s *TeamService) Delete(ctx context.Context, teamID, actorUserID int) error {
	team, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return mapTeamRepoError(err)
	}
	// Deleting a team is a captain-only action; a co-captain cannot.
	if team.CaptainID != actorUserID {
		return ErrCaptainActionForbidden
	}
	return s.repo.Delete(ctx, teamID)
}

func (s *TeamService) AddMember(ctx context.Context, teamID, actorUserID, userID int) error {
	if _, err := s.requireLeader(ctx, teamID, actorUserID); err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return mapUserRepoError(err)
	}
	if err := s.repo.AddMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, repositories.ErrTeamMemberExists) {
			return nil
		}
		return err
	}
	return nil
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, actorUserID, userID int) error {
	team, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return mapTeamRepoError(err)
	}
	// Members may leave on their own; removing someone else takes a leader.
	if userID != actorUserID && !team.IsLeader(actorUserID) {
		return ErrCaptainActionForbidden
	}
	if userID == team.CaptainID {
		return ErrCaptainActionForbidden
	}
	return s.repo.RemoveMember(ctx, teamID, userID)
}

// SetCoCaptain promotes a member to co-captain, or clears the role when
// userID is nil. Captain only.
func (s *TeamService) SetCoCaptain(ctx context.Context, teamID, actorUserID int, userID *int) error {
	team, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return mapTeamRepoError(err)
	}
	if team.CaptainID != actorUserID {
		return ErrCaptainActionForbidden
	}
	if userID != nil {
		members, err := s.repo.ListMembers(ctx, teamID)
		if err != nil {
			return err
		}
		found := false
		for _, m := range members {
			if m.ID == *userID {
				found = true
				break
			}
		}
		if !found {
			return ErrValidationFailed
		}
	}
	team.CoCaptainID = userID
	return s.repo.Update(ctx, team)
}

func (s *TeamService) UploadLogo(ctx context.Context, teamID, actorUserID int, file multipart.File, header *multipart.FileHeader) (*models.Team, error) {
	team, err := s.requireLeader(ctx, teamID, actorUserID)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrForbiddenOperation
	}

	key := fmt.Sprintf("teams/%d/logo%s", teamID, filepath.Ext(header.Filename))
	result, err := s.uploader.Upload(ctx, key, header.Header.Get("Content-Type"), file)
	if err != nil {
		return nil, err
	}
	if team.LogoKey != nil && *team.LogoKey != key {
		_ = s.uploader.Delete(ctx, *team.LogoKey)
	}
	if err := s.repo.UpdateLogoKey(ctx, teamID, &result.Key); err != nil {
		return nil, mapTeamRepoError(err)
	}
	team.LogoKey = &result.Key
	team.LogoURL = &result.Location
	return team, nil
}

func (s *TeamService) requireLeader(ctx context.Context, teamID, actorUserID int) (*models.Team, error) {
	team, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if !team.IsLeader(actorUserID) {
		return nil, ErrCaptainActionForbidden
	}
	return team, nil
}
