package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
	"github.com/eytgaming/tournament-platform/storage"
)

type UserService struct {
	repo     repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(repo repositories.UserRepository, uploader storage.FileUploader) *UserService {
	return &UserService{repo: repo, uploader: uploader}
}

func (s *UserService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	user.PasswordHash = ""
	if user.AvatarKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*user.AvatarKey)
		user.AvatarURL = &url
	}
	return user, nil
}

type UpdateProfileInput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Nickname  *string `json:"nickname,omitempty"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	if input.FirstName == "" {
		return nil, ErrValidationFailed
	}
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Nickname = input.Nickname

	if err := s.repo.Update(ctx, user); err != nil {
		switch err {
		case repositories.ErrUserNicknameConflict:
			return nil, ErrUserNicknameConflict
		default:
			return nil, mapUserRepoError(err)
		}
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) UploadAvatar(ctx context.Context, userID int, file multipart.File, header *multipart.FileHeader) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	if s.uploader == nil {
		return nil, ErrForbiddenOperation
	}

	key := fmt.Sprintf("users/%d/avatar%s", userID, filepath.Ext(header.Filename))
	result, err := s.uploader.Upload(ctx, key, header.Header.Get("Content-Type"), file)
	if err != nil {
		return nil, err
	}
	if user.AvatarKey != nil && *user.AvatarKey != key {
		_ = s.uploader.Delete(ctx, *user.AvatarKey)
	}
	if err := s.repo.UpdateAvatarKey(ctx, userID, &result.Key); err != nil {
		return nil, mapUserRepoError(err)
	}

	user.PasswordHash = ""
	user.AvatarKey = &result.Key
	user.AvatarURL = &result.Location
	return user, nil
}
