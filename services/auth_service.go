package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
)

const minPasswordLength = 8

type AuthService struct {
	userRepo repositories.UserRepository
	email    *EmailService
	logger   *slog.Logger
}

// NewAuthService builds the auth service. email may be nil when SMTP is not
// configured; confirmation and reset mails are then skipped.
func NewAuthService(userRepo repositories.UserRepository, email *EmailService, logger *slog.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, email: email, logger: logger}
}

type RegisterInput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Nickname  *string `json:"nickname,omitempty"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.FirstName == "" {
		return nil, ErrValidationFailed
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Nickname:          input.Nickname,
		Email:             input.Email,
		PasswordHash:      string(hashed),
		Role:              models.RolePlayer,
		ConfirmationToken: &token,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserNicknameConflict):
			return nil, ErrUserNicknameConflict
		default:
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(user.Email, token); err != nil {
			s.logger.Error("failed to send welcome email",
				slog.String("email", user.Email),
				slog.String("error", err.Error()))
		}
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByConfirmationToken(ctx, token)
	if err != nil {
		return ErrTokenInvalid
	}
	if user.EmailConfirmed {
		return nil
	}
	user.EmailConfirmed = true
	user.ConfirmationToken = nil
	return s.userRepo.Update(ctx, user)
}

// RequestPasswordReset issues a reset token and mails it. Whether the email
// is registered is never revealed to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := generateToken()
	if err != nil {
		return err
	}
	user.PasswordResetToken = &token
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if s.email != nil {
		if err := s.email.SendPasswordResetEmail(user.Email, token); err != nil {
			s.logger.Error("failed to send password reset email",
				slog.String("email", user.Email),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}
	user, err := s.userRepo.GetByPasswordResetToken(ctx, token)
	if err != nil {
		return ErrTokenInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	user.PasswordResetToken = nil
	return s.userRepo.Update(ctx, user)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
