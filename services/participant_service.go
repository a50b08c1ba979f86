package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
)

// ParticipantService handles tournament registration. Registration rows and
// the tournament's denormalized total_registered counter move together in
// one transaction.
type ParticipantService struct {
	txRunner       repositories.TxRunner
	repo           repositories.ParticipantRepository
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	teamRepo       repositories.TeamRepository
	logger         *slog.Logger
}

func NewParticipantService(
	txRunner repositories.TxRunner,
	repo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) *ParticipantService {
	return &ParticipantService{
		txRunner:       txRunner,
		repo:           repo,
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		teamRepo:       teamRepo,
		logger:         logger,
	}
}

// Register enters the caller into a tournament. For team-based tournaments a
// team ID must be supplied and the caller must lead that team; for solo
// tournaments the caller registers themselves.
func (s *ParticipantService) Register(ctx context.Context, userID, tournamentID int, teamID *int) (*models.Participant, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if tournament.Status != models.StatusRegistration {
		return nil, ErrRegistrationNotOpen
	}
	if tournament.TotalRegistered >= tournament.MaxParticipants {
		return nil, ErrTournamentFull
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		Status:       models.ParticipantConfirmed,
		RegisteredAt: time.Now().UTC(),
	}

	if tournament.TeamBased {
		if teamID == nil {
			return nil, ErrValidationFailed
		}
		team, err := s.teamRepo.GetByID(ctx, *teamID)
		if err != nil {
			return nil, mapTeamRepoError(err)
		}
		if !team.IsLeader(userID) {
			return nil, ErrCaptainActionForbidden
		}
		existing, err := s.repo.FindByTeamAndTournament(ctx, *teamID, tournamentID)
		if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, err
		}
		if existing != nil && existing.Status != models.ParticipantWithdrawn {
			return nil, ErrRegistrationConflict
		}
		participant.TeamID = teamID
	} else {
		if teamID != nil {
			return nil, ErrValidationFailed
		}
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			return nil, mapUserRepoError(err)
		}
		existing, err := s.repo.FindByUserAndTournament(ctx, userID, tournamentID)
		if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, err
		}
		if existing != nil && existing.Status != models.ParticipantWithdrawn {
			return nil, ErrRegistrationConflict
		}
		participant.UserID = &userID
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.repo.Create(ctx, exec, participant); err != nil {
			if errors.Is(err, repositories.ErrParticipantConflict) {
				return ErrRegistrationConflict
			}
			return err
		}
		return s.tournamentRepo.AdjustRegisteredCount(ctx, exec, tournamentID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("participant registered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participant_id", participant.ID))
	return participant, nil
}

// Withdraw removes a registration before the tournament starts. The caller
// must own the registration (or lead the registered team) or organize the
// tournament. A checked-in withdrawal also releases the check-in counter.
func (s *ParticipantService) Withdraw(ctx context.Context, participantID, actorUserID int) error {
	participant, err := s.repo.GetByID(ctx, participantID)
	if err != nil {
		return mapParticipantRepoError(err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, participant.TournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if tournament.Status == models.StatusInProgress || tournament.Status.IsTerminal() {
		return ErrForbiddenOperation
	}
	if err := s.authorizeParticipantAction(ctx, tournament, participant, actorUserID); err != nil {
		return err
	}

	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.repo.UpdateStatus(ctx, exec, participantID, models.ParticipantWithdrawn); err != nil {
			return mapParticipantRepoError(err)
		}
		if participant.CheckedIn {
			if err := s.repo.SetCheckedIn(ctx, exec, participantID, false, nil); err != nil {
				return err
			}
			if err := s.tournamentRepo.AdjustCheckedInCount(ctx, exec, tournament.ID, -1); err != nil {
				return err
			}
		}
		return s.tournamentRepo.AdjustRegisteredCount(ctx, exec, tournament.ID, -1)
	})
}

// Disqualify is an organizer action. Unlike withdrawal it is allowed while
// the tournament runs; bracket consequences are handled when the
// disqualified participant's next match is reported.
func (s *ParticipantService) Disqualify(ctx context.Context, participantID, actorUserID int) error {
	participant, err := s.repo.GetByID(ctx, participantID)
	if err != nil {
		return mapParticipantRepoError(err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, participant.TournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if err := s.authorizeOrganizer(ctx, tournament, actorUserID); err != nil {
		return err
	}
	if tournament.Status.IsTerminal() {
		return ErrForbiddenOperation
	}

	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.repo.UpdateStatus(ctx, exec, participantID, models.ParticipantDisqualified); err != nil {
			return mapParticipantRepoError(err)
		}
		if participant.CheckedIn && tournament.Status != models.StatusInProgress {
			if err := s.repo.SetCheckedIn(ctx, exec, participantID, false, nil); err != nil {
				return err
			}
			if err := s.tournamentRepo.AdjustCheckedInCount(ctx, exec, tournament.ID, -1); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ParticipantService) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapParticipantRepoError(err)
	}
	return p, nil
}

func (s *ParticipantService) ListByTournament(ctx context.Context, tournamentID int, filter repositories.ParticipantFilter) ([]*models.Participant, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return s.repo.ListByTournament(ctx, tournamentID, filter)
}

func (s *ParticipantService) authorizeParticipantAction(ctx context.Context, tournament *models.Tournament, participant *models.Participant, actorUserID int) error {
	if participant.UserID != nil && *participant.UserID == actorUserID {
		return nil
	}
	if participant.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *participant.TeamID)
		if err != nil {
			return mapTeamRepoError(err)
		}
		if team.IsLeader(actorUserID) {
			return nil
		}
	}
	return s.authorizeOrganizer(ctx, tournament, actorUserID)
}

func (s *ParticipantService) authorizeOrganizer(ctx context.Context, tournament *models.Tournament, actorUserID int) error {
	return requireOrganizerOrAdmin(ctx, s.userRepo, tournament, actorUserID)
}

func mapParticipantRepoError(err error) error {
	if errors.Is(err, repositories.ErrParticipantNotFound) {
		return ErrParticipantNotFound
	}
	return err
}

func mapTeamRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	default:
		return err
	}
}
