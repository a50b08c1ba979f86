package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eytgaming/tournament-platform/brackets"
	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
)

// CheckInService records attendance. The participant's checked_in flag and
// the tournament's total_checked_in counter always move in one transaction,
// and repeating a check-in is a no-op rather than a double count.
type CheckInService struct {
	txRunner        repositories.TxRunner
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	userRepo        repositories.UserRepository
	teamRepo        repositories.TeamRepository
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewCheckInService(
	txRunner repositories.TxRunner,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) *CheckInService {
	return &CheckInService{
		txRunner:        txRunner,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		userRepo:        userRepo,
		teamRepo:        teamRepo,
		hub:             hub,
		logger:          logger,
	}
}

// CheckIn marks the caller's registration as present. For team tournaments
// the caller checks in a team they lead. Outside the check-in window the
// attempt fails with CheckInWindowError unless force is set, which only the
// organizer (or an admin) may do.
//
// One late window stays open: while the tournament is in progress but the
// checked-in count is still below the configured minimum, stragglers may
// still check in. Once the minimum is met the window is closed for good.
func (s *CheckInService) CheckIn(ctx context.Context, actorUserID, tournamentID int, force bool) (*models.Participant, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	if force {
		if err := s.requireOrganizer(ctx, tournament, actorUserID); err != nil {
			return nil, err
		}
	} else if err := checkInWindowOpen(tournament); err != nil {
		return nil, err
	}

	participant, err := s.resolveParticipant(ctx, tournament, actorUserID)
	if err != nil {
		return nil, err
	}
	if participant.Status != models.ParticipantConfirmed {
		return nil, ErrForbiddenOperation
	}
	if participant.CheckedIn {
		// Idempotent: repeating a check-in changes nothing.
		return participant, nil
	}

	now := time.Now().UTC()
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.participantRepo.SetCheckedIn(ctx, exec, participant.ID, true, &now); err != nil {
			return mapParticipantRepoError(err)
		}
		return s.tournamentRepo.AdjustCheckedInCount(ctx, exec, tournamentID, 1)
	})
	if err != nil {
		return nil, err
	}

	participant.CheckedIn = true
	participant.CheckInTime = &now

	s.logger.Info("participant checked in",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participant_id", participant.ID),
		slog.Bool("forced", force))

	room := brackets.RoomForTournament(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.Event{
		Type:   brackets.EventParticipantCheckIn,
		RoomID: room,
		Payload: map[string]interface{}{
			"tournament_id":  tournamentID,
			"participant_id": participant.ID,
			"display_name":   participant.DisplayName(),
		},
	})
	return participant, nil
}

// CheckOut reverses a check-in. Organizer only: a no-show discovered at seat
// assignment is removed by the desk, not by the participant.
func (s *CheckInService) CheckOut(ctx context.Context, actorUserID, participantID int) error {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return mapParticipantRepoError(err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, participant.TournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if err := s.requireOrganizer(ctx, tournament, actorUserID); err != nil {
		return err
	}
	if tournament.Status.IsTerminal() {
		return ErrForbiddenOperation
	}
	if !participant.CheckedIn {
		return nil
	}

	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.participantRepo.SetCheckedIn(ctx, exec, participantID, false, nil); err != nil {
			return mapParticipantRepoError(err)
		}
		return s.tournamentRepo.AdjustCheckedInCount(ctx, exec, tournament.ID, -1)
	})
}

// Reconcile recomputes total_checked_in from the participant rows and
// overwrites the counter. Returns the authoritative count.
func (s *CheckInService) Reconcile(ctx context.Context, tournamentID int) (int, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return 0, mapTournamentRepoError(err)
	}
	var count int
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		count, err = s.participantRepo.CountCheckedIn(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		return s.tournamentRepo.SetCheckedInCount(ctx, exec, tournamentID, count)
	})
	return count, err
}

// resolveParticipant finds the registration the actor may check in: their
// own for solo tournaments, a led team's for team tournaments.
func (s *CheckInService) resolveParticipant(ctx context.Context, tournament *models.Tournament, actorUserID int) (*models.Participant, error) {
	if !tournament.TeamBased {
		p, err := s.participantRepo.FindByUserAndTournament(ctx, actorUserID, tournament.ID)
		if err != nil {
			return nil, mapParticipantRepoError(err)
		}
		return p, nil
	}

	teams, err := s.teamRepo.ListLedBy(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		p, err := s.participantRepo.FindByTeamAndTournament(ctx, team.ID, tournament.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				continue
			}
			return nil, err
		}
		return p, nil
	}
	return nil, ErrParticipantNotFound
}

func checkInWindowOpen(t *models.Tournament) error {
	switch t.Status {
	case models.StatusCheckIn:
		return nil
	case models.StatusInProgress:
		if t.TotalCheckedIn < t.MinParticipants {
			return nil
		}
		return &CheckInWindowError{Status: t.Status, Reason: "the field is complete"}
	default:
		return &CheckInWindowError{Status: t.Status, Reason: "check-in has not started"}
	}
}

func (s *CheckInService) requireOrganizer(ctx context.Context, tournament *models.Tournament, actorUserID int) error {
	return requireOrganizerOrAdmin(ctx, s.userRepo, tournament, actorUserID)
}
