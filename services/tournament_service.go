package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/eytgaming/tournament-platform/brackets"
	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
	"github.com/eytgaming/tournament-platform/storage"
)

// TournamentService owns the tournament lifecycle. All status changes, manual
// and automatic, funnel through applyTransition so the transition table is
// enforced in exactly one place.
type TournamentService struct {
	txRunner        repositories.TxRunner
	repo            repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	bracketService  *BracketService
	notifier        Notifier
	uploader        storage.FileUploader
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewTournamentService(
	txRunner repositories.TxRunner,
	repo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	bracketService *BracketService,
	notifier Notifier,
	uploader storage.FileUploader,
	hub *brackets.Hub,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		txRunner:        txRunner,
		repo:            repo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		bracketService:  bracketService,
		notifier:        notifier,
		uploader:        uploader,
		hub:             hub,
		logger:          logger,
	}
}

type CreateTournamentInput struct {
	Name            string                  `json:"name"`
	Description     *string                 `json:"description,omitempty"`
	Game            string                  `json:"game"`
	Format          models.TournamentFormat `json:"format"`
	TeamBased       bool                    `json:"team_based"`
	Seeding         models.SeedingMethod    `json:"seeding"`
	MaxParticipants int                     `json:"max_participants"`
	MinParticipants int                     `json:"min_participants"`

	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	CheckInStart      time.Time `json:"check_in_start"`
	StartTime         time.Time `json:"start_time"`
	EstimatedEnd      time.Time `json:"estimated_end"`
}

func (s *TournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	organizer, err := s.userRepo.GetByID(ctx, organizerID)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	if organizer.Role != models.RoleOrganizer && organizer.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	tournament := &models.Tournament{
		Name:              input.Name,
		Description:       input.Description,
		Game:              input.Game,
		OrganizerID:       organizerID,
		Format:            input.Format,
		Status:            models.StatusDraft,
		TeamBased:         input.TeamBased,
		Seeding:           input.Seeding,
		MaxParticipants:   input.MaxParticipants,
		MinParticipants:   input.MinParticipants,
		RegistrationStart: input.RegistrationStart,
		RegistrationEnd:   input.RegistrationEnd,
		CheckInStart:      input.CheckInStart,
		StartTime:         input.StartTime,
		EstimatedEnd:      input.EstimatedEnd,
	}
	if err := s.validateTournament(tournament); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, tournament); err != nil {
		return nil, mapTournamentWriteError(err)
	}
	return tournament, nil
}

func (s *TournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return t, nil
}

func (s *TournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return s.repo.List(ctx, filter)
}

// Update edits tournament settings. Schedule and format can only change
// while the tournament is still a draft; cosmetic fields can change until the
// tournament reaches a terminal status.
func (s *TournamentService) Update(ctx context.Context, id, actorUserID int, input CreateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := s.authorize(ctx, tournament, actorUserID); err != nil {
		return nil, err
	}
	if tournament.Status.IsTerminal() {
		return nil, ErrForbiddenOperation
	}

	tournament.Name = input.Name
	tournament.Description = input.Description
	tournament.Game = input.Game

	if tournament.Status == models.StatusDraft {
		tournament.Format = input.Format
		tournament.TeamBased = input.TeamBased
		tournament.Seeding = input.Seeding
		tournament.MaxParticipants = input.MaxParticipants
		tournament.MinParticipants = input.MinParticipants
		tournament.RegistrationStart = input.RegistrationStart
		tournament.RegistrationEnd = input.RegistrationEnd
		tournament.CheckInStart = input.CheckInStart
		tournament.StartTime = input.StartTime
		tournament.EstimatedEnd = input.EstimatedEnd
	}
	if err := s.validateTournament(tournament); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, tournament); err != nil {
		return nil, mapTournamentWriteError(err)
	}
	return tournament, nil
}

func (s *TournamentService) Delete(ctx context.Context, id, actorUserID int) error {
	tournament, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if err := s.authorize(ctx, tournament, actorUserID); err != nil {
		return err
	}
	if tournament.Status != models.StatusDraft && tournament.Status != models.StatusCancelled {
		return ErrForbiddenOperation
	}
	return s.repo.Delete(ctx, id)
}

func (s *TournamentService) UploadBanner(ctx context.Context, id, actorUserID int, file multipart.File, header *multipart.FileHeader) (*models.Tournament, error) {
	tournament, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := s.authorize(ctx, tournament, actorUserID); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrForbiddenOperation
	}

	key := fmt.Sprintf("tournaments/%d/banner%s", id, filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, err
	}
	if tournament.BannerKey != nil && *tournament.BannerKey != key {
		// Old banner cleanup is best effort.
		if err := s.uploader.Delete(ctx, *tournament.BannerKey); err != nil {
			s.logger.Warn("failed to delete previous banner",
				slog.String("key", *tournament.BannerKey),
				slog.String("error", err.Error()))
		}
	}
	if err := s.repo.UpdateBannerKey(ctx, id, &result.Key); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	tournament.BannerKey = &result.Key
	tournament.BannerURL = &result.Location
	return tournament, nil
}

// Manual lifecycle operations. Each is an organizer action that requests a
// specific transition; the shared applyTransition does the rest.

func (s *TournamentService) OpenRegistration(ctx context.Context, id, actorUserID int) (*models.Tournament, error) {
	return s.transitionAs(ctx, id, actorUserID, models.StatusRegistration, false)
}

func (s *TournamentService) StartCheckIn(ctx context.Context, id, actorUserID int) (*models.Tournament, error) {
	return s.transitionAs(ctx, id, actorUserID, models.StatusCheckIn, false)
}

// Start moves the tournament to in_progress and generates the bracket. With
// force the checked-in minimum is ignored, allowing an organizer to start a
// short-handed event.
func (s *TournamentService) Start(ctx context.Context, id, actorUserID int, force bool) (*models.Tournament, error) {
	return s.transitionAs(ctx, id, actorUserID, models.StatusInProgress, force)
}

func (s *TournamentService) Complete(ctx context.Context, id, actorUserID int) (*models.Tournament, error) {
	return s.transitionAs(ctx, id, actorUserID, models.StatusCompleted, false)
}

func (s *TournamentService) Cancel(ctx context.Context, id, actorUserID int) (*models.Tournament, error) {
	return s.transitionAs(ctx, id, actorUserID, models.StatusCancelled, false)
}

func (s *TournamentService) transitionAs(ctx context.Context, id, actorUserID int, to models.TournamentStatus, force bool) (*models.Tournament, error) {
	tournament, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := s.authorize(ctx, tournament, actorUserID); err != nil {
		return nil, err
	}
	if err := s.applyTransition(ctx, tournament, to, force); err != nil {
		return nil, err
	}
	return tournament, nil
}

// applyTransition validates the move, performs its side effects inside one
// transaction, and broadcasts the change. On entering in_progress the
// bracket is generated atomically with the status write: observers never see
// an in-progress tournament without a bracket.
func (s *TournamentService) applyTransition(ctx context.Context, tournament *models.Tournament, to models.TournamentStatus, force bool) error {
	return s.applyTransitionWith(ctx, tournament, to, force, nil)
}

// applyTransitionWith additionally runs sideEffect inside the transition's
// transaction, before the status write. Callers use it to persist records
// that must land or roll back together with the status.
func (s *TournamentService) applyTransitionWith(ctx context.Context, tournament *models.Tournament, to models.TournamentStatus, force bool, sideEffect func(repositories.SQLExecutor) error) error {
	if err := ValidateTransition(tournament.Status, to); err != nil {
		return err
	}

	if to == models.StatusInProgress && !force {
		if tournament.TotalCheckedIn < tournament.MinParticipants {
			return ErrTournamentNotEnoughChecked
		}
	}

	from := tournament.Status
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if sideEffect != nil {
			if err := sideEffect(exec); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateStatus(ctx, exec, tournament.ID, to); err != nil {
			return mapTournamentRepoError(err)
		}
		if to == models.StatusInProgress {
			if err := s.bracketService.GenerateForTournament(ctx, exec, tournament); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// A forced start still needs a generatable field; the typed
		// generator error passes through for the handler to explain.
		return err
	}

	tournament.Status = to
	s.logger.Info("tournament status changed",
		slog.Int("tournament_id", tournament.ID),
		slog.String("from", string(from)),
		slog.String("to", string(to)))

	s.broadcastStatus(tournament, from)
	s.notifyParticipants(ctx, tournament, to)
	return nil
}

func (s *TournamentService) broadcastStatus(tournament *models.Tournament, from models.TournamentStatus) {
	room := brackets.RoomForTournament(tournament.ID)
	s.hub.BroadcastToRoom(room, brackets.Event{
		Type:   brackets.EventStatusChanged,
		RoomID: room,
		Payload: map[string]interface{}{
			"tournament_id": tournament.ID,
			"from":          from,
			"to":            tournament.Status,
		},
	})
	if tournament.Status == models.StatusInProgress {
		s.hub.BroadcastToRoom(room, brackets.Event{
			Type:    brackets.EventBracketGenerated,
			RoomID:  room,
			Payload: map[string]interface{}{"tournament_id": tournament.ID},
		})
	}
}

// notifyParticipants emails everyone the transition affects: the organizer
// and every registered entry. Team entries resolve to the captain and, when
// set, the co-captain. Addresses are deduplicated, delivery is asynchronous,
// and failures never surface here.
func (s *TournamentService) notifyParticipants(ctx context.Context, tournament *models.Tournament, to models.TournamentStatus) {
	message, ok := statusMessages[to]
	if !ok {
		return
	}

	recipients := make(map[string]struct{})
	if organizer, err := s.userRepo.GetByID(ctx, tournament.OrganizerID); err == nil && organizer.Email != "" {
		recipients[organizer.Email] = struct{}{}
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournament.ID, repositories.ParticipantFilter{})
	if err != nil {
		s.logger.Error("failed to load participants for notification",
			slog.Int("tournament_id", tournament.ID),
			slog.String("error", err.Error()))
	}
	for _, p := range participants {
		for _, email := range s.recipientEmails(ctx, p) {
			recipients[email] = struct{}{}
		}
	}

	for email := range recipients {
		s.notifier.NotifyStatusChange(Notification{
			RecipientEmail: email,
			TournamentID:   tournament.ID,
			TournamentName: tournament.Name,
			Message:        message,
		})
	}
}

// recipientEmails resolves the addresses behind one entry: the user for an
// individual entry, the captain and co-captain for a team entry.
func (s *TournamentService) recipientEmails(ctx context.Context, p *models.Participant) []string {
	if p.User != nil {
		if p.User.Email == "" {
			return nil
		}
		return []string{p.User.Email}
	}
	if p.Team == nil {
		return nil
	}

	leaderIDs := []int{p.Team.CaptainID}
	if p.Team.CoCaptainID != nil {
		leaderIDs = append(leaderIDs, *p.Team.CoCaptainID)
	}
	var emails []string
	for _, id := range leaderIDs {
		leader, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load team leader for notification",
				slog.Int("team_id", p.Team.ID),
				slog.Int("user_id", id),
				slog.String("error", err.Error()))
			continue
		}
		if leader.Email != "" {
			emails = append(emails, leader.Email)
		}
	}
	return emails
}

var statusMessages = map[models.TournamentStatus]string{
	models.StatusRegistration: "registration is now open",
	models.StatusCheckIn:      "check-in has started, confirm your attendance",
	models.StatusInProgress:   "the tournament has started, the bracket is live",
	models.StatusCompleted:    "the tournament has finished",
	models.StatusCancelled:    "the tournament has been cancelled",
}

func (s *TournamentService) authorize(ctx context.Context, tournament *models.Tournament, actorUserID int) error {
	return requireOrganizerOrAdmin(ctx, s.userRepo, tournament, actorUserID)
}

// validateTournament enforces capacity bounds and strict schedule ordering:
// registration opens before it closes, check-in begins no earlier than
// registration closes, play starts after check-in begins, and the estimated
// end is after the start.
func (s *TournamentService) validateTournament(t *models.Tournament) error {
	if t.Name == "" || t.Game == "" {
		return ErrValidationFailed
	}
	if _, err := brackets.ForFormat(t.Format); err != nil {
		return ErrValidationFailed
	}
	if t.MaxParticipants <= 0 {
		return ErrTournamentInvalidCapacity
	}
	if t.MinParticipants < t.Format.MinimumParticipants() || t.MinParticipants > t.MaxParticipants {
		return ErrTournamentInvalidCapacity
	}

	stamps := []time.Time{t.RegistrationStart, t.RegistrationEnd, t.CheckInStart, t.StartTime, t.EstimatedEnd}
	for _, ts := range stamps {
		if ts.IsZero() {
			return ErrTournamentDatesRequired
		}
	}
	if !t.RegistrationStart.Before(t.RegistrationEnd) {
		return ErrTournamentInvalidSchedule
	}
	if t.CheckInStart.Before(t.RegistrationEnd) {
		return ErrTournamentInvalidSchedule
	}
	if !t.CheckInStart.Before(t.StartTime) {
		return ErrTournamentInvalidSchedule
	}
	if !t.StartTime.Before(t.EstimatedEnd) {
		return ErrTournamentInvalidSchedule
	}
	return nil
}

func mapTournamentWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNameConflict):
		return ErrTournamentNameConflict
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	default:
		return err
	}
}
