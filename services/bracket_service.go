package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/eytgaming/tournament-platform/brackets"
	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
)

// BracketService owns bracket generation and retrieval. Generation always
// runs inside a transaction so a half-written bracket can never be observed.
type BracketService struct {
	txRunner        repositories.TxRunner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	bracketRepo     repositories.BracketRepository
	matchRepo       repositories.MatchRepository
	userRepo        repositories.UserRepository
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewBracketService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	bracketRepo repositories.BracketRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) *BracketService {
	return &BracketService{
		txRunner:        txRunner,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		bracketRepo:     bracketRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
		hub:             hub,
		logger:          logger,
	}
}

type bracketKey struct {
	btype models.BracketType
	group int // 0 when not a group bracket
}

// GenerateForTournament builds and persists the bracket for a tournament's
// checked-in field inside the given transaction. Any previously generated
// brackets and matches for the tournament are replaced.
//
// Only checked-in participants enter the bracket; everyone else is left on
// their registration. Seeds are written back so the layout can be audited
// after the fact.
func (s *BracketService) GenerateForTournament(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) error {
	entrants, err := s.listEntrants(ctx, tournament.ID)
	if err != nil {
		return err
	}

	generator, err := brackets.ForFormat(tournament.Format)
	if err != nil {
		return err
	}

	seeded := brackets.ApplySeeding(entrants, tournament.Seeding)
	for i, p := range seeded {
		p.Seed = i + 1
		if err := s.participantRepo.UpdateSeed(ctx, exec, p.ID, p.Seed); err != nil {
			return fmt.Errorf("persist seed for participant %d: %w", p.ID, err)
		}
	}

	generated, err := generator.Generate(ctx, brackets.GenerateParams{
		Tournament:   tournament,
		Participants: seeded,
	})
	if err != nil {
		return err
	}

	if err := s.bracketRepo.DeleteByTournament(ctx, exec, tournament.ID); err != nil {
		return fmt.Errorf("clear previous brackets: %w", err)
	}

	if err := s.persistGenerated(ctx, exec, tournament, generated); err != nil {
		return err
	}

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournament.ID),
		slog.String("format", string(tournament.Format)),
		slog.String("generator", generator.Name()),
		slog.Int("entrants", len(seeded)),
		slog.Int("matches", countPlayable(generated)))
	return nil
}

// persistGenerated writes bracket rows, then match rows, then resolves the
// generator's UID references into database IDs with a second pass over the
// advancement links. Byes are skipped: they exist only to document the
// layout, the advanced participant is already placed in the next round.
func (s *BracketService) persistGenerated(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, generated []*brackets.GeneratedMatch) error {
	bracketIDs := make(map[bracketKey]int)
	uidToMatch := make(map[string]*models.Match, len(generated))

	for _, gm := range generated {
		if gm.IsBye {
			continue
		}

		key := bracketKey{btype: gm.BracketType}
		if gm.GroupNumber != nil {
			key.group = *gm.GroupNumber
		}
		bracketID, ok := bracketIDs[key]
		if !ok {
			bracket := &models.Bracket{
				TournamentID: tournament.ID,
				Type:         gm.BracketType,
				GroupNumber:  gm.GroupNumber,
			}
			if err := s.bracketRepo.Create(ctx, exec, bracket); err != nil {
				return fmt.Errorf("create %s bracket: %w", gm.BracketType, err)
			}
			bracketID = bracket.ID
			bracketIDs[key] = bracketID
		}

		match := &models.Match{
			BracketID:      bracketID,
			TournamentID:   tournament.ID,
			Round:          gm.Round,
			OrderInRound:   gm.OrderInRound,
			BracketUID:     gm.UID,
			Participant1ID: gm.Participant1ID,
			Participant2ID: gm.Participant2ID,
			Status:         models.MatchScheduled,
			ScheduledAt:    tournament.StartTime,
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return fmt.Errorf("create match %s: %w", gm.UID, err)
		}
		uidToMatch[gm.UID] = match
	}

	// Linking pass. Each source reference on a match means "the outcome of
	// that source feeds this slot", so the link is stored on the source.
	type link struct {
		next, loserNext     *int
		nextSlot, loserSlot *int
	}
	links := make(map[int]*link)
	get := func(uid string) (*link, error) {
		src, ok := uidToMatch[uid]
		if !ok {
			return nil, fmt.Errorf("advancement link references unknown match %q", uid)
		}
		l := links[src.ID]
		if l == nil {
			l = &link{}
			links[src.ID] = l
		}
		return l, nil
	}

	for _, gm := range generated {
		if gm.IsBye {
			continue
		}
		target := uidToMatch[gm.UID]

		for slot, src := range map[int]*string{1: gm.WinnerSource1UID, 2: gm.WinnerSource2UID} {
			if src == nil {
				continue
			}
			l, err := get(*src)
			if err != nil {
				return err
			}
			l.next = &target.ID
			slot := slot
			l.nextSlot = &slot
		}
		for slot, src := range map[int]*string{1: gm.LoserSource1UID, 2: gm.LoserSource2UID} {
			if src == nil {
				continue
			}
			l, err := get(*src)
			if err != nil {
				return err
			}
			l.loserNext = &target.ID
			slot := slot
			l.loserSlot = &slot
		}
	}

	for matchID, l := range links {
		err := s.matchRepo.UpdateAdvancementLinks(ctx, exec, matchID, l.next, l.nextSlot, l.loserNext, l.loserSlot)
		if err != nil {
			return fmt.Errorf("link match %d: %w", matchID, err)
		}
	}
	return nil
}

// listEntrants returns the confirmed, checked-in field in registration order.
func (s *BracketService) listEntrants(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	confirmed := models.ParticipantConfirmed
	checkedIn := true
	return s.participantRepo.ListByTournament(ctx, tournamentID, repositories.ParticipantFilter{
		Status:    &confirmed,
		CheckedIn: &checkedIn,
	})
}

// Regenerate throws away the current bracket and builds a fresh one. Allowed
// only to the organizer (or an admin) and only while the tournament is in
// progress with no completed matches, so no recorded result is ever lost.
func (s *BracketService) Regenerate(ctx context.Context, tournamentID, actorUserID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if err := s.authorizeOrganizer(ctx, tournament, actorUserID); err != nil {
		return err
	}
	if tournament.Status != models.StatusInProgress {
		return &InvalidTransitionError{From: tournament.Status, To: models.StatusInProgress}
	}

	completed := models.MatchCompleted
	done, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, &completed)
	if err != nil {
		return err
	}
	if len(done) > 0 {
		return ErrBracketHasResults
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.GenerateForTournament(ctx, exec, tournament)
	})
	if err != nil {
		return err
	}

	room := brackets.RoomForTournament(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.Event{
		Type:    brackets.EventBracketGenerated,
		RoomID:  room,
		Payload: map[string]interface{}{"tournament_id": tournamentID},
	})
	return nil
}

// GetTournamentBracket returns the full bracket view: every bracket of the
// tournament with its matches, plus the participant list for name lookups.
// Brackets and participants load concurrently.
func (s *BracketService) GetTournamentBracket(ctx context.Context, tournamentID int) (*TournamentBracketView, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	view := &TournamentBracketView{Tournament: tournament}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bracketList, err := s.bracketRepo.ListByTournament(gctx, tournamentID)
		if err != nil {
			return err
		}
		for _, b := range bracketList {
			matches, err := s.matchRepo.ListByBracket(gctx, b.ID)
			if err != nil {
				return err
			}
			for _, m := range matches {
				b.Matches = append(b.Matches, *m)
			}
		}
		view.Brackets = bracketList
		return nil
	})
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gctx, tournamentID, repositories.ParticipantFilter{})
		if err != nil {
			return err
		}
		view.Participants = participants
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

type TournamentBracketView struct {
	Tournament   *models.Tournament    `json:"tournament"`
	Brackets     []*models.Bracket     `json:"brackets"`
	Participants []*models.Participant `json:"participants"`
}

func (s *BracketService) authorizeOrganizer(ctx context.Context, tournament *models.Tournament, actorUserID int) error {
	return requireOrganizerOrAdmin(ctx, s.userRepo, tournament, actorUserID)
}

func countPlayable(generated []*brackets.GeneratedMatch) int {
	n := 0
	for _, gm := range generated {
		if !gm.IsBye {
			n++
		}
	}
	return n
}

func mapTournamentRepoError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

func mapUserRepoError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
