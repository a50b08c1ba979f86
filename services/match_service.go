package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/eytgaming/tournament-platform/brackets"
	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
)

// MatchService records results and drives everything that follows from
// them: winner and loser advancement, the next swiss round, and tournament
// completion when the last match is decided.
type MatchService struct {
	txRunner        repositories.TxRunner
	matchRepo       repositories.MatchRepository
	bracketRepo     repositories.BracketRepository
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	tournaments     *TournamentService
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewMatchService(
	txRunner repositories.TxRunner,
	matchRepo repositories.MatchRepository,
	bracketRepo repositories.BracketRepository,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	tournaments *TournamentService,
	hub *brackets.Hub,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		txRunner:        txRunner,
		matchRepo:       matchRepo,
		bracketRepo:     bracketRepo,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		tournaments:     tournaments,
		hub:             hub,
		logger:          logger,
	}
}

func (s *MatchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	return m, nil
}

func (s *MatchService) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return s.matchRepo.ListByTournament(ctx, tournamentID, round, status)
}

// ReportResult records a final score. The winner is placed into their next
// match slot and, in double elimination, the loser is routed into the losers
// bracket, all inside one transaction. Draws are rejected: a decided match
// must have a winner to advance.
func (s *MatchService) ReportResult(ctx context.Context, matchID, actorUserID, score1, score2 int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := requireOrganizerOrAdmin(ctx, s.userRepo, tournament, actorUserID); err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusInProgress {
		return nil, ErrForbiddenOperation
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchAlreadyCompleted
	}
	if match.Participant1ID == nil || match.Participant2ID == nil {
		return nil, ErrMatchMissingParticipant
	}
	if score1 == score2 {
		return nil, ErrMatchScoreTied
	}

	winnerID, loserID := *match.Participant1ID, *match.Participant2ID
	if score2 > score1 {
		winnerID, loserID = loserID, winnerID
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.UpdateResult(ctx, exec, matchID, score1, score2, models.MatchCompleted, &winnerID); err != nil {
			return mapMatchRepoError(err)
		}
		if match.NextMatchID != nil {
			if err := s.matchRepo.SetParticipantSlot(ctx, exec, *match.NextMatchID, *match.NextMatchSlot, winnerID); err != nil {
				return err
			}
		}
		if match.LoserNextMatchID != nil {
			if err := s.matchRepo.SetParticipantSlot(ctx, exec, *match.LoserNextMatchID, *match.LoserNextSlot, loserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	match.Score1, match.Score2 = &score1, &score2
	match.Status = models.MatchCompleted
	match.WinnerParticipantID = &winnerID

	s.logger.Info("match result recorded",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("match_id", matchID),
		slog.Int("winner_participant_id", winnerID))

	room := brackets.RoomForTournament(tournament.ID)
	s.hub.BroadcastToRoom(room, brackets.Event{
		Type:   brackets.EventMatchUpdated,
		RoomID: room,
		Payload: map[string]interface{}{
			"tournament_id": tournament.ID,
			"match_id":      matchID,
			"score1":        score1,
			"score2":        score2,
			"winner_id":     winnerID,
		},
	})

	if err := s.afterResult(ctx, tournament, match); err != nil {
		return nil, err
	}
	return match, nil
}

// afterResult runs once a result is committed: when no undecided matches
// remain, either the next swiss round is paired or the tournament is
// completed with its champion.
func (s *MatchService) afterResult(ctx context.Context, tournament *models.Tournament, reported *models.Match) error {
	all, err := s.matchRepo.ListByTournament(ctx, tournament.ID, nil, nil)
	if err != nil {
		return err
	}
	for _, m := range all {
		if m.Status != models.MatchCompleted && m.Status != models.MatchCancelled {
			return nil
		}
	}

	if tournament.Format == models.FormatSwiss {
		currentRound := maxRound(all)
		entrants, err := s.listEntrants(ctx, tournament.ID)
		if err != nil {
			return err
		}
		if currentRound < brackets.SwissRounds(len(entrants)) {
			return s.pairNextSwissRound(ctx, tournament, all, entrants, currentRound+1)
		}
		standings := standingsFromMatchesFor(entrants, all, currentRound)
		sortStandings(standings)
		var winnerID *int
		if len(standings) > 0 {
			winnerID = intPointer(standings[0].ParticipantID)
		}
		return s.completeTournament(ctx, tournament, winnerID)
	}

	winnerID := s.championOf(tournament, all, reported)
	return s.completeTournament(ctx, tournament, winnerID)
}

// championOf picks the tournament winner. Elimination formats take the
// winner of the final (the last match with no onward link); score-based
// formats take the standings leader.
func (s *MatchService) championOf(tournament *models.Tournament, all []*models.Match, reported *models.Match) *int {
	switch tournament.Format {
	case models.FormatSingleElimination, models.FormatDoubleElimination:
		if reported.NextMatchID == nil {
			return reported.WinnerParticipantID
		}
		for _, m := range all {
			if m.NextMatchID == nil && m.WinnerParticipantID != nil {
				return m.WinnerParticipantID
			}
		}
		return nil
	default:
		standings := standingsFromMatches(all)
		if len(standings) == 0 {
			return nil
		}
		return intPointer(standings[0].ParticipantID)
	}
}

// completeTournament records the champion and the completed status in one
// transaction: the winner is never visible on a still-running tournament and
// a completed tournament never lacks its winner.
func (s *MatchService) completeTournament(ctx context.Context, tournament *models.Tournament, winnerID *int) error {
	err := s.tournaments.applyTransitionWith(ctx, tournament, models.StatusCompleted, false, func(exec repositories.SQLExecutor) error {
		if winnerID == nil {
			return nil
		}
		return s.tournamentRepo.UpdateWinner(ctx, exec, tournament.ID, winnerID)
	})
	if err != nil {
		return err
	}
	tournament.WinnerParticipantID = winnerID
	return nil
}

// pairNextSwissRound computes standings over the completed rounds and
// persists the new round's pairings into the existing swiss bracket.
func (s *MatchService) pairNextSwissRound(ctx context.Context, tournament *models.Tournament, all []*models.Match, entrants []*models.Participant, round int) error {
	standings := standingsFromMatchesFor(entrants, all, round-1)
	played := playedPairs(all)
	pairings := brackets.PairSwissRound(round, standings, played)

	bracketList, err := s.bracketRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return err
	}
	if len(bracketList) == 0 {
		return ErrNotFound
	}
	bracketID := bracketList[0].ID

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, gm := range pairings {
			if gm.IsBye {
				continue
			}
			m := &models.Match{
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
			if err := s.matchRepo.Create(ctx, exec, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("swiss round paired",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("round", round),
		slog.Int("pairings", len(pairings)))

	room := brackets.RoomForTournament(tournament.ID)
	s.hub.BroadcastToRoom(room, brackets.Event{
		Type:    brackets.EventBracketGenerated,
		RoomID:  room,
		Payload: map[string]interface{}{"tournament_id": tournament.ID, "round": round},
	})
	return nil
}

func (s *MatchService) listEntrants(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	confirmed := models.ParticipantConfirmed
	checkedIn := true
	return s.participantRepo.ListByTournament(ctx, tournamentID, repositories.ParticipantFilter{
		Status:    &confirmed,
		CheckedIn: &checkedIn,
	})
}

// standingsFromMatchesFor scores every entrant: one point per win, plus one
// per round the entrant sat out. A sat-out round is a bye and counts as a
// win, which keeps byed players from sinking in the standings.
func standingsFromMatchesFor(entrants []*models.Participant, all []*models.Match, roundsPlayed int) []brackets.SwissStanding {
	wins := make(map[int]int)
	games := make(map[int]int)
	for _, m := range all {
		if m.Status != models.MatchCompleted {
			continue
		}
		if m.Participant1ID != nil {
			games[*m.Participant1ID]++
		}
		if m.Participant2ID != nil {
			games[*m.Participant2ID]++
		}
		if m.WinnerParticipantID != nil {
			wins[*m.WinnerParticipantID]++
		}
	}

	standings := make([]brackets.SwissStanding, 0, len(entrants))
	for _, p := range entrants {
		byes := roundsPlayed - games[p.ID]
		if byes < 0 {
			byes = 0
		}
		standings = append(standings, brackets.SwissStanding{
			ParticipantID: p.ID,
			Score:         wins[p.ID] + byes,
			Seed:          p.Seed,
		})
	}
	return standings
}

// standingsFromMatches ranks participants appearing in the match list when
// the entrant list is not at hand. Used only to pick a champion, where every
// contender has played.
func standingsFromMatches(all []*models.Match) []brackets.SwissStanding {
	seen := make(map[int]bool)
	var standings []brackets.SwissStanding
	wins := make(map[int]int)
	for _, m := range all {
		if m.Status != models.MatchCompleted {
			continue
		}
		for _, pid := range []*int{m.Participant1ID, m.Participant2ID} {
			if pid != nil && !seen[*pid] {
				seen[*pid] = true
				standings = append(standings, brackets.SwissStanding{ParticipantID: *pid})
			}
		}
		if m.WinnerParticipantID != nil {
			wins[*m.WinnerParticipantID]++
		}
	}
	for i := range standings {
		standings[i].Score = wins[standings[i].ParticipantID]
	}
	sortStandings(standings)
	return standings
}

// sortStandings orders by score, breaking ties by the original seed so the
// ranking is deterministic.
func sortStandings(standings []brackets.SwissStanding) {
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].Seed < standings[j].Seed
	})
}

func playedPairs(all []*models.Match) map[int]map[int]bool {
	played := make(map[int]map[int]bool)
	mark := func(a, b int) {
		if played[a] == nil {
			played[a] = make(map[int]bool)
		}
		played[a][b] = true
	}
	for _, m := range all {
		if m.Participant1ID == nil || m.Participant2ID == nil {
			continue
		}
		mark(*m.Participant1ID, *m.Participant2ID)
		mark(*m.Participant2ID, *m.Participant1ID)
	}
	return played
}

func maxRound(all []*models.Match) int {
	max := 0
	for _, m := range all {
		if m.Round > max {
			max = m.Round
		}
	}
	return max
}

func intPointer(v int) *int { return &v }

func mapMatchRepoError(err error) error {
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return ErrMatchNotFound
	}
	return err
}
