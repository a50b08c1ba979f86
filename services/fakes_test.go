package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/eytgaming/tournament-platform/brackets"
	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
)

// In-memory repository fakes. They mirror the postgres repositories closely
// enough for service tests: copies on read, sentinel errors on misses, and
// the same denormalized counter behavior.

// fakeTxRunner snapshots every fake store before the unit of work and
// restores them when it fails, mirroring a rollback. It counts invocations
// so tests can pin which writes share a transaction.
type fakeTxRunner struct {
	stores []snapshotter
	runs   int
}

type snapshotter interface {
	snapshot() func()
}

func (r *fakeTxRunner) RunInTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	r.runs++
	restores := make([]func(), 0, len(r.stores))
	for _, s := range r.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// recordingNotifier captures status notifications for assertions.
type recordingNotifier struct {
	notifications []Notification
}

func (n *recordingNotifier) NotifyStatusChange(notification Notification) {
	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) recipients() []string {
	var out []string
	for _, notification := range n.notifications {
		out = append(out, notification.RecipientEmail)
	}
	return out
}

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}, nextID: 1}
}

func (r *fakeUserRepo) snapshot() func() {
	saved := make(map[int]*models.User, len(r.users))
	for id, u := range r.users {
		c := *u
		saved[id] = &c
	}
	nextID := r.nextID
	return func() { r.users, r.nextID = saved, nextID }
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if user.Nickname != nil && u.Nickname != nil && *u.Nickname == *user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now().UTC()
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByConfirmationToken(_ context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.ConfirmationToken != nil && *u.ConfirmationToken == token {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByPasswordResetToken(_ context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(_ context.Context, userID int, avatarKey *string) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = avatarKey
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeTeamRepo struct {
	teams   map[int]*models.Team
	members map[int][]int
	nextID  int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: map[int]*models.Team{}, members: map[int][]int{}, nextID: 1}
}

func (r *fakeTeamRepo) snapshot() func() {
	savedTeams := make(map[int]*models.Team, len(r.teams))
	for id, t := range r.teams {
		c := *t
		savedTeams[id] = &c
	}
	savedMembers := make(map[int][]int, len(r.members))
	for id, ids := range r.members {
		savedMembers[id] = append([]int(nil), ids...)
	}
	nextID := r.nextID
	return func() { r.teams, r.members, r.nextID = savedTeams, savedMembers, nextID }
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	for _, t := range r.teams {
		if t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.nextID
	r.nextID++
	team.CreatedAt = time.Now().UTC()
	c := *team
	r.teams[team.ID] = &c
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *models.Team) error {
	if _, ok := r.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	c := *team
	r.teams[team.ID] = &c
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	delete(r.members, id)
	return nil
}

func (r *fakeTeamRepo) UpdateLogoKey(_ context.Context, teamID int, logoKey *string) error {
	t, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, teamID, userID int) error {
	for _, id := range r.members[teamID] {
		if id == userID {
			return repositories.ErrTeamMemberExists
		}
	}
	r.members[teamID] = append(r.members[teamID], userID)
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID int) error {
	ids := r.members[teamID]
	for i, id := range ids {
		if id == userID {
			r.members[teamID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeTeamRepo) ListMembers(_ context.Context, teamID int) ([]models.User, error) {
	var out []models.User
	for _, id := range r.members[teamID] {
		out = append(out, models.User{ID: id})
	}
	return out, nil
}

func (r *fakeTeamRepo) ListLedBy(_ context.Context, userID int) ([]models.Team, error) {
	var out []models.Team
	for _, t := range r.teams {
		if t.IsLeader(userID) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: map[int]*models.Tournament{}, nextID: 1}
}

func (r *fakeTournamentRepo) snapshot() func() {
	saved := make(map[int]*models.Tournament, len(r.tournaments))
	for id, t := range r.tournaments {
		c := *t
		saved[id] = &c
	}
	nextID := r.nextID
	return func() { r.tournaments, r.nextID = saved, nextID }
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	for _, existing := range r.tournaments {
		if existing.Name == t.Name && existing.OrganizerID == t.OrganizerID {
			return repositories.ErrTournamentNameConflict
		}
	}
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now().UTC()
	c := *t
	r.tournaments[t.ID] = &c
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.OrganizerID != nil && t.OrganizerID != *filter.OrganizerID {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	c := *t
	r.tournaments[t.ID] = &c
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateWinner(_ context.Context, _ repositories.SQLExecutor, tournamentID int, winnerParticipantID *int) error {
	t, ok := r.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.WinnerParticipantID = winnerParticipantID
	return nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(_ context.Context, tournamentID int, bannerKey *string) error {
	t, ok := r.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	return nil
}

func (r *fakeTournamentRepo) AdjustCheckedInCount(_ context.Context, _ repositories.SQLExecutor, id int, delta int) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.TotalCheckedIn += delta
	if t.TotalCheckedIn < 0 {
		t.TotalCheckedIn = 0
	}
	return nil
}

func (r *fakeTournamentRepo) AdjustRegisteredCount(_ context.Context, _ repositories.SQLExecutor, id int, delta int) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.TotalRegistered += delta
	if t.TotalRegistered < 0 {
		t.TotalRegistered = 0
	}
	return nil
}

func (r *fakeTournamentRepo) SetCheckedInCount(_ context.Context, _ repositories.SQLExecutor, id int, count int) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.TotalCheckedIn = count
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) ListForAutoStatusUpdate(_ context.Context, now time.Time) ([]*models.Tournament, error) {
	var due []*models.Tournament
	for _, t := range r.tournaments {
		switch t.Status {
		case models.StatusDraft:
			if !t.RegistrationStart.After(now) && t.RegistrationEnd.After(now) {
				c := *t
				due = append(due, &c)
			}
		case models.StatusRegistration:
			if !t.RegistrationEnd.After(now) && !t.CheckInStart.After(now) {
				c := *t
				due = append(due, &c)
			}
		case models.StatusCheckIn:
			if !t.StartTime.After(now) {
				c := *t
				due = append(due, &c)
			}
		case models.StatusInProgress:
			if !t.EstimatedEnd.After(now) {
				c := *t
				due = append(due, &c)
			}
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

type fakeParticipantRepo struct {
	participants map[int]*models.Participant
	nextID       int
	users        *fakeUserRepo
	teams        *fakeTeamRepo
}

func newFakeParticipantRepo(users *fakeUserRepo, teams *fakeTeamRepo) *fakeParticipantRepo {
	return &fakeParticipantRepo{
		participants: map[int]*models.Participant{},
		nextID:       1,
		users:        users,
		teams:        teams,
	}
}

func (r *fakeParticipantRepo) snapshot() func() {
	saved := make(map[int]*models.Participant, len(r.participants))
	for id, p := range r.participants {
		c := *p
		saved[id] = &c
	}
	nextID := r.nextID
	return func() { r.participants, r.nextID = saved, nextID }
}

func (r *fakeParticipantRepo) withRelations(p *models.Participant) *models.Participant {
	c := *p
	if c.UserID != nil {
		if u, ok := r.users.users[*c.UserID]; ok {
			uc := *u
			c.User = &uc
		}
	}
	if c.TeamID != nil {
		if t, ok := r.teams.teams[*c.TeamID]; ok {
			tc := *t
			c.Team = &tc
		}
	}
	return &c
}

func (r *fakeParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	for _, existing := range r.participants {
		if existing.TournamentID != p.TournamentID || existing.Status == models.ParticipantWithdrawn {
			continue
		}
		if p.UserID != nil && existing.UserID != nil && *existing.UserID == *p.UserID {
			return repositories.ErrParticipantConflict
		}
		if p.TeamID != nil && existing.TeamID != nil && *existing.TeamID == *p.TeamID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.nextID
	r.nextID++
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = time.Now().UTC()
	}
	c := *p
	r.participants[p.ID] = &c
	return nil
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, id int) (*models.Participant, error) {
	p, ok := r.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	return r.withRelations(p), nil
}

func (r *fakeParticipantRepo) FindByUserAndTournament(_ context.Context, userID, tournamentID int) (*models.Participant, error) {
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.UserID != nil && *p.UserID == userID {
			return r.withRelations(p), nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) FindByTeamAndTournament(_ context.Context, teamID, tournamentID int) (*models.Participant, error) {
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.TeamID != nil && *p.TeamID == teamID {
			return r.withRelations(p), nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int, filter repositories.ParticipantFilter) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, p := range r.participants {
		if p.TournamentID != tournamentID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.CheckedIn != nil && p.CheckedIn != *filter.CheckedIn {
			continue
		}
		out = append(out, r.withRelations(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParticipantRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.ParticipantStatus) error {
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

func (r *fakeParticipantRepo) UpdateSeed(_ context.Context, _ repositories.SQLExecutor, id int, seed int) error {
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Seed = seed
	return nil
}

func (r *fakeParticipantRepo) SetCheckedIn(_ context.Context, _ repositories.SQLExecutor, id int, checkedIn bool, checkInTime *time.Time) error {
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.CheckedIn = checkedIn
	p.CheckInTime = checkInTime
	return nil
}

func (r *fakeParticipantRepo) CountCheckedIn(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.CheckedIn {
			count++
		}
	}
	return count, nil
}

func (r *fakeParticipantRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.participants[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.participants, id)
	return nil
}

type fakeBracketRepo struct {
	brackets map[int]*models.Bracket
	nextID   int
	matches  *fakeMatchRepo
}

func newFakeBracketRepo(matches *fakeMatchRepo) *fakeBracketRepo {
	return &fakeBracketRepo{brackets: map[int]*models.Bracket{}, nextID: 1, matches: matches}
}

func (r *fakeBracketRepo) snapshot() func() {
	saved := make(map[int]*models.Bracket, len(r.brackets))
	for id, b := range r.brackets {
		c := *b
		saved[id] = &c
	}
	nextID := r.nextID
	return func() { r.brackets, r.nextID = saved, nextID }
}

func (r *fakeBracketRepo) Create(_ context.Context, _ repositories.SQLExecutor, bracket *models.Bracket) error {
	bracket.ID = r.nextID
	r.nextID++
	bracket.CreatedAt = time.Now().UTC()
	c := *bracket
	r.brackets[bracket.ID] = &c
	return nil
}

func (r *fakeBracketRepo) GetByID(_ context.Context, id int) (*models.Bracket, error) {
	b, ok := r.brackets[id]
	if !ok {
		return nil, repositories.ErrBracketNotFound
	}
	c := *b
	return &c, nil
}

func (r *fakeBracketRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Bracket, error) {
	var out []*models.Bracket
	for _, b := range r.brackets {
		if b.TournamentID == tournamentID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteByTournament cascades to the matches, like the database foreign key.
func (r *fakeBracketRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	for id, b := range r.brackets {
		if b.TournamentID == tournamentID {
			delete(r.brackets, id)
		}
	}
	for id, m := range r.matches.matches {
		if m.TournamentID == tournamentID {
			delete(r.matches.matches, id)
		}
	}
	return nil
}

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: map[int]*models.Match{}, nextID: 1}
}

func (r *fakeMatchRepo) snapshot() func() {
	saved := make(map[int]*models.Match, len(r.matches))
	for id, m := range r.matches {
		c := *m
		saved[id] = &c
	}
	nextID := r.nextID
	return func() { r.matches, r.nextID = saved, nextID }
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.ID = r.nextID
	r.nextID++
	match.CreatedAt = time.Now().UTC()
	c := *match
	r.matches[match.ID] = &c
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	c := *m
	return &c, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) ListByBracket(_ context.Context, bracketID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.BracketID == bracketID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) UpdateAdvancementLinks(_ context.Context, _ repositories.SQLExecutor, matchID int, nextMatchID, nextMatchSlot, loserNextMatchID, loserNextSlot *int) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.NextMatchID = nextMatchID
	m.NextMatchSlot = nextMatchSlot
	m.LoserNextMatchID = loserNextMatchID
	m.LoserNextSlot = loserNextSlot
	return nil
}

func (r *fakeMatchRepo) SetParticipantSlot(_ context.Context, _ repositories.SQLExecutor, matchID int, slot int, participantID int) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if slot == 1 {
		m.Participant1ID = &participantID
	} else {
		m.Participant2ID = &participantID
	}
	return nil
}

func (r *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, matchID int, score1, score2 int, status models.MatchStatus, winnerParticipantID *int) error {
	m, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Score1 = &score1
	m.Score2 = &score2
	m.Status = status
	m.WinnerParticipantID = winnerParticipantID
	return nil
}

var (
	_ repositories.TxRunner              = (*fakeTxRunner)(nil)
	_ repositories.UserRepository        = (*fakeUserRepo)(nil)
	_ repositories.TeamRepository        = (*fakeTeamRepo)(nil)
	_ repositories.TournamentRepository  = (*fakeTournamentRepo)(nil)
	_ repositories.ParticipantRepository = (*fakeParticipantRepo)(nil)
	_ repositories.BracketRepository     = (*fakeBracketRepo)(nil)
	_ repositories.MatchRepository       = (*fakeMatchRepo)(nil)
)

// testEnv wires the full service graph over the fakes, the way main does
// over postgres.
type testEnv struct {
	users        *fakeUserRepo
	teams        *fakeTeamRepo
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	bracketRepo  *fakeBracketRepo
	matchRepo    *fakeMatchRepo
	tx           *fakeTxRunner
	notifier     *recordingNotifier

	bracketService     *BracketService
	tournamentService  *TournamentService
	participantService *ParticipantService
	checkInService     *CheckInService
	matchService       *MatchService
	statusChecker      *StatusChecker
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := brackets.NewHub()

	env := &testEnv{
		users:       newFakeUserRepo(),
		teams:       newFakeTeamRepo(),
		tournaments: newFakeTournamentRepo(),
		matchRepo:   newFakeMatchRepo(),
	}
	env.participants = newFakeParticipantRepo(env.users, env.teams)
	env.bracketRepo = newFakeBracketRepo(env.matchRepo)
	env.notifier = &recordingNotifier{}
	tx := &fakeTxRunner{stores: []snapshotter{
		env.users, env.teams, env.tournaments, env.participants, env.bracketRepo, env.matchRepo,
	}}
	env.tx = tx

	env.bracketService = NewBracketService(tx, env.tournaments, env.participants, env.bracketRepo, env.matchRepo, env.users, hub, logger)
	env.tournamentService = NewTournamentService(tx, env.tournaments, env.participants, env.users, env.bracketService, env.notifier, nil, hub, logger)
	env.participantService = NewParticipantService(tx, env.participants, env.tournaments, env.users, env.teams, logger)
	env.checkInService = NewCheckInService(tx, env.participants, env.tournaments, env.users, env.teams, hub, logger)
	env.matchService = NewMatchService(tx, env.matchRepo, env.bracketRepo, env.tournaments, env.participants, env.users, env.tournamentService, hub, logger)
	env.statusChecker = NewStatusChecker(env.tournaments, env.tournamentService, time.Hour, logger)
	return env
}

func (e *testEnv) addUser(role models.UserRole) *models.User {
	id := e.users.nextID
	e.users.nextID++
	nickname := fmt.Sprintf("user%d", id)
	u := &models.User{
		ID:       id,
		Nickname: &nickname,
		Email:    fmt.Sprintf("user%d@example.com", id),
		Role:     role,
		Rating:   1000 + id,
	}
	e.users.users[id] = u
	return u
}

func (e *testEnv) addTournament(organizerID int, status models.TournamentStatus, format models.TournamentFormat) *models.Tournament {
	now := time.Now().UTC()
	id := e.tournaments.nextID
	e.tournaments.nextID++
	t := &models.Tournament{
		ID:                id,
		Name:              fmt.Sprintf("Tournament %d", id),
		Game:              "Street Fighter 6",
		OrganizerID:       organizerID,
		Format:            format,
		Status:            status,
		Seeding:           models.SeedingRegistrationOrder,
		MaxParticipants:   32,
		MinParticipants:   2,
		RegistrationStart: now.Add(-4 * time.Hour),
		RegistrationEnd:   now.Add(-3 * time.Hour),
		CheckInStart:      now.Add(-2 * time.Hour),
		StartTime:         now.Add(-1 * time.Hour),
		EstimatedEnd:      now.Add(4 * time.Hour),
	}
	e.tournaments.tournaments[id] = t
	return t
}

func (e *testEnv) addParticipant(tournamentID int, userID int, checkedIn bool) *models.Participant {
	id := e.participants.nextID
	e.participants.nextID++
	p := &models.Participant{
		ID:           id,
		TournamentID: tournamentID,
		UserID:       &userID,
		Status:       models.ParticipantConfirmed,
		CheckedIn:    checkedIn,
		RegisteredAt: time.Now().UTC().Add(time.Duration(id) * time.Second),
	}
	e.participants.participants[id] = p
	return p
}
