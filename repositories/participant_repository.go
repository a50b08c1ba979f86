package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eytgaming/tournament-platform/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrParticipantConflict = errors.New("user or team is already registered for this tournament")
)

// ParticipantFilter narrows ListByTournament; nil fields are ignored.
type ParticipantFilter struct {
	Status    *models.ParticipantStatus
	CheckedIn *bool
}

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error)
	FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int, filter ParticipantFilter) ([]*models.Participant, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipantStatus) error
	UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed int) error
	// SetCheckedIn flips the attendance flag; the caller owns keeping the
	// tournament counter in step within the same transaction.
	SetCheckedIn(ctx context.Context, exec SQLExecutor, id int, checkedIn bool, checkInTime *time.Time) error
	CountCheckedIn(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `
	p.id, p.tournament_id, p.user_id, p.team_id, p.status, p.seed,
	p.checked_in, p.check_in_time, p.registered_at`

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (tournament_id, user_id, team_id, status, seed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, registered_at`

	err := executor.QueryRowContext(ctx, query,
		p.TournamentID, p.UserID, p.TeamID, p.Status, p.Seed,
	).Scan(&p.ID, &p.RegisteredAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrParticipantConflict
	}
	return err
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.id = $1`
	return r.scanOneWithRelations(ctx, query, id)
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.user_id = $1 AND p.tournament_id = $2`
	return r.scanOneWithRelations(ctx, query, userID, tournamentID)
}

func (r *postgresParticipantRepository) FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.team_id = $1 AND p.tournament_id = $2`
	return r.scanOneWithRelations(ctx, query, teamID, tournamentID)
}

func (r *postgresParticipantRepository) scanOneWithRelations(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.TournamentID, &p.UserID, &p.TeamID, &p.Status, &p.Seed,
		&p.CheckedIn, &p.CheckInTime, &p.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	if err := r.loadRelations(ctx, []*models.Participant{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int, filter ParticipantFilter) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.tournament_id = $1`
	args := []interface{}{tournamentID}
	argID := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND p.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.CheckedIn != nil {
		query += fmt.Sprintf(" AND p.checked_in = $%d", argID)
		args = append(args, *filter.CheckedIn)
	}
	query += " ORDER BY p.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(
			&p.ID, &p.TournamentID, &p.UserID, &p.TeamID, &p.Status, &p.Seed,
			&p.CheckedIn, &p.CheckInTime, &p.RegisteredAt,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// loadRelations fills User/Team so DisplayName and ratings resolve.
func (r *postgresParticipantRepository) loadRelations(ctx context.Context, participants []*models.Participant) error {
	for _, p := range participants {
		if p.UserID != nil {
			u := &models.User{}
			err := r.db.QueryRowContext(ctx,
				`SELECT id, first_name, last_name, nickname, email, role, rating, avatar_key, created_at
				 FROM users WHERE id = $1`, *p.UserID,
			).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email, &u.Role, &u.Rating, &u.AvatarKey, &u.CreatedAt)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			if err == nil {
				p.User = u
			}
		}
		if p.TeamID != nil {
			t := &models.Team{}
			err := r.db.QueryRowContext(ctx,
				`SELECT id, name, tag, captain_id, co_captain_id, rating, logo_key, created_at
				 FROM teams WHERE id = $1`, *p.TeamID,
			).Scan(&t.ID, &t.Name, &t.Tag, &t.CaptainID, &t.CoCaptainID, &t.Rating, &t.LogoKey, &t.CreatedAt)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			if err == nil {
				p.Team = t
			}
		}
	}
	return nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipantStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE participants SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE participants SET seed = $1 WHERE id = $2`, seed, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SetCheckedIn(ctx context.Context, exec SQLExecutor, id int, checkedIn bool, checkInTime *time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE participants SET checked_in = $1, check_in_time = $2 WHERE id = $3`,
		checkedIn, checkInTime, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) CountCheckedIn(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE tournament_id = $1 AND checked_in = TRUE`,
		tournamentID,
	).Scan(&count)
	return count, err
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
