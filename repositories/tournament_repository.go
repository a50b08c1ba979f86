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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict for this organizer")
	ErrTournamentInvalidOrg   = errors.New("invalid organizer reference")
)

type ListTournamentsFilter struct {
	OrganizerID *int
	Status      *models.TournamentStatus
	Format      *models.TournamentFormat
	Game        *string
	Limit       int
	Offset      int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateWinner(ctx context.Context, exec SQLExecutor, tournamentID int, winnerParticipantID *int) error
	UpdateBannerKey(ctx context.Context, tournamentID int, bannerKey *string) error
	// AdjustCheckedInCount moves the denormalized counter by delta, floored
	// at zero, and must run inside the same transaction as the check-in
	// flag write.
	AdjustCheckedInCount(ctx context.Context, exec SQLExecutor, id int, delta int) error
	AdjustRegisteredCount(ctx context.Context, exec SQLExecutor, id int, delta int) error
	SetCheckedInCount(ctx context.Context, exec SQLExecutor, id int, count int) error
	Delete(ctx context.Context, id int) error
	// ListForAutoStatusUpdate returns tournaments whose status and
	// timestamps satisfy one of the automatic transition conditions at
	// currentTime.
	ListForAutoStatusUpdate(ctx context.Context, currentTime time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, description, game, organizer_id, format, status, team_based, seeding,
	max_participants, min_participants,
	registration_start, registration_end, check_in_start, start_time, estimated_end,
	total_registered, total_checked_in, winner_participant_id, banner_key, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Game, &t.OrganizerID, &t.Format, &t.Status,
		&t.TeamBased, &t.Seeding, &t.MaxParticipants, &t.MinParticipants,
		&t.RegistrationStart, &t.RegistrationEnd, &t.CheckInStart, &t.StartTime, &t.EstimatedEnd,
		&t.TotalRegistered, &t.TotalCheckedIn, &t.WinnerParticipantID, &t.BannerKey, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, description, game, organizer_id, format, status, team_based, seeding,
			max_participants, min_participants,
			registration_start, registration_end, check_in_start, start_time, estimated_end
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.Game, t.OrganizerID, t.Format, t.Status, t.TeamBased, t.Seeding,
		t.MaxParticipants, t.MinParticipants,
		t.RegistrationStart, t.RegistrationEnd, t.CheckInStart, t.StartTime, t.EstimatedEnd,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := scanTournament(
		r.db.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Format != nil {
		query += fmt.Sprintf(" AND format = $%d", argID)
		args = append(args, *filter.Format)
		argID++
	}
	if filter.Game != nil {
		query += fmt.Sprintf(" AND game = $%d", argID)
		args = append(args, *filter.Game)
		argID++
	}

	query += " ORDER BY start_time DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1, description = $2, game = $3, format = $4, team_based = $5, seeding = $6,
			max_participants = $7, min_participants = $8,
			registration_start = $9, registration_end = $10, check_in_start = $11,
			start_time = $12, estimated_end = $13
		WHERE id = $14`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.Game, t.Format, t.TeamBased, t.Seeding,
		t.MaxParticipants, t.MinParticipants,
		t.RegistrationStart, t.RegistrationEnd, t.CheckInStart, t.StartTime, t.EstimatedEnd,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateWinner(ctx context.Context, exec SQLExecutor, tournamentID int, winnerParticipantID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET winner_participant_id = $1 WHERE id = $2`,
		winnerParticipantID, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update tournament winner for tournament %d: %w", tournamentID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, tournamentID int, bannerKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET banner_key = $1 WHERE id = $2`, bannerKey, tournamentID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AdjustCheckedInCount(ctx context.Context, exec SQLExecutor, id int, delta int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET total_checked_in = GREATEST(total_checked_in + $1, 0) WHERE id = $2`,
		delta, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AdjustRegisteredCount(ctx context.Context, exec SQLExecutor, id int, delta int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET total_registered = GREATEST(total_registered + $1, 0) WHERE id = $2`,
		delta, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetCheckedInCount(ctx context.Context, exec SQLExecutor, id int, count int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET total_checked_in = $1 WHERE id = $2`, count, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListForAutoStatusUpdate(ctx context.Context, currentTime time.Time) ([]*models.Tournament, error) {
	// The status filter doubles as an idempotence guard: a tournament
	// already moved on by a previous run no longer matches.
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE
			(status = $1 AND registration_start <= $5 AND registration_end > $5) OR
			(status = $2 AND registration_end <= $5 AND check_in_start <= $5) OR
			(status = $3 AND start_time <= $5) OR
			(status = $4 AND estimated_end <= $5)
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query,
		models.StatusDraft,
		models.StatusRegistration,
		models.StatusCheckIn,
		models.StatusInProgress,
		currentTime,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for auto status update: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament for auto status update: %w", err)
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_organizer_id_name_key" {
				return ErrTournamentNameConflict
			}
		case "23503":
			if pqErr.Constraint == "tournaments_organizer_id_fkey" {
				return ErrTournamentInvalidOrg
			}
		}
	}
	return err
}
