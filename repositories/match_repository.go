package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eytgaming/tournament-platform/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	ListByBracket(ctx context.Context, bracketID int) ([]*models.Match, error)
	UpdateAdvancementLinks(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID, nextMatchSlot, loserNextMatchID, loserNextSlot *int) error
	SetParticipantSlot(ctx context.Context, exec SQLExecutor, matchID int, slot int, participantID int) error
	UpdateResult(ctx context.Context, exec SQLExecutor, matchID int, score1, score2 int, status models.MatchStatus, winnerParticipantID *int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, bracket_id, tournament_id, round, order_in_round, bracket_uid,
	participant1_id, participant2_id, score1, score2, status, winner_participant_id,
	next_match_id, next_match_slot, loser_next_match_id, loser_next_slot,
	scheduled_at, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.BracketID, &m.TournamentID, &m.Round, &m.OrderInRound, &m.BracketUID,
		&m.Participant1ID, &m.Participant2ID, &m.Score1, &m.Score2, &m.Status, &m.WinnerParticipantID,
		&m.NextMatchID, &m.NextMatchSlot, &m.LoserNextMatchID, &m.LoserNextSlot,
		&m.ScheduledAt, &m.CreatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (
			bracket_id, tournament_id, round, order_in_round, bracket_uid,
			participant1_id, participant2_id, status, scheduled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	return executor.QueryRowContext(ctx, query,
		m.BracketID, m.TournamentID, m.Round, m.OrderInRound, m.BracketUID,
		m.Participant1ID, m.Participant2ID, m.Status, m.ScheduledAt,
	).Scan(&m.ID, &m.CreatedAt)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	argID := 2

	if round != nil {
		query += fmt.Sprintf(" AND round = $%d", argID)
		args = append(args, *round)
		argID++
	}
	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *status)
	}
	query += " ORDER BY bracket_id, round, order_in_round"

	return r.list(ctx, query, args...)
}

func (r *postgresMatchRepository) ListByBracket(ctx context.Context, bracketID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE bracket_id = $1 ORDER BY round, order_in_round`
	return r.list(ctx, query, bracketID)
}

func (r *postgresMatchRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m := &models.Match{}
		if err := scanMatch(rows, m); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateAdvancementLinks(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID, nextMatchSlot, loserNextMatchID, loserNextSlot *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET next_match_id = $1, next_match_slot = $2, loser_next_match_id = $3, loser_next_slot = $4
		 WHERE id = $5`,
		nextMatchID, nextMatchSlot, loserNextMatchID, loserNextSlot, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetParticipantSlot(ctx context.Context, exec SQLExecutor, matchID int, slot int, participantID int) error {
	executor := r.getExecutor(exec)
	column := "participant1_id"
	if slot == 2 {
		column = "participant2_id"
	}
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET `+column+` = $1 WHERE id = $2`, participantID, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, matchID int, score1, score2 int, status models.MatchStatus, winnerParticipantID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET score1 = $1, score2 = $2, status = $3, winner_participant_id = $4 WHERE id = $5`,
		score1, score2, status, winnerParticipantID, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
