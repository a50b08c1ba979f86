package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eytgaming/tournament-platform/models"
)

var ErrBracketNotFound = errors.New("bracket not found")

type BracketRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error
	GetByID(ctx context.Context, id int) (*models.Bracket, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Bracket, error)
	// DeleteByTournament removes all brackets of a tournament; dependent
	// matches go with them (ON DELETE CASCADE). Used for idempotent
	// regeneration inside the generation transaction.
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresBracketRepository) Create(ctx context.Context, exec SQLExecutor, b *models.Bracket) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO brackets (tournament_id, type, group_number)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return executor.QueryRowContext(ctx, query,
		b.TournamentID, b.Type, b.GroupNumber,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, id int) (*models.Bracket, error) {
	b := &models.Bracket{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tournament_id, type, group_number, created_at FROM brackets WHERE id = $1`, id,
	).Scan(&b.ID, &b.TournamentID, &b.Type, &b.GroupNumber, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *postgresBracketRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Bracket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tournament_id, type, group_number, created_at
		 FROM brackets WHERE tournament_id = $1 ORDER BY id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brackets []*models.Bracket
	for rows.Next() {
		b := &models.Bracket{}
		if err := rows.Scan(&b.ID, &b.TournamentID, &b.Type, &b.GroupNumber, &b.CreatedAt); err != nil {
			return nil, err
		}
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}

func (r *postgresBracketRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM brackets WHERE tournament_id = $1`, tournamentID)
	return err
}
