package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrDuplicateEmail = fmt.Errorf("user with this email already exists: %w", common.ErrBadRequest)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// DeleteWithSubmissions removes the user, their submissions and their
	// solved entries in one transaction.
	DeleteWithSubmissions(ctx context.Context, id string) error
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, age, hashed_password, role, created_at, updated_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, first_name, last_name, email, age, hashed_password, role)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.Age, user.HashedPassword, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return ErrDuplicateEmail
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) DeleteWithSubmissions(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgUserRepository.DeleteWithSubmissions begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_solved_problems WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("pgUserRepository.DeleteWithSubmissions solved: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("pgUserRepository.DeleteWithSubmissions submissions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.DeleteWithSubmissions user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgUserRepository.DeleteWithSubmissions commit: %w", err)
	}
	return nil
}

// Leaderboard ranks users by solved problem count; ties go to whoever
// reached the count first.
func (r *pgUserRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `SELECT u.id, u.first_name, COUNT(s.problem_id) AS solved
	          FROM users u
	          JOIN user_solved_problems s ON s.user_id = u.id
	          GROUP BY u.id, u.first_name
	          ORDER BY solved DESC, MAX(s.solved_at) ASC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.Leaderboard query: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.FirstName, &e.ProblemsSolved); err != nil {
			return nil, fmt.Errorf("pgUserRepository.Leaderboard scan: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.Leaderboard rows.Err: %w", err)
	}
	return entries, nil
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Age,
		&user.HashedPassword, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
