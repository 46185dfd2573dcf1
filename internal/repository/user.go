package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"snapfeed/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a Postgres-backed UserRepository.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and fills in the generated id and timestamps.
// A unique violation on username or email maps to model.ErrUserExists.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hashed)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, user.Username, user.Email, user.PasswordHashed).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	query := `
		SELECT id, username, email, password_hashed,
		       follower_count, following_count, post_count,
		       created_at, updated_at
		FROM users
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

// GetByUsernameOrEmail matches the login identifier against both columns.
func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, value string) (*model.User, error) {
	var user model.User
	query := `
		SELECT id, username, email, password_hashed,
		       follower_count, following_count, post_count,
		       created_at, updated_at
		FROM users
		WHERE username = $1 OR email = $1`

	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username or email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	if err := r.db.GetContext(ctx, &exists, query, username, email); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// Suggestions picks users the given user is not already following,
// excluding themselves, most-followed first.
func (r *userRepository) Suggestions(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	summaries := []model.UserSummary{}
	query := `
		SELECT id, username, email, follower_count
		FROM users
		WHERE id != $1
		  AND id NOT IN (
			SELECT followee_id FROM follows WHERE follower_id = $1
		  )
		ORDER BY follower_count DESC, id ASC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &summaries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("get suggestions: %w", err)
	}
	return summaries, nil
}

func (r *userRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	result := make(map[int64]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var summaries []model.UserSummary
	query := `
		SELECT id, username, email, follower_count
		FROM users
		WHERE id = ANY($1)`

	if err := r.db.SelectContext(ctx, &summaries, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get user summaries: %w", err)
	}

	for _, s := range summaries {
		result[s.ID] = s
	}
	return result, nil
}

func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET follower_count = follower_count + $1, updated_at = NOW() WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, delta, userID); err != nil {
		return fmt.Errorf("update follower count: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET following_count = following_count + $1, updated_at = NOW() WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, delta, userID); err != nil {
		return fmt.Errorf("update following count: %w", err)
	}
	return nil
}
