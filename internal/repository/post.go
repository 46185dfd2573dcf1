package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"snapfeed/internal/cache"
	"snapfeed/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a Postgres-backed PostRepository.
func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post and bumps the author's post_count in one
// transaction.
func (r *postRepository) Create(ctx context.Context, userID int64, imageURL, caption string) (*model.Post, error) {
	post := &model.Post{
		UserID:   userID,
		ImageURL: imageURL,
		Caption:  caption,
	}

	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO posts (user_id, image_url, caption)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at`

		if err := tx.QueryRowxContext(ctx, query, userID, imageURL, caption).
			Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}

		countQuery := `UPDATE users SET post_count = post_count + 1, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, countQuery, userID); err != nil {
			return fmt.Errorf("update post count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	query := `
		SELECT id, user_id, image_url, caption,
		       like_count, comment_count, created_at, updated_at
		FROM posts
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &post, query, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return &post, nil
}

// GetByIDs fetches a batch of posts, preserving the order of the input ids.
// Ids that no longer exist are silently dropped.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	posts := []model.Post{}
	query := `
		SELECT id, user_id, image_url, caption,
		       like_count, comment_count, created_at, updated_at
		FROM posts
		WHERE id = ANY($1)
		ORDER BY array_position($1, id)`

	if err := r.db.SelectContext(ctx, &posts, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}
	return posts, nil
}

func (r *postRepository) GetByOwner(ctx context.Context, userID int64) ([]model.Post, error) {
	posts := []model.Post{}
	query := `
		SELECT id, user_id, image_url, caption,
		       like_count, comment_count, created_at, updated_at
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	if err := r.db.SelectContext(ctx, &posts, query, userID); err != nil {
		return nil, fmt.Errorf("get posts by owner: %w", err)
	}
	return posts, nil
}

// Delete removes the post if owned by userID, adjusting the author's
// post_count. Like and comment rows go with it via ON DELETE CASCADE.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if rows == 0 {
			// Distinguish missing post from wrong owner.
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID); err != nil {
				return fmt.Errorf("check post exists: %w", err)
			}
			if exists {
				return model.ErrNotPostOwner
			}
			return model.ErrPostNotFound
		}

		countQuery := `UPDATE users SET post_count = post_count - 1, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, countQuery, userID); err != nil {
			return fmt.Errorf("update post count: %w", err)
		}
		return nil
	})
}

func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`

	if err := r.db.GetContext(ctx, &exists, query, postID); err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

func (r *postRepository) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	var authorID int64
	query := `SELECT user_id FROM posts WHERE id = $1`

	if err := r.db.GetContext(ctx, &authorID, query, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrPostNotFound
		}
		return 0, fmt.Errorf("get post author: %w", err)
	}
	return authorID, nil
}

func (r *postRepository) Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	query := `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING`

	result, err := tx.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *postRepository) Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	query := `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`

	result, err := tx.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

// CheckLikes resolves is-liked flags for a batch of posts in one query.
func (r *postRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	for _, id := range postIDs {
		result[id] = false
	}

	var liked []int64
	query := `SELECT post_id FROM post_likes WHERE user_id = $1 AND post_id = ANY($2)`

	if err := r.db.SelectContext(ctx, &liked, query, userID, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("check likes: %w", err)
	}

	for _, id := range liked {
		result[id] = true
	}
	return result, nil
}

func (r *postRepository) GetLikerIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT post_id, user_id
		FROM post_likes
		WHERE post_id = ANY($1)
		ORDER BY created_at ASC, user_id ASC`, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get liker ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, userID int64
		if err := rows.Scan(&postID, &userID); err != nil {
			return nil, fmt.Errorf("scan liker row: %w", err)
		}
		result[postID] = append(result[postID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liker rows: %w", err)
	}
	return result, nil
}

func (r *postRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	query := `UPDATE posts SET like_count = like_count + $1, updated_at = NOW() WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, delta, postID); err != nil {
		return fmt.Errorf("update like count: %w", err)
	}
	return nil
}

func (r *postRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	query := `UPDATE posts SET comment_count = comment_count + $1, updated_at = NOW() WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, delta, postID); err != nil {
		return fmt.Errorf("update comment count: %w", err)
	}
	return nil
}

// GetRecentPostsByUser returns a user's newest posts as id/timestamp pairs
// for cache backfill.
func (r *postRepository) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, EXTRACT(EPOCH FROM created_at)::bigint
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}
	defer rows.Close()

	return scanPostScores(rows)
}

// GetFeedPostIDs returns the newest posts by any of the given owners,
// used to warm an empty feed cache and as the no-cache fallback.
func (r *postRepository) GetFeedPostIDs(ctx context.Context, ownerIDs []int64, limit int) ([]cache.PostScore, error) {
	if len(ownerIDs) == 0 {
		return []cache.PostScore{}, nil
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, EXTRACT(EPOCH FROM created_at)::bigint
		FROM posts
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, pq.Array(ownerIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("get feed post ids: %w", err)
	}
	defer rows.Close()

	return scanPostScores(rows)
}

func scanPostScores(rows *sqlx.Rows) ([]cache.PostScore, error) {
	scores := []cache.PostScore{}
	for rows.Next() {
		var s cache.PostScore
		if err := rows.Scan(&s.PostID, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scan post score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post scores: %w", err)
	}
	return scores, nil
}
