package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"snapfeed/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a Postgres-backed CommentRepository.
func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error) {
	comment := &model.Comment{
		PostID: postID,
		UserID: userID,
		Text:   text,
	}

	query := `
		INSERT INTO comments (post_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if err := tx.QueryRowxContext(ctx, query, postID, userID, text).
		Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return comment, nil
}

// commentRow flattens the comment/author join for sqlx scanning.
type commentRow struct {
	model.Comment
	AuthorID            int64  `db:"author_id"`
	AuthorUsername      string `db:"author_username"`
	AuthorEmail         string `db:"author_email"`
	AuthorFollowerCount int    `db:"author_follower_count"`
}

func (row commentRow) toComment() model.Comment {
	c := row.Comment
	c.Author = &model.UserSummary{
		ID:            row.AuthorID,
		Username:      row.AuthorUsername,
		Email:         row.AuthorEmail,
		FollowerCount: row.AuthorFollowerCount,
	}
	return c
}

func (r *commentRepository) GetByPostID(ctx context.Context, postID int64) ([]model.Comment, error) {
	var rows []commentRow
	query := `
		SELECT c.id, c.post_id, c.user_id, c.text, c.created_at,
		       u.id AS author_id, u.username AS author_username,
		       u.email AS author_email, u.follower_count AS author_follower_count
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("get comments by post: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}
	return comments, nil
}

func (r *commentRepository) GetByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error) {
	result := make(map[int64][]model.Comment, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var rows []commentRow
	query := `
		SELECT c.id, c.post_id, c.user_id, c.text, c.created_at,
		       u.id AS author_id, u.username AS author_username,
		       u.email AS author_email, u.follower_count AS author_follower_count
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_at ASC, c.id ASC`

	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(postIDs)); err != nil {
		return nil, fmt.Errorf("get comments by posts: %w", err)
	}

	for _, row := range rows {
		result[row.PostID] = append(result[row.PostID], row.toComment())
	}
	return result, nil
}
