package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. Comments are append-only and
// returned in insertion order.
type Comment struct {
	ID        int64        `db:"id" json:"id"`
	PostID    int64        `db:"post_id" json:"post_id"`
	UserID    int64        `db:"user_id" json:"-"`
	Text      string       `db:"text" json:"text"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `json:"author,omitempty"` // Joined field
}

// AddCommentRequest is the request body for POST /posts/{id}/comment.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// Comment errors
var (
	ErrTextRequired = errors.New("comment text is required")
)
