package model

import (
	"errors"
	"time"
)

type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// UserSummary is the display identity attached to posts, comments and
// suggestion lists. It never carries the password hash.
type UserSummary struct {
	ID            int64  `db:"id" json:"id"`
	Username      string `db:"username" json:"username"`
	Email         string `db:"email" json:"email"`
	FollowerCount int    `db:"follower_count" json:"follower_count"`
	IsFollowing   bool   `json:"is_following"`
}

// FollowToggleResponse is returned from POST /users/{id}/follow.
type FollowToggleResponse struct {
	IsFollowing bool  `json:"is_following"`
	CurrentUser *User `json:"current_user"`
}

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
