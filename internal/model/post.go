package model

import (
	"errors"
	"time"
)

// Post represents a single image post.
type Post struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	ImageURL     string    `db:"image_url" json:"image_url"`
	Caption      string    `db:"caption" json:"caption"`
	LikeCount    int       `db:"like_count" json:"like_count"`
	CommentCount int       `db:"comment_count" json:"comment_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not columns of the posts table)
	Author   *UserSummary `json:"author,omitempty"`
	Likes    []int64      `json:"likes"`
	Comments []Comment    `json:"comments"`
	IsLiked  bool         `json:"is_liked"`
}

// FeedPost is an enriched post for feed display.
type FeedPost struct {
	Post
	Author UserSummary `json:"author"`
}

// FeedResponse is the paginated feed response.
type FeedResponse struct {
	Posts      []FeedPost `json:"posts"`
	NextCursor *string    `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

// CreatePostRequest is the JSON request body for POST /posts when the
// image was uploaded out of band. Multipart uploads carry the same fields
// as form values.
type CreatePostRequest struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// MaxCaptionLength matches the original schema constraint.
const MaxCaptionLength = 200

// Post errors
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrNotPostOwner   = errors.New("not the owner of this post")
	ErrImageRequired  = errors.New("image is required")
	ErrCaptionTooLong = errors.New("caption too long")
	ErrInvalidCursor  = errors.New("invalid cursor")
)
