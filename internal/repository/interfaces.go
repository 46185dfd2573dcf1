package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"snapfeed/internal/cache"
	"snapfeed/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsernameOrEmail(ctx context.Context, value string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	// Suggestions returns users the given user does not follow yet,
	// excluding the user themselves, capped at limit.
	Suggestions(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
	GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
}

type FollowRepository interface {
	// Create inserts a follow edge. Returns false when the edge already
	// existed (ON CONFLICT DO NOTHING).
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	// Delete removes a follow edge. Returns false when no edge existed.
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
	// CheckFollows reports, for each followee id, whether followerID
	// follows them. Single batch query, not N+1.
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, imageURL, caption string) (*model.Post, error)
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	GetByOwner(ctx context.Context, userID int64) ([]model.Post, error)
	Delete(ctx context.Context, postID, userID int64) error
	Exists(ctx context.Context, postID int64) (bool, error)
	GetAuthorID(ctx context.Context, postID int64) (int64, error)
	// Like inserts a like row. Returns false when the user had already
	// liked the post.
	Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	// Unlike deletes a like row. Returns false when there was none.
	Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	// GetLikerIDs returns the like set of each post, oldest like first.
	GetLikerIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	// Feed queries used by the cache warm path and the no-cache fallback.
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
	GetFeedPostIDs(ctx context.Context, ownerIDs []int64, limit int) ([]cache.PostScore, error)
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error)
	// GetByPostID returns all comments of a post in insertion order,
	// with author display identity resolved.
	GetByPostID(ctx context.Context, postID int64) ([]model.Comment, error)
	GetByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error)
}
