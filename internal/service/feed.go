package service

import (
	"context"
	"log"
	"strconv"

	"snapfeed/internal/cache"
	"snapfeed/internal/model"
	"snapfeed/internal/repository"
)

const (
	// DefaultFeedLimit is the page size when the client doesn't ask for one.
	DefaultFeedLimit = 20

	// MaxFeedLimit caps the page size.
	MaxFeedLimit = 50
)

// FeedService serves personalized feeds: posts by followed users plus the
// user's own, newest first. It reads from the Redis feed cache and warms
// it from Postgres on a miss. With a nil cache it falls back to Postgres
// directly.
type FeedService struct {
	feedCache   cache.FeedCache
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	commentRepo repository.CommentRepository
}

// NewFeedService creates a FeedService. feedCache may be nil.
func NewFeedService(
	feedCache cache.FeedCache,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	commentRepo repository.CommentRepository,
) *FeedService {
	return &FeedService{
		feedCache:   feedCache,
		postRepo:    postRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		commentRepo: commentRepo,
	}
}

// GetFeed returns one page of the user's feed. cursor is the opaque value
// from a previous page's next_cursor, or empty for the first page.
func (s *FeedService) GetFeed(ctx context.Context, userID int64, cursor string, limit int) (*model.FeedResponse, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	cursorScore, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}

	var scores []cache.PostScore
	if s.feedCache != nil {
		scores, err = s.getFromCache(ctx, userID, cursorScore, limit+1)
	} else {
		scores, err = s.getFromDB(ctx, userID, cursorScore, limit+1)
	}
	if err != nil {
		return nil, err
	}

	hasMore := len(scores) > limit
	if hasMore {
		scores = scores[:limit]
	}

	posts, err := s.hydrate(ctx, userID, scores)
	if err != nil {
		return nil, err
	}

	resp := &model.FeedResponse{
		Posts:   posts,
		HasMore: hasMore,
	}
	if hasMore && len(scores) > 0 {
		next := formatCursor(float64(scores[len(scores)-1].Timestamp))
		resp.NextCursor = &next
	}
	return resp, nil
}

// getFromCache reads the feed from Redis, warming the cache first if the
// user has no entry.
func (s *FeedService) getFromCache(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]cache.PostScore, error) {
	exists, err := s.feedCache.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.warmCache(ctx, userID); err != nil {
			// Fall back to Postgres rather than failing the request.
			log.Printf("[FeedService] warm cache failed: user=%d err=%v", userID, err)
			return s.getFromDB(ctx, userID, cursorScore, limit)
		}
	}

	postIDs, rawScores, err := s.feedCache.GetFeed(ctx, userID, cursorScore, limit)
	if err != nil {
		return nil, err
	}

	scores := make([]cache.PostScore, len(postIDs))
	for i, id := range postIDs {
		scores[i] = cache.PostScore{PostID: id, Timestamp: int64(rawScores[i])}
	}
	return scores, nil
}

// getFromDB builds the feed straight from Postgres.
func (s *FeedService) getFromDB(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]cache.PostScore, error) {
	owners, err := s.feedOwners(ctx, userID)
	if err != nil {
		return nil, err
	}

	all, err := s.postRepo.GetFeedPostIDs(ctx, owners, cache.FeedCap)
	if err != nil {
		return nil, err
	}

	scores := make([]cache.PostScore, 0, limit)
	for _, sc := range all {
		if cursorScore != nil && float64(sc.Timestamp) >= *cursorScore {
			continue
		}
		scores = append(scores, sc)
		if len(scores) == limit {
			break
		}
	}
	return scores, nil
}

func (s *FeedService) warmCache(ctx context.Context, userID int64) error {
	owners, err := s.feedOwners(ctx, userID)
	if err != nil {
		return err
	}

	scores, err := s.postRepo.GetFeedPostIDs(ctx, owners, cache.FeedCap)
	if err != nil {
		return err
	}
	return s.feedCache.WarmCache(ctx, userID, scores)
}

// feedOwners is the set of users whose posts belong in userID's feed:
// everyone they follow plus themselves.
func (s *FeedService) feedOwners(ctx context.Context, userID int64) ([]int64, error) {
	followees, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append(followees, userID), nil
}

// hydrate turns feed entries into display posts, preserving order. Entries
// whose post was deleted since caching are dropped.
func (s *FeedService) hydrate(ctx context.Context, viewerID int64, scores []cache.PostScore) ([]model.FeedPost, error) {
	if len(scores) == 0 {
		return []model.FeedPost{}, nil
	}

	postIDs := make([]int64, len(scores))
	for i, sc := range scores {
		postIDs[i] = sc.PostID
	}

	posts, err := s.postRepo.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]int64, 0, len(posts))
	seen := make(map[int64]bool)
	for _, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	authors, err := s.userRepo.GetSummaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	following, err := s.followRepo.CheckFollows(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	liked, err := s.postRepo.CheckLikes(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}

	likers, err := s.postRepo.GetLikerIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.GetByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	feedPosts := make([]model.FeedPost, 0, len(posts))
	for _, p := range posts {
		author := authors[p.UserID]
		author.IsFollowing = following[p.UserID]

		p.IsLiked = liked[p.ID]
		p.Likes = likers[p.ID]
		if p.Likes == nil {
			p.Likes = []int64{}
		}
		p.Comments = comments[p.ID]
		if p.Comments == nil {
			p.Comments = []model.Comment{}
		}

		feedPosts = append(feedPosts, model.FeedPost{Post: p, Author: author})
	}
	return feedPosts, nil
}

func parseCursor(cursor string) (*float64, error) {
	if cursor == "" {
		return nil, nil
	}
	score, err := strconv.ParseFloat(cursor, 64)
	if err != nil {
		return nil, model.ErrInvalidCursor
	}
	return &score, nil
}

func formatCursor(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
