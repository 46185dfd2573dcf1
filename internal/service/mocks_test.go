package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"snapfeed/internal/cache"
	"snapfeed/internal/model"
	"snapfeed/internal/queue"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Services depend on the repository INTERFACES, so unit tests swap in mocks
// with per-test behavior instead of hitting a real database. Each mock field
// overrides one method; unset fields fall back to an empty default.

type mockUserRepo struct {
	createFn                  func(ctx context.Context, user *model.User) error
	getByIDFn                 func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameOrEmailFn    func(ctx context.Context, value string) (*model.User, error)
	existsByUsernameOrEmailFn func(ctx context.Context, username, email string) (bool, error)
	suggestionsFn             func(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
	getSummariesFn            func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)

	createCalls int
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepo) GetByUsernameOrEmail(ctx context.Context, value string) (*model.User, error) {
	if m.getByUsernameOrEmailFn != nil {
		return m.getByUsernameOrEmailFn(ctx, value)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.existsByUsernameOrEmailFn != nil {
		return m.existsByUsernameOrEmailFn(ctx, username, email)
	}
	return false, nil
}

func (m *mockUserRepo) Suggestions(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	if m.suggestionsFn != nil {
		return m.suggestionsFn(ctx, userID, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockUserRepo) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if m.getSummariesFn != nil {
		return m.getSummariesFn(ctx, ids)
	}
	result := make(map[int64]model.UserSummary, len(ids))
	for _, id := range ids {
		result[id] = model.UserSummary{ID: id}
	}
	return result, nil
}

func (m *mockUserRepo) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

func (m *mockUserRepo) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	return nil
}

type mockFollowRepo struct {
	existsFn         func(ctx context.Context, followerID, followeeID int64) (bool, error)
	getFolloweeIDsFn func(ctx context.Context, userID int64) ([]int64, error)
	checkFollowsFn   func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
}

func (m *mockFollowRepo) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	return true, nil
}

func (m *mockFollowRepo) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	return true, nil
}

func (m *mockFollowRepo) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *mockFollowRepo) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	return []int64{}, nil
}

func (m *mockFollowRepo) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFolloweeIDsFn != nil {
		return m.getFolloweeIDsFn(ctx, userID)
	}
	return []int64{}, nil
}

func (m *mockFollowRepo) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followeeIDs)
	}
	result := make(map[int64]bool, len(followeeIDs))
	for _, id := range followeeIDs {
		result[id] = false
	}
	return result, nil
}

type mockPostRepo struct {
	createFn               func(ctx context.Context, userID int64, imageURL, caption string) (*model.Post, error)
	getByIDFn              func(ctx context.Context, postID int64) (*model.Post, error)
	getByIDsFn             func(ctx context.Context, postIDs []int64) ([]model.Post, error)
	getByOwnerFn           func(ctx context.Context, userID int64) ([]model.Post, error)
	existsFn               func(ctx context.Context, postID int64) (bool, error)
	getAuthorIDFn          func(ctx context.Context, postID int64) (int64, error)
	checkLikesFn           func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	getLikerIDsFn          func(ctx context.Context, postIDs []int64) (map[int64][]int64, error)
	getRecentPostsByUserFn func(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
	getFeedPostIDsFn       func(ctx context.Context, ownerIDs []int64, limit int) ([]cache.PostScore, error)
}

func (m *mockPostRepo) Create(ctx context.Context, userID int64, imageURL, caption string) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, imageURL, caption)
	}
	return &model.Post{
		ID:        1,
		UserID:    userID,
		ImageURL:  imageURL,
		Caption:   caption,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepo) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, postIDs)
	}
	posts := make([]model.Post, len(postIDs))
	for i, id := range postIDs {
		posts[i] = model.Post{ID: id}
	}
	return posts, nil
}

func (m *mockPostRepo) GetByOwner(ctx context.Context, userID int64) ([]model.Post, error) {
	if m.getByOwnerFn != nil {
		return m.getByOwnerFn(ctx, userID)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepo) Delete(ctx context.Context, postID, userID int64) error {
	return nil
}

func (m *mockPostRepo) Exists(ctx context.Context, postID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, postID)
	}
	return false, nil
}

func (m *mockPostRepo) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	if m.getAuthorIDFn != nil {
		return m.getAuthorIDFn(ctx, postID)
	}
	return 0, model.ErrPostNotFound
}

func (m *mockPostRepo) Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	return true, nil
}

func (m *mockPostRepo) Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	return true, nil
}

func (m *mockPostRepo) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, postIDs)
	}
	result := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = false
	}
	return result, nil
}

func (m *mockPostRepo) GetLikerIDs(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
	if m.getLikerIDsFn != nil {
		return m.getLikerIDsFn(ctx, postIDs)
	}
	return map[int64][]int64{}, nil
}

func (m *mockPostRepo) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return nil
}

func (m *mockPostRepo) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return nil
}

func (m *mockPostRepo) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	if m.getRecentPostsByUserFn != nil {
		return m.getRecentPostsByUserFn(ctx, userID, limit)
	}
	return []cache.PostScore{}, nil
}

func (m *mockPostRepo) GetFeedPostIDs(ctx context.Context, ownerIDs []int64, limit int) ([]cache.PostScore, error) {
	if m.getFeedPostIDsFn != nil {
		return m.getFeedPostIDsFn(ctx, ownerIDs, limit)
	}
	return []cache.PostScore{}, nil
}

type mockCommentRepo struct {
	getByPostIDFn  func(ctx context.Context, postID int64) ([]model.Comment, error)
	getByPostIDsFn func(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error) {
	return &model.Comment{ID: 1, PostID: postID, UserID: userID, Text: text, CreatedAt: time.Now()}, nil
}

func (m *mockCommentRepo) GetByPostID(ctx context.Context, postID int64) ([]model.Comment, error) {
	if m.getByPostIDFn != nil {
		return m.getByPostIDFn(ctx, postID)
	}
	return []model.Comment{}, nil
}

func (m *mockCommentRepo) GetByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error) {
	if m.getByPostIDsFn != nil {
		return m.getByPostIDsFn(ctx, postIDs)
	}
	return map[int64][]model.Comment{}, nil
}

// =============================================================================
// MOCK FEED CACHE
// =============================================================================

// mockFeedCache is an in-memory FeedCache for feed service tests.
type mockFeedCache struct {
	feeds map[int64][]cache.PostScore // newest first

	warmCalls int
}

func newMockFeedCache() *mockFeedCache {
	return &mockFeedCache{feeds: make(map[int64][]cache.PostScore)}
}

func (m *mockFeedCache) AddPost(ctx context.Context, userID, postID int64, timestamp int64) error {
	m.feeds[userID] = append([]cache.PostScore{{PostID: postID, Timestamp: timestamp}}, m.feeds[userID]...)
	return nil
}

func (m *mockFeedCache) RemovePost(ctx context.Context, userID, postID int64) error {
	feed := m.feeds[userID]
	for i, p := range feed {
		if p.PostID == postID {
			m.feeds[userID] = append(feed[:i], feed[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockFeedCache) GetFeed(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	var ids []int64
	var scores []float64
	for _, p := range m.feeds[userID] {
		if cursorScore != nil && float64(p.Timestamp) >= *cursorScore {
			continue
		}
		ids = append(ids, p.PostID)
		scores = append(scores, float64(p.Timestamp))
		if len(ids) == limit {
			break
		}
	}
	return ids, scores, nil
}

func (m *mockFeedCache) GetScore(ctx context.Context, userID, postID int64) (int64, bool, error) {
	for _, p := range m.feeds[userID] {
		if p.PostID == postID {
			return p.Timestamp, true, nil
		}
	}
	return 0, false, nil
}

func (m *mockFeedCache) WarmCache(ctx context.Context, userID int64, posts []cache.PostScore) error {
	m.warmCalls++
	m.feeds[userID] = append([]cache.PostScore{}, posts...)
	return nil
}

func (m *mockFeedCache) Size(ctx context.Context, userID int64) (int64, error) {
	return int64(len(m.feeds[userID])), nil
}

func (m *mockFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	_, ok := m.feeds[userID]
	return ok, nil
}

// =============================================================================
// MOCK PUBLISHER
// =============================================================================

type mockPublisher struct {
	events []queue.FeedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.FeedEvent) (string, error) {
	m.events = append(m.events, event)
	return "0-0", nil
}
