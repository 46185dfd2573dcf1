package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"snapfeed/internal/model"
	"snapfeed/internal/queue"
)

func newTestPostService(postRepo *mockPostRepo, userRepo *mockUserRepo, followRepo *mockFollowRepo, commentRepo *mockCommentRepo, pub *mockPublisher) *PostService {
	if postRepo == nil {
		postRepo = &mockPostRepo{}
	}
	if userRepo == nil {
		userRepo = &mockUserRepo{}
	}
	if followRepo == nil {
		followRepo = &mockFollowRepo{}
	}
	if commentRepo == nil {
		commentRepo = &mockCommentRepo{}
	}
	var publisher queue.Publisher
	if pub != nil {
		publisher = pub
	}
	return NewPostService(nil, postRepo, userRepo, followRepo, commentRepo, publisher)
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestPostService_Create_Validation(t *testing.T) {
	tests := []struct {
		name     string
		imageURL string
		caption  string
		wantErr  error
	}{
		{"missing image", "", "hello", model.ErrImageRequired},
		{"whitespace image", "   ", "hello", model.ErrImageRequired},
		{"caption too long", "https://cdn.example.com/a.jpg", strings.Repeat("a", model.MaxCaptionLength+1), model.ErrCaptionTooLong},
		{"caption at limit", "https://cdn.example.com/a.jpg", strings.Repeat("a", model.MaxCaptionLength), nil},
		{"multibyte caption at limit", "https://cdn.example.com/a.jpg", strings.Repeat("é", model.MaxCaptionLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := &mockUserRepo{
				getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
					return &model.User{ID: id, Username: "author"}, nil
				},
			}
			svc := newTestPostService(nil, userRepo, nil, nil, nil)

			post, err := svc.Create(context.Background(), 1, tt.imageURL, tt.caption)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if post.Author == nil || post.Author.Username != "author" {
				t.Error("created post should carry the author summary")
			}
			if post.Likes == nil || post.Comments == nil {
				t.Error("created post should have empty likes and comments, not nil")
			}
		})
	}
}

func TestPostService_Create_PublishesEvent(t *testing.T) {
	userRepo := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestPostService(nil, userRepo, nil, nil, pub)

	post, err := svc.Create(context.Background(), 1, "https://cdn.example.com/a.jpg", "hi")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	event := pub.events[0]
	if event.Type != queue.EventPostCreated {
		t.Errorf("event type = %s, want %s", event.Type, queue.EventPostCreated)
	}
	if event.PostID != post.ID || event.AuthorID != 1 {
		t.Errorf("event ids = (post=%d author=%d), want (post=%d author=1)", event.PostID, event.AuthorID, post.ID)
	}
	if event.Timestamp != post.CreatedAt.Unix() {
		t.Error("event timestamp should be the stored creation time")
	}
}

// =============================================================================
// GET TESTS
// =============================================================================

func TestPostService_GetByID(t *testing.T) {
	postRepo := &mockPostRepo{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, UserID: 9, LikeCount: 2}, nil
		},
		getLikerIDsFn: func(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
			return map[int64][]int64{100: {3, 5}}, nil
		},
		checkLikesFn: func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{100: true}, nil
		},
	}
	userRepo := &mockUserRepo{
		getSummariesFn: func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
			return map[int64]model.UserSummary{9: {ID: 9, Username: "author"}}, nil
		},
	}
	followRepo := &mockFollowRepo{
		existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
			return true, nil
		},
	}
	commentRepo := &mockCommentRepo{
		getByPostIDFn: func(ctx context.Context, postID int64) ([]model.Comment, error) {
			return []model.Comment{{ID: 1, PostID: postID, Text: "first"}}, nil
		},
	}

	svc := newTestPostService(postRepo, userRepo, followRepo, commentRepo, nil)

	post, err := svc.GetByID(context.Background(), 3, 100)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if post.Author == nil || post.Author.Username != "author" {
		t.Error("post should carry the author summary")
	}
	if !post.Author.IsFollowing {
		t.Error("author is_following should reflect the viewer")
	}
	if len(post.Likes) != 2 {
		t.Errorf("likes = %d, want 2", len(post.Likes))
	}
	if !post.IsLiked {
		t.Error("viewer is in the like set, is_liked should be true")
	}
	if len(post.Comments) != 1 {
		t.Errorf("comments = %d, want 1", len(post.Comments))
	}
}

func TestPostService_GetByID_NotFound(t *testing.T) {
	svc := newTestPostService(nil, nil, nil, nil, nil)

	_, err := svc.GetByID(context.Background(), 1, 999)

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}

// =============================================================================
// TOGGLE LIKE / DELETE TESTS
// =============================================================================

func TestPostService_ToggleLike_PostNotFound(t *testing.T) {
	svc := newTestPostService(nil, nil, nil, nil, nil)

	_, err := svc.ToggleLike(context.Background(), 1, 999)

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}

func TestPostService_Delete_NotOwner(t *testing.T) {
	postRepo := &mockPostRepo{
		getAuthorIDFn: func(ctx context.Context, postID int64) (int64, error) {
			return 9, nil
		},
	}
	svc := newTestPostService(postRepo, nil, nil, nil, nil)

	err := svc.Delete(context.Background(), 1, 100)

	if !errors.Is(err, model.ErrNotPostOwner) {
		t.Errorf("error = %v, want %v", err, model.ErrNotPostOwner)
	}
}

func TestPostService_Delete_PublishesEvent(t *testing.T) {
	postRepo := &mockPostRepo{
		getAuthorIDFn: func(ctx context.Context, postID int64) (int64, error) {
			return 1, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestPostService(postRepo, nil, nil, nil, pub)

	if err := svc.Delete(context.Background(), 1, 100); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(pub.events) != 1 || pub.events[0].Type != queue.EventPostDeleted {
		t.Fatalf("expected one %s event, got %v", queue.EventPostDeleted, pub.events)
	}
}
