package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"snapfeed/internal/model"
)

func newTestUserService(userRepo *mockUserRepo, postRepo *mockPostRepo, followRepo *mockFollowRepo, commentRepo *mockCommentRepo) *UserService {
	if userRepo == nil {
		userRepo = &mockUserRepo{}
	}
	if postRepo == nil {
		postRepo = &mockPostRepo{}
	}
	if followRepo == nil {
		followRepo = &mockFollowRepo{}
	}
	if commentRepo == nil {
		commentRepo = &mockCommentRepo{}
	}
	return NewUserService(userRepo, postRepo, followRepo, commentRepo, NewTokenService("test-secret", 3600))
}

// =============================================================================
// SIGNUP TESTS
// =============================================================================

func TestUserService_Signup_Success(t *testing.T) {
	mockRepo := &mockUserRepo{}
	svc := newTestUserService(mockRepo, nil, nil, nil)

	req := model.SignupRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "securepassword123",
	}

	resp, err := svc.Signup(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if resp.Token == "" {
		t.Error("expected a token in the response")
	}
	if resp.User == nil {
		t.Fatal("expected user, got nil")
	}
	if resp.User.Username != req.Username {
		t.Errorf("username = %q, want %q", resp.User.Username, req.Username)
	}

	// Password must be stored hashed, never plain.
	if resp.User.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(resp.User.PasswordHashed), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	if mockRepo.createCalls != 1 {
		t.Errorf("Create called %d times, want 1", mockRepo.createCalls)
	}
}

func TestUserService_Signup_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  model.SignupRequest
	}{
		{"missing username", model.SignupRequest{Email: "a@b.c", Password: "pw"}},
		{"missing email", model.SignupRequest{Username: "user", Password: "pw"}},
		{"missing password", model.SignupRequest{Username: "user", Email: "a@b.c"}},
		{"whitespace username", model.SignupRequest{Username: "   ", Email: "a@b.c", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepo{}
			svc := newTestUserService(mockRepo, nil, nil, nil)

			_, err := svc.Signup(context.Background(), tt.req)

			if !errors.Is(err, model.ErrMissingField) {
				t.Errorf("error = %v, want %v", err, model.ErrMissingField)
			}
			if mockRepo.createCalls != 0 {
				t.Error("Create should not be called for invalid input")
			}
		})
	}
}

func TestUserService_Signup_UserExists(t *testing.T) {
	mockRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return model.ErrUserExists
		},
	}
	svc := newTestUserService(mockRepo, nil, nil, nil)

	req := model.SignupRequest{
		Username: "existinguser",
		Email:    "existing@example.com",
		Password: "password123",
	}

	resp, err := svc.Signup(context.Background(), req)

	if !errors.Is(err, model.ErrUserExists) {
		t.Errorf("error = %v, want %v", err, model.ErrUserExists)
	}
	if resp != nil {
		t.Error("response should be nil when signup fails")
	}
}

func TestUserService_Signup_TakenIdentityPrecheck(t *testing.T) {
	mockRepo := &mockUserRepo{
		existsByUsernameOrEmailFn: func(ctx context.Context, username, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestUserService(mockRepo, nil, nil, nil)

	req := model.SignupRequest{
		Username: "existinguser",
		Email:    "existing@example.com",
		Password: "password123",
	}

	_, err := svc.Signup(context.Background(), req)

	if !errors.Is(err, model.ErrUserExists) {
		t.Errorf("error = %v, want %v", err, model.ErrUserExists)
	}
	if mockRepo.createCalls != 0 {
		t.Error("Create should not be called when the identity is already taken")
	}
}

// =============================================================================
// LOGIN TESTS - Table-Driven
// =============================================================================

func TestUserService_Login(t *testing.T) {
	validPassword := "correctpassword"
	validHash, _ := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.MinCost)

	testUser := &model.User{
		ID:             1,
		Username:       "testuser",
		Email:          "test@example.com",
		PasswordHashed: string(validHash),
	}

	tests := []struct {
		name     string
		username string
		password string
		mockGet  func(ctx context.Context, value string) (*model.User, error)
		wantErr  error
		wantResp bool
	}{
		{
			name:     "login with username",
			username: "testuser",
			password: validPassword,
			mockGet: func(ctx context.Context, value string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  nil,
			wantResp: true,
		},
		{
			name:     "login with email",
			username: "test@example.com",
			password: validPassword,
			mockGet: func(ctx context.Context, value string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  nil,
			wantResp: true,
		},
		{
			name:     "user not found",
			username: "nonexistent",
			password: "anypassword",
			mockGet: func(ctx context.Context, value string) (*model.User, error) {
				return nil, model.ErrUserNotFound
			},
			wantErr:  model.ErrInvalidCredentials, // don't reveal the user doesn't exist
			wantResp: false,
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrongpassword",
			mockGet: func(ctx context.Context, value string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  model.ErrInvalidCredentials,
			wantResp: false,
		},
		{
			name:     "empty credentials",
			username: "",
			password: "",
			mockGet:  nil,
			wantErr:  model.ErrInvalidCredentials,
			wantResp: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepo{getByUsernameOrEmailFn: tt.mockGet}
			svc := newTestUserService(mockRepo, nil, nil, nil)

			resp, err := svc.Login(context.Background(), model.LoginRequest{
				Username: tt.username,
				Password: tt.password,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantResp && (resp == nil || resp.Token == "") {
				t.Error("expected response with token")
			}
			if !tt.wantResp && resp != nil {
				t.Error("expected nil response")
			}
		})
	}
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestUserService_GetProfile(t *testing.T) {
	owner := &model.User{ID: 7, Username: "owner", Email: "owner@example.com", FollowerCount: 3}

	userRepo := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id == 7 {
				return owner, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	postRepo := &mockPostRepo{
		getByOwnerFn: func(ctx context.Context, userID int64) ([]model.Post, error) {
			return []model.Post{{ID: 20, UserID: 7}, {ID: 10, UserID: 7}}, nil
		},
		getLikerIDsFn: func(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
			return map[int64][]int64{20: {1, 2}}, nil
		},
		checkLikesFn: func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{20: true, 10: false}, nil
		},
	}
	followRepo := &mockFollowRepo{
		existsFn: func(ctx context.Context, followerID, followeeID int64) (bool, error) {
			return true, nil
		},
	}
	commentRepo := &mockCommentRepo{
		getByPostIDsFn: func(ctx context.Context, postIDs []int64) (map[int64][]model.Comment, error) {
			return map[int64][]model.Comment{
				20: {
					{ID: 1, PostID: 20, UserID: 1, Text: "nice shot"},
					{ID: 2, PostID: 20, UserID: 3, Text: "love it"},
				},
			}, nil
		},
	}

	svc := newTestUserService(userRepo, postRepo, followRepo, commentRepo)

	profile, err := svc.GetProfile(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}

	if profile.User.ID != 7 {
		t.Errorf("user id = %d, want 7", profile.User.ID)
	}
	if len(profile.Posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(profile.Posts))
	}

	first := profile.Posts[0]
	if first.ID != 20 {
		t.Errorf("first post id = %d, want 20 (newest first)", first.ID)
	}
	if !first.IsLiked {
		t.Error("viewer liked post 20, is_liked should be true")
	}
	if len(first.Likes) != 2 {
		t.Errorf("post 20 likes = %d, want 2", len(first.Likes))
	}
	if first.Author == nil || !first.Author.IsFollowing {
		t.Error("author should carry the viewer's is_following flag")
	}
	if len(first.Comments) != 2 {
		t.Fatalf("post 20 comments = %d, want 2", len(first.Comments))
	}
	if first.Comments[0].Text != "nice shot" {
		t.Errorf("first comment = %q, want %q", first.Comments[0].Text, "nice shot")
	}

	second := profile.Posts[1]
	if second.Likes == nil {
		t.Error("posts with no likes should get an empty slice, not nil")
	}
	if second.Comments == nil {
		t.Error("posts with no comments should get an empty slice, not nil")
	}
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	svc := newTestUserService(&mockUserRepo{}, nil, nil, nil)

	_, err := svc.GetProfile(context.Background(), 1, 999)

	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

// =============================================================================
// SUGGESTIONS TESTS
// =============================================================================

func TestUserService_Suggestions(t *testing.T) {
	var gotLimit int
	userRepo := &mockUserRepo{
		suggestionsFn: func(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
			gotLimit = limit
			return []model.UserSummary{{ID: 2}, {ID: 3}}, nil
		},
	}
	svc := newTestUserService(userRepo, nil, nil, nil)

	suggestions, err := svc.Suggestions(context.Background(), 1)
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}

	if gotLimit != SuggestionLimit {
		t.Errorf("limit = %d, want %d", gotLimit, SuggestionLimit)
	}
	if len(suggestions) != 2 {
		t.Errorf("suggestions = %d, want 2", len(suggestions))
	}
}
