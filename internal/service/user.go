package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"snapfeed/internal/model"
	"snapfeed/internal/repository"
)

// SuggestionLimit caps the who-to-follow list.
const SuggestionLimit = 5

// UserService handles signup, login, profiles and follow suggestions.
type UserService struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	followRepo  repository.FollowRepository
	commentRepo repository.CommentRepository
	tokens      *TokenService
}

// NewUserService creates a UserService.
func NewUserService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	commentRepo repository.CommentRepository,
	tokens *TokenService,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		postRepo:    postRepo,
		followRepo:  followRepo,
		commentRepo: commentRepo,
		tokens:      tokens,
	}
}

// Signup creates an account and returns a token plus the created user.
func (s *UserService) Signup(ctx context.Context, req model.SignupRequest) (*model.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if username == "" || email == "" || req.Password == "" {
		return nil, model.ErrMissingField
	}

	// Unique constraints on the insert remain the backstop for races.
	taken, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:       username,
		Email:          email,
		PasswordHashed: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &model.AuthResponse{Token: token, User: user}, nil
}

// Login verifies credentials against a username or email. Unknown
// identifier and wrong password both come back as ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, model.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &model.AuthResponse{Token: token, User: user}, nil
}

// GetByID returns a user by id.
func (s *UserService) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// GetProfile returns a user together with their posts, newest first.
// viewerID personalizes the is-liked flags on the posts.
func (s *UserService) GetProfile(ctx context.Context, viewerID, userID int64) (*model.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.GetByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.decorateProfilePosts(ctx, viewerID, user, posts); err != nil {
		return nil, err
	}

	return &model.ProfileResponse{User: user, Posts: posts}, nil
}

func (s *UserService) decorateProfilePosts(ctx context.Context, viewerID int64, owner *model.User, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]int64, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	likers, err := s.postRepo.GetLikerIDs(ctx, postIDs)
	if err != nil {
		return err
	}

	liked, err := s.postRepo.CheckLikes(ctx, viewerID, postIDs)
	if err != nil {
		return err
	}

	comments, err := s.commentRepo.GetByPostIDs(ctx, postIDs)
	if err != nil {
		return err
	}

	author := &model.UserSummary{
		ID:            owner.ID,
		Username:      owner.Username,
		Email:         owner.Email,
		FollowerCount: owner.FollowerCount,
	}
	if viewerID != owner.ID {
		isFollowing, err := s.followRepo.Exists(ctx, viewerID, owner.ID)
		if err != nil {
			return err
		}
		author.IsFollowing = isFollowing
	}

	for i := range posts {
		posts[i].Author = author
		posts[i].Likes = likers[posts[i].ID]
		if posts[i].Likes == nil {
			posts[i].Likes = []int64{}
		}
		posts[i].Comments = comments[posts[i].ID]
		if posts[i].Comments == nil {
			posts[i].Comments = []model.Comment{}
		}
		posts[i].IsLiked = liked[posts[i].ID]
	}
	return nil
}

// Suggestions returns up to SuggestionLimit users the given user does not
// follow yet.
func (s *UserService) Suggestions(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return s.userRepo.Suggestions(ctx, userID, SuggestionLimit)
}
