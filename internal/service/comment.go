package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"snapfeed/internal/model"
	"snapfeed/internal/repository"
)

// CommentService appends comments to posts. Comments are immutable once
// written.
type CommentService struct {
	db          *sqlx.DB
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	posts       *PostService
}

// NewCommentService creates a CommentService.
func NewCommentService(
	db *sqlx.DB,
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	posts *PostService,
) *CommentService {
	return &CommentService{
		db:          db,
		commentRepo: commentRepo,
		postRepo:    postRepo,
		posts:       posts,
	}
}

// Add appends a comment to a post and returns the post in its new state.
// The comment row and the post's counter commit in one transaction.
func (s *CommentService) Add(ctx context.Context, userID, postID int64, text string) (*model.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrTextRequired
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	err = repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.commentRepo.Create(ctx, tx, postID, userID, text); err != nil {
			return err
		}
		return s.postRepo.IncrementCommentCount(ctx, tx, postID, 1)
	})
	if err != nil {
		return nil, err
	}

	return s.posts.GetByID(ctx, userID, postID)
}

// GetByPostID returns a post's comments in insertion order.
func (s *CommentService) GetByPostID(ctx context.Context, postID int64) ([]model.Comment, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}
	return s.commentRepo.GetByPostID(ctx, postID)
}
