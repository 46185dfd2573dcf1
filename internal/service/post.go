package service

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"snapfeed/internal/model"
	"snapfeed/internal/queue"
	"snapfeed/internal/repository"
)

// PostService handles post creation, retrieval, like toggling and deletion.
type PostService struct {
	db          *sqlx.DB
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	commentRepo repository.CommentRepository
	publisher   queue.Publisher
}

// NewPostService creates a PostService. publisher may be nil.
func NewPostService(
	db *sqlx.DB,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	commentRepo repository.CommentRepository,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		db:          db,
		postRepo:    postRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		commentRepo: commentRepo,
		publisher:   publisher,
	}
}

// Create validates and stores a new post, then publishes a fan-out event.
func (s *PostService) Create(ctx context.Context, userID int64, imageURL, caption string) (*model.Post, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, model.ErrImageRequired
	}
	if utf8.RuneCountInString(caption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	post, err := s.postRepo.Create(ctx, userID, imageURL, caption)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := queue.NewPostCreatedEvent(post.ID, userID)
		// Score feeds by the stored creation time, not publish time.
		event.Timestamp = post.CreatedAt.Unix()
		if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
			log.Printf("[PostService] publish post_created failed: post=%d err=%v", post.ID, err)
		}
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	post.Author = &model.UserSummary{
		ID:            author.ID,
		Username:      author.Username,
		Email:         author.Email,
		FollowerCount: author.FollowerCount,
	}
	post.Likes = []int64{}
	post.Comments = []model.Comment{}

	return post, nil
}

// GetByID returns a fully resolved post: author, like set, comments and
// the viewer's is-liked flag.
func (s *PostService) GetByID(ctx context.Context, viewerID, postID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.userRepo.GetSummaries(ctx, []int64{post.UserID})
	if err != nil {
		return nil, err
	}
	if author, ok := summaries[post.UserID]; ok {
		if viewerID != post.UserID {
			isFollowing, err := s.followRepo.Exists(ctx, viewerID, post.UserID)
			if err != nil {
				return nil, err
			}
			author.IsFollowing = isFollowing
		}
		post.Author = &author
	}

	likers, err := s.postRepo.GetLikerIDs(ctx, []int64{postID})
	if err != nil {
		return nil, err
	}
	post.Likes = likers[postID]
	if post.Likes == nil {
		post.Likes = []int64{}
	}

	liked, err := s.postRepo.CheckLikes(ctx, viewerID, []int64{postID})
	if err != nil {
		return nil, err
	}
	post.IsLiked = liked[postID]

	comments, err := s.commentRepo.GetByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Comments = comments

	return post, nil
}

// ToggleLike flips the viewer's like on a post and returns the post in its
// new state. The like row and the counter commit in one transaction.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID int64) (*model.Post, error) {
	if _, err := s.postRepo.GetAuthorID(ctx, postID); err != nil {
		return nil, err
	}

	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		inserted, err := s.postRepo.Like(ctx, tx, postID, userID)
		if err != nil {
			return err
		}
		if inserted {
			return s.postRepo.IncrementLikeCount(ctx, tx, postID, 1)
		}

		removed, err := s.postRepo.Unlike(ctx, tx, postID, userID)
		if err != nil {
			return err
		}
		if removed {
			return s.postRepo.IncrementLikeCount(ctx, tx, postID, -1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, userID, postID)
}

// Delete removes a post owned by userID and publishes a fan-out removal.
func (s *PostService) Delete(ctx context.Context, userID, postID int64) error {
	authorID, err := s.postRepo.GetAuthorID(ctx, postID)
	if err != nil {
		return err
	}
	if authorID != userID {
		return model.ErrNotPostOwner
	}

	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}

	if s.publisher != nil {
		event := queue.NewPostDeletedEvent(postID, userID)
		if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
			log.Printf("[PostService] publish post_deleted failed: post=%d err=%v", postID, err)
		}
	}
	return nil
}
