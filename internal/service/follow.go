package service

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"snapfeed/internal/model"
	"snapfeed/internal/queue"
	"snapfeed/internal/repository"
)

// FollowService toggles follow edges. Follow and unfollow are a single
// idempotent toggle: the edge's current state decides which way it flips.
type FollowService struct {
	db         *sqlx.DB
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	publisher  queue.Publisher
}

// NewFollowService creates a FollowService. publisher may be nil, in which
// case feed caches are not updated asynchronously and rely on cache warming.
func NewFollowService(
	db *sqlx.DB,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	publisher queue.Publisher,
) *FollowService {
	return &FollowService{
		db:         db,
		userRepo:   userRepo,
		followRepo: followRepo,
		publisher:  publisher,
	}
}

// Toggle flips the follow edge from followerID to followeeID. The edge
// insert (or delete) and both users' counters commit in one transaction.
func (s *FollowService) Toggle(ctx context.Context, followerID, followeeID int64) (*model.FollowToggleResponse, error) {
	if followerID == followeeID {
		return nil, model.ErrCannotFollowSelf
	}

	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return nil, err
	}

	var isFollowing bool
	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		inserted, err := s.followRepo.Create(ctx, tx, followerID, followeeID)
		if err != nil {
			return err
		}

		if inserted {
			isFollowing = true
			if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, 1); err != nil {
				return err
			}
			return s.userRepo.IncrementFollowingCount(ctx, tx, followerID, 1)
		}

		removed, err := s.followRepo.Delete(ctx, tx, followerID, followeeID)
		if err != nil {
			return err
		}
		// A concurrent toggle may have removed the edge already; then
		// there is nothing to decrement.
		if removed {
			if err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, -1); err != nil {
				return err
			}
			return s.userRepo.IncrementFollowingCount(ctx, tx, followerID, -1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishToggle(ctx, followerID, followeeID, isFollowing)

	currentUser, err := s.userRepo.GetByID(ctx, followerID)
	if err != nil {
		return nil, err
	}

	return &model.FollowToggleResponse{
		IsFollowing: isFollowing,
		CurrentUser: currentUser,
	}, nil
}

// IsFollowing reports whether followerID follows followeeID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

func (s *FollowService) publishToggle(ctx context.Context, followerID, followeeID int64, isFollowing bool) {
	if s.publisher == nil {
		return
	}

	var event queue.FeedEvent
	if isFollowing {
		event = queue.NewUserFollowedEvent(followerID, followeeID)
	} else {
		event = queue.NewUserUnfollowedEvent(followerID, followeeID)
	}

	// The toggle already committed; a publish failure only delays the
	// feed cache update until the next warm.
	if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
		log.Printf("[FollowService] publish %s failed: follower=%d followee=%d err=%v",
			event.Type, followerID, followeeID, err)
	}
}
