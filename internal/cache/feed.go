package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// FeedKeyPrefix is the key prefix for per-user feed caches.
	FeedKeyPrefix = "feed:user:"

	// FeedCap is the maximum number of posts cached per user.
	FeedCap = 500

	// FeedTTL matches the auth token window: an inactive user's cache
	// is rebuilt on their next visit anyway.
	FeedTTL = 7 * 24 * time.Hour
)

// PostScore is a post id paired with its created-at unix timestamp, the
// score used for ordering inside the sorted set.
type PostScore struct {
	PostID    int64
	Timestamp int64
}

// FeedCache holds each user's feed as a Redis sorted set of post ids
// scored by creation time. The interface exists so services and workers
// can be tested against mocks.
type FeedCache interface {
	// AddPost inserts a post into a user's feed, trimming to FeedCap.
	AddPost(ctx context.Context, userID, postID int64, timestamp int64) error

	// RemovePost removes a post from a user's feed.
	RemovePost(ctx context.Context, userID, postID int64) error

	// GetFeed returns post ids newest-first. With a nil cursor it starts
	// from the top; otherwise it returns posts strictly older than the
	// cursor score.
	GetFeed(ctx context.Context, userID int64, cursorScore *float64, limit int) (postIDs []int64, scores []float64, err error)

	// GetScore returns the timestamp score for a post in a user's feed.
	// found is false when the post is not cached.
	GetScore(ctx context.Context, userID, postID int64) (score int64, found bool, err error)

	// WarmCache bulk-inserts posts into a user's feed.
	WarmCache(ctx context.Context, userID int64, posts []PostScore) error

	// Size returns the number of posts in a user's feed.
	Size(ctx context.Context, userID int64) (int64, error)

	// Exists reports whether the user has a cached feed. The service
	// layer warms the cache when this returns false.
	Exists(ctx context.Context, userID int64) (bool, error)
}

// RedisFeedCache implements FeedCache using Redis sorted sets.
type RedisFeedCache struct {
	client *redis.Client
}

// NewFeedCache creates a FeedCache backed by Redis.
func NewFeedCache(client *redis.Client) FeedCache {
	return &RedisFeedCache{client: client}
}

func feedKey(userID int64) string {
	return fmt.Sprintf("%s%d", FeedKeyPrefix, userID)
}

// AddPost pipelines ZADD + ZREMRANGEBYRANK (cap) + EXPIRE (refresh TTL).
func (c *RedisFeedCache) AddPost(ctx context.Context, userID, postID int64, timestamp int64) error {
	key := feedKey(userID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(timestamp),
		Member: strconv.FormatInt(postID, 10),
	})
	// Keep the FeedCap newest scores, drop the rest.
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCap-1))
	pipe.Expire(ctx, key, FeedTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[FeedCache] AddPost FAILED: user=%d post=%d err=%v", userID, postID, err)
		return fmt.Errorf("add post to feed: %w", err)
	}
	return nil
}

// RemovePost removes a post from a user's feed cache.
func (c *RedisFeedCache) RemovePost(ctx context.Context, userID, postID int64) error {
	key := feedKey(userID)
	member := strconv.FormatInt(postID, 10)

	if err := c.client.ZRem(ctx, key, member).Err(); err != nil {
		log.Printf("[FeedCache] RemovePost FAILED: user=%d post=%d err=%v", userID, postID, err)
		return fmt.Errorf("remove post from feed: %w", err)
	}
	return nil
}

// GetFeed reads newest-first via ZREVRANGE, or ZREVRANGEBYSCORE with an
// exclusive upper bound when a cursor score is given.
func (c *RedisFeedCache) GetFeed(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	key := feedKey(userID)

	var results []redis.Z
	var err error

	if cursorScore == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	} else {
		results, err = c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    fmt.Sprintf("(%f", *cursorScore), // exclusive
			Offset: 0,
			Count:  int64(limit),
		}).Result()
	}
	if err != nil {
		log.Printf("[FeedCache] GetFeed FAILED: user=%d err=%v", userID, err)
		return nil, nil, fmt.Errorf("get feed: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, FeedTTL)

	postIDs := make([]int64, len(results))
	scores := make([]float64, len(results))
	for i, z := range results {
		id, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("parse post id: %w", err)
		}
		postIDs[i] = id
		scores[i] = z.Score
	}

	return postIDs, scores, nil
}

// GetScore returns the timestamp score for a post in a user's feed.
func (c *RedisFeedCache) GetScore(ctx context.Context, userID, postID int64) (int64, bool, error) {
	key := feedKey(userID)
	member := strconv.FormatInt(postID, 10)

	score, err := c.client.ZScore(ctx, key, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get score: %w", err)
	}
	return int64(score), true, nil
}

// WarmCache bulk-inserts posts using a single pipelined ZADD.
func (c *RedisFeedCache) WarmCache(ctx context.Context, userID int64, posts []PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	key := feedKey(userID)
	startTime := time.Now()

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: strconv.FormatInt(p.PostID, 10),
		}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCap-1))
	pipe.Expire(ctx, key, FeedTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[FeedCache] WarmCache FAILED: user=%d posts=%d err=%v", userID, len(posts), err)
		return fmt.Errorf("warm cache: %w", err)
	}

	log.Printf("[FeedCache] WarmCache OK: user=%d posts=%d duration=%v",
		userID, len(posts), time.Since(startTime))
	return nil
}

// Size returns the number of posts in a user's feed cache.
func (c *RedisFeedCache) Size(ctx context.Context, userID int64) (int64, error) {
	size, err := c.client.ZCard(ctx, feedKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("get cache size: %w", err)
	}
	return size, nil
}

// Exists checks if a user has a feed cache entry.
func (c *RedisFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := c.client.Exists(ctx, feedKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return exists > 0, nil
}
