package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapfeed/internal/cache"
	"snapfeed/internal/config"
	"snapfeed/internal/database"
	"snapfeed/internal/handler"
	"snapfeed/internal/queue"
	"snapfeed/internal/redis"
	"snapfeed/internal/repository"
	"snapfeed/internal/service"
	"snapfeed/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Run wires the whole application together and serves HTTP until SIGINT
// or SIGTERM.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Redis backs the feed cache and the fan-out queue. Without it the
	// feed is served straight from Postgres.
	var (
		redisClient *redis.Client
		feedCache   cache.FeedCache
		publisher   queue.Publisher
		consumer    queue.Consumer
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		if err := redisClient.Ping(context.Background()); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		defer redisClient.Close()

		feedCache = cache.NewFeedCache(redisClient.Client)
		publisher = queue.NewPublisher(redisClient.Client)
		consumer = queue.NewConsumer(redisClient.Client)
	} else {
		log.Println("REDIS_URL not set, running without feed cache")
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenMaxAge)
	userService := service.NewUserService(userRepo, postRepo, followRepo, commentRepo, tokens)
	followService := service.NewFollowService(db, userRepo, followRepo, publisher)
	postService := service.NewPostService(db, postRepo, userRepo, followRepo, commentRepo, publisher)
	commentService := service.NewCommentService(db, commentRepo, postRepo, postService)
	feedService := service.NewFeedService(feedCache, postRepo, userRepo, followRepo, commentRepo)

	var mediaService *service.MediaService
	if cfg.R2AccountID != "" && cfg.R2BucketName != "" {
		mediaService, err = service.NewMediaService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create media service: %w", err)
		}
	} else {
		log.Println("R2 not configured, posts require an image_url")
	}

	// Feed fan-out workers only run when Redis is available.
	var manager *worker.Manager
	if consumer != nil {
		eventHandler := worker.NewHandler(feedCache, followRepo, postRepo)
		manager = worker.NewManager(consumer, eventHandler, worker.ManagerConfig{
			WorkerCount: cfg.FeedWorkerCount,
		})
		if err := manager.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start feed workers: %w", err)
		}
	}

	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService),
		UserHandler:    handler.NewUserHandler(userService),
		FollowHandler:  handler.NewFollowHandler(followService),
		FeedHandler:    handler.NewFeedHandler(feedService),
		PostHandler:    handler.NewPostHandler(postService, mediaService),
		CommentHandler: handler.NewCommentHandler(commentService),
		Tokens:         tokens,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if manager != nil {
		manager.Stop()
	}

	log.Println("Server stopped")
	return nil
}
