package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"gaman_backend/internal/authz"
	"gaman_backend/internal/config"
	"gaman_backend/internal/database"
	"gaman_backend/internal/handler"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/queue"
	"gaman_backend/internal/redis"
	"gaman_backend/internal/repository"
	"gaman_backend/internal/service"
)

// Run serves the API until ctx is cancelled, then drains in-flight requests
// for at most cfg.Server.ShutdownTimeout.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	checks := map[string]HealthCheck{"database": db.PingContext}

	var rdb *redis.Client
	if cfg.Queue.Backend == config.QueueBackendRedis {
		rdb, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		checks["redis"] = rdb.Ping
	}

	publisher, closePublisher, err := NewPublisher(cfg.Queue, rdb, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	media, err := newMediaStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}

	router := NewRouter(buildRouterConfig(cfg, db, publisher, media, checks, log))

	srv := &stdhttp.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func buildRouterConfig(
	cfg *config.Config,
	db *sqlx.DB,
	publisher queue.Publisher,
	media service.MediaStore,
	checks map[string]HealthCheck,
	log zerolog.Logger,
) RouterConfig {
	users := repository.NewUserRepository(db)
	actors := repository.NewActorRepository(db)
	follows := repository.NewFollowRepository(db)
	requests := repository.NewFollowRequestRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	events := repository.NewEventRepository(db)
	reactions := repository.NewReactionRepository(db)
	notifications := repository.NewNotificationRepository(db)
	members := repository.NewMembershipRepository(db)

	tx := database.NewTxRunner(db)
	authorizer := authz.New(follows)

	followService := service.NewFollowService(follows, requests, actors, users, tx, publisher, log)
	actorService := service.NewActorService(users, actors, media, log)
	postService := service.NewPostService(posts, actors, authorizer, tx, log)
	commentService := service.NewCommentService(comments, posts, authorizer, tx, publisher, log)
	eventService := service.NewEventService(events, actors, authorizer, tx, publisher, log)
	reactionService := service.NewReactionService(reactions, posts, comments, events, authorizer, tx, publisher, log)
	notificationService := service.NewNotificationService(notifications)
	membershipService := service.NewMembershipService(members, actors, tx, publisher, log)

	return RouterConfig{
		ActorHandler:        handler.NewActorHandler(actorService),
		FollowHandler:       handler.NewFollowHandler(followService),
		PostHandler:         handler.NewPostHandler(postService, reactionService),
		CommentHandler:      handler.NewCommentHandler(commentService, reactionService),
		EventHandler:        handler.NewEventHandler(eventService, reactionService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		MediaHandler:        handler.NewMediaHandler(media),
		MembershipHandler:   handler.NewMembershipHandler(membershipService),
		JWTSecret:           cfg.Auth.JWTSecret,
		Logger:              logger.Component(log, "http"),
		HealthChecks:        checks,
	}
}

// NewPublisher picks the post-commit event sink. Redis streams are the
// primary; a NATS URL adds a mirror. With QUEUE_BACKEND=none events are
// dropped unless NATS is configured.
func NewPublisher(cfg config.QueueConfig, rdb *redis.Client, log zerolog.Logger) (queue.Publisher, func(), error) {
	var primary queue.Publisher = queue.Discard{}
	if cfg.Backend == config.QueueBackendRedis {
		if rdb == nil {
			return nil, nil, errors.New("redis queue backend needs a redis client")
		}
		primary = queue.NewPublisher(rdb.Client, log)
	}

	if cfg.NATSURL == "" {
		return primary, func() {}, nil
	}

	nc, err := queue.ConnectNats(cfg.NATSURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("url", nc.ConnectedUrl()).Msg("mirroring events to nats")

	fanout := queue.NewFanout(logger.Component(log, "fanout"), primary, queue.NewNatsPublisher(nc, log))
	return fanout, func() { _ = nc.Drain() }, nil
}

func newMediaStore(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (service.MediaStore, error) {
	if !cfg.Enabled() {
		log.Warn().Msg("R2 storage not configured, media uploads disabled")
		return service.DisabledMedia{}, nil
	}
	media, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}
	return media, nil
}
