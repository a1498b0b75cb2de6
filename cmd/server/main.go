package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"gaman_backend/internal/cache"
	"gaman_backend/internal/config"
	"gaman_backend/internal/database"
	"gaman_backend/internal/geocode"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/queue"
	"gaman_backend/internal/redis"
	"gaman_backend/internal/repository"
	transporthttp "gaman_backend/internal/transport/http"
	"gaman_backend/internal/worker"
)

func main() {
	app := &cli.App{
		Name:  "gaman",
		Usage: "Social graph, visibility and engagement backend",
		Commands: []*cli.Command{
			serveCommand(),
			workerCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and the root logger, and returns a context that
// is cancelled on SIGINT or SIGTERM.
func setup(c *cli.Context) (context.Context, context.CancelFunc, *config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, zerolog.Nop(), err
	}
	log := logger.New(cfg.Log)
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	return ctx, cancel, cfg, log, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply pending migrations before serving",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel, cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			defer cancel()

			if c.Bool("migrate") {
				if err := runMigrations(ctx, cfg, log); err != nil {
					return err
				}
			}
			return transporthttp.Run(ctx, cfg, log)
		},
	}
}

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Consume the social event stream: notifications and event geocoding",
		Action: func(c *cli.Context) error {
			ctx, cancel, cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			defer cancel()

			if cfg.Queue.Backend != config.QueueBackendRedis {
				return errors.New("worker needs QUEUE_BACKEND=redis")
			}

			db, err := database.Connect(cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			rdb, err := redis.Connect(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer rdb.Close()

			if cfg.Geocoding.APIKey == "" {
				log.Warn().Msg("API_MAPS_KEY not set, events will not be geocoded")
			}

			geocoder := cache.NewCachingGeocoder(geocode.NewClient(cfg.Geocoding), cache.NewPlaceStore(rdb.Client), log)
			handler := worker.NewHandler(
				repository.NewNotificationRepository(db),
				geocoder,
				repository.NewEventRepository(db),
				log,
			)
			manager := worker.NewManager(queue.NewConsumer(rdb.Client, log), handler, cfg.Worker, log)
			if err := manager.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			log.Info().Msg("stopping workers")
			manager.Stop()
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations and exit",
		Action: func(c *cli.Context) error {
			ctx, cancel, cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			defer cancel()

			return runMigrations(ctx, cfg, log)
		},
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return database.Migrate(ctx, db.DB, log)
}
