package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/worklane/ticket-tracker/internal/api/http/handlers"
	"github.com/worklane/ticket-tracker/internal/app"
	"github.com/worklane/ticket-tracker/internal/config"
	"github.com/worklane/ticket-tracker/internal/domain"
	"github.com/worklane/ticket-tracker/internal/observability"
	"github.com/worklane/ticket-tracker/internal/persistence"
	"github.com/worklane/ticket-tracker/internal/repository"
	"github.com/worklane/ticket-tracker/internal/repository/memory"
	"github.com/worklane/ticket-tracker/internal/service"
)

func main() {
	cliApp := &cli.App{
		Name:  "ticket-tracker",
		Usage: "Ticket tracking with timers, work logs and audit history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "postgres-dsn",
				Aliases: []string{"d"},
				Usage:   "PostgreSQL connection string",
				EnvVars: []string{"POSTGRES_DSN"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "store",
						Usage:   "Record store driver (postgres, memory)",
						EnvVars: []string{"STORE_DRIVER"},
					},
				},
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: runMigrate,
			},
			{
				Name:  "provision-actor",
				Usage: "Create an actor with its profile",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
					&cli.StringFlag{Name: "role", Value: string(domain.ActorRoleMember), Usage: "ADMIN or MEMBER"},
				},
				Action: runProvisionActor,
			},
		},
		Action: runServe,
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatalf("ticket-tracker: %v", err)
	}
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logger.Level = level
	}
	if dsn := c.String("postgres-dsn"); dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	if c.IsSet("store") {
		driver := c.String("store")
		if driver != config.StoreDriverPostgres && driver != config.StoreDriverMemory {
			return nil, nil, fmt.Errorf("invalid store driver %q", driver)
		}
		cfg.Store.Driver = driver
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*persistence.Postgres, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return pg, nil
}

func runServe(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	deps := app.Dependencies{Logger: logger, Pingers: map[string]handlers.Pinger{}}
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory record store; data is lost on restart")
		deps.Store = memory.New()
	default:
		pg, err := connectPostgres(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer pg.Close()

		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()

		deps.Store = repository.NewPostgresStore(pg.PoolHandle(), logger.Named("store"))
		deps.Counter = redis
		deps.Pingers["postgres"] = pg
		deps.Pingers["redis"] = redis
	}

	application := app.New(cfg, deps)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := application.Fiber.Listen(cfg.App.Addr()); err != nil {
			serverErr <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-done:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	if err := application.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func runMigrate(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(c.Context, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	return persistence.RunMigrations(c.Context, pg.PoolHandle(), logger)
}

func runProvisionActor(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := connectPostgres(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	actors := service.NewActorService(cfg.Auth, service.ActorDependencies{
		Store:  repository.NewPostgresStore(pg.PoolHandle(), logger.Named("store")),
		Logger: logger,
	})
	provisioned, err := actors.ProvisionActor(c.Context, service.ProvisionInput{
		Username:  c.String("username"),
		Password:  c.String("password"),
		Email:     c.String("email"),
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
		Role:      domain.ActorRole(c.String("role")),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "provisioned %s (%s) as %s\n", provisioned.Actor.Username, provisioned.Actor.ID, provisioned.Actor.Role)
	return nil
}
