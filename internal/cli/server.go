package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/attempt"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/catalog"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/config"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/congrats"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/infra/memory"
	pgstore "github.com/kiran-c861/Nipe-Quiz-2026/internal/infra/postgres"
	redisinfra "github.com/kiran-c861/Nipe-Quiz-2026/internal/infra/redis"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/results"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/session"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
	transport "github.com/kiran-c861/Nipe-Quiz-2026/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the portal server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	adminPassword := cfg.Admin.Password
	if adminPassword == "" {
		adminPassword = os.Getenv("ADMIN_PASSWORD")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var mainStore store.Store = memory.NewStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		mainStore = pgstore.NewStore(pool)
	}

	var devices store.DeviceStore = memory.NewDeviceStore()
	if redisClient != nil {
		devices = redisinfra.NewDeviceStore(redisClient, redisTTL)
	}

	cat := catalog.New(mainStore)

	// Student joins hammer Find; cache it in front of the catalog.
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, time.Minute)
	var finder invalidatingFinder = memory.NewQuizCache(cat, catalogTTL)
	if redisClient != nil {
		finder = redisinfra.NewQuizCache(redisClient, cat, catalogTTL)
	}

	sessions := session.NewManager(devices, adminPassword)
	engine := attempt.NewEngine(finder, devices, mainStore)
	aggregator := results.New(mainStore)
	gate := congrats.New(mainStore)

	handler := transport.NewHandler(transport.Deps{
		Sessions:   sessions,
		Catalog:    cat,
		Finder:     finder,
		Engine:     engine,
		Results:    aggregator,
		Congrats:   gate,
		Store:      mainStore,
		Invalidate: finder.Invalidate,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("starting quiz portal", "port", finalPort,
			"postgres", cfg.Postgres.URL != "", "redis", redisClient != nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// invalidatingFinder is a quiz lookup whose cache entries can be dropped when
// the admin edits the catalog.
type invalidatingFinder interface {
	store.QuizFinder
	Invalidate(ctx context.Context, code string)
}
