package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/isdelr/murmur/internal/api"
	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/config"
	"github.com/isdelr/murmur/internal/database"
	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/metrics"
	"github.com/isdelr/murmur/internal/monitoring"
	"github.com/isdelr/murmur/internal/services"
	"github.com/isdelr/murmur/internal/store"
	"github.com/isdelr/murmur/internal/web"
	"github.com/isdelr/murmur/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Pending migrations are applied first and
expired sessions are swept in the background.`,
		RunE: runServe,
	}
	cmd.Flags().Int("port", 8080, "HTTP listen port")
	cmd.Flags().String("env", config.EnvDevelopment, "environment (development, production)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("database_path", cfg.DatabasePath).Wrap(err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	st := store.NewSQLiteStore(db)

	csrfKey, err := csrfSecret(cfg)
	if err != nil {
		return err
	}

	tmpl, err := web.Templates()
	if err != nil {
		return oops.Code("TEMPLATE_INVALID").Wrap(err)
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()

	// Set up services
	sessions := auth.NewSessionManager(st, auth.SessionConfig{
		TTL:          cfg.Session.TTL,
		Renew:        cfg.Session.Renew,
		SecureCookie: cfg.Cookie.Secure || cfg.IsProduction(),
	})
	eventService := services.NewEventService(st)
	userService := services.NewUserService(st, auth.NewArgon2idHasher(cfg.Hash.Concurrency), sessions, eventService)
	postService := services.NewPostService(st, eventService, hub)

	// Set up router
	router := api.NewRouter(api.Deps{
		DB:             db,
		Users:          st,
		Sessions:       sessions,
		CSRF:           auth.NewCSRFProtector(csrfKey, cfg.CSRF.TTL),
		Validator:      forms.NewValidator(),
		Templates:      tmpl,
		Hub:            hub,
		UserService:    userService,
		PostService:    postService,
		EventService:   eventService,
		Metrics:        metrics.Handler(metrics.NewRegistry()),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Set up background jobs
	scheduler := monitoring.NewScheduler(sessions)
	if err := scheduler.ScheduleSessionSweep(cfg.Session.SweepSchedule); err != nil {
		return oops.Code("CONFIG_INVALID").With("sweep_schedule", cfg.Session.SweepSchedule).Wrap(err)
	}
	statUpdater := monitoring.NewStatUpdater(st, cfg.StatsInterval)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		statUpdater.Run()
		return nil
	})
	scheduler.Start()

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("SERVER_FAILED").With("addr", srv.Addr).Wrap(err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		scheduler.Stop(shutdownCtx)
		statUpdater.Stop()
		hub.Stop()
		if err != nil {
			return oops.Code("SHUTDOWN_FAILED").Wrap(err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		return err
	}
	log.Info().Msg("Server exiting")
	return nil
}

// csrfSecret returns the configured CSRF signing key, or a random one. Tokens signed
// with a random key stop validating when the process restarts.
func csrfSecret(cfg *config.Config) ([]byte, error) {
	if cfg.CSRF.Secret != "" {
		return []byte(cfg.CSRF.Secret), nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, oops.Code("CSRF_KEY_FAILED").Wrap(err)
	}
	if cfg.IsProduction() {
		log.Warn().Msg("No csrf.secret configured; using a random key for this process")
	}
	return key, nil
}
