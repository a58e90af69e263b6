package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"taskhub/internal/api"
	"taskhub/internal/auth"
	"taskhub/internal/bus"
	"taskhub/internal/config"
	"taskhub/internal/db"
	"taskhub/internal/invitation"
	"taskhub/internal/otel"
	"taskhub/internal/store"
	"taskhub/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	cleanup, err := otel.Init(ctx, version.Name, version.Version, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init otel")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	database, err := db.Connect(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	if err := db.Migrate(ctx, cfg.DBDriver, cfg.DBDSN, database); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	if err := db.Seed(ctx, database, cfg.SeedFile); err != nil {
		log.Fatal().Err(err).Msg("seed database")
	}

	var pool *pgxpool.Pool
	if cfg.DBDriver == db.DriverPostgres {
		pool, err = db.OpenPool(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open pgx pool")
		}
		defer pool.Close()
	}

	var eventBus *bus.Bus
	if cfg.NATSURL != "" {
		eventBus, err = bus.New(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect nats")
		}
		defer eventBus.Close()
	}

	st := store.New(database)
	gate := invitation.New(st)

	var (
		validator auth.Validator
		sessions  api.SessionManager
	)
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		jwtValidator := auth.NewJWTValidator(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.SessionTTL, cfg.CookieSecure)
		validator = jwtValidator
		sessions = jwtValidator
	case config.AuthModeHeader:
		validator = auth.HeaderValidator{}
	}

	app, err := api.New(api.Options{
		Store:     st,
		Gate:      gate,
		Validator: validator,
		Sessions:  sessions,
		Bus:       eventBus,
		Pool:      pool,
		Config: api.Config{
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimit:      cfg.RateLimit,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build api")
	}

	handler := otelhttp.NewHandler(gzhttp.GzipHandler(app.Routes()), version.Name)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("auth_mode", cfg.AuthMode).Msg("starting taskhub-api")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
