package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/config"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/db"
	handler "github.com/vasiliy-maslov/shop-backend/order-service/internal/handler/http"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/order"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/transport"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/user"
	"golang.org/x/sync/errgroup"
)

const serviceName = "order-service"

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	setupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	log.Info().Msg("Order service starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	if err := pg.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	policy, err := access.LoadPolicy(cfg.Access.PolicyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load access policy")
	}

	var summaryCache catalog.SummaryCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			// Кэш необязателен: работаем напрямую с базой.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, product summaries are not cached")
		} else {
			summaryCache = catalog.NewRedisSummaryCache(rdb, serviceName, cfg.Redis.TTL)
		}
	}

	sqlxDB := pg.SQLX()
	defer sqlxDB.Close()

	users := user.NewRepository(pg.Pool)
	summaries := catalog.NewCachedSummaries(catalog.NewRepository(pg.Pool), summaryCache)
	svc := order.NewService(
		order.NewStore(pg.Pool),
		order.NewHistoryReader(sqlxDB),
		summaries,
		users,
		access.NewPolicyAuthorizer(policy),
	)

	router := transport.NewRouter(handler.NewOrderHandler(svc, cfg.App.MediaBaseURL), users)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", serviceName).Logger()
}
