// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blessed-dialekt/calmunity/cliparse"
	"github.com/blessed-dialekt/calmunity/db"
	"github.com/blessed-dialekt/calmunity/dictionary"
	"github.com/blessed-dialekt/calmunity/metrics"
	"github.com/blessed-dialekt/calmunity/ratelimit"
	"github.com/blessed-dialekt/calmunity/realtime"
	"github.com/blessed-dialekt/calmunity/router"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [flags]",
		Short: "Run the HTTP API",
		Long: "Run the HTTP API. Settings come from the environment (or a .env file)\n" +
			"and may be overridden with flags; run 'serve -h' to list them.",
		// Flags are parsed by cliparse so env and CLI share one definition
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			args, debug := stripDebugFlags(args)
			globalFlags.debug = globalFlags.debug || debug

			cfg, err := cliparse.ParseFlags(args)
			if errors.Is(err, flag.ErrHelp) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("error parsing flags: %w", err)
			}
			setupLogging(cfg.Debug || globalFlags.debug)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// stripDebugFlags removes the root --debug/-D flag, which cobra leaves in
// args when flag parsing is disabled. cliparse keeps its own -debug.
func stripDebugFlags(args []string) ([]string, bool) {
	rest := make([]string, 0, len(args))
	debug := false
	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		if name != "-D" && name != "--debug" {
			rest = append(rest, arg)
			continue
		}
		if !hasValue {
			debug = true
			continue
		}
		if v, err := strconv.ParseBool(value); err == nil {
			debug = v
		}
	}
	return rest, debug
}

func serve(ctx context.Context, cfg cliparse.Config) error {
	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		return err
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	var dict *dictionary.Dictionary
	if cfg.DictionaryDir != "" {
		dict, err = dictionary.Load(cfg.DictionaryDir)
		if err != nil {
			return fmt.Errorf("dictionary failed to load: %w", err)
		}
	}

	m := metrics.New()
	g, gctx := errgroup.WithContext(ctx)

	var rdb *redis.Client
	if cfg.RateLimitBackend == cliparse.BackendRedis || cfg.RealtimeBackend == cliparse.BackendRedis {
		rdb = ratelimit.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}

	opts := ratelimit.Options{
		Window:       cfg.RateLimitWindow,
		Max:          cfg.RateLimitMax,
		AdvisoryLock: cfg.DatabaseType == db.TypePostgres,
	}
	var limiter ratelimit.Limiter
	if cfg.RateLimitBackend == cliparse.BackendRedis {
		limiter = ratelimit.NewRedisLimiter(rdb, opts)
	} else {
		sqlLimiter := ratelimit.NewSQLLimiter(conn, opts)
		limiter = sqlLimiter
		g.Go(func() error {
			sqlLimiter.RunPruner(gctx, cfg.RateLimitPruneInterval, m)
			return nil
		})
	}

	var hub realtime.Hub
	if cfg.RealtimeBackend == cliparse.BackendRedis {
		redisHub, err := realtime.NewRedisHub(ctx, rdb, realtime.DefaultChannel)
		if err != nil {
			return err
		}
		hub = redisHub
	} else {
		hub = realtime.NewMemoryHub()
	}
	defer hub.Close()

	server := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Port),
		Handler: router.NewRouter(router.Deps{
			DB:         conn,
			Config:     cfg,
			Limiter:    limiter,
			Hub:        hub,
			Dictionary: dict,
			Metrics:    m,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port,
			"rate_limit_backend", cfg.RateLimitBackend,
			"realtime_backend", cfg.RealtimeBackend,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Websocket connections are hijacked, so Shutdown does not wait for
		// them; closing the hub ends their streams
		hub.Close()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Server closed", "error", err)
	return err
}
