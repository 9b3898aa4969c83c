// arena - real-time two-player chess server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/cheese-arena/internal/archive"
	"github.com/park285/cheese-arena/internal/arena"
	"github.com/park285/cheese-arena/internal/config"
	"github.com/park285/cheese-arena/internal/httpapi"
	"github.com/park285/cheese-arena/internal/msgcat"
	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/internal/transport"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	log := obslog.L()
	defer func() { _ = log.Sync() }()

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatal("msgcat_init_error", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks, results, closers := buildSinks(ctx, cfg)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	opts := arena.Options{
		Grace:           cfg.Grace,
		ChallengeTTL:    cfg.ChallengeTTL,
		GroupTeardown:   cfg.GroupTeardown,
		StartSettle:     cfg.StartSettle,
		SweepInterval:   cfg.SweepInterval,
		MaxTotalMinutes: cfg.MaxTotalMinutes,
		MaxIncrementSec: cfg.MaxIncrementSec,
		Catalog:         catalog,
	}
	if len(sinks) > 0 {
		opts.Archiver = archive.Async{Sink: sinks, Timeout: cfg.ArchiveTimeout}
	}

	hub := transport.NewHub()
	manager := arena.New(hub, opts)
	hub.Attach(manager)
	go manager.RunSweeper(ctx)

	var store httpapi.ResultStore
	if results != nil {
		store = results
	}
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.New(manager, hub, store).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("arena_listen", zap.String("addr", cfg.Addr), zap.String("version", version))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Info("arena_signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Fatal("arena_http_error", zap.Error(err))
	}

	cancel()
	hub.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("arena_shutdown_error", zap.Error(err))
	}
	log.Info("arena_stopped")
}

// applyFlags lets command-line flags override environment settings.
func applyFlags(cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("arena", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Addr, "listen address")
	grace := fs.Duration("grace", cfg.Grace, "per-move transit allowance")
	sweep := fs.Duration("sweep-interval", cfg.SweepInterval, "timeout sweeper period")
	settle := fs.Duration("start-settle", cfg.StartSettle, "delay before white's clock starts")
	ttl := fs.Duration("challenge-ttl", cfg.ChallengeTTL, "direct challenge lifetime")
	redisURL := fs.String("redis-url", cfg.RedisURL, "redis URL for result archive")
	dbURL := fs.String("database-url", cfg.DatabaseURL, "postgres URL for result archive")
	webhook := fs.String("result-webhook", cfg.ResultWebhookURL, "URL receiving finished games")
	messages := fs.String("messages-dir", cfg.MessagesDir, "directory of message catalog overrides")
	showVersion := fs.BoolP("version", "v", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Printf("arena %s\n", version)
		os.Exit(0)
	}

	cfg.Addr = *addr
	cfg.Grace = *grace
	cfg.SweepInterval = *sweep
	cfg.StartSettle = *settle
	cfg.ChallengeTTL = *ttl
	cfg.RedisURL = *redisURL
	cfg.DatabaseURL = *dbURL
	cfg.ResultWebhookURL = *webhook
	cfg.MessagesDir = *messages
	return cfg.Validate()
}

// buildSinks connects every configured archive backend. A backend that fails to
// connect is logged and skipped.
func buildSinks(ctx context.Context, cfg *config.AppConfig) (archive.Multi, *archive.RedisSink, []func() error) {
	log := obslog.L()
	var (
		sinks   archive.Multi
		results *archive.RedisSink
		closers []func() error
	)
	if cfg.RedisURL != "" {
		rdb, err := archive.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("archive_redis_unavailable", zap.Error(err))
		} else {
			results = archive.NewRedisSink(rdb)
			sinks = append(sinks, results)
			closers = append(closers, rdb.Close)
		}
	}
	if cfg.DatabaseURL != "" {
		pg, err := archive.NewPostgresSink(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("archive_postgres_unavailable", zap.Error(err))
		} else {
			sinks = append(sinks, pg)
			closers = append(closers, pg.Close)
		}
	}
	if cfg.ResultWebhookURL != "" {
		sinks = append(sinks, archive.NewWebhookSink(cfg.ResultWebhookURL))
	}
	return sinks, results, closers
}
