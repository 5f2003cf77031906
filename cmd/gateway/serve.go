package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"wikidot-gateway/config"
	"wikidot-gateway/logging"
	"wikidot-gateway/middleware/ratelimit/infra"
	"wikidot-gateway/server"
	"wikidot-gateway/wiki"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("listen", "", "listen address; overrides LISTEN_ADDR")
	_ = v.BindPFlag("listen_addr", cmd.Flags().Lookup("listen"))
	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pacer := infra.NewPacer(cfg.Wiki.RPS, cfg.Wiki.Burst)
	pacer.StartJanitor(ctx)

	client, err := wiki.New(cfg.Wiki.BaseURL,
		wiki.WithHTTPClient(&http.Client{Timeout: cfg.Wiki.Timeout}),
		wiki.WithPacer(pacer),
		wiki.WithLogger(log.Named("wiki")),
	)
	if err != nil {
		return err
	}

	stats, closeStats, err := newStatsStore(ctx, cfg.Rate.Stats)
	if err != nil {
		return err
	}
	defer closeStats()

	policy, _ := cfg.Policy()
	srv := server.New(server.Options{
		Addr:               cfg.ListenAddr,
		Limit:              cfg.Rate.Limit,
		Interval:           cfg.Rate.Interval,
		SecretToken:        cfg.SecretToken,
		AllowAnonymous:     cfg.Rate.AllowAnonymous,
		OverflowPolicy:     policy,
		ConcurrencyMax:     cfg.Concurrency.Max,
		ConcurrencyTimeout: cfg.Concurrency.Timeout,
		Scraper:            client,
		Stats:              stats,
		Logger:             log,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("wiki client ready",
		zap.String("base_url", cfg.Wiki.BaseURL),
		zap.Float64("rps", cfg.Wiki.RPS),
		zap.Int("burst", cfg.Wiki.Burst))
	log.Info("rate stats",
		zap.Bool("redis", cfg.Rate.Stats.Enabled),
		zap.String("redis_addr", cfg.Rate.Stats.RedisAddr),
		zap.String("bucket", cfg.Rate.Stats.Bucket),
		zap.Duration("ttl", cfg.Rate.Stats.TTL),
		zap.Bool("track_keys", cfg.Rate.Stats.TrackKeys))

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newStatsStore usa Redis quando habilitado; senão, memória.
func newStatsStore(ctx context.Context, cfg config.StatsConfig) (server.StatsStore, func(), error) {
	if !cfg.Enabled {
		return infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.TrackKeys)), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis stats ping error: %w", err)
	}

	store := infra.NewRedisStatsStore(
		rdb,
		infra.WithStatsPrefix(cfg.Prefix),
		infra.WithStatsTTL(cfg.TTL),
		infra.WithStatsBucket(cfg.Bucket),
		infra.WithStatsTrackKeys(cfg.TrackKeys),
	)
	return store, func() { _ = rdb.Close() }, nil
}
