package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"order-relay/internal/config"
	"order-relay/internal/httpx"
	"order-relay/internal/logger"
	"order-relay/internal/metrics"
	"order-relay/internal/poller"
	"order-relay/internal/publisher"
	"order-relay/internal/relay"
	"order-relay/internal/server"
	"order-relay/internal/store"
	"order-relay/internal/telegram"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (default: auto-discover)")
	port := flag.Int("port", 0, "http port (overrides config)")
	flag.Parse()

	lg := logger.New("order-relay")

	path := *cfgPath
	if path == "" {
		var err error
		path, err = config.FindConfig()
		if err != nil {
			lg.Error("config_not_found", err, nil)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		lg.Error("redis_connect_failed", err, map[string]any{"addr": cfg.Redis.Addr})
		os.Exit(1)
	}
	defer rdb.Close()
	lg.Info("redis_connected", map[string]any{"addr": cfg.Redis.Addr})

	payloads := store.NewRedisStore(rdb)
	states := publisher.NewRabbitMQ(cfg.RabbitMQ, logger.New("state-publisher"))
	defer states.Close()

	tg := telegram.New(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)
	processor := relay.NewProcessor(tg, payloads, states, logger.New("callback-processor"))
	handlers := server.New(cfg.Telegram, tg, payloads, states, processor, logger.New("http-api"))

	metrics.SetBuildInfo(cfg)

	mux := http.NewServeMux()
	handlers.Register(mux)
	mux.Handle("/metrics", metrics.Handler())

	setupWebhook(ctx, tg, cfg.Telegram, lg)

	if !cfg.Telegram.UseWebhook {
		go poller.New(tg, processor, logger.New("updates-poller")).Run(ctx)
	}

	lg.Info("service_started", map[string]any{"port": cfg.HTTP.Port, "webhook": cfg.Telegram.UseWebhook})
	srv := httpx.New(":"+strconv.Itoa(cfg.HTTP.Port), mux)
	if err := srv.Run(ctx); err != nil {
		lg.Error("fatal", err, nil)
		os.Exit(1)
	}
	lg.Info("service_stopped", nil)
}

// setupWebhook registers or removes the Telegram webhook to match the config.
// Failures are logged only; the poller or webhook endpoint still runs.
func setupWebhook(ctx context.Context, tg *telegram.Client, cfg config.Telegram, lg *logger.Logger) {
	if cfg.UseWebhook && cfg.WebhookBaseURL != "" {
		url := strings.TrimRight(cfg.WebhookBaseURL, "/") + "/api/telegram/webhook"
		if err := tg.SetWebhook(ctx, url); err != nil {
			lg.Error("set_webhook_failed", err, map[string]any{"url": url})
			return
		}
		lg.Info("webhook_registered", map[string]any{"url": url})
		return
	}
	if err := tg.DeleteWebhook(ctx); err != nil {
		lg.Error("delete_webhook_failed", err, nil)
		return
	}
	lg.Info("webhook_removed", nil)
}
