// Command tecp-logd runs the TECP transparency log as an HTTP service,
// wired the way the teacher's cmd/miner/main.go wires config, logger, and
// background goroutines around an http.Server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tecp-protocol/tecp-go/internal/config"
	"github.com/tecp-protocol/tecp-go/internal/logging"
	"github.com/tecp-protocol/tecp-go/translog"
	"github.com/tecp-protocol/tecp-go/translog/logsrv"
)

func main() {
	cfgPath := os.Getenv("TECP_LOGD_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/logd.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg := logging.New(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := translog.OpenStore(ctx, translog.StoreConfig{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime.Duration,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime.Duration,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	key, err := translog.LoadKeyFromEnv(cfg.Signing.KeyEnv, cfg.Signing.AllowGenerate)
	if err != nil {
		lg.Fatal().Err(err).Msg("load signing key")
	}
	ring := translog.NewKeyRing(key)

	tlog, err := translog.OpenLog(ctx, store, ring, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("open log")
	}

	if cfg.STHTicker.Enable {
		ticker := translog.NewSTHTicker(tlog, cfg.STHTicker.Interval.Duration, lg)
		go ticker.Run(ctx)
	}

	handler := logsrv.New(tlog, lg, cfg.Metrics.Enable)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info().Str("listen", cfg.Listen).Msg("tecp-logd listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lg.Fatal().Err(err).Msg("server failed")
	}
}
