package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JuanManuel1970/dolar/internal/config"
	"github.com/JuanManuel1970/dolar/internal/dashboard"
	"github.com/JuanManuel1970/dolar/internal/gateway"
	"github.com/JuanManuel1970/dolar/internal/httpx"
	"github.com/JuanManuel1970/dolar/internal/logx"
	"github.com/JuanManuel1970/dolar/internal/rates"
	"github.com/JuanManuel1970/dolar/internal/source"
	"github.com/JuanManuel1970/dolar/internal/source/bluelytics"
	"github.com/JuanManuel1970/dolar/internal/source/cache"
	"github.com/JuanManuel1970/dolar/internal/source/ratelimit"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	defer log.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	t, err := rates.ParseType(cfg.Dashboard.DefaultType)
	if err != nil {
		log.Fatal("config: default type", zap.Error(err))
	}
	days := cfg.Dashboard.DefaultRangeDays
	if !rates.ValidRange(days) {
		days = 60
	}

	src := buildSource(cfg, log)
	ctrl := dashboard.NewController(src, log, t, days)

	// Warm the view once; a failure here is the same error state the API
	// reports, so the server still starts.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := ctrl.Refresh(warmCtx); err != nil {
		log.Warn("initial refresh failed", zap.Error(err))
	}
	warmCancel()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(ctrl, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("server stopped")
}

func buildSource(cfg config.Config, log *zap.Logger) source.Source {
	client := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	gw := gateway.New(client, cfg.Bluelytics.ProxyURL, log)

	var src source.Source = bluelytics.New(bluelytics.Config{
		NowURL:     cfg.Bluelytics.NowURL,
		HistoryURL: cfg.Bluelytics.HistoryURL,
	}, gw)

	if cfg.Bluelytics.MaxRequestsPerMinute > 0 {
		burst := cfg.Bluelytics.Burst
		if burst <= 0 {
			burst = 1
		}
		src = &ratelimit.TokenBucketSource{
			S:  src,
			TB: ratelimit.NewTokenBucket(float64(cfg.Bluelytics.MaxRequestsPerMinute)/60.0, burst),
		}
	} else if cfg.Bluelytics.MinRequestIntervalSec > 0 {
		src = &ratelimit.MinInterval{
			S:        src,
			Interval: time.Duration(cfg.Bluelytics.MinRequestIntervalSec) * time.Second,
		}
	}
	if cfg.Bluelytics.CacheTTLSeconds > 0 {
		src = &cache.Source{S: src, TTL: time.Duration(cfg.Bluelytics.CacheTTLSeconds) * time.Second}
	}
	return src
}
