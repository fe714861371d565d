// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmcmillan1999/sluff-project-sub002/internal/cache"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/config"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/database"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/game"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/server"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := game.NewRegistry(cfg.TableOptions(), logger)
	srv := server.New(reg, logger)

	if cfg.RedisAddr != "" {
		h := cache.NewHistorian(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := h.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unreachable, action history disabled")
			h.Close()
		} else {
			defer h.Close()
			reg.Recorder = h
			srv.History = h
			logger.WithField("addr", cfg.RedisAddr).Info("action history enabled")
		}
	}

	if cfg.DBDriver != "" {
		store, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN, logger)
		if err != nil {
			logger.WithError(err).Fatal("opening analytics database")
		}
		defer store.Close()
		reg.Analytics = store
		srv.Rounds = store
		logger.WithField("driver", cfg.DBDriver).Info("analytics enabled")
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", cfg.HTTPAddr).Info("sluff server listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server stopped")
	}
	for _, info := range reg.List() {
		reg.Remove(info.ID)
	}
	logger.Info("sluff server stopped")
}
