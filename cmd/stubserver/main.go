package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/store"
	"github.com/studentpay/backoffice/internal/core/store/memory"
	"github.com/studentpay/backoffice/internal/core/store/postgres"
	"github.com/studentpay/backoffice/internal/server"
	"github.com/studentpay/backoffice/pkg/config"
	"github.com/studentpay/backoffice/pkg/postgresdb"
)

func main() {
	log, cleanup := logger.NewLogger()
	defer cleanup()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", logger.ErrorField("error", err))
		return
	}

	var st store.Store
	var closeDB func() error

	if cfg.DB != nil {
		db, err := postgresdb.NewPostgresDB(*cfg.DB, log)
		if err != nil {
			log.Error("Failed to connect to database", logger.ErrorField("error", err))
			return
		}
		closeDB = db.Close

		pg := postgres.NewStore(db.DB, log)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Error("Failed to ensure schema", logger.ErrorField("error", err))
			return
		}
		st = pg
		log.Info("Serving from postgres store")
	} else {
		st = memory.New(log, 0)
		log.Info("Serving from seeded in-memory store")
	}

	srv := server.NewServer(st, log)

	go func() {
		log.Info("Starting stub backend", logger.StringField("addr", cfg.ServerAddr))
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			err = srv.RunTLS(cfg.ServerAddr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.Run(cfg.ServerAddr)
		}
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", logger.ErrorField("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", logger.ErrorField("error", err))
	}
	if closeDB != nil {
		if err := closeDB(); err != nil {
			log.Error("Database shutdown failed", logger.ErrorField("error", err))
		}
	}

	log.Info("Server exited properly")
}
