package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cargoport/core/internal/app"
	"github.com/cargoport/core/internal/config"
	"github.com/cargoport/core/internal/database"
	"github.com/cargoport/core/internal/pkg/nativelog"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to config file")
	migrate := flag.Bool("migrate", false, "run database migration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		println("config error:", err.Error())
		os.Exit(1)
	}

	_ = os.Setenv(nativelog.EnvLogDir, cfg.LogDir())
	logger, err := nativelog.NewZapLogger()
	if err != nil {
		println("logger error:", err.Error())
		os.Exit(1)
	}
	defer logger.Sync()

	if *migrate {
		if err := database.EnsureSchema(cfg); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		logger.Info("migration complete")
		return
	}

	application, err := app.New(logger, cfg)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	server := &http.Server{
		Addr:    application.Addr(),
		Handler: application.Router(),
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	application.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}
}
