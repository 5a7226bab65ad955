// Package main is the entry point for the Axion credential daemon. It owns
// the vault and serves the loopback host API the shell's UI surfaces talk to.
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

	"github.com/nihmadev/Axion/internal/config"
	"github.com/nihmadev/Axion/internal/crypto"
	"github.com/nihmadev/Axion/internal/logging"
	"github.com/nihmadev/Axion/internal/server"
	"github.com/nihmadev/Axion/internal/vault"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.Setup(cfg.Log.Level)
	logger.Info("starting axiond",
		"version", version,
		"data_dir", cfg.Data.Dir,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v, err := vault.Open(cfg.Data.Dir, vault.Options{
		MaxFailedAttempts: cfg.Vault.MaxFailedAttempts,
		KDF: crypto.Params{
			Time:    cfg.Vault.KDFTime,
			Memory:  cfg.Vault.KDFMemoryKiB,
			Threads: cfg.Vault.KDFThreads,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	logger.Info("vault opened", "dir", v.Dir(), "exists", v.Exists())
	defer func() {
		if cErr := v.Close(); cErr != nil {
			logger.Error("failed to close vault", "error", cErr)
		}
	}()

	router := server.NewRouter(&server.Dependencies{
		Vault:          v,
		Logger:         logger,
		RequestTimeout: cfg.Server.WriteTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.ServerAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled")
	}

	// Lock before shutdown so the master key is zeroed even if a handler
	// is still draining.
	v.Lock()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
