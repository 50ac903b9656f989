package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hongminglow/hermes-be/internal/auth/provider"
	"github.com/hongminglow/hermes-be/internal/auth/provider/google"
	"github.com/hongminglow/hermes-be/internal/config"
	"github.com/hongminglow/hermes-be/internal/logging"
	"github.com/hongminglow/hermes-be/internal/metrics"
	"github.com/hongminglow/hermes-be/internal/server"
	"github.com/hongminglow/hermes-be/internal/storage"
	"github.com/hongminglow/hermes-be/internal/storage/memory"
	"github.com/hongminglow/hermes-be/internal/storage/postgres"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := logging.Setup("hermes", version, cfg.LogFormat, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		logging.LogError(logger, "init storage failed", err)
		return err
	}
	defer closeStore()

	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		logging.LogError(logger, "init identity providers failed", err)
		return err
	}

	srv, err := server.New(cfg, server.Deps{
		Storage:   store,
		Providers: providers,
		Metrics:   metrics.New(),
		Logger:    logger,
	})
	if err != nil {
		return oops.Code("SERVER_INIT_FAILED").Wrap(err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hermes backend listening", "addr", cfg.HTTPAddress(), "storage", cfg.StorageDriver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.LogError(logger, "http server error", err)
			return err
		}
	case <-ctx.Done():
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logging.LogError(logger, "graceful shutdown error", err)
		return err
	}
	logger.Info("hermes backend stopped")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config) (storage.UserStore, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		return memory.NewUserStore(), func() {}, nil
	}
	store, err := postgres.NewUserStore(ctx, cfg.DatabaseURL, cfg.DBConnectRetries)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func buildProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	if !cfg.Google.Enabled() {
		return provider.NewRegistry(), nil
	}
	g, err := google.New(ctx, google.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	})
	if err != nil {
		return nil, oops.Code("PROVIDER_INIT_FAILED").With("provider", "google").Wrap(err)
	}
	return provider.NewRegistry(g), nil
}
