package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msomdec/result-processing/internal/cache"
	"github.com/msomdec/result-processing/internal/config"
	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/handler"
	"github.com/msomdec/result-processing/internal/observability"
	"github.com/msomdec/result-processing/internal/repository/postgres"
	"github.com/msomdec/result-processing/internal/repository/sqlite"
	"github.com/msomdec/result-processing/internal/service"
)

const appName = "result-processing"

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Academic result processing service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	})

	var claims string
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the given claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, claims)
		},
	}
	tokenCmd.Flags().StringVar(&claims, "claims", "", `Claims as a JSON object, e.g. '{"email":"a@x.com"}'`)
	_ = tokenCmd.MarkFlagRequired("claims")
	cmd.AddCommand(tokenCmd)

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore connects to the configured store and applies migrations.
func openStore(ctx context.Context, cfg *config.Config) (domain.Database, error) {
	var (
		db  domain.Database
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err = postgres.New(ctx, cfg.DatabaseURL)
	default:
		db, err = sqlite.New(cfg.DatabasePath)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied", "driver", cfg.StoreDriver)
	return db, nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStore(); err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	return db.Close()
}

func runToken(cmd *cobra.Command, raw string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateSecret(); err != nil {
		return err
	}

	var claims domain.Claims
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		return fmt.Errorf("parse claims: %w", err)
	}
	if claims == nil {
		return errors.New("claims must be a JSON object")
	}

	token, err := service.NewTokenService(cfg.AccessTokenSecret, cfg.AccessTokenTTL).Issue(claims)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var roleCache service.RoleCache
	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		roleCache = cache.NewRoleCache(client, cfg.RoleCacheTTL)
		slog.Info("role cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RoleCacheTTL)
	}

	router := handler.NewRouter(handler.Options{
		Tokens:             service.NewTokenService(cfg.AccessTokenSecret, cfg.AccessTokenTTL),
		Authority:          service.NewRoleAuthority(db.Users(), roleCache),
		Directory:          service.NewUserDirectory(db.Users(), roleCache),
		Ledger:             service.NewResultLedger(db.Results()),
		Metrics:            observability.NewMetrics(),
		GuardMutations:     cfg.GuardMutations,
		TokenRateLimit:     cfg.TokenRateLimit,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.RequestTimeout,
		Production:         cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info(handler.Banner, "addr", srv.Addr, "guard_mutations", cfg.GuardMutations)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
