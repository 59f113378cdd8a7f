// Package main provides the authd binary: the directory authentication
// service and its operator commands.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/upb/directory-auth/app"
	"github.com/upb/directory-auth/config"
	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/repositories"
	"github.com/upb/directory-auth/repositories/postgres"
	"github.com/upb/directory-auth/routes"
	"github.com/upb/directory-auth/services/secret"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	Version = "0.1.0"
	appName = "authd"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Directory authentication service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd(), hashSecretCmd(), addUserCmd(), initSchemaCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func hashSecretCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-secret",
		Short: "Read a secret from stdin and print its bcrypt digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return hashSecret(cmd.InOrStdin(), cmd.OutOrStdout(), cost)
		},
	}

	cmd.Flags().IntVar(&cost, "cost", secret.DefaultCost, "bcrypt cost factor")
	return cmd
}

func addUserCmd() *cobra.Command {
	var (
		userName string
		email    string
		role     int
	)

	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Create a directory user, reading the secret from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return addUser(cmd.Context(), cmd.InOrStdin(), userName, email, models.Role(role))
		},
	}

	cmd.Flags().StringVar(&userName, "user-name", "", "unique user name")
	cmd.Flags().StringVar(&email, "email", "", "unique email address")
	cmd.Flags().IntVar(&role, "role", int(models.RoleUser), "role level (0 guest .. 5 super admin)")
	_ = cmd.MarkFlagRequired("user-name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func initSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create the users table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initSchema(cmd.Context())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.Observability)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", cfg.Server.TLS.Enabled),
			zap.String("environment", cfg.Environment))

		if cfg.Server.TLS.Enabled {
			errCh <- srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			_ = deps.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	return deps.Close(shutdownCtx)
}

// hashSecret reads one line from in and writes its digest to out
func hashSecret(in io.Reader, out io.Writer, cost int) error {
	if !secret.ValidCost(cost) {
		return fmt.Errorf("cost must be between %d and %d", secret.MinCost, secret.MaxCost)
	}

	plain, err := readSecret(in)
	if err != nil {
		return err
	}

	digest, err := secret.NewHasher(cost).Hash(plain)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, digest)
	return err
}

func readSecret(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	plain := strings.TrimRight(line, "\r\n")
	if plain == "" {
		return "", errors.New("secret must not be empty")
	}
	return plain, nil
}

func addUser(ctx context.Context, in io.Reader, userName, email string, role models.Role) error {
	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.Observability)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	factory, err := postgres.NewRepositoryFactory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer factory.Close()

	return createUser(ctx, factory.NewRepositories().Users, secret.NewHasher(cfg.Auth.HashCost), in, userName, email, role)
}

// createUser hashes the secret read from in and stores a new user
func createUser(ctx context.Context, users repositories.UserRepository, hasher *secret.Hasher, in io.Reader, userName, email string, role models.Role) error {
	if userName == "" || email == "" {
		return errors.New("user name and email are required")
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %d", int(role))
	}

	plain, err := readSecret(in)
	if err != nil {
		return err
	}
	digest, err := hasher.Hash(plain)
	if err != nil {
		return err
	}

	return users.Create(ctx, models.NewUser(userName, email, digest, role))
}

func initSchema(ctx context.Context) error {
	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.Observability)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		return err
	}
	logger.Info("schema initialized")
	return nil
}

// initLogger builds the process logger from the observability settings
func initLogger(obs config.ObservabilityConfig) (*zap.Logger, error) {
	level, format := obs.LogLevel, obs.LogFormat
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build(zap.Fields(zap.String("service", appName)))
}
