package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/upb/directory-auth/config"
	"github.com/upb/directory-auth/handlers"
	"github.com/upb/directory-auth/internal/observability"
	"github.com/upb/directory-auth/middleware"
	"github.com/upb/directory-auth/repositories"
	"github.com/upb/directory-auth/repositories/postgres"
	"github.com/upb/directory-auth/services/auth"
	"github.com/upb/directory-auth/services/secret"
	"github.com/upb/directory-auth/services/users"
	"github.com/upb/directory-auth/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory, nil when repositories were supplied by the caller
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users repositories.UserRepository

	// Observability, Metrics is nil when disabled
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Auth
	Hasher     *secret.Hasher
	Codec      *token.Codec
	Verifier   *auth.Verifier
	Authorizer *auth.Authorizer
	Profiles   *users.Service

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies connects to PostgreSQL and wires up all application
// dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db := factory.GetDB()
	deps, err := Build(cfg, factory.NewRepositories(), logger, handlers.DependencyCheck{
		Name:  "database",
		Check: db.HealthCheck,
	})
	if err != nil {
		_ = factory.Close()
		return nil, err
	}

	deps.RepoFactory = factory
	deps.DB = db

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Build wires the services and handlers on top of already opened
// repositories. checks are reported by the readiness endpoint.
func Build(cfg *config.Config, repos *repositories.Repositories, logger *zap.Logger, checks ...handlers.DependencyCheck) (*Dependencies, error) {
	if repos == nil || repos.Users == nil {
		return nil, errors.New("user repository is required")
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Users:  repos.Users,
	}

	if err := deps.initMetrics(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	deps.initAuth(cfg)

	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.Authorizer, logger)
	deps.AuthHandler = handlers.NewAuthHandler(deps.Verifier, deps.Authorizer, cfg.Server.TLS.Enabled || cfg.IsProduction(), logger)
	deps.UserHandler = handlers.NewUserHandler(deps.Profiles, logger)
	deps.HealthHandler = handlers.NewHealthHandler(logger, checks...)

	return deps, nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) error {
	if !cfg.Observability.MetricsEnabled {
		d.Logger.Info("metrics disabled")
		return nil
	}

	d.Registry = prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(d.Registry)
	if err != nil {
		return err
	}
	d.Metrics = metrics
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	settings := auth.Settings{
		AccessKey:    []byte(cfg.Auth.AccessSecret),
		RefreshKey:   []byte(cfg.Auth.RefreshSecret),
		AccessTTL:    cfg.Auth.AccessTTL,
		RefreshTTL:   cfg.Auth.RefreshTTL,
		ElevatedRole: cfg.Auth.ElevatedRole,
	}

	// A typed nil *Metrics would not compare equal to a nil Recorder.
	var recorder auth.Recorder
	if d.Metrics != nil {
		recorder = d.Metrics
	}

	d.Hasher = secret.NewHasher(cfg.Auth.HashCost)
	d.Codec = token.NewCodec(token.WithIssuer(cfg.Auth.Issuer))
	d.Verifier = auth.NewVerifier(d.Users, d.Hasher, d.Codec, settings, recorder, d.Logger)
	d.Authorizer = auth.NewAuthorizer(d.Codec, settings, recorder, d.Logger)
	d.Profiles = users.NewService(d.Users, d.Authorizer, d.Logger)

	d.Logger.Info("auth initialized",
		zap.Int("hash_cost", cfg.Auth.HashCost),
		zap.Duration("access_ttl", cfg.Auth.AccessTTL),
		zap.Duration("refresh_ttl", cfg.Auth.RefreshTTL),
		zap.Stringer("elevated_role", cfg.Auth.ElevatedRole))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
