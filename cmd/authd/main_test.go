package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/directory-auth/config"
	"github.com/upb/directory-auth/models"
	"github.com/upb/directory-auth/repositories/postgres"
	"github.com/upb/directory-auth/services/secret"
	"go.uber.org/zap"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		obs     config.ObservabilityConfig
		wantErr bool
	}{
		{"default json logger", config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"}, false},
		{"development console logger", config.ObservabilityConfig{LogLevel: "debug", LogFormat: "console"}, false},
		{"defaults when not set", config.ObservabilityConfig{}, false},
		{"invalid log level", config.ObservabilityConfig{LogLevel: "invalid", LogFormat: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initLogger(tt.obs)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			defer logger.Sync()
		})
	}
}

func TestInitLogger_FromLoadedConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("AUTH_ACCESS_SECRET", strings.Repeat("a", 32))
	t.Setenv("AUTH_REFRESH_SECRET", strings.Repeat("r", 32))
	t.Setenv("DATABASE_URL", "postgres://app:pw@localhost:5432/people?sslmode=disable")

	cfg, err := config.New(context.Background())
	require.NoError(t, err)

	logger, err := initLogger(cfg.Observability)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestHashSecret(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, hashSecret(strings.NewReader("correct horse\n"), &out, secret.MinCost))

	digest := strings.TrimSpace(out.String())
	ok, err := secret.NewHasher(secret.MinCost).Verify("correct horse", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashSecret_NoTrailingNewline(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, hashSecret(strings.NewReader("s3cret"), &out, secret.MinCost))

	ok, err := secret.NewHasher(secret.MinCost).Verify("s3cret", strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashSecret_Rejects(t *testing.T) {
	var out bytes.Buffer

	assert.Error(t, hashSecret(strings.NewReader("\n"), &out, secret.MinCost))
	assert.Error(t, hashSecret(strings.NewReader("x\n"), &out, secret.MaxCost+1))
	assert.Empty(t, out.String())
}

func TestRootCommand(t *testing.T) {
	cmd := rootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "hash-secret", "add-user", "init-schema", "version"}, names)
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "authd version 0.1.0\n", out.String())
}

func TestHashSecretCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader("from-stdin\n"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"hash-secret", "--cost", "4"})

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "$2a$04$"))
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "ada", "", "", "ada@example.com", "", "", "", sqlmock.AnyArg(), int(models.RoleEditor), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	users := postgres.NewUserRepository(db, zap.NewNop())
	hasher := secret.NewHasher(secret.MinCost)

	require.NoError(t, createUser(context.Background(), users, hasher, strings.NewReader("analytical engine\n"), "ada", "ada@example.com", models.RoleEditor))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Rejects(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := postgres.NewUserRepository(db, zap.NewNop())
	hasher := secret.NewHasher(secret.MinCost)
	ctx := context.Background()

	assert.Error(t, createUser(ctx, users, hasher, strings.NewReader("x\n"), "", "ada@example.com", models.RoleUser))
	assert.Error(t, createUser(ctx, users, hasher, strings.NewReader("x\n"), "ada", "ada@example.com", models.Role(9)))
	assert.Error(t, createUser(ctx, users, hasher, strings.NewReader("\n"), "ada", "ada@example.com", models.RoleUser))
	assert.NoError(t, mock.ExpectationsWereMet())
}
