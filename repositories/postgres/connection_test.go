package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{DB: sqlDB, logger: zap.NewNop()}, mock
}

func TestDB_HealthCheck(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectPing()
	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_HealthCheck_PingFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectPing().WillReturnError(errors.New("no route to host"))

	err := db.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database health check failed")
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_InitSchema_Fails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("permission denied"))

	err := db.InitSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize schema")
}

func TestRepositoryFactory_NewRepositories(t *testing.T) {
	db, mock := newMockDB(t)
	factory := newRepositoryFactory(db, zap.NewNop())

	repos := factory.NewRepositories()
	require.NotNil(t, repos.Users)
	assert.Same(t, db, factory.GetDB())

	mock.ExpectClose()
	assert.NoError(t, factory.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
