package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gromit-app/gromit/config"
	"github.com/gromit-app/gromit/repositories/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewDependenciesWithFactory(t *testing.T) {
	t.Run("wires every component", func(t *testing.T) {
		ctx := context.Background()
		logger := zaptest.NewLogger(t)
		factory, mock := newMockFactory(t)
		mock.ExpectPing()

		deps, err := NewDependenciesWithFactory(ctx, testConfig(), factory, logger)
		require.NoError(t, err)

		// Infrastructure
		assert.NotNil(t, deps.DB)
		assert.NotNil(t, deps.RepoFactory)

		// Repositories
		assert.NotNil(t, deps.Users)
		assert.NotNil(t, deps.Commits)
		assert.NotNil(t, deps.TxManager)

		// Clients and services
		assert.NotNil(t, deps.Codec)
		assert.NotNil(t, deps.Apple)
		assert.NotNil(t, deps.GitHub)
		assert.NotNil(t, deps.Accounts)
		assert.NotNil(t, deps.Login)

		// Pipeline and handlers
		assert.NotNil(t, deps.ErrorTranslator)
		assert.NotNil(t, deps.Authenticator)
		assert.NotNil(t, deps.AccessPolicy)
		assert.NotNil(t, deps.UserAccountHandler)
		assert.NotNil(t, deps.LoginHandler)
		assert.NotNil(t, deps.HealthHandler)

		assert.True(t, deps.AccessPolicy.IsPublic("POST", "/users"))
		assert.False(t, deps.AccessPolicy.IsPublic("DELETE", "/users"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies schema when auto migrate is on", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Database.AutoMigrate = true
		factory, mock := newMockFactory(t)
		mock.ExpectPing()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_accounts").WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database unreachable", func(t *testing.T) {
		factory, mock := newMockFactory(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		deps, err := NewDependenciesWithFactory(context.Background(), testConfig(), factory, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.JWT.Secret = ""
		factory, mock := newMockFactory(t)
		mock.ExpectPing()

		deps, err := NewDependenciesWithFactory(context.Background(), cfg, factory, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize clients")
	})
}

func TestDependenciesClose(t *testing.T) {
	factory, mock := newMockFactory(t)
	mock.ExpectPing()

	deps, err := NewDependenciesWithFactory(context.Background(), testConfig(), factory, zaptest.NewLogger(t))
	require.NoError(t, err)

	mock.ExpectClose()
	assert.NoError(t, deps.Close(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Test helpers

func newMockFactory(t *testing.T) (*postgres.RepositoryFactory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zaptest.NewLogger(t)
	return postgres.NewRepositoryFactoryWithDB(postgres.Wrap(db, logger), logger), mock
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "gromit",
			Database: "gromit_test",
			SSLMode:  "disable",
		},
		JWT: config.JWTConfig{
			Secret:     "test-secret-that-is-long-enough-for-hs256",
			Issuer:     "gromit",
			AccessTTL:  time.Hour,
			RefreshTTL: 14 * 24 * time.Hour,
		},
		Apple: config.AppleConfig{
			ClientID: "shop.gromit.app",
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}
