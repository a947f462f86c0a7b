package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"CITYPAINTS_APP_NAME":                 os.Getenv("CITYPAINTS_APP_NAME"),
		"CITYPAINTS_APP_ENV":                  os.Getenv("CITYPAINTS_APP_ENV"),
		"CITYPAINTS_APP_PORT":                 os.Getenv("CITYPAINTS_APP_PORT"),
		"CITYPAINTS_DATABASE_HOST":            os.Getenv("CITYPAINTS_DATABASE_HOST"),
		"CITYPAINTS_DATABASE_PORT":            os.Getenv("CITYPAINTS_DATABASE_PORT"),
		"CITYPAINTS_DATABASE_USER":            os.Getenv("CITYPAINTS_DATABASE_USER"),
		"CITYPAINTS_DATABASE_PASSWORD":        os.Getenv("CITYPAINTS_DATABASE_PASSWORD"),
		"CITYPAINTS_DATABASE_DBNAME":          os.Getenv("CITYPAINTS_DATABASE_DBNAME"),
		"CITYPAINTS_DATABASE_SSLMODE":         os.Getenv("CITYPAINTS_DATABASE_SSLMODE"),
		"CITYPAINTS_DATABASE_MAX_OPEN_CONNS":  os.Getenv("CITYPAINTS_DATABASE_MAX_OPEN_CONNS"),
		"CITYPAINTS_DATABASE_MAX_IDLE_CONNS":  os.Getenv("CITYPAINTS_DATABASE_MAX_IDLE_CONNS"),
		"CITYPAINTS_ERP_BASE_URL":             os.Getenv("CITYPAINTS_ERP_BASE_URL"),
		"CITYPAINTS_ERP_USERNAME":             os.Getenv("CITYPAINTS_ERP_USERNAME"),
		"CITYPAINTS_ERP_PASSWORD":             os.Getenv("CITYPAINTS_ERP_PASSWORD"),
		"CITYPAINTS_ERP_API_KEY":              os.Getenv("CITYPAINTS_ERP_API_KEY"),
		"CITYPAINTS_ERP_INSECURE_SKIP_VERIFY": os.Getenv("CITYPAINTS_ERP_INSECURE_SKIP_VERIFY"),
		"CITYPAINTS_SYNC_WORKERS":             os.Getenv("CITYPAINTS_SYNC_WORKERS"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erp-sync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "erpsync", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 4, cfg.Sync.Workers)
		assert.False(t, cfg.ERP.InsecureSkipVerify)
	})

	t.Run("loads values from environment variables with CITYPAINTS prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("CITYPAINTS_APP_NAME", "test-app")
		os.Setenv("CITYPAINTS_APP_ENV", "testing")
		os.Setenv("CITYPAINTS_APP_PORT", "9000")
		os.Setenv("CITYPAINTS_DATABASE_HOST", "testdb.local")
		os.Setenv("CITYPAINTS_DATABASE_PORT", "5433")
		os.Setenv("CITYPAINTS_ERP_BASE_URL", "https://erp.example.com/api")
		os.Setenv("CITYPAINTS_ERP_USERNAME", "apiuser")
		os.Setenv("CITYPAINTS_ERP_PASSWORD", "apipass")
		os.Setenv("CITYPAINTS_ERP_API_KEY", "key-123")
		os.Setenv("CITYPAINTS_SYNC_WORKERS", "8")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "https://erp.example.com/api", cfg.ERP.BaseURL)
		assert.Equal(t, "apiuser", cfg.ERP.Username)
		assert.Equal(t, "apipass", cfg.ERP.Password)
		assert.Equal(t, "key-123", cfg.ERP.APIKey)
		assert.Equal(t, 8, cfg.Sync.Workers)
		assert.True(t, cfg.ERP.Configured())
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("CITYPAINTS_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("CITYPAINTS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates negative sync workers", func(t *testing.T) {
		clearEnv()
		os.Setenv("CITYPAINTS_SYNC_WORKERS", "-2")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.workers")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"CITYPAINTS_APP_ENV":                  os.Getenv("CITYPAINTS_APP_ENV"),
		"CITYPAINTS_DATABASE_PASSWORD":        os.Getenv("CITYPAINTS_DATABASE_PASSWORD"),
		"CITYPAINTS_DATABASE_SSLMODE":         os.Getenv("CITYPAINTS_DATABASE_SSLMODE"),
		"CITYPAINTS_ERP_INSECURE_SKIP_VERIFY": os.Getenv("CITYPAINTS_ERP_INSECURE_SKIP_VERIFY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("CITYPAINTS_APP_ENV", "production")
		os.Setenv("CITYPAINTS_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CITYPAINTS_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CITYPAINTS_APP_ENV", "production")
		os.Setenv("CITYPAINTS_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CITYPAINTS_APP_ENV", "production")
		os.Setenv("CITYPAINTS_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CITYPAINTS_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects insecure_skip_verify in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CITYPAINTS_ERP_INSECURE_SKIP_VERIFY", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insecure_skip_verify")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestERPConfig_Configured(t *testing.T) {
	t.Run("complete credentials", func(t *testing.T) {
		cfg := ERPConfig{
			BaseURL:  "https://erp.example.com/api",
			Username: "u",
			Password: "p",
			APIKey:   "k",
		}
		assert.True(t, cfg.Configured())
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := ERPConfig{
			BaseURL:  "https://erp.example.com/api",
			Username: "u",
			Password: "p",
		}
		assert.False(t, cfg.Configured())
	})
}
