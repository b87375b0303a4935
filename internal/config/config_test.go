package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "pw")
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_SSLMODE"} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_TTL", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "postgres://library:pw@localhost:5432/library?sslmode=disable", cfg.Database.URL)
}

func Test_Load_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "BOLT")
	t.Setenv("BOLTDB_PATH", "/tmp/lib.db")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("JWT_TTL", "90")
	t.Setenv("OVERDUE_SWEEP_SCHEDULE", "*/5 * * * *")
	t.Setenv("SEED_DEMO", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverBolt, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/lib.db", cfg.Bolt.Path)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 90*time.Second, cfg.JWT.TTL)
	assert.Equal(t, "*/5 * * * *", cfg.Sweeper.Schedule)
	assert.True(t, cfg.SeedDemo)
}

func Test_Validate(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.Storage.Driver = DriverBolt
	cfg.JWT.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())
}
