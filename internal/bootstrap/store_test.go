package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/library/internal/config"
)

func Test_OpenStore_Bolt(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverBolt},
		Bolt:    config.BoltConfig{Path: filepath.Join(t.TempDir(), "nested", "library.db")},
	}

	store, err := OpenStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}

func Test_OpenStore_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}

	_, err := OpenStore(context.Background(), cfg, nil)
	assert.Error(t, err)
}
