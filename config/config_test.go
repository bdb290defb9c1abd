package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 1000, cfg.InventorySize)
	assert.Equal(t, 2, cfg.MaintenanceDays)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout)
	assert.Equal(t, "reefer", cfg.RedisPrefix)

	routes, err := cfg.Routes()
	require.NoError(t, err)
	assert.NotEmpty(t, routes)
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("INVENTORY_SIZE=50\nSTART_DATE=2024-01-01\nCALL_TIMEOUT=5s\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("INVENTORY_SIZE")
		os.Unsetenv("START_DATE")
		os.Unsetenv("CALL_TIMEOUT")
	})

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.InventorySize)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)

	start, err := cfg.Start()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestValidate(t *testing.T) {
	t.Setenv("INVENTORY_SIZE", "0")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv("INVENTORY_SIZE", "10")
	t.Setenv("START_DATE", "yesterday")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrInvalid)
}
