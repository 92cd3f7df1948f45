package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.ServerBaseURL, "http://localhost:8080")
	assert.Equal(t, c.CachePath, "connectboard.db")
	assert.Equal(t, c.UserID, "default")
	assert.Equal(t, c.SaveDebounce, 500*time.Millisecond)
	assert.Equal(t, c.VerifyDebounce, 1*time.Second)
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(map[string]any{
		"server_base_url": "http://demo.example.com",
		"cache_path":      "/tmp/cache.db",
		"user_id":         "operator",
		"save_debounce":   "750ms",
		"verify_debounce": "2s",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "http://demo.example.com", cfg.ServerBaseURL)
	assert.Equal(t, "/tmp/cache.db", cfg.CachePath)
	assert.Equal(t, "operator", cfg.UserID)
	assert.Equal(t, 750*time.Millisecond, cfg.SaveDebounce)
	assert.Equal(t, 2*time.Second, cfg.VerifyDebounce)
}

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-s", "http://other:9090", "-w", "250"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "http://other:9090", cfg.ServerBaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.SaveDebounce)
	// untouched flags keep defaults
	assert.Equal(t, 1*time.Second, cfg.VerifyDebounce)
	assert.Equal(t, "default", cfg.UserID)
}
