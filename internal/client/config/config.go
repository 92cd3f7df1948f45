// Package config handles configuration for the control-panel client,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the connectboard CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the backend JSON API.
//   - CachePath: sqlite file holding the last-known settings record.
//   - UserID: logical settings owner; the demo deployment uses "default".
//   - SaveDebounce: quiet period after the last local edit before the
//     record is written back to the server.
//   - VerifyDebounce: quiet period after a credential edit before the
//     keys are verified against the payments API.
type Config struct {
	ServerBaseURL  string
	CachePath      string
	UserID         string
	SaveDebounce   time.Duration
	VerifyDebounce time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080"
	c.CachePath = "connectboard.db"
	c.UserID = "default"
	c.SaveDebounce = 500 * time.Millisecond
	c.VerifyDebounce = 1 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
