package config

import (
	"encoding/json"
	"os"

	"github.com/aleksvolk/connectboard/internal/flagx"
	"github.com/aleksvolk/connectboard/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for the debounce fields, which
// allows parsing both string values such as "500ms" and integer
// nanoseconds. After unmarshalling, set fields are copied into the runtime
// Config struct.
type JsonConfig struct {
	ServerBaseURL  string         `json:"server_base_url"`
	CachePath      string         `json:"cache_path"`
	UserID         string         `json:"user_id"`
	SaveDebounce   timex.Duration `json:"save_debounce"`
	VerifyDebounce timex.Duration `json:"verify_debounce"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.ServerBaseURL != "" {
		config.ServerBaseURL = c.ServerBaseURL
	}
	if c.CachePath != "" {
		config.CachePath = c.CachePath
	}
	if c.UserID != "" {
		config.UserID = c.UserID
	}
	if c.SaveDebounce.Duration != 0 {
		config.SaveDebounce = c.SaveDebounce.Duration
	}
	if c.VerifyDebounce.Duration != 0 {
		config.VerifyDebounce = c.VerifyDebounce.Duration
	}
}
