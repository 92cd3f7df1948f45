package config

import (
	"encoding/json"
	"os"

	"github.com/aleksvolk/connectboard/internal/flagx"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, set fields are copied into the
// runtime Config struct.
type JsonConfig struct {
	HTTPAddr         string `json:"http_addr"`
	DatabaseDSN      string `json:"database_dsn"`
	BaseURL          string `json:"base_url"`
	DefaultCountry   string `json:"default_country"`
	PaymentsEndpoint string `json:"payments_endpoint"`
	InMemory         *bool  `json:"in_memory"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. Fields absent from the
// file keep their current (default) values. If the file cannot be read or
// contains invalid JSON, the function panics.
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

	if c.HTTPAddr != "" {
		config.HTTPAddr = c.HTTPAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.BaseURL != "" {
		config.BaseURL = c.BaseURL
	}
	if c.DefaultCountry != "" {
		config.DefaultCountry = c.DefaultCountry
	}
	if c.PaymentsEndpoint != "" {
		config.PaymentsEndpoint = c.PaymentsEndpoint
	}
	if c.InMemory != nil {
		config.InMemory = *c.InMemory
	}
}
