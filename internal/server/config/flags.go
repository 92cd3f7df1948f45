package config

import (
	"flag"
	"os"

	"github.com/aleksvolk/connectboard/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-b string   externally reachable base URL
//	-y string   default connected-account country (ISO-3166 alpha-2)
//	-e string   payments API base endpoint
//	-m          use in-memory repositories (no database)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-b", "-y", "-e", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BaseURL, "b", config.BaseURL, "external base URL for callback links")
	fs.StringVar(&config.DefaultCountry, "y", config.DefaultCountry, "default connected-account country")
	fs.StringVar(&config.PaymentsEndpoint, "e", config.PaymentsEndpoint, "payments API endpoint")
	fs.BoolVar(&config.InMemory, "m", config.InMemory, "run with in-memory repositories")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
