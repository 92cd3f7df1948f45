package config

import (
	"flag"
	"os"
	"time"

	"github.com/aleksvolk/connectboard/internal/flagx"
)

// parseFlags populates selected client Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   server base URL (e.g., "http://localhost:8080")
//	-f string   path to the local cache database
//	-u string   settings owner user id
//	-w int      save debounce, milliseconds
//	-v int      verify debounce, milliseconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-f", "-u", "-w", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerBaseURL, "s", config.ServerBaseURL, "server base URL")
	fs.StringVar(&config.CachePath, "f", config.CachePath, "local cache database path")
	fs.StringVar(&config.UserID, "u", config.UserID, "settings owner user id")

	saveDebounce := fs.Int("w", int(config.SaveDebounce.Milliseconds()), "save debounce (in milliseconds)")
	verifyDebounce := fs.Int("v", int(config.VerifyDebounce.Milliseconds()), "verify debounce (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SaveDebounce = time.Duration(*saveDebounce) * time.Millisecond
	config.VerifyDebounce = time.Duration(*verifyDebounce) * time.Millisecond
}
