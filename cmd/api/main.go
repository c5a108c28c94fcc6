// Package main is the entry point for the authflow API server and its
// command line client.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Version information is set during build time through linker flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Configuration may come from the real environment instead
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
