// Package main provides the cteshift command-line tool.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/leapstack-labs/cteshift/internal/cli"
)

func main() {
	// A missing .env file is fine; variables stay as the shell set them.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
