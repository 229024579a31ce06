// Package main is the entry point for the trackr CLI.
package main

import (
	"os"

	"github.com/randalmurphal/trackr/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
