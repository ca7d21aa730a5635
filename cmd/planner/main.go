// Package main provides the entry point for the planner CLI.
package main

import (
	"os"

	"github.com/agb-planner/planner/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
