// Package main provides the entry point for the chartdash CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/chartdash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
