package main

import (
	"os"

	"github.com/meridian-labs/docindex/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
