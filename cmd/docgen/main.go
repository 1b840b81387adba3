package main

import (
	"os"

	"github.com/goliatone/go-docgen/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
