// Package main provides the entry point for meshkv-cli.
//
// meshkv-cli sends commands to a meshkv server. With arguments it runs
// one command; without, it starts an interactive session.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/meshkv/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
