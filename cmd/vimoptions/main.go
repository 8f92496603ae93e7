// Package main is the entry point for the vim-options Neovim extension.
package main

import (
	"fmt"
	"os"

	"github.com/dshills/vimoptions/cmd/vimoptions/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
