package main

import (
	"os"

	"github.com/wonny/fxpulse/cmd/fxpulse/commands"
)

// main is the entry point for the fxpulse CLI
// ⭐ single CLI entry point: go run ./cmd/fxpulse [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
