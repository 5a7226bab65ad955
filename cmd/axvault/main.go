// Package main is the entry point for the Axion vault CLI.
package main

import (
	"os"

	"github.com/nihmadev/Axion/cmd/axvault/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
