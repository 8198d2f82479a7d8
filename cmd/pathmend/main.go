// Package main provides the entry point for the pathmend CLI.
package main

import (
	"os"

	"github.com/pathmend/pathmend/cmd/pathmend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
