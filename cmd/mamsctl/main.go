// Package main is the entry point for the mamsctl operator CLI.
package main

import (
	"fmt"
	"os"

	"mams/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
