// Package main is the entry point for the craft-cost CLI.
package main

import (
	"os"

	"craft-cost/cmd/craftcost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
