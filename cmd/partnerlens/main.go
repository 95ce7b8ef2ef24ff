// Package main is the partnerlens CLI entry point.
package main

import (
	"os"

	"github.com/partnerlens/partnerlens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
