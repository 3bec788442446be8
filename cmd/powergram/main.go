// Package main is the single-binary entrypoint for powergram.
package main

import "github.com/powergram/powergram/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
