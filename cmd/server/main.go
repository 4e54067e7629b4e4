// Package main implements the headlines CLI: an MCP server exposing news
// headlines and sample data over HTTP or stdio.
package main

import (
	"context"
	"os"
)

// Version information, set at build time via -ldflags.
var (
	version     = "dev"
	buildCommit = "unknown"
	buildTime   = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
