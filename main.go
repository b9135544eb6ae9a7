// Command dictea is an offline audio-to-text engine with optional speaker
// attribution: it transcribes a file or directory of files, optionally
// diarizes them, and can record a live capture session to feed the same
// pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/tphakala/dictea-go/cmd"
	"github.com/tphakala/dictea-go/internal/buildinfo"
	"github.com/tphakala/dictea-go/internal/conf"
)

// version and buildDate are set via -ldflags at build time.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	info := &buildinfo.Context{
		Version:   version,
		BuildDate: buildDate,
		SystemID:  systemID(),
	}

	root := cmd.RootCommand(settings, info)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func systemID() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
