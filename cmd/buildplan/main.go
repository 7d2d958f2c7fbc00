package main

import (
	"log/slog"
	"os"

	"github.com/vk/buildplan/cmd/buildplan/subcmd"
)

// main is the entrypoint for the buildplan tool.
func main() {
	// Minimal logger until a command configures the real one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	subcmd.Execute()
}
