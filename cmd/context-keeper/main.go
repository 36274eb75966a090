package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/context-keeper/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "context-keeper",
	Short: "Session-scoped code context for AI coding assistants",
	Long: `context-keeper tracks which files a coding session is working on, the
diffs recorded against them and linked discussions, and assembles that into
a programming context on request. It serves an HTTP API and MCP tools.

Without a subcommand it runs in the transport mode from configuration.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if cfg.Transport.Mode == "stdio" {
			return runStdio(cmd.Context(), cfg)
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.SetVersionTemplate("context-keeper version {{.Version}}\n")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Stdio mode logs to stderr to keep
// stdout clean for JSON-RPC; CONTEXT_KEEPER_LOG_PATH redirects to a file.
func newLogger(cfg config.Config) (*slog.Logger, func()) {
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	closer := func() {}
	if logPath := os.Getenv("CONTEXT_KEEPER_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			logWriter = fileWriter
			closer = func() { _ = file.Close() }
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closer
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "context-keeper version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
