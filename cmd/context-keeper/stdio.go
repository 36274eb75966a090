package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/context-keeper/internal/app"
	"github.com/rpggio/context-keeper/internal/config"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP tools over stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		cfg.Transport.Mode = "stdio"
		return runStdio(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}

func runStdio(ctx context.Context, cfg config.Config) error {
	logger, closeLog := newLogger(cfg)
	defer closeLog()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer func() {
		if err := a.Stop(context.Background()); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	if err := a.MCPServer().Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
		return err
	}
	return nil
}
