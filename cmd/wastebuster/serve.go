package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/wastebuster/wastebuster/internal/mcp"
	"github.com/wastebuster/wastebuster/internal/web"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.Load(ctx); err != nil {
		a.logger.Warn("some datasets are unavailable", "error", err)
	}
	a.startBackground(ctx)

	server := web.NewServer(a.service, a.logger)
	if err := server.ListenAndServe(ctx, a.cfg.ListenAddr); err != nil {
		a.logger.Error("server error", "error", err)
		return err
	}
	return nil
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.Load(ctx); err != nil {
		a.logger.Warn("some datasets are unavailable", "error", err)
	}
	a.startBackground(ctx)

	server := mcp.NewServer(a.service, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
