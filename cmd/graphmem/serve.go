package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacentio/trellis-memory/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge graph tools over MCP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("transport", "stdio", "Transport mode: stdio or http")
	serveCmd.Flags().String("port", "8081", "HTTP port (only used with --transport http)")
	serveCmd.Flags().Bool("ensure-tables", true, "Create missing tables at startup")
	for _, name := range []string{"transport", "port", "ensure-tables"} {
		_ = viper.BindPFlag(name, serveCmd.Flags().Lookup(name))
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := newService(ctx, logger)
	if err != nil {
		return err
	}
	if viper.GetBool("ensure-tables") {
		if err := svc.EnsureTables(ctx); err != nil {
			return fmt.Errorf("ensure tables: %w", err)
		}
	}

	srv := server.New(svc, logger)

	switch transport := viper.GetString("transport"); transport {
	case "stdio":
		logger.Info("graphmem MCP server starting", "transport", "stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	case "http":
		httpServer := &http.Server{
			Addr:              ":" + viper.GetString("port"),
			Handler:           server.Handler(srv, svc, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()

		logger.Info("graphmem MCP server listening", "transport", "http", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (use stdio or http)", transport)
	}
}
