// IGDB MCP Server - A Model Context Protocol server for the IGDB video game database
// Provides tools for searching games and reading game details
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	apierrors "github.com/olgasafonova/igdb-mcp-server/internal/errors"
	"github.com/olgasafonova/igdb-mcp-server/internal/igdb"
	"github.com/olgasafonova/igdb-mcp-server/tools"
	"github.com/olgasafonova/igdb-mcp-server/tracing"
	"github.com/spf13/pflag"
)

const (
	ServerName    = "igdb-mcp-server"
	ServerVersion = "1.0.0"
)

const serverInstructions = `IGDB MCP Server provides read-only access to the IGDB video game database.

Available tools:
- search_games: Search games by title or keywords (limit defaults to 10, max 50)
- get_game_details: Full record for one game by its numeric IGDB id

Typical flow: call search_games to find the id, then get_game_details for storyline, themes and similar games.

Configure via environment variables:
- IGDB_CLIENT_ID: Twitch application client id (required)
- IGDB_CLIENT_SECRET: Twitch application client secret (required)`

func main() {
	httpAddr := pflag.String("http", "", "serve streamable HTTP on this address (e.g. :8080) instead of stdio")
	pflag.Parse()

	// A missing .env file is fine; variables already in the environment win
	_ = godotenv.Load()

	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := newLogger(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, logger, *httpAddr)
	stop()

	if err != nil {
		if apierrors.IsConfiguration(err) {
			logger.Error("Refusing to start without required configuration", "error", err)
		} else {
			logger.Error("Server error", "error", err)
		}
		os.Exit(1)
	}
}

// run builds the client and serves MCP until ctx is done or the transport closes.
func run(ctx context.Context, logger *slog.Logger, httpAddr string) error {
	cfg, err := igdb.LoadConfig()
	if err != nil {
		return err
	}

	client, err := igdb.NewClient(cfg, igdb.WithLogger(logger))
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.ConfigFromEnv(ServerVersion))
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	server := newServer(client, logger)

	transport := "stdio"
	if httpAddr != "" {
		transport = "http"
	}
	logger.Info("Starting IGDB MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"api_url", cfg.APIURL,
		"transport", transport,
	)

	if httpAddr != "" {
		return serveHTTP(ctx, httpAddr, server, client, logger)
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}

// newServer creates the MCP server with every tool registered.
func newServer(client *igdb.Client, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: serverInstructions,
	})

	tools.NewHandlerRegistry(client, logger).RegisterAll(server)
	return server
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

// parseLevel maps LOG_LEVEL to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
