package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jizhang-jingling/jizhang/internal/config"
	"github.com/jizhang-jingling/jizhang/internal/logging"
	"github.com/jizhang-jingling/jizhang/internal/mcp"
	"github.com/jizhang-jingling/jizhang/internal/storage"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.App.LogLevel, cfg.IsDevelopment())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	backend, err := storage.Open(ctx, cfg)
	cancel()

	if err != nil {
		slog.Error("failed to open storage", "mode", cfg.Storage.Mode, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	tools := mcp.New(backend.Intake(cfg), transaction.NewService(backend.Transactions), backend.UserID)
	srv := tools.MCPServer("jizhang", version)

	slog.Info("starting mcp server", "transport", cfg.MCP.Transport, "storage", backend.Mode, "user_id", backend.UserID)

	switch cfg.MCP.Transport {
	case "sse":
		sse := server.NewSSEServer(srv, server.WithBaseURL(cfg.MCP.BaseURL))
		err = sse.Start(cfg.MCP.Addr)
	default:
		err = server.ServeStdio(srv)
	}

	if err != nil {
		slog.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
