package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/config"
	"github.com/claude/swimtrack/internal/mcp"
	"github.com/claude/swimtrack/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (direct database mode)")
	url := flag.String("url", "", "SwimTrack server URL; uses the REST API instead of the database")
	mode := flag.String("mode", "", "best-window mode (sessions or days); defaults to the config or sessions")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("swimtrack-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	windowMode := analytics.ModeSessionCount

	if *url != "" {
		ds = mcp.NewHTTPClient(*url)
		log.Info("remote mode", "url", *url)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
		windowMode = cfg.Analytics.WindowMode()
		log.Info("database mode", "config", *configPath)
	}

	if *mode != "" {
		m, err := analytics.ParseWindowMode(*mode)
		if err != nil {
			log.Error("invalid -mode", "error", err)
			os.Exit(1)
		}
		windowMode = m
	}

	s := mcp.New(ds, Version, windowMode, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
