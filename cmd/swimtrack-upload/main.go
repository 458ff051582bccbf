package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/swimtrack/internal/upload"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", "", "SwimTrack server URL (e.g. https://swimtrack.tail1234.ts.net)")
	logDir := flag.String("path", "", "directory of YAML session logs")
	apiKey := flag.String("api-key", os.Getenv("SWIMTRACK_API_KEY"), "API key (defaults to $SWIMTRACK_API_KEY)")
	stateDir := flag.String("state", "", "state directory (defaults to ~/.swimtrack-upload)")
	dryRun := flag.Bool("dry-run", false, "parse and validate but don't send to server")
	batchSize := flag.Int("batch-size", 500, "sessions per request")
	forget := flag.String("forget", "", "forget an uploaded file (path relative to -path) and exit")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("swimtrack-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *logDir == "" && *forget == "" {
		fmt.Fprintf(os.Stderr, "Usage: swimtrack-upload -server <URL> -path <log dir> [-dry-run] [-batch-size N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Open state database
	dir := *stateDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(homeDir, ".swimtrack-upload")
	}
	state, err := upload.OpenStateDB(dir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *forget != "" {
		if err := state.Forget(*forget); err != nil {
			log.Error("forget failed", "file", *forget, "error", err)
			os.Exit(1)
		}
		log.Info("forgotten; the next run uploads it again", "file", *forget)
		return
	}

	info, err := os.Stat(*logDir)
	if err != nil || !info.IsDir() {
		log.Error("log directory not found", "path", *logDir)
		os.Exit(1)
	}

	if !*dryRun && (*serverURL == "" || *apiKey == "") {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode: logs are parsed and validated but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := upload.New(client, state, *logDir, *dryRun, *batchSize, log).Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:       %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:    %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:     %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:     %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions sent:     %d\n", stats.SessionsSent)
	fmt.Printf("  Sessions inserted: %d\n", stats.SessionsInserted)
	fmt.Println()
}
