package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/embedding"
	"github.com/hpungsan/sift/internal/llm"
	"github.com/hpungsan/sift/internal/mcp"
	"github.com/hpungsan/sift/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"route": true, "ingest": true, "dedupe": true,
	"ask": true, "answer": true, "questions": true,
	"adjust": true, "thresholds": true, "feedback": true,
	"consolidate": true, "domains": true, "create-domain": true,
	"projects": true, "create-project": true, "learn": true,
	"items": true, "item-status": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ (_)/ _| |_
  / __|| | |_| __|
  \__ \| |  _| |_
  |___/|_|_|  \__|

  Adaptive item router and clarification queue

  Usage: sift <command> [options]
         sift --help

  MCP server mode requires piped input.`)
}

// buildRouter wires the embedding and classification backends from config.
func buildRouter(database *sql.DB, cfg *config.Config, log *zap.Logger) *ops.Router {
	embedder := embedding.NewOllamaEngine(
		cfg.OllamaEndpoint,
		cfg.EmbedModel,
		time.Duration(cfg.EmbedTimeoutSecs)*time.Second,
	)

	var classifier llm.Client
	switch cfg.ClassifierProvider {
	case config.ProviderAnthropic:
		classifier = llm.NewAnthropicClient(cfg.ResolveAnthropicKey(), cfg.ClassifierModel)
	case config.ProviderOllama:
		classifier = llm.NewOllamaClient(
			cfg.OllamaEndpoint,
			cfg.ClassifierModel,
			time.Duration(cfg.ClassifyTimeoutSecs)*time.Second,
		)
	default:
		log.Warn("unknown classifier provider, semantic classification disabled",
			zap.String("provider", cfg.ClassifierProvider))
	}

	return ops.NewRouter(database, cfg, embedder, classifier, log)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".sift")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	if err := ops.SeedThresholds(database); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to seed thresholds: %v\n", err)
		os.Exit(1)
	}
	if err := ops.EnsureDefaultDomains(database); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to seed domains: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout carries command output and, in server
	// mode, the MCP protocol stream.
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	router := buildRouter(database, cfg, logger)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(database, cfg, router)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'sift --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(database, cfg, router, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
