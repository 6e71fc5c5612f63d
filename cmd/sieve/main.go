package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/db"
	"github.com/hpungsan/sieve/internal/lock"
	"github.com/hpungsan/sieve/internal/mcp"
	"github.com/hpungsan/sieve/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands and whether each only reads.
var cliCommands = map[string]bool{
	"capture": false, "add": false, "replace": false, "edit": false, "delete": false,
	"process": false, "archive": false, "review": false, "move-to-review": false,
	"restore": false, "start": false, "done": false, "complete": false, "reschedule": false,
	"prioritize": false, "bulk": false, "tags": false, "import": false,
	"purge": false, "serve": false,

	"show": true, "get": true, "list": true, "view": true, "board": true,
	"calendar": true, "next": true, "search": true, "score": true,
	"classify": true, "summarize": true, "effort": true, "export": true,
	"stats": true, "help": true,
}

// commandArg returns the first non-flag argument, skipping a --format value.
func commandArg() string {
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--format" || a == "-o" {
			i++
			continue
		}
		if len(a) > 0 && a[0] == '-' {
			continue
		}
		return a
	}
	return ""
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	if _, ok := cliCommands[commandArg()]; ok {
		return true
	}
	return isHelpOrVersion()
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
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
       _
   ___(_) _____   _____
  / __| |/ _ \ \ / / _ \
  \__ \ |  __/\ V /  __/
  |___/_|\___| \_/ \___|

  Capture, triage and schedule work items

  Usage: sieve <command> [options]
         sieve --help

  MCP server mode requires piped input.`)
}

func main() {
	os.Exit(run())
}

func fail(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return 1
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return 0
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			return fail("%v", err)
		}
		return 0
	}

	cliMode := isCLIMode()

	// Unknown argument + terminal → show error (don't start MCP server)
	if !cliMode && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'sieve --help' for usage.\n")
		return 1
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fail("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, config.DirName)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return fail("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Readers share the database; anything that writes holds the lock.
	readOnly := cliMode && cliCommands[commandArg()]
	if !readOnly {
		lk, err := lock.Acquire(baseDir)
		if err != nil {
			return fail("%v", err)
		}
		defer func() { _ = lk.Release() }()
	}

	database, err := db.Init(baseDir)
	if err != nil {
		return fail("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	persister := db.NewPersister(database)
	st, err := store.Open(context.Background(), persister)
	if err != nil {
		return fail("failed to load items: %v", err)
	}

	svc, err := assist.FromConfig(cfg, logger)
	if err != nil {
		return fail("failed to configure assist: %v", err)
	}

	if cliMode {
		app := newCLIApp(&env{
			store:  st,
			cfg:    cfg,
			assist: svc,
			counts: persister,
			logger: logger,
			now:    time.Now,
		})
		if err := app.Run(os.Args); err != nil {
			return fail("%v", err)
		}
		return 0
	}

	// MCP server mode (default)
	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		logger.Warn("unknown tool in disabled_tools", "tool", name)
	}
	if err := mcp.Run(st, cfg, svc, Version); err != nil {
		return fail("%v", err)
	}
	return 0
}
