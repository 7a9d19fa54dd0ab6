// Command macmcp is the entry point for the MacMCP accessibility-surface
// JSON-RPC server. It wires config, logging, the platform providers, the
// tool registry, and the line-framed stdio transport together and runs
// until its session is shut down or the process receives a termination
// signal.
//
// Grounded on goclaw's cobra-based `cmd/copilot` entry point (root.go's
// persistent flags, main.go's thin Execute-and-exit body) for the command
// surface, and on brennhill's runMCPMode (main.go) for the actual
// stdin-scan-loop invocation this wraps — generalized to run through
// internal/rpcserver.Server rather than inline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macmcp/macmcp/internal/config"
	"github.com/macmcp/macmcp/internal/logging"
	"github.com/macmcp/macmcp/internal/rpcserver"
	"github.com/macmcp/macmcp/internal/session"
	"github.com/macmcp/macmcp/internal/toolkit"
	"github.com/macmcp/macmcp/internal/tools"
)

// version is injected at build time via -ldflags, matching goclaw's
// cmd/copilot/main.go convention.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "macmcp: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "macmcp",
		Short: "macOS accessibility surface, exposed as an MCP JSON-RPC server over stdio",
		Version: version,
		RunE: runServer,
		Long: `macmcp exposes the macOS Accessibility API as a set of MCP tools
(explore_ui, interact_ui, keyboard, menu_navigation, window_management,
application_management, screenshot, clipboard_management) over a
line-framed JSON-RPC 2.0 transport on stdin/stdout.

It is meant to be launched by an MCP host, not run interactively — stdin
must be a pipe. Running it directly from a terminal exits with an error
instead of blocking on a read that will never complete.`,
	}

	cmd.Flags().String("config", "", "path to a YAML config file (optional; flags override it)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	cmd.Flags().String("log-file", "", "path to write logs to (default: stderr)")

	return cmd
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	logLevelFlag, _ := cmd.Flags().GetString("log-level")
	logFileFlag, _ := cmd.Flags().GetString("log-file")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if logFileFlag != "" {
		cfg.LogFile = logFileFlag
	}
	live := config.NewLive(cfg)

	logWriter, closeLog, err := openLogWriter(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer closeLog()
	log := logging.New(logWriter, cfg.LogLevel)

	// A terminal stdin means a human launched macmcp directly rather than
	// an MCP host piping requests in; there is nothing useful this process
	// can do but block forever on a read, so refuse instead, replacing the
	// raw os.Stdin.Stat() check with golang.org/x/term's idiomatic IsTerminal.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin is a terminal: macmcp must be launched by an MCP host with stdin piped, not run interactively")
	}

	providers, err := newProviders()
	if err != nil {
		return fmt.Errorf("initializing platform providers: %w", err)
	}

	svc := tools.NewServices(providers, live)
	wireScreenWindowLookup(providers, svc)

	registry := toolkit.NewRegistry()
	tools.Register(registry, svc)

	sess := session.New()
	dispatcher := rpcserver.NewDispatcher(registry, sess, svc, version)
	dispatcher.Logger = log
	emitter := rpcserver.NewEmitter(os.Stdout)
	server := rpcserver.NewServer(dispatcher, emitter, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.Watch(ctx, configPath, func(reloaded config.Config, werr error) {
		if werr != nil {
			log.Warn().Err(werr).Msg("config reload failed, keeping last-known-good config")
			return
		}
		live.Set(reloaded)
		log.SetLevel(reloaded.LogLevel)
		log.Lifecycle("config_reloaded", map[string]any{"path": configPath})
	}); err != nil {
		log.Warn().Err(err).Msg("config watcher failed to start; continuing without hot-reload")
	}

	return server.Run(ctx, os.Stdin)
}

// openLogWriter resolves where logs go: a --log-file path if given, else
// stderr (never stdout — internal/rpcserver.Emitter owns that stream
// exclusively).
func openLogWriter(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
