// file: cmd/server/commands.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/catalog"
	"github.com/dkoosis/headlines/internal/config"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/telemetry"
)

// env carries the process streams into commands.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	Name        string
	Description string
	Help        string
	Run         func(ctx context.Context, e env, args []string) error
}

func registerCommands() map[string]command {
	cmds := []command{
		{
			Name:        "serve",
			Description: "Start the MCP server",
			Run:         serveCommand,
			Help: `Usage: headlines serve [options]

Options:
  -config string      Path to configuration file (default: built-in defaults)
  -transport string   "http" or "stdio" (overrides config file)
  -port int           HTTP port (overrides config file)
  -debug              Enable debug logging
`,
		},
		{
			Name:        "check",
			Description: "Validate configuration and list the tool catalog",
			Run:         checkCommand,
			Help:        "Usage: headlines check [-config path]",
		},
		{
			Name:        "version",
			Description: "Print the version information",
			Run:         versionCommand,
			Help:        "Usage: headlines version",
		},
	}

	m := make(map[string]command, len(cmds)+1)
	for _, c := range cmds {
		m[c.Name] = c
	}
	m["help"] = command{
		Name:        "help",
		Description: "Show help for a command",
		Help:        "Usage: headlines help [command]",
		Run: func(_ context.Context, e env, args []string) error {
			return helpCommand(m, e, args)
		},
	}
	return m
}

// run is main without os.Exit, returning the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	e := env{stdin: stdin, stdout: stdout, stderr: stderr}
	commands := registerCommands()

	if len(args) == 0 {
		_ = commands["help"].Run(ctx, e, nil)
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		_ = helpCommand(commands, env{stdout: stderr}, nil)
		return 1
	}

	if err := cmd.Run(ctx, e, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func helpCommand(commands map[string]command, e env, args []string) error {
	if len(args) > 0 {
		cmd, ok := commands[args[0]]
		if !ok {
			return errors.Newf("unknown command %q", args[0])
		}
		fmt.Fprintln(e.stdout, cmd.Help)
		return nil
	}

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(e.stdout, "Usage: headlines <command> [options]")
	fmt.Fprintln(e.stdout)
	fmt.Fprintln(e.stdout, "Commands:")
	for _, name := range names {
		fmt.Fprintf(e.stdout, "  %-10s %s\n", name, commands[name].Description)
	}
	return nil
}

// loadConfig reads path, or falls back to defaults plus environment.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return config.LoadFromFile(path)
}

func serveCommand(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	configPath := fs.String("config", "", "path to configuration file")
	transportName := fs.String("transport", "", `transport: "http" or "stdio"`)
	port := fs.Int("port", 0, "HTTP port (overrides config file)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if *transportName != "" {
		cfg.Server.Transport = strings.ToLower(*transportName)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	logging.SetupDefaultLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.GetLogger("server")
	logger.Info("Starting headlines server.",
		"version", version,
		"transport", cfg.Server.Transport,
		"site", cfg.News.SiteName,
		"debug", logging.IsDebugEnabled())

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, version, logging.GetLogger("telemetry"))
	if err != nil {
		return errors.Wrap(err, "failed to set up telemetry")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("Telemetry shutdown failed.", "error", err)
		}
	}()

	dispatcher, err := catalog.NewDispatcher(cfg, version, logging.GetLogger("mcp"))
	if err != nil {
		return errors.Wrap(err, "failed to create dispatcher")
	}

	return runServer(ctx, cfg, dispatcher, e, logger)
}

func checkCommand(_ context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return errors.Wrap(err, "configuration is invalid")
	}
	reg, err := catalog.New(cfg, nil)
	if err != nil {
		return errors.Wrap(err, "catalog is invalid")
	}

	source := *configPath
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(e.stdout, "Configuration: %s\n", source)
	fmt.Fprintf(e.stdout, "Server name:   %s\n", cfg.Server.Name)
	fmt.Fprintf(e.stdout, "Transport:     %s\n", cfg.Server.Transport)
	if cfg.Server.Transport == config.TransportHTTP {
		fmt.Fprintf(e.stdout, "Port:          %d\n", cfg.Server.Port)
	}
	fmt.Fprintf(e.stdout, "News source:   %s (%s)\n", cfg.News.SiteName, cfg.News.BaseURL)
	fmt.Fprintln(e.stdout, "Tools:")
	for _, t := range reg.ListTools() {
		fmt.Fprintf(e.stdout, "  %-16s %s\n", t.Name, t.Description)
	}
	fmt.Fprintln(e.stdout, "Resources:")
	for _, r := range reg.ListResources() {
		fmt.Fprintf(e.stdout, "  %-16s %s (%s)\n", r.URI, r.Name, r.MimeType)
	}
	fmt.Fprintln(e.stdout, "Configuration OK.")
	return nil
}

func versionCommand(_ context.Context, e env, _ []string) error {
	fmt.Fprintf(e.stdout, "headlines version %s\n", version)
	fmt.Fprintf(e.stdout, "Build: %s (%s)\n", buildCommit, buildTime)
	fmt.Fprintf(e.stdout, "Compiler: %s\n", runtime.Version())
	return nil
}
