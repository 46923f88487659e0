package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"tacacs-admin/internal/app"
	"tacacs-admin/internal/config"
	"tacacs-admin/internal/observability/logging"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app.App, args []string) (any, error)
	// offline commands only see a.Config; no database is opened.
	offline bool
}

// commands is keyed by "<noun> <verb>"; migrate and export stand alone.
var commands = map[string]command{}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	name, args := splitCommand(os.Args[1:])
	cmd, ok := commands[name]
	if name != "migrate" && !ok {
		usage()
	}

	cfg, err := config.Load()
	slog.SetDefault(logging.NewLogger(logging.Config{
		ServiceName: "tacacsctl",
		Environment: cfg.Environment,
		Level:       getenv("TACACSCTL_LOG_LEVEL", "warn"),
		Output:      os.Stderr,
	}))
	if err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if name == "migrate" {
		cfg.AutoMigrate = true
	}
	a := &app.App{Config: cfg}
	if !cmd.offline {
		if a, err = app.Open(ctx, cfg); err != nil {
			fail(err)
		}
		defer func() { _ = a.Close() }()
	}

	if name == "migrate" {
		if err := printJSON(map[string]any{"migrated": true}); err != nil {
			fail(err)
		}
		return
	}

	out, err := cmd.run(ctx, a, args)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fail(err)
	}
	if out != nil {
		if err := printJSON(out); err != nil {
			fail(err)
		}
	}
}

func splitCommand(argv []string) (string, []string) {
	if _, ok := commands[argv[0]]; ok || argv[0] == "migrate" {
		return argv[0], argv[1:]
	}
	if len(argv) >= 2 {
		return argv[0] + " " + argv[1], argv[2:]
	}
	return argv[0], nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	names := make([]string, 0, len(commands)+1)
	for n := range commands {
		names = append(names, n)
	}
	names = append(names, "migrate")
	sort.Strings(names)
	for _, n := range names {
		summary := "Create or update the database schema"
		if c, ok := commands[n]; ok {
			summary = c.summary
		}
		fmt.Fprintf(os.Stderr, "  %-22s %s\n", n, summary)
	}
	fmt.Fprintln(os.Stderr, "Configuration is read from the environment (DATABASE_URL, EXPORT_DIR, TOTP_*).")
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func required(fs *flag.FlagSet, names ...string) error {
	for _, n := range names {
		if strings.TrimSpace(fs.Lookup(n).Value.String()) == "" {
			return fmt.Errorf("%s: -%s is required", fs.Name(), n)
		}
	}
	return nil
}

func readSecretLine(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
