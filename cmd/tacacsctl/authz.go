package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"tacacs-admin/internal/app"
	"tacacs-admin/internal/tacconf"

	"github.com/google/uuid"
)

func init() {
	commands["user hosts"] = command{summary: "List the devices a user may log in to", run: runUserHosts}
	commands["user access"] = command{summary: "Show a user's effective access on one device", run: runUserAccess}
	commands["policy evaluate"] = command{summary: "Evaluate a command against a policy's rules", run: runPolicyEvaluate}
	commands["export"] = command{summary: "Write the tac_plus-ng users, hosts and host_groups files", run: runExport}
}

func runUserHosts(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("user hosts")
	user := fs.String("user", "", "username")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "user"); err != nil {
		return nil, err
	}
	return a.Authz.ResolveHostsForUser(ctx, *user)
}

func runUserAccess(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("user access")
	user := fs.String("user", "", "username")
	host := fs.String("host", "", "device address or hostname")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "user", "host"); err != nil {
		return nil, err
	}
	return a.Authz.ResolveAccess(ctx, *user, *host)
}

func runPolicyEvaluate(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("policy evaluate")
	id := fs.String("policy", "", "policy id")
	cmd := fs.String("command", "", "command line to evaluate")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "policy", "command"); err != nil {
		return nil, err
	}
	policyID, err := uuid.Parse(*id)
	if err != nil {
		return nil, fmt.Errorf("invalid -policy: %w", err)
	}
	return a.Authz.EvaluateCommand(ctx, policyID, *cmd)
}

func runExport(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("export")
	dir := fs.String("dir", a.Config.ExportDir, "output directory")
	verify := fs.Bool("verify", false, "re-parse the written files and compare record counts")
	quiet := fs.Bool("quiet", false, "omit file contents from the output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	a.Export.Dir = *dir

	res, err := a.Export.Export(ctx)
	if err != nil {
		return nil, err
	}
	if *verify {
		for _, f := range res.Files {
			if err := verifyFile(filepath.Join(res.Path, f.File), f.Records); err != nil {
				return nil, err
			}
		}
	}
	if *quiet {
		res.FileContents = nil
	}
	return res, nil
}

func verifyFile(path string, want int) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()

	stanzas, err := tacconf.Parse(fh)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(stanzas) != want {
		return fmt.Errorf("%s: parsed %d stanzas, exported %d", path, len(stanzas), want)
	}
	return nil
}
