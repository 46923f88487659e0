package main

import (
	"context"
	"flag"
	"time"

	"tacacs-admin/internal/app"
	"tacacs-admin/internal/dto"
)

func init() {
	commands["totp issue"] = command{summary: "Enrol a user (replaces any existing secret)", run: runTotpIssue}
	commands["totp verify"] = command{summary: "Verify a one-time code", run: runTotpVerify}
	commands["totp get"] = command{summary: "Show a user's TOTP state", run: runTotpGet}
	commands["totp list"] = command{summary: "List TOTP state for every user", run: runTotpList}
	commands["totp disable"] = command{summary: "Disable a user's TOTP profile", run: runTotpDisable}
	commands["totp delete"] = command{summary: "Delete a user's TOTP profile", run: runTotpDelete}
	commands["totp lock"] = command{summary: "Temporarily lock a user's TOTP profile", run: runTotpLock}
	commands["totp backup"] = command{summary: "Write every TOTP profile to an owner-only JSON file", run: runTotpBackup}
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func runTotpIssue(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("totp issue")
	user := fs.String("user", "", "username")
	var req dto.IssueTotpRequest
	fs.StringVar(&req.Issuer, "issuer", "", "issuer shown by authenticator apps (default from TOTP_ISSUER)")
	fs.IntVar(&req.Digits, "digits", 0, "code length")
	fs.IntVar(&req.Period, "period", 0, "time step in seconds")
	fs.StringVar(&req.Algorithm, "algorithm", "", "SHA1, SHA256 or SHA512")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "user"); err != nil {
		return nil, err
	}
	return a.MFA.Issue(ctx, *user, req)
}

func runTotpVerify(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("totp verify")
	user := fs.String("user", "", "username")
	var req dto.VerifyTotpRequest
	fs.StringVar(&req.Token, "token", "", "one-time code")
	window := fs.Int("window", 0, "accepted drift in steps (default from TOTP_VALID_WINDOW)")
	fs.IntVar(&req.Digits, "digits", 0, "expected code length")
	fs.IntVar(&req.Period, "period", 0, "expected time step")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "user", "token"); err != nil {
		return nil, err
	}
	if isSet(fs, "window") {
		req.ValidWindow = window
	}
	return a.MFA.Verify(ctx, *user, req)
}

func runTotpGet(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("totp get")
	user := fs.String("user", "", "username")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "user"); err != nil {
		return nil, err
	}
	return a.MFA.Get(ctx, *user)
}

func runTotpList(ctx context.Context, a *app.App, args []string) (any, error) {
	if err := newFlags("totp list").Parse(args); err != nil {
		return nil, err
	}
	return a.MFA.List(ctx)
}

func runTotpDisable(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("totp disable")
	user := fs.String("user", "", "username")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "user"); err != nil {
		return nil, err
	}
	return a.MFA.Disable(ctx, *user)
}

func runTotpDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("totp delete")
	user := fs.String("user", "", "username")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "user"); err != nil {
		return nil, err
	}
	return a.MFA.Delete(ctx, *user)
}

func runTotpLock(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("totp lock")
	user := fs.String("user", "", "username")
	var req dto.LockTotpRequest
	fs.StringVar(&req.Duration, "for", "", "lock duration, e.g. 15m")
	until := fs.String("until", "", "lock until an RFC 3339 time")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "user"); err != nil {
		return nil, err
	}
	if *until != "" {
		t, err := time.Parse(time.RFC3339, *until)
		if err != nil {
			return nil, err
		}
		req.Until = &t
	}
	return a.MFA.Lock(ctx, *user, req)
}

func runTotpBackup(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("totp backup")
	path := fs.String("out", "", "destination file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := required(fs, "out"); err != nil {
		return nil, err
	}
	return a.MFA.Backup(ctx, *path)
}
