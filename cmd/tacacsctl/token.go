package main

import (
	"context"
	"time"

	"tacacs-admin/internal/app"
	"tacacs-admin/internal/jwtsigner"
)

func init() {
	commands["token issue"] = command{summary: "Mint an admin bearer token from ADMIN_TOKEN_SECRET", run: runTokenIssue, offline: true}
}

type tokenOutput struct {
	Token     string     `json:"token"`
	Subject   string     `json:"subject"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func runTokenIssue(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("token issue")
	sub := fs.String("sub", "", "subject recorded in the token")
	ttl := fs.Duration("ttl", time.Hour, "lifetime; 0 for no expiry")
	if err := parseWith(fs, args, "sub"); err != nil {
		return nil, err
	}
	signer, err := jwtsigner.New(a.Config.AdminTokenSecret, a.Config.AdminTokenIssuer)
	if err != nil {
		return nil, err
	}
	tok, err := signer.Sign(*sub, *ttl)
	if err != nil {
		return nil, err
	}
	out := tokenOutput{Token: tok, Subject: *sub}
	if *ttl > 0 {
		exp := time.Now().Add(*ttl).UTC()
		out.ExpiresAt = &exp
	}
	return out, nil
}
