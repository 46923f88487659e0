// Package app wires configuration, the record store and the services shared
// by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"tacacs-admin/internal/config"
	"tacacs-admin/internal/service/impl"
	"tacacs-admin/internal/store"
	"tacacs-admin/pkg/db"

	"golang.org/x/crypto/bcrypt"
)

type App struct {
	Config  config.Config
	Store   *store.Store
	MFA     *impl.MFAServiceImpl
	Authz   *impl.AuthzServiceImpl
	Export  *impl.ExportServiceImpl
	Records *impl.RecordServiceImpl
}

// Open connects to the database and builds the services. Migrations run when
// cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	st := store.New(gdb)
	if cfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &App{
		Config: cfg,
		Store:  st,
		MFA: impl.NewMFAServiceImpl(st, impl.MFAConfig{
			Issuer:      cfg.TOTP.Issuer,
			Digits:      cfg.TOTP.Digits,
			Period:      cfg.TOTP.Period,
			Algorithm:   cfg.TOTP.Algorithm,
			ValidWindow: cfg.TOTP.ValidWindow,
			MaxFailures: cfg.TOTP.MaxFailures,
			Lockout:     cfg.TOTP.Lockout,
		}),
		Authz:   impl.NewAuthzServiceImpl(st),
		Export:  impl.NewExportServiceImpl(st, cfg.ExportDir),
		Records: impl.NewRecordServiceImpl(st, impl.NewPasswordServiceBcrypt(bcrypt.DefaultCost)),
	}, nil
}

func (a *App) Close() error {
	sqlDB, err := a.Store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
