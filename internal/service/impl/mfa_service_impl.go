package impl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tacacs-admin/internal/atomicfile"
	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"
	"tacacs-admin/internal/observability/metrics"
	"tacacs-admin/internal/observability/middleware"
	"tacacs-admin/internal/otp"
	"tacacs-admin/internal/store"

	"github.com/google/uuid"
)

// MFAConfig holds the defaults applied when a request leaves a parameter
// unset, and the automatic lockout policy.
type MFAConfig struct {
	Issuer      string
	Digits      int
	Period      int
	Algorithm   string
	ValidWindow int
	// MaxFailures consecutive invalid codes lock the profile for Lockout.
	// Zero disables automatic lockout.
	MaxFailures int
	Lockout     time.Duration
}

func DefaultMFAConfig() MFAConfig {
	return MFAConfig{Issuer: "tacacs-plus", Digits: 6, Period: 30, Algorithm: "SHA1", ValidWindow: 1, Lockout: 5 * time.Minute}
}

type MFAServiceImpl struct {
	Store mfaStore
	cfg   MFAConfig
	now   func() time.Time
}

func NewMFAServiceImpl(st *store.Store, cfg MFAConfig) *MFAServiceImpl {
	return newMFAService(mfaStoreAdapter{store: st}, cfg, nil)
}

func newMFAService(st mfaStore, cfg MFAConfig, now func() time.Time) *MFAServiceImpl {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MFAServiceImpl{Store: st, cfg: cfg, now: now}
}

type mfaStore interface {
	WithTx(ctx context.Context, fn func(tx mfaTx) error) error
}

type mfaTx interface {
	Users() mfaUserStore
	Totp() totpStore
}

type mfaUserStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type totpStore interface {
	Upsert(ctx context.Context, p *domain.TotpProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.TotpProfile, error)
	Disable(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
	Delete(ctx context.Context, userID uuid.UUID) (bool, error)
	AdvanceStep(ctx context.Context, userID uuid.UUID, secret string, step int64, now time.Time) (bool, error)
	RecordFailure(ctx context.Context, userID uuid.UUID, maxFailures int, lockUntil, now time.Time) (bool, error)
	Lock(ctx context.Context, userID uuid.UUID, until, now time.Time) (bool, error)
	ListSummaries(ctx context.Context) ([]store.TotpSummaryRow, error)
	ListProfiles(ctx context.Context) ([]store.TotpBackupRow, error)
}

type mfaStoreAdapter struct {
	store *store.Store
}

func (g mfaStoreAdapter) WithTx(ctx context.Context, fn func(tx mfaTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(mfaTxAdapter{tx: tx})
	})
}

type mfaTxAdapter struct {
	tx *store.Store
}

func (g mfaTxAdapter) Users() mfaUserStore { return g.tx.Users() }

func (g mfaTxAdapter) Totp() totpStore { return g.tx.Totp() }

func (m *MFAServiceImpl) Issue(ctx context.Context, username string, r dto.IssueTotpRequest) (*dto.IssueTotpResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}

	issuer := firstNonEmpty(strings.TrimSpace(r.Issuer), m.cfg.Issuer)
	digits := firstNonZero(r.Digits, m.cfg.Digits)
	period := firstNonZero(r.Period, m.cfg.Period)
	algorithm := strings.ToUpper(firstNonEmpty(strings.TrimSpace(r.Algorithm), m.cfg.Algorithm))
	if err := validateTotpParams(issuer, digits, period, algorithm); err != nil {
		metrics.TotpIssuedTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var out dto.IssueTotpResponse
	err = m.Store.WithTx(ctx, func(tx mfaTx) error {
		usr, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return notFoundAs(err, domain.ErrUserNotFound)
		}
		if !usr.Enabled {
			return domain.ErrUserDisabled
		}

		key, err := otp.Generate(otp.GenerateOpts{
			Issuer:      issuer,
			AccountName: username,
			Digits:      digits,
			Period:      period,
			Algorithm:   algorithm,
		})
		if err != nil {
			return err
		}

		profile := &domain.TotpProfile{
			UserID:       usr.ID,
			SecretBase32: key.Secret,
			OtpURI:       key.URI,
			Issuer:       issuer,
			Label:        issuer + ":" + username,
			Digits:       digits,
			Period:       period,
			Algorithm:    algorithm,
		}
		if err := tx.Totp().Upsert(ctx, profile); err != nil {
			return err
		}

		out = dto.IssueTotpResponse{
			Username:        username,
			Secret:          key.Secret,
			ProvisioningURI: key.URI,
			Issuer:          profile.Issuer,
			Label:           profile.Label,
			Digits:          profile.Digits,
			Period:          profile.Period,
			Algorithm:       profile.Algorithm,
		}
		return nil
	})
	if err != nil {
		metrics.TotpIssuedTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.TotpIssuedTotal.WithLabelValues("ok").Inc()
	slog.Info("issued totp", "username", username, "issuer", issuer, "algorithm", algorithm,
		"request_id", middleware.RequestIDFromContext(ctx))
	return &out, nil
}

func (m *MFAServiceImpl) Verify(ctx context.Context, username string, r dto.VerifyTotpRequest) (*dto.VerifyTotpResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	window := m.cfg.ValidWindow
	if r.ValidWindow != nil {
		window = *r.ValidWindow
	}
	if window < 0 || window > otp.MaxWindow {
		return nil, invalid("valid window must be within 0..%d", otp.MaxWindow)
	}
	token := strings.TrimSpace(r.Token)
	now := m.now()

	out := dto.VerifyTotpResponse{Username: username}
	err = m.Store.WithTx(ctx, func(tx mfaTx) error {
		usr, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return notFoundAs(err, domain.ErrUserNotFound)
		}
		if !usr.Enabled {
			return domain.ErrUserDisabled
		}
		p, err := tx.Totp().GetByUserID(ctx, usr.ID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrTotpNotEnabled
			}
			return err
		}
		if !p.Enabled {
			return domain.ErrTotpNotEnabled
		}
		if r.Digits != 0 && r.Digits != p.Digits {
			return invalid("digits %d do not match the enrolled %d", r.Digits, p.Digits)
		}
		if r.Period != 0 && r.Period != p.Period {
			return invalid("period %d does not match the enrolled %d", r.Period, p.Period)
		}
		if p.LockedAt(now) {
			return domain.ErrLockedOut
		}

		step := otp.Step(now, p.Period)
		if p.LastUsedStep != nil && step <= *p.LastUsedStep {
			return domain.ErrReplayDetected
		}

		ok, err := otp.Match(p.SecretBase32, token, step, window, p.Digits, p.Algorithm)
		if err != nil {
			return err
		}
		if !ok {
			out.Reason = dto.ReasonInvalidToken
			if m.cfg.MaxFailures > 0 {
				locked, err := tx.Totp().RecordFailure(ctx, usr.ID, m.cfg.MaxFailures, now.Add(m.cfg.Lockout), now)
				if err != nil {
					return err
				}
				out.Locked = locked
			}
			return nil
		}

		advanced, err := tx.Totp().AdvanceStep(ctx, usr.ID, p.SecretBase32, step, now)
		if err != nil {
			return err
		}
		if !advanced {
			return domain.ErrReplayDetected
		}
		out.Verified = true
		return nil
	})

	result := verifyResult(&out, err)
	metrics.TotpVerificationsTotal.WithLabelValues(result).Inc()
	if err != nil {
		if result != "error" {
			slog.Info("totp verification rejected", "username", username, "result", result,
				"request_id", middleware.RequestIDFromContext(ctx))
		}
		return nil, err
	}
	if out.Locked {
		metrics.TotpLockoutsTotal.Inc()
		slog.Warn("totp locked after repeated failures", "username", username, "until", now.Add(m.cfg.Lockout),
			"request_id", middleware.RequestIDFromContext(ctx))
	}
	return &out, nil
}

func verifyResult(out *dto.VerifyTotpResponse, err error) string {
	switch {
	case err == nil && out.Verified:
		return "verified"
	case err == nil:
		return "invalid_token"
	case errors.Is(err, domain.ErrReplayDetected):
		return "replay"
	case errors.Is(err, domain.ErrLockedOut):
		return "locked_out"
	case errors.Is(err, domain.ErrTotpNotEnabled), errors.Is(err, domain.ErrUserDisabled):
		return "not_enabled"
	case errors.Is(err, domain.ErrNotFound):
		return "unknown_user"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_request"
	default:
		return "error"
	}
}

func (m *MFAServiceImpl) Disable(ctx context.Context, username string) (*dto.DisableTotpResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	out := dto.DisableTotpResponse{Username: username}
	err = m.Store.WithTx(ctx, func(tx mfaTx) error {
		usr, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return notFoundAs(err, domain.ErrUserNotFound)
		}
		out.Updated, err = tx.Totp().Disable(ctx, usr.ID, m.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MFAServiceImpl) Delete(ctx context.Context, username string) (*dto.DeleteTotpResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	out := dto.DeleteTotpResponse{Username: username}
	err = m.Store.WithTx(ctx, func(tx mfaTx) error {
		usr, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return notFoundAs(err, domain.ErrUserNotFound)
		}
		out.Deleted, err = tx.Totp().Delete(ctx, usr.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MFAServiceImpl) Get(ctx context.Context, username string) (*dto.TotpStatusResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	var out dto.TotpStatusResponse
	err = m.Store.WithTx(ctx, func(tx mfaTx) error {
		usr, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return notFoundAs(err, domain.ErrUserNotFound)
		}
		out = dto.TotpStatusResponse{Username: usr.Username, UserEnabled: usr.Enabled}

		p, err := tx.Totp().GetByUserID(ctx, usr.ID)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out.Totp = &dto.TotpProfileView{
			Issuer:         p.Issuer,
			Label:          p.Label,
			Digits:         p.Digits,
			Period:         p.Period,
			Algorithm:      p.Algorithm,
			Enabled:        p.Enabled,
			DisabledUntil:  p.DisabledUntil,
			LastUsedStep:   p.LastUsedStep,
			LastUsedAt:     p.LastUsedAt,
			FailedAttempts: p.FailedAttempts,
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MFAServiceImpl) Lock(ctx context.Context, username string, r dto.LockTotpRequest) (*dto.LockTotpResponse, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	now := m.now()
	var until time.Time
	switch {
	case r.Until != nil:
		until = r.Until.UTC()
	case r.Duration != "":
		d, err := time.ParseDuration(r.Duration)
		if err != nil || d <= 0 {
			return nil, invalid("duration must be a positive Go duration, got %q", r.Duration)
		}
		until = now.Add(d)
	default:
		return nil, invalid("either until or duration is required")
	}

	out := dto.LockTotpResponse{Username: username, DisabledUntil: until}
	err = m.Store.WithTx(ctx, func(tx mfaTx) error {
		usr, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return notFoundAs(err, domain.ErrUserNotFound)
		}
		out.Updated, err = tx.Totp().Lock(ctx, usr.ID, until, now)
		if err != nil {
			return err
		}
		if !out.Updated {
			return domain.ErrTotpNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("totp locked", "username", username, "until", until, "request_id", middleware.RequestIDFromContext(ctx))
	return &out, nil
}

func (m *MFAServiceImpl) List(ctx context.Context) ([]dto.TotpSummary, error) {
	var rows []store.TotpSummaryRow
	err := m.Store.WithTx(ctx, func(tx mfaTx) error {
		var err error
		rows, err = tx.Totp().ListSummaries(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.TotpSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.TotpSummary{
			Username:      r.Username,
			UserEnabled:   r.UserEnabled,
			TotpEnabled:   r.TotpEnabled,
			DisabledUntil: r.DisabledUntil,
			LastUsedAt:    r.LastUsedAt,
		})
	}
	return out, nil
}

// Backup writes every profile, secrets included, as JSON readable only by
// the owner.
func (m *MFAServiceImpl) Backup(ctx context.Context, path string) (*dto.TotpBackupResponse, error) {
	if strings.TrimSpace(path) == "" {
		return nil, invalid("backup path is required")
	}
	var rows []store.TotpBackupRow
	err := m.Store.WithTx(ctx, func(tx mfaTx) error {
		var err error
		rows, err = tx.Totp().ListProfiles(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]dto.TotpBackupEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, dto.TotpBackupEntry{
			Username:        r.Username,
			Secret:          r.SecretBase32,
			ProvisioningURI: r.OtpURI,
			Issuer:          r.Issuer,
			Label:           r.Label,
			Digits:          r.Digits,
			Period:          r.Period,
			Algorithm:       r.Algorithm,
			Enabled:         r.Enabled,
			DisabledUntil:   r.DisabledUntil,
			LastUsedStep:    r.LastUsedStep,
			LastUsedAt:      r.LastUsedAt,
		})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := atomicfile.Write(path, append(data, '\n'), 0o600); err != nil {
		return nil, err
	}
	slog.Info("wrote totp backup", "path", path, "profiles", len(entries))
	return &dto.TotpBackupResponse{Path: path, Profiles: len(entries)}, nil
}

func validateTotpParams(issuer string, digits, period int, algorithm string) error {
	if issuer == "" || strings.Contains(issuer, ":") {
		return invalid("issuer must be non-empty and must not contain ':'")
	}
	if digits < domain.MinTotpDigits || digits > domain.MaxTotpDigits {
		return invalid("digits must be within %d..%d", domain.MinTotpDigits, domain.MaxTotpDigits)
	}
	if period < domain.MinTotpPeriod || period > domain.MaxTotpPeriod {
		return invalid("period must be within %d..%d", domain.MinTotpPeriod, domain.MaxTotpPeriod)
	}
	if _, err := otp.ParseAlgorithm(algorithm); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

// normalizeUsername trims the name the same way for every TOTP operation so
// the profile enrolled for "alice" is found again from " alice".
func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", invalid("username is required")
	}
	return username, nil
}
