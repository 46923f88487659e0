package store

import (
	"context"
	"time"

	"tacacs-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TotpStore struct{ db *gorm.DB }

func (s *Store) Totp() *TotpStore { return &TotpStore{db: s.DB} }

// TotpSummaryRow is one user with the state of its TOTP profile, if any.
type TotpSummaryRow struct {
	Username      string     `gorm:"column:username"`
	UserEnabled   bool       `gorm:"column:user_enabled"`
	TotpEnabled   *bool      `gorm:"column:totp_enabled"`
	DisabledUntil *time.Time `gorm:"column:disabled_until"`
	LastUsedAt    *time.Time `gorm:"column:last_used_at"`
}

// TotpBackupRow is a full profile, secret included, keyed by username.
type TotpBackupRow struct {
	Username string `gorm:"column:username"`
	domain.TotpProfile
}

// Upsert stores a freshly issued profile. An existing profile for the user is
// replaced wholesale, which also clears lockout and replay state.
func (t *TotpStore) Upsert(ctx context.Context, p *domain.TotpProfile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Enabled = true
	p.DisabledUntil = nil
	p.LastUsedStep = nil
	p.LastUsedAt = nil
	p.FailedAttempts = 0

	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"secret_base32", "otp_uri", "issuer", "label", "digits", "period", "algorithm",
			"enabled", "disabled_until", "last_used_step", "last_used_at", "failed_attempts", "updated_at",
		}),
	}).Create(p).Error
	if err != nil {
		return translate(err)
	}
	stored, err := t.GetByUserID(ctx, p.UserID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

func (t *TotpStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.TotpProfile, error) {
	var p domain.TotpProfile
	if err := t.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (t *TotpStore) Disable(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	res := t.db.WithContext(ctx).Model(&domain.TotpProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"enabled": false, "updated_at": now})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (t *TotpStore) Delete(ctx context.Context, userID uuid.UUID) (bool, error) {
	res := t.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.TotpProfile{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AdvanceStep records a successful verification at step. It only succeeds
// while the stored step is older than step and the secret is the one the
// code was checked against, so of two concurrent verifications of the same
// code exactly one returns true.
func (t *TotpStore) AdvanceStep(ctx context.Context, userID uuid.UUID, secret string, step int64, now time.Time) (bool, error) {
	res := t.db.WithContext(ctx).Model(&domain.TotpProfile{}).
		Where("user_id = ? AND secret_base32 = ?", userID, secret).
		Where("last_used_step IS NULL OR last_used_step < ?", step).
		Updates(map[string]any{
			"last_used_step":  step,
			"last_used_at":    now,
			"failed_attempts": 0,
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// RecordFailure counts an invalid code. Once the count reaches maxFailures the
// profile is locked until lockUntil and the count starts over.
func (t *TotpStore) RecordFailure(ctx context.Context, userID uuid.UUID, maxFailures int, lockUntil, now time.Time) (bool, error) {
	locked := false
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.TotpProfile{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"failed_attempts": gorm.Expr("failed_attempts + 1"),
				"updated_at":      now,
			}).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.TotpProfile{}).
			Where("user_id = ? AND failed_attempts >= ?", userID, maxFailures).
			Updates(map[string]any{"disabled_until": lockUntil, "failed_attempts": 0})
		if res.Error != nil {
			return res.Error
		}
		locked = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, translate(err)
	}
	return locked, nil
}

func (t *TotpStore) Lock(ctx context.Context, userID uuid.UUID, until, now time.Time) (bool, error) {
	res := t.db.WithContext(ctx).Model(&domain.TotpProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"disabled_until": until, "updated_at": now})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (t *TotpStore) ListSummaries(ctx context.Context) ([]TotpSummaryRow, error) {
	var rows []TotpSummaryRow
	err := t.db.WithContext(ctx).
		Table("users AS u").
		Select("u.username AS username, u.enabled AS user_enabled, t.enabled AS totp_enabled, t.disabled_until AS disabled_until, t.last_used_at AS last_used_at").
		Joins("LEFT JOIN user_mfa_totp t ON t.user_id = u.id").
		Order("u.username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (t *TotpStore) ListProfiles(ctx context.Context) ([]TotpBackupRow, error) {
	var rows []TotpBackupRow
	err := t.db.WithContext(ctx).
		Table("user_mfa_totp AS t").
		Select("u.username AS username, t.*").
		Joins("JOIN users u ON u.id = t.user_id").
		Order("u.username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}
