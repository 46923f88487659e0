package domain

import "time"

const (
	MinTotpDigits = 4
	MaxTotpDigits = 10
	MinTotpPeriod = 10
	MaxTotpPeriod = 300
)

// TotpProfile is the single TOTP credential of a user. LastUsedStep only
// ever moves forward while the profile lives; re-issuing resets it.
type TotpProfile struct {
	UserID         UserID     `gorm:"type:uuid;primaryKey" db:"user_id" json:"userId"`
	SecretBase32   string     `gorm:"column:secret_base32;type:text;not null" db:"secret_base32" json:"-"`
	OtpURI         string     `gorm:"column:otp_uri;type:text;not null" db:"otp_uri" json:"-"`
	Issuer         string     `gorm:"type:text;not null" db:"issuer" json:"issuer"`
	Label          string     `gorm:"type:text;not null" db:"label" json:"label"`
	Digits         int        `gorm:"not null" db:"digits" json:"digits"`
	Period         int        `gorm:"not null" db:"period" json:"period"`
	Algorithm      string     `gorm:"type:text;not null" db:"algorithm" json:"algorithm"`
	Enabled        bool       `gorm:"not null" db:"enabled" json:"enabled"`
	DisabledUntil  *time.Time `db:"disabled_until" json:"disabledUntil,omitempty"`
	LastUsedStep   *int64     `db:"last_used_step" json:"lastUsedStep,omitempty"`
	LastUsedAt     *time.Time `db:"last_used_at" json:"lastUsedAt,omitempty"`
	FailedAttempts int        `gorm:"not null" db:"failed_attempts" json:"failedAttempts"`
	CreatedAt      time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (TotpProfile) TableName() string { return "user_mfa_totp" }

// LockedAt reports whether a temporary lockout is in force at t.
func (p *TotpProfile) LockedAt(t time.Time) bool {
	return p.DisabledUntil != nil && t.Before(*p.DisabledUntil)
}

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserGroup{},
		&UserGroupMember{},
		&Host{},
		&HostGroup{},
		&HostGroupMember{},
		&AccessPolicy{},
		&CommandRule{},
		&PolicyAVPair{},
		&TotpProfile{},
	}
}
