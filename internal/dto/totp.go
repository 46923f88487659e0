package dto

import "time"

type IssueTotpRequest struct {
	Issuer    string `json:"issuer,omitempty"`
	Digits    int    `json:"digits,omitempty"`
	Period    int    `json:"period,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
}

type IssueTotpResponse struct {
	Username        string `json:"username"`
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioningUri"`
	Issuer          string `json:"issuer"`
	Label           string `json:"label"`
	Digits          int    `json:"digits"`
	Period          int    `json:"period"`
	Algorithm       string `json:"algorithm"`
}

type VerifyTotpRequest struct {
	Token string `json:"token"`
	// ValidWindow falls back to the configured default when nil.
	ValidWindow *int `json:"validWindow,omitempty"`
	// Digits and Period, when set, must equal the stored profile.
	Digits int `json:"digits,omitempty"`
	Period int `json:"period,omitempty"`
}

const ReasonInvalidToken = "invalid_token"

type VerifyTotpResponse struct {
	Username string `json:"username"`
	Verified bool   `json:"verified"`
	Reason   string `json:"reason,omitempty"`
	Locked   bool   `json:"locked,omitempty"`
}

type DisableTotpResponse struct {
	Username string `json:"username"`
	Updated  bool   `json:"updated"`
}

type DeleteTotpResponse struct {
	Username string `json:"username"`
	Deleted  bool   `json:"deleted"`
}

// LockTotpRequest sets a temporary lockout either until an absolute time or
// for a duration such as "15m".
type LockTotpRequest struct {
	Until    *time.Time `json:"until,omitempty"`
	Duration string     `json:"duration,omitempty"`
}

type LockTotpResponse struct {
	Username      string    `json:"username"`
	Updated       bool      `json:"updated"`
	DisabledUntil time.Time `json:"disabledUntil"`
}

type TotpProfileView struct {
	Issuer         string     `json:"issuer"`
	Label          string     `json:"label"`
	Digits         int        `json:"digits"`
	Period         int        `json:"period"`
	Algorithm      string     `json:"algorithm"`
	Enabled        bool       `json:"enabled"`
	DisabledUntil  *time.Time `json:"disabledUntil,omitempty"`
	LastUsedStep   *int64     `json:"lastUsedStep,omitempty"`
	LastUsedAt     *time.Time `json:"lastUsedAt,omitempty"`
	FailedAttempts int        `json:"failedAttempts"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type TotpStatusResponse struct {
	Username    string           `json:"username"`
	UserEnabled bool             `json:"userEnabled"`
	Totp        *TotpProfileView `json:"totp"`
}

type TotpSummary struct {
	Username      string     `json:"username"`
	UserEnabled   bool       `json:"userEnabled"`
	TotpEnabled   *bool      `json:"totpEnabled"`
	DisabledUntil *time.Time `json:"disabledUntil,omitempty"`
	LastUsedAt    *time.Time `json:"lastUsedAt,omitempty"`
}

type TotpBackupEntry struct {
	Username        string     `json:"username"`
	Secret          string     `json:"secret"`
	ProvisioningURI string     `json:"provisioningUri"`
	Issuer          string     `json:"issuer"`
	Label           string     `json:"label"`
	Digits          int        `json:"digits"`
	Period          int        `json:"period"`
	Algorithm       string     `json:"algorithm"`
	Enabled         bool       `json:"enabled"`
	DisabledUntil   *time.Time `json:"disabledUntil,omitempty"`
	LastUsedStep    *int64     `json:"lastUsedStep,omitempty"`
	LastUsedAt      *time.Time `json:"lastUsedAt,omitempty"`
}

type TotpBackupResponse struct {
	Path     string `json:"path"`
	Profiles int    `json:"profiles"`
}
