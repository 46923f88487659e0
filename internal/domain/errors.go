package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrUserDisabled     = errors.New("user disabled")
	ErrTotpNotEnabled   = errors.New("totp not enabled")
	ErrLockedOut        = errors.New("totp temporarily disabled")
	ErrReplayDetected   = errors.New("totp replay detected")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrUserNotFound   = &kindError{msg: "user not found", kind: ErrNotFound}
	ErrGroupNotFound  = &kindError{msg: "group not found", kind: ErrNotFound}
	ErrHostNotFound   = &kindError{msg: "host not found", kind: ErrNotFound}
	ErrPolicyNotFound = &kindError{msg: "policy not found", kind: ErrNotFound}
	ErrRuleNotFound   = &kindError{msg: "command rule not found", kind: ErrNotFound}
	ErrTotpNotFound   = &kindError{msg: "totp profile not found", kind: ErrNotFound}
)

// kindError is a sentinel that also matches a broader class, so callers can
// test for either errors.Is(err, ErrUserNotFound) or errors.Is(err, ErrNotFound).
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
