package dto

// Machine-readable reasons carried by error responses.
const (
	ReasonReplayDetected   = "replay_detected"
	ReasonLockedOut        = "locked_out"
	ReasonUserDisabled     = "user_disabled"
	ReasonTotpNotEnabled   = "totp_not_enabled"
	ReasonNotFound         = "not_found"
	ReasonValidation       = "invalid_request"
	ReasonConflict         = "conflict"
	ReasonStoreUnavailable = "store_unavailable"
	ReasonUnauthorized     = "unauthorized"
	ReasonInternal         = "internal"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}
