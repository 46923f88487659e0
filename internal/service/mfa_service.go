package service

import (
	"context"

	"tacacs-admin/internal/dto"
)

type MFAService interface {
	Issue(ctx context.Context, username string, r dto.IssueTotpRequest) (*dto.IssueTotpResponse, error)
	// Verify returns a negative result, not an error, for a wrong code.
	Verify(ctx context.Context, username string, r dto.VerifyTotpRequest) (*dto.VerifyTotpResponse, error)
	Disable(ctx context.Context, username string) (*dto.DisableTotpResponse, error)
	Delete(ctx context.Context, username string) (*dto.DeleteTotpResponse, error)
	Get(ctx context.Context, username string) (*dto.TotpStatusResponse, error)
	Lock(ctx context.Context, username string, r dto.LockTotpRequest) (*dto.LockTotpResponse, error)
	List(ctx context.Context) ([]dto.TotpSummary, error)
	Backup(ctx context.Context, path string) (*dto.TotpBackupResponse, error)
}
