package service

import (
	"context"

	"github.com/google/uuid"

	"tacacs-admin/internal/dto"
)

type AuthzService interface {
	ResolveHostsForUser(ctx context.Context, username string) (*dto.UserHostsResponse, error)
	ResolveAccess(ctx context.Context, username, host string) (*dto.AccessResponse, error)
	EvaluateCommand(ctx context.Context, policyID uuid.UUID, command string) (*dto.EvaluateCommandResponse, error)
}
