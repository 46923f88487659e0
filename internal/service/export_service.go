package service

import (
	"context"

	"tacacs-admin/internal/dto"
)

type ExportService interface {
	Export(ctx context.Context) (*dto.ExportResponse, error)
}
