package store

import (
	"context"
	"time"

	"tacacs-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HostStore struct{ db *gorm.DB }

func (s *Store) Hosts() *HostStore { return &HostStore{db: s.DB} }

// hostOrder sorts hosts without a hostname after named ones on every dialect.
const hostOrder = "CASE WHEN hostname IS NULL THEN 1 ELSE 0 END, hostname ASC, ip_address ASC"

func (h *HostStore) Upsert(ctx context.Context, host *domain.Host) error {
	now := time.Now().UTC()
	if host.ID == uuid.Nil {
		host.ID = uuid.New()
	}
	if host.CreatedAt.IsZero() {
		host.CreatedAt = now
	}
	host.UpdatedAt = now

	err := h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"hostname", "tacacs_key", "description", "updated_at"}),
	}).Create(host).Error
	if err != nil {
		return translate(err)
	}
	stored, err := h.GetByAddress(ctx, host.IPAddress)
	if err != nil {
		return err
	}
	*host = *stored
	return nil
}

func (h *HostStore) GetByAddress(ctx context.Context, address string) (*domain.Host, error) {
	var host domain.Host
	if err := h.db.WithContext(ctx).First(&host, "ip_address = ?", address).Error; err != nil {
		return nil, translate(err)
	}
	return &host, nil
}

func (h *HostStore) GetByHostname(ctx context.Context, hostname string) (*domain.Host, error) {
	var host domain.Host
	if err := h.db.WithContext(ctx).First(&host, "hostname = ?", hostname).Error; err != nil {
		return nil, translate(err)
	}
	return &host, nil
}

func (h *HostStore) List(ctx context.Context) ([]domain.Host, error) {
	var hosts []domain.Host
	if err := h.db.WithContext(ctx).Order(hostOrder).Find(&hosts).Error; err != nil {
		return nil, translate(err)
	}
	return hosts, nil
}

// ListInGroups returns the distinct hosts belonging to any of the groups.
func (h *HostStore) ListInGroups(ctx context.Context, groupIDs []uuid.UUID) ([]domain.Host, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var hosts []domain.Host
	err := h.db.WithContext(ctx).
		Where("id IN (?)", h.db.Model(&domain.HostGroupMember{}).Select("host_id").Where("group_id IN ?", groupIDs)).
		Order(hostOrder).
		Find(&hosts).Error
	if err != nil {
		return nil, translate(err)
	}
	return hosts, nil
}

func (s *Store) DeleteHost(ctx context.Context, hostID uuid.UUID) error {
	return s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)
		if err := db.Where("host_id = ?", hostID).Delete(&domain.HostGroupMember{}).Error; err != nil {
			return err
		}
		res := db.Where("id = ?", hostID).Delete(&domain.Host{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}
