package store

import (
	"context"
	"time"

	"tacacs-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HostGroupStore struct{ db *gorm.DB }

func (s *Store) HostGroups() *HostGroupStore { return &HostGroupStore{db: s.DB} }

func (g *HostGroupStore) Upsert(ctx context.Context, grp *domain.HostGroup) error {
	now := time.Now().UTC()
	if grp.ID == uuid.Nil {
		grp.ID = uuid.New()
	}
	if grp.CreatedAt.IsZero() {
		grp.CreatedAt = now
	}
	grp.UpdatedAt = now

	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"tacacs_key", "description", "updated_at"}),
	}).Create(grp).Error
	if err != nil {
		return translate(err)
	}
	stored, err := g.GetByName(ctx, grp.Name)
	if err != nil {
		return err
	}
	*grp = *stored
	return nil
}

func (g *HostGroupStore) GetByName(ctx context.Context, name string) (*domain.HostGroup, error) {
	var grp domain.HostGroup
	if err := g.db.WithContext(ctx).First(&grp, "name = ?", name).Error; err != nil {
		return nil, translate(err)
	}
	return &grp, nil
}

func (g *HostGroupStore) List(ctx context.Context) ([]domain.HostGroup, error) {
	var groups []domain.HostGroup
	if err := g.db.WithContext(ctx).Order("name ASC").Find(&groups).Error; err != nil {
		return nil, translate(err)
	}
	return groups, nil
}

type HostMembershipStore struct{ db *gorm.DB }

func (s *Store) HostMemberships() *HostMembershipStore { return &HostMembershipStore{db: s.DB} }

func (m *HostMembershipStore) Put(ctx context.Context, hostID, groupID uuid.UUID) error {
	row := domain.HostGroupMember{HostID: hostID, GroupID: groupID, CreatedAt: time.Now().UTC()}
	return translate(m.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error)
}

func (m *HostMembershipStore) Delete(ctx context.Context, hostID, groupID uuid.UUID) (bool, error) {
	res := m.db.WithContext(ctx).
		Where("host_id = ? AND group_id = ?", hostID, groupID).
		Delete(&domain.HostGroupMember{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (m *HostMembershipStore) ListHosts(ctx context.Context, groupID uuid.UUID) ([]domain.Host, error) {
	var hosts []domain.Host
	err := m.db.WithContext(ctx).
		Where("id IN (?)", m.db.Model(&domain.HostGroupMember{}).Select("host_id").Where("group_id = ?", groupID)).
		Order(hostOrder).
		Find(&hosts).Error
	if err != nil {
		return nil, translate(err)
	}
	return hosts, nil
}

func (s *Store) DeleteHostGroup(ctx context.Context, groupID uuid.UUID) error {
	return s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)
		if err := db.Where("group_id = ?", groupID).Delete(&domain.HostGroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.deletePolicies(ctx, db.Where("host_group_id = ?", groupID)); err != nil {
			return err
		}
		res := db.Where("id = ?", groupID).Delete(&domain.HostGroup{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

func (m *HostMembershipStore) GroupIDsForHost(ctx context.Context, hostID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := m.db.WithContext(ctx).Model(&domain.HostGroupMember{}).
		Where("host_id = ?", hostID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}
