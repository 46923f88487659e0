package store

import (
	"context"
	"time"

	"tacacs-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserGroupStore struct{ db *gorm.DB }

func (s *Store) UserGroups() *UserGroupStore { return &UserGroupStore{db: s.DB} }

func (g *UserGroupStore) Upsert(ctx context.Context, grp *domain.UserGroup) error {
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
		DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
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

func (g *UserGroupStore) GetByName(ctx context.Context, name string) (*domain.UserGroup, error) {
	var grp domain.UserGroup
	if err := g.db.WithContext(ctx).First(&grp, "name = ?", name).Error; err != nil {
		return nil, translate(err)
	}
	return &grp, nil
}

func (g *UserGroupStore) List(ctx context.Context) ([]domain.UserGroup, error) {
	var groups []domain.UserGroup
	if err := g.db.WithContext(ctx).Order("name ASC").Find(&groups).Error; err != nil {
		return nil, translate(err)
	}
	return groups, nil
}

// MemberRow is a membership joined with the member's username.
type MemberRow struct {
	Username string
	Priority int
}

type MembershipStore struct{ db *gorm.DB }

func (s *Store) Memberships() *MembershipStore { return &MembershipStore{db: s.DB} }

// Put adds the user to the group or updates the priority of an existing
// membership.
func (m *MembershipStore) Put(ctx context.Context, userID, groupID uuid.UUID, priority int) error {
	row := domain.UserGroupMember{
		UserID:    userID,
		GroupID:   groupID,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	return translate(m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"priority"}),
	}).Create(&row).Error)
}

func (m *MembershipStore) Delete(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	res := m.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&domain.UserGroupMember{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (m *MembershipStore) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]MemberRow, error) {
	var rows []MemberRow
	err := m.db.WithContext(ctx).
		Table("user_group_members AS m").
		Select("u.username AS username, m.priority AS priority").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.group_id = ?", groupID).
		Order("m.priority ASC, u.username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// DeleteUserGroup removes the group, its memberships and every policy that
// references it (with their rules and AV-pairs).
func (s *Store) DeleteUserGroup(ctx context.Context, groupID uuid.UUID) error {
	return s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)
		if err := db.Where("group_id = ?", groupID).Delete(&domain.UserGroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.deletePolicies(ctx, db.Where("user_group_id = ?", groupID)); err != nil {
			return err
		}
		res := db.Where("id = ?", groupID).Delete(&domain.UserGroup{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}
