package store

import (
	"context"
	"time"

	"tacacs-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PolicyStore struct{ db *gorm.DB }

func (s *Store) Policies() *PolicyStore { return &PolicyStore{db: s.DB} }

// PolicyRow is a policy joined with the names of the groups it links.
type PolicyRow struct {
	domain.AccessPolicy
	UserGroupName string `gorm:"column:user_group_name"`
	HostGroupName string `gorm:"column:host_group_name"`
}

// UserPolicyRow is a policy reachable from a user through one of the user's
// group memberships.
type UserPolicyRow struct {
	PolicyRow
	MemberPriority int `gorm:"column:member_priority"`
}

// Upsert creates the policy for the (user group, host group) pair or replaces
// its privilege level and allow flag.
func (p *PolicyStore) Upsert(ctx context.Context, pol *domain.AccessPolicy) error {
	now := time.Now().UTC()
	if pol.ID == uuid.Nil {
		pol.ID = uuid.New()
	}
	if pol.CreatedAt.IsZero() {
		pol.CreatedAt = now
	}
	pol.UpdatedAt = now

	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_group_id"}, {Name: "host_group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"priv_lvl", "allow_access", "updated_at"}),
	}).Create(pol).Error
	if err != nil {
		return translate(err)
	}
	var stored domain.AccessPolicy
	err = p.db.WithContext(ctx).
		First(&stored, "user_group_id = ? AND host_group_id = ?", pol.UserGroupID, pol.HostGroupID).Error
	if err != nil {
		return translate(err)
	}
	*pol = stored
	return nil
}

func (p *PolicyStore) Get(ctx context.Context, id uuid.UUID) (*PolicyRow, error) {
	var row PolicyRow
	err := p.joined(ctx).Where("p.id = ?", id).Take(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (p *PolicyStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	if err := p.db.WithContext(ctx).Model(&domain.AccessPolicy{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (p *PolicyStore) List(ctx context.Context) ([]PolicyRow, error) {
	var rows []PolicyRow
	if err := p.joined(ctx).Order("ug.name ASC, hg.name ASC").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// ListForUser returns every policy, allow or deny, attached to any group the
// user belongs to.
func (p *PolicyStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]UserPolicyRow, error) {
	var rows []UserPolicyRow
	err := p.joined(ctx).
		Select("p.*, ug.name AS user_group_name, hg.name AS host_group_name, m.priority AS member_priority").
		Joins("JOIN user_group_members m ON m.group_id = p.user_group_id").
		Where("m.user_id = ?", userID).
		Order("m.priority ASC, ug.name ASC, hg.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (p *PolicyStore) joined(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx).
		Table("access_policies AS p").
		Select("p.*, ug.name AS user_group_name, hg.name AS host_group_name").
		Joins("JOIN user_groups ug ON ug.id = p.user_group_id").
		Joins("JOIN host_groups hg ON hg.id = p.host_group_id")
}

func (s *Store) DeletePolicy(ctx context.Context, policyID uuid.UUID) error {
	return s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)
		var n int64
		if err := db.Model(&domain.AccessPolicy{}).Where("id = ?", policyID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrRecordNotFound
		}
		return tx.deletePolicies(ctx, db.Where("id = ?", policyID))
	})
}

// deletePolicies removes the policies selected by scope along with their
// command rules and AV-pairs. Callers run it inside a transaction.
func (s *Store) deletePolicies(ctx context.Context, scope *gorm.DB) error {
	var ids []uuid.UUID
	if err := scope.Model(&domain.AccessPolicy{}).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	db := s.DB.WithContext(ctx)
	if err := db.Where("policy_id IN ?", ids).Delete(&domain.CommandRule{}).Error; err != nil {
		return err
	}
	if err := db.Where("policy_id IN ?", ids).Delete(&domain.PolicyAVPair{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&domain.AccessPolicy{}).Error
}
