package store

import (
	"context"
	"time"

	"tacacs-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommandRuleStore struct{ db *gorm.DB }

func (s *Store) CommandRules() *CommandRuleStore { return &CommandRuleStore{db: s.DB} }

// Append stores the rule at the next free position of its policy. Two
// concurrent appends to one policy race on the (policy_id, position) index;
// the loser gets ErrConflict.
func (c *CommandRuleStore) Append(ctx context.Context, rule *domain.CommandRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	return translate(c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos *int
		if err := tx.Model(&domain.CommandRule{}).
			Where("policy_id = ?", rule.PolicyID).
			Select("MAX(position)").
			Scan(&maxPos).Error; err != nil {
			return err
		}
		rule.Position = 1
		if maxPos != nil {
			rule.Position = *maxPos + 1
		}
		return tx.Create(rule).Error
	}))
}

func (c *CommandRuleStore) Get(ctx context.Context, id uuid.UUID) (*domain.CommandRule, error) {
	var rule domain.CommandRule
	if err := c.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rule, nil
}

// ListByPolicy returns the rules in evaluation order.
func (c *CommandRuleStore) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]domain.CommandRule, error) {
	var rules []domain.CommandRule
	err := c.db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("position ASC").
		Find(&rules).Error
	if err != nil {
		return nil, translate(err)
	}
	return rules, nil
}

func (c *CommandRuleStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.CommandRule{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}
