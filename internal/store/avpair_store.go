package store

import (
	"context"
	"time"

	"tacacs-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AVPairStore struct{ db *gorm.DB }

func (s *Store) AVPairs() *AVPairStore { return &AVPairStore{db: s.DB} }

// Add is idempotent on (policy, key, value).
func (a *AVPairStore) Add(ctx context.Context, pair *domain.PolicyAVPair) error {
	if pair.ID == uuid.Nil {
		pair.ID = uuid.New()
	}
	if pair.CreatedAt.IsZero() {
		pair.CreatedAt = time.Now().UTC()
	}
	return translate(a.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(pair).Error)
}

func (a *AVPairStore) ListByPolicies(ctx context.Context, policyIDs []uuid.UUID) ([]domain.PolicyAVPair, error) {
	if len(policyIDs) == 0 {
		return nil, nil
	}
	var pairs []domain.PolicyAVPair
	err := a.db.WithContext(ctx).
		Where("policy_id IN ?", policyIDs).
		Order("av_key ASC, av_value ASC").
		Find(&pairs).Error
	if err != nil {
		return nil, translate(err)
	}
	return pairs, nil
}

// Delete removes the policy's pairs; a non-empty key limits it to that key.
func (a *AVPairStore) Delete(ctx context.Context, policyID uuid.UUID, key string) (int64, error) {
	q := a.db.WithContext(ctx).Where("policy_id = ?", policyID)
	if key != "" {
		q = q.Where("av_key = ?", key)
	}
	res := q.Delete(&domain.PolicyAVPair{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}
