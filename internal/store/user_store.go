package store

import (
	"context"
	"time"

	"tacacs-admin/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

// Upsert inserts the user or replaces the mutable columns of the existing row
// with the same username. usr is refreshed from the stored row.
func (u *UserStore) Upsert(ctx context.Context, usr *domain.User) error {
	now := time.Now().UTC()
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	usr.UpdatedAt = now

	err := u.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "full_name", "description", "enabled", "updated_at"}),
	}).Create(usr).Error
	if err != nil {
		return translate(err)
	}
	stored, err := u.GetByUsername(ctx, usr.Username)
	if err != nil {
		return err
	}
	*usr = *stored
	return nil
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (u *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (u *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := u.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// DeleteUser removes the user together with its group memberships and TOTP
// profile, returning counts of what was removed.
func (s *Store) DeleteUser(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	deleted := map[string]int64{}

	err := s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)

		res := db.Where("user_id = ?", userID).Delete(&domain.UserGroupMember{})
		if res.Error != nil {
			return res.Error
		}
		deleted["memberships"] = res.RowsAffected

		res = db.Where("user_id = ?", userID).Delete(&domain.TotpProfile{})
		if res.Error != nil {
			return res.Error
		}
		deleted["totpProfiles"] = res.RowsAffected

		res = db.Where("id = ?", userID).Delete(&domain.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		deleted["users"] = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
