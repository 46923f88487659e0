package store

import (
	"context"

	"gorm.io/gorm"
)

// UserGroupRow is one (user, group) pair; GroupName is nil for users without
// any membership.
type UserGroupRow struct {
	Username     string  `gorm:"column:username"`
	PasswordHash string  `gorm:"column:password_hash"`
	GroupName    *string `gorm:"column:group_name"`
}

// HostGroupRow is one (host, host group) pair; GroupName is nil for hosts in
// no group.
type HostGroupRow struct {
	IPAddress string  `gorm:"column:ip_address"`
	Hostname  *string `gorm:"column:hostname"`
	GroupName *string `gorm:"column:group_name"`
}

type ExportStore struct{ db *gorm.DB }

func (s *Store) Export() *ExportStore { return &ExportStore{db: s.DB} }

func (e *ExportStore) UserGroupRows(ctx context.Context) ([]UserGroupRow, error) {
	var rows []UserGroupRow
	err := e.db.WithContext(ctx).
		Table("users AS u").
		Select("u.username AS username, u.password_hash AS password_hash, g.name AS group_name").
		Joins("LEFT JOIN user_group_members m ON m.user_id = u.id").
		Joins("LEFT JOIN user_groups g ON g.id = m.group_id").
		Order("u.username ASC, g.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (e *ExportStore) HostGroupRows(ctx context.Context) ([]HostGroupRow, error) {
	var rows []HostGroupRow
	err := e.db.WithContext(ctx).
		Table("hosts AS h").
		Select("h.ip_address AS ip_address, h.hostname AS hostname, g.name AS group_name").
		Joins("LEFT JOIN host_group_members m ON m.host_id = h.id").
		Joins("LEFT JOIN host_groups g ON g.id = m.group_id").
		Order("h.ip_address ASC, g.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}
