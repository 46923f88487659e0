package domain

import "time"

type User struct {
	ID           UserID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Username     string    `gorm:"type:text;not null;uniqueIndex:ux_users_username" db:"username" json:"username"`
	PasswordHash string    `gorm:"type:text;not null" db:"password_hash" json:"-"`
	FullName     string    `gorm:"type:text" db:"full_name" json:"fullName,omitempty"`
	Description  string    `gorm:"type:text" db:"description" json:"description,omitempty"`
	Enabled      bool      `gorm:"not null" db:"enabled" json:"enabled"`
	CreatedAt    time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

type UserGroup struct {
	ID          GroupID   `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name        string    `gorm:"type:text;not null;uniqueIndex:ux_user_groups_name" db:"name" json:"name"`
	Description string    `gorm:"type:text" db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (UserGroup) TableName() string { return "user_groups" }

// UserGroupMember links a user to a group. Lower Priority sorts first when
// the resolver orders a user's policies.
type UserGroupMember struct {
	UserID    UserID    `gorm:"type:uuid;primaryKey;uniqueIndex:ux_user_group_members_pair,priority:1" db:"user_id"`
	GroupID   GroupID   `gorm:"type:uuid;primaryKey;uniqueIndex:ux_user_group_members_pair,priority:2;index" db:"group_id"`
	Priority  int       `gorm:"not null" db:"priority"`
	CreatedAt time.Time `gorm:"not null" db:"created_at"`
}

func (UserGroupMember) TableName() string { return "user_group_members" }
