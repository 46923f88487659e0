package domain

import "time"

type Host struct {
	ID          HostID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	IPAddress   string    `gorm:"column:ip_address;type:text;not null;uniqueIndex:ux_hosts_ip" db:"ip_address" json:"ipAddress"`
	Hostname    *string   `gorm:"type:text;uniqueIndex:ux_hosts_hostname" db:"hostname" json:"hostname,omitempty"`
	TacacsKey   string    `gorm:"type:text" db:"tacacs_key" json:"-"`
	Description string    `gorm:"type:text" db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Host) TableName() string { return "hosts" }

// EffectiveName is the hostname when one is set, else the address.
func (h Host) EffectiveName() string {
	if h.Hostname != nil && *h.Hostname != "" {
		return *h.Hostname
	}
	return h.IPAddress
}

type HostGroup struct {
	ID          GroupID   `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name        string    `gorm:"type:text;not null;uniqueIndex:ux_host_groups_name" db:"name" json:"name"`
	TacacsKey   string    `gorm:"type:text" db:"tacacs_key" json:"-"`
	Description string    `gorm:"type:text" db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (HostGroup) TableName() string { return "host_groups" }

type HostGroupMember struct {
	HostID    HostID    `gorm:"type:uuid;primaryKey;uniqueIndex:ux_host_group_members_pair,priority:1" db:"host_id"`
	GroupID   GroupID   `gorm:"type:uuid;primaryKey;uniqueIndex:ux_host_group_members_pair,priority:2;index" db:"group_id"`
	CreatedAt time.Time `gorm:"not null" db:"created_at"`
}

func (HostGroupMember) TableName() string { return "host_group_members" }
