package domain

import "time"

const (
	MinPrivLevel = 0
	MaxPrivLevel = 15
)

// AccessPolicy grants (or explicitly denies) a user group access to a host
// group. There is at most one row per (user group, host group) pair.
type AccessPolicy struct {
	ID          PolicyID  `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserGroupID GroupID   `gorm:"type:uuid;not null;uniqueIndex:ux_access_policies_pair,priority:1" db:"user_group_id" json:"userGroupId"`
	HostGroupID GroupID   `gorm:"type:uuid;not null;uniqueIndex:ux_access_policies_pair,priority:2;index" db:"host_group_id" json:"hostGroupId"`
	PrivLevel   int       `gorm:"column:priv_lvl;not null" db:"priv_lvl" json:"privLevel"`
	AllowAccess bool      `gorm:"not null" db:"allow_access" json:"allowAccess"`
	CreatedAt   time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (AccessPolicy) TableName() string { return "access_policies" }

type RuleAction string

const (
	ActionPermit RuleAction = "PERMIT"
	ActionDeny   RuleAction = "DENY"
)

func (a RuleAction) Valid() bool { return a == ActionPermit || a == ActionDeny }

// CommandRule belongs to one policy. Position is assigned at creation and
// defines evaluation order.
type CommandRule struct {
	ID        RuleID     `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	PolicyID  PolicyID   `gorm:"type:uuid;not null;uniqueIndex:ux_command_rules_position,priority:1" db:"policy_id" json:"policyId"`
	Position  int        `gorm:"not null;uniqueIndex:ux_command_rules_position,priority:2" db:"position" json:"position"`
	Pattern   string     `gorm:"column:command_pattern;type:text;not null" db:"command_pattern" json:"pattern"`
	Action    RuleAction `gorm:"type:text;not null" db:"action" json:"action"`
	CreatedAt time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (CommandRule) TableName() string { return "command_rules" }

// PolicyAVPair is an attribute-value pair handed to the device for sessions
// authorized through the policy.
type PolicyAVPair struct {
	ID        RuleID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	PolicyID  PolicyID  `gorm:"type:uuid;not null;uniqueIndex:ux_policy_avpairs,priority:1" db:"policy_id" json:"policyId"`
	Key       string    `gorm:"column:av_key;type:text;not null;uniqueIndex:ux_policy_avpairs,priority:2" db:"av_key" json:"key"`
	Value     string    `gorm:"column:av_value;type:text;not null;uniqueIndex:ux_policy_avpairs,priority:3" db:"av_value" json:"value"`
	CreatedAt time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (PolicyAVPair) TableName() string { return "policy_avpairs" }
