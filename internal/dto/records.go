package dto

import "time"

// PutUserRequest creates or replaces a user. Password is hashed by the
// service; PasswordHash stores a pre-computed crypt hash verbatim. When both
// are empty an existing user keeps its hash.
type PutUserRequest struct {
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	FullName     string `json:"fullName,omitempty"`
	Description  string `json:"description,omitempty"`
	Enabled      *bool  `json:"enabled,omitempty"`
}

type UserView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"fullName,omitempty"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type DeleteUserResponse struct {
	Username string           `json:"username"`
	Deleted  map[string]int64 `json:"deleted"`
}

type PutGroupRequest struct {
	Description string `json:"description,omitempty"`
	// TacacsKey only applies to host groups.
	TacacsKey string `json:"tacacsKey,omitempty"`
}

type GroupView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	HasKey      bool      `json:"hasKey,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PutMemberRequest struct {
	// Priority defaults to 10; lower sorts first.
	Priority *int `json:"priority,omitempty"`
}

type MemberView struct {
	Username string `json:"username"`
	Priority int    `json:"priority"`
}

type PutHostRequest struct {
	Hostname    *string `json:"hostname,omitempty"`
	TacacsKey   string  `json:"tacacsKey,omitempty"`
	Description string  `json:"description,omitempty"`
}

type HostView struct {
	ID          string  `json:"id"`
	Address     string  `json:"address"`
	Hostname    *string `json:"hostname,omitempty"`
	Description string  `json:"description,omitempty"`
	HasKey      bool    `json:"hasKey,omitempty"`
}

type PutPolicyRequest struct {
	UserGroup   string `json:"userGroup"`
	HostGroup   string `json:"hostGroup"`
	PrivLevel   *int   `json:"privLevel,omitempty"`
	AllowAccess *bool  `json:"allowAccess,omitempty"`
}

type PolicyView struct {
	ID          string    `json:"id"`
	UserGroup   string    `json:"userGroup"`
	HostGroup   string    `json:"hostGroup"`
	PrivLevel   int       `json:"privLevel"`
	AllowAccess bool      `json:"allowAccess"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AddRuleRequest struct {
	Pattern string `json:"pattern"`
	Action  string `json:"action"`
}

type RuleView struct {
	ID       string `json:"id"`
	PolicyID string `json:"policyId"`
	Position int    `json:"position"`
	Pattern  string `json:"pattern"`
	Action   string `json:"action"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

type DeleteCountResponse struct {
	Deleted int64 `json:"deleted"`
}
