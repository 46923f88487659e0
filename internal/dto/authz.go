package dto

type Decision string

const (
	DecisionPermit  Decision = "PERMIT"
	DecisionDeny    Decision = "DENY"
	DecisionNoMatch Decision = "NO_MATCH"
)

type AVPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type UserHostsResponse struct {
	Username string     `json:"username"`
	Hosts    []HostView `json:"hosts"`
}

type PolicyGrant struct {
	PolicyID  string   `json:"policyId"`
	UserGroup string   `json:"userGroup"`
	HostGroup string   `json:"hostGroup"`
	PrivLevel int      `json:"privLevel"`
	Priority  int      `json:"priority"`
	AVPairs   []AVPair `json:"avPairs,omitempty"`
}

type AccessResponse struct {
	Username  string        `json:"username"`
	Host      string        `json:"host"`
	Allowed   bool          `json:"allowed"`
	PrivLevel int           `json:"privLevel"`
	Policies  []PolicyGrant `json:"policies"`
	// DeniedBy lists host groups whose explicit deny removed access.
	DeniedBy []string `json:"deniedBy,omitempty"`
}

type EvaluateCommandRequest struct {
	Command string `json:"command"`
}

type EvaluateCommandResponse struct {
	PolicyID string   `json:"policyId"`
	Command  string   `json:"command"`
	Decision Decision `json:"decision"`
	RuleID   string   `json:"ruleId,omitempty"`
	Position int      `json:"position,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
}
