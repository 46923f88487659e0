package service

import (
	"context"

	"github.com/google/uuid"

	"tacacs-admin/internal/dto"
)

type RecordService interface {
	PutUser(ctx context.Context, username string, r dto.PutUserRequest) (*dto.UserView, error)
	GetUser(ctx context.Context, username string) (*dto.UserView, error)
	ListUsers(ctx context.Context) ([]dto.UserView, error)
	DeleteUser(ctx context.Context, username string) (*dto.DeleteUserResponse, error)

	PutUserGroup(ctx context.Context, name string, r dto.PutGroupRequest) (*dto.GroupView, error)
	GetUserGroup(ctx context.Context, name string) (*dto.GroupView, error)
	ListUserGroups(ctx context.Context) ([]dto.GroupView, error)
	DeleteUserGroup(ctx context.Context, name string) error
	PutMember(ctx context.Context, group, username string, r dto.PutMemberRequest) (*dto.MemberView, error)
	DeleteMember(ctx context.Context, group, username string) (*dto.DeleteResponse, error)
	ListMembers(ctx context.Context, group string) ([]dto.MemberView, error)

	PutHost(ctx context.Context, address string, r dto.PutHostRequest) (*dto.HostView, error)
	GetHost(ctx context.Context, address string) (*dto.HostView, error)
	ListHosts(ctx context.Context) ([]dto.HostView, error)
	DeleteHost(ctx context.Context, address string) error

	PutHostGroup(ctx context.Context, name string, r dto.PutGroupRequest) (*dto.GroupView, error)
	GetHostGroup(ctx context.Context, name string) (*dto.GroupView, error)
	ListHostGroups(ctx context.Context) ([]dto.GroupView, error)
	DeleteHostGroup(ctx context.Context, name string) error
	PutHostMember(ctx context.Context, group, address string) (*dto.HostView, error)
	DeleteHostMember(ctx context.Context, group, address string) (*dto.DeleteResponse, error)
	ListHostMembers(ctx context.Context, group string) ([]dto.HostView, error)

	PutPolicy(ctx context.Context, r dto.PutPolicyRequest) (*dto.PolicyView, error)
	GetPolicy(ctx context.Context, id uuid.UUID) (*dto.PolicyView, error)
	ListPolicies(ctx context.Context) ([]dto.PolicyView, error)
	DeletePolicy(ctx context.Context, id uuid.UUID) error

	AddRule(ctx context.Context, policyID uuid.UUID, r dto.AddRuleRequest) (*dto.RuleView, error)
	GetRule(ctx context.Context, id uuid.UUID) (*dto.RuleView, error)
	ListRules(ctx context.Context, policyID uuid.UUID) ([]dto.RuleView, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error

	AddAVPair(ctx context.Context, policyID uuid.UUID, r dto.AVPair) ([]dto.AVPair, error)
	ListAVPairs(ctx context.Context, policyID uuid.UUID) ([]dto.AVPair, error)
	DeleteAVPairs(ctx context.Context, policyID uuid.UUID, key string) (*dto.DeleteCountResponse, error)
}
