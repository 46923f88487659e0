package impl

import (
	"context"
	"errors"
	"strings"

	"tacacs-admin/internal/cmdmatch"
	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"
	"tacacs-admin/internal/netutil"
	"tacacs-admin/internal/observability/metrics"
	"tacacs-admin/internal/store"

	"github.com/google/uuid"
)

// AuthzServiceImpl answers which devices a user may reach and what a policy
// allows them to run. An explicit deny policy on any of the user's groups
// removes every host of the denied host group, whatever other groups allow.
type AuthzServiceImpl struct {
	Store authzReader
}

func NewAuthzServiceImpl(st *store.Store) *AuthzServiceImpl {
	return &AuthzServiceImpl{Store: authzAdapter{store: st}}
}

type authzReader interface {
	Users() mfaUserStore
	Hosts() hostReader
	HostMemberships() hostMembershipReader
	Policies() policyReader
	CommandRules() ruleReader
	AVPairs() avPairReader
}

type hostReader interface {
	GetByAddress(ctx context.Context, address string) (*domain.Host, error)
	GetByHostname(ctx context.Context, hostname string) (*domain.Host, error)
	ListInGroups(ctx context.Context, groupIDs []uuid.UUID) ([]domain.Host, error)
}

type hostMembershipReader interface {
	GroupIDsForHost(ctx context.Context, hostID uuid.UUID) ([]uuid.UUID, error)
}

type policyReader interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]store.UserPolicyRow, error)
}

type ruleReader interface {
	ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]domain.CommandRule, error)
}

type avPairReader interface {
	ListByPolicies(ctx context.Context, policyIDs []uuid.UUID) ([]domain.PolicyAVPair, error)
}

type authzAdapter struct {
	store *store.Store
}

func (a authzAdapter) Users() mfaUserStore { return a.store.Users() }
func (a authzAdapter) Hosts() hostReader { return a.store.Hosts() }
func (a authzAdapter) HostMemberships() hostMembershipReader { return a.store.HostMemberships() }
func (a authzAdapter) Policies() policyReader { return a.store.Policies() }
func (a authzAdapter) CommandRules() ruleReader { return a.store.CommandRules() }
func (a authzAdapter) AVPairs() avPairReader { return a.store.AVPairs() }

func (s *AuthzServiceImpl) ResolveHostsForUser(ctx context.Context, username string) (*dto.UserHostsResponse, error) {
	out, err := s.resolveHosts(ctx, username)
	metrics.ResolverLookupsTotal.WithLabelValues("hosts", lookupResult(err)).Inc()
	return out, err
}

func (s *AuthzServiceImpl) resolveHosts(ctx context.Context, username string) (*dto.UserHostsResponse, error) {
	usr, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	rows, err := s.Store.Policies().ListForUser(ctx, usr.ID)
	if err != nil {
		return nil, err
	}

	var allowIDs, denyIDs []uuid.UUID
	for _, r := range rows {
		if r.AllowAccess {
			allowIDs = append(allowIDs, r.HostGroupID)
		} else {
			denyIDs = append(denyIDs, r.HostGroupID)
		}
	}

	allowed, err := s.Store.Hosts().ListInGroups(ctx, allowIDs)
	if err != nil {
		return nil, err
	}
	denied, err := s.Store.Hosts().ListInGroups(ctx, denyIDs)
	if err != nil {
		return nil, err
	}
	deniedIDs := make(map[uuid.UUID]struct{}, len(denied))
	for _, h := range denied {
		deniedIDs[h.ID] = struct{}{}
	}

	out := &dto.UserHostsResponse{Username: usr.Username, Hosts: []dto.HostView{}}
	seen := make(map[uuid.UUID]struct{}, len(allowed))
	for _, h := range allowed {
		if _, ok := deniedIDs[h.ID]; ok {
			continue
		}
		if _, ok := seen[h.ID]; ok {
			continue
		}
		seen[h.ID] = struct{}{}
		out.Hosts = append(out.Hosts, hostView(h))
	}
	return out, nil
}

// ResolveAccess computes the effective access of username on one device,
// identified by address or hostname.
func (s *AuthzServiceImpl) ResolveAccess(ctx context.Context, username, host string) (*dto.AccessResponse, error) {
	out, err := s.resolveAccess(ctx, username, host)
	metrics.ResolverLookupsTotal.WithLabelValues("access", lookupResult(err)).Inc()
	return out, err
}

func (s *AuthzServiceImpl) resolveAccess(ctx context.Context, username, host string) (*dto.AccessResponse, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, invalid("host is required")
	}
	usr, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	h, err := s.lookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	groupIDs, err := s.Store.HostMemberships().GroupIDsForHost(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	inGroup := make(map[uuid.UUID]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		inGroup[id] = struct{}{}
	}

	rows, err := s.Store.Policies().ListForUser(ctx, usr.ID)
	if err != nil {
		return nil, err
	}

	out := &dto.AccessResponse{Username: usr.Username, Host: h.IPAddress, Policies: []dto.PolicyGrant{}}
	var grants []store.UserPolicyRow
	for _, r := range rows {
		if _, ok := inGroup[r.HostGroupID]; !ok {
			continue
		}
		if !r.AllowAccess {
			out.DeniedBy = appendUnique(out.DeniedBy, r.HostGroupName)
			continue
		}
		grants = append(grants, r)
	}
	if len(out.DeniedBy) > 0 || len(grants) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.ID)
	}
	pairs, err := s.Store.AVPairs().ListByPolicies(ctx, ids)
	if err != nil {
		return nil, err
	}
	byPolicy := make(map[uuid.UUID][]dto.AVPair)
	for _, p := range pairs {
		byPolicy[p.PolicyID] = append(byPolicy[p.PolicyID], dto.AVPair{Key: p.Key, Value: p.Value})
	}

	out.Allowed = true
	for _, g := range grants {
		if g.PrivLevel > out.PrivLevel {
			out.PrivLevel = g.PrivLevel
		}
		out.Policies = append(out.Policies, dto.PolicyGrant{
			PolicyID:  g.ID.String(),
			UserGroup: g.UserGroupName,
			HostGroup: g.HostGroupName,
			PrivLevel: g.PrivLevel,
			Priority:  g.MemberPriority,
			AVPairs:   byPolicy[g.ID],
		})
	}
	return out, nil
}

func (s *AuthzServiceImpl) lookupHost(ctx context.Context, host string) (*domain.Host, error) {
	if addr, ok := netutil.NormalizeHostAddress(host); ok {
		h, err := s.Store.Hosts().GetByAddress(ctx, addr)
		if err == nil || !errors.Is(err, store.ErrRecordNotFound) {
			return h, err
		}
	}
	h, err := s.Store.Hosts().GetByHostname(ctx, host)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrHostNotFound)
	}
	return h, nil
}

// EvaluateCommand returns the action of the first rule, in position order,
// whose pattern matches command. NO_MATCH is returned as is; callers decide
// the default.
func (s *AuthzServiceImpl) EvaluateCommand(ctx context.Context, policyID uuid.UUID, command string) (*dto.EvaluateCommandResponse, error) {
	out, err := s.evaluate(ctx, policyID, command)
	metrics.ResolverLookupsTotal.WithLabelValues("evaluate", lookupResult(err)).Inc()
	return out, err
}

func (s *AuthzServiceImpl) evaluate(ctx context.Context, policyID uuid.UUID, command string) (*dto.EvaluateCommandResponse, error) {
	if strings.TrimSpace(command) == "" {
		return nil, invalid("command is required")
	}
	ok, err := s.Store.Policies().Exists(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPolicyNotFound
	}
	rules, err := s.Store.CommandRules().ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}

	out := &dto.EvaluateCommandResponse{PolicyID: policyID.String(), Command: command, Decision: dto.DecisionNoMatch}
	for _, r := range rules {
		if !cmdmatch.Match(r.Pattern, command) {
			continue
		}
		out.Decision = dto.DecisionPermit
		if r.Action == domain.ActionDeny {
			out.Decision = dto.DecisionDeny
		}
		out.RuleID = r.ID.String()
		out.Position = r.Position
		out.Pattern = r.Pattern
		break
	}
	return out, nil
}

func lookupResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_request"
	default:
		return "error"
	}
}

func hostView(h domain.Host) dto.HostView {
	return dto.HostView{
		ID:          h.ID.String(),
		Address:     h.IPAddress,
		Hostname:    h.Hostname,
		Description: h.Description,
		HasKey:      h.TacacsKey != "",
	}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
