package http

import (
	"net/http"

	"tacacs-admin/internal/dto"
)

func (h *handler) putUser(w http.ResponseWriter, r *http.Request) {
	var req dto.PutUserRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, "put_user", err)
		return
	}
	res, err := h.Records.PutUser(r.Context(), pathParam(r, "username"), req)
	if err != nil {
		writeError(w, r, "put_user", err)
		return
	}
	logOK(r, "user stored", "username", res.Username)
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.GetUser(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, "get_user", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, "list_users", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.DeleteUser(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, "delete_user", err)
		return
	}
	logOK(r, "user deleted", "username", res.Username, "deleted", res.Deleted)
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) putUserGroup(w http.ResponseWriter, r *http.Request) {
	var req dto.PutGroupRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, "put_user_group", err)
		return
	}
	res, err := h.Records.PutUserGroup(r.Context(), pathParam(r, "name"), req)
	if err != nil {
		writeError(w, r, "put_user_group", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) getUserGroup(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.GetUserGroup(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, "get_user_group", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listUserGroups(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.ListUserGroups(r.Context())
	if err != nil {
		writeError(w, r, "list_user_groups", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteUserGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.Records.DeleteUserGroup(r.Context(), pathParam(r, "name")); err != nil {
		writeError(w, r, "delete_user_group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) putMember(w http.ResponseWriter, r *http.Request) {
	var req dto.PutMemberRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, "put_member", err)
		return
	}
	res, err := h.Records.PutMember(r.Context(), pathParam(r, "name"), pathParam(r, "username"), req)
	if err != nil {
		writeError(w, r, "put_member", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.DeleteMember(r.Context(), pathParam(r, "name"), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, "delete_member", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listMembers(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.ListMembers(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, "list_members", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) putHost(w http.ResponseWriter, r *http.Request) {
	var req dto.PutHostRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, "put_host", err)
		return
	}
	res, err := h.Records.PutHost(r.Context(), pathParam(r, "address"), req)
	if err != nil {
		writeError(w, r, "put_host", err)
		return
	}
	logOK(r, "host stored", "address", res.Address)
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) getHost(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.GetHost(r.Context(), pathParam(r, "address"))
	if err != nil {
		writeError(w, r, "get_host", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listHosts(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.ListHosts(r.Context())
	if err != nil {
		writeError(w, r, "list_hosts", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteHost(w http.ResponseWriter, r *http.Request) {
	if err := h.Records.DeleteHost(r.Context(), pathParam(r, "address")); err != nil {
		writeError(w, r, "delete_host", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) putHostGroup(w http.ResponseWriter, r *http.Request) {
	var req dto.PutGroupRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, "put_host_group", err)
		return
	}
	res, err := h.Records.PutHostGroup(r.Context(), pathParam(r, "name"), req)
	if err != nil {
		writeError(w, r, "put_host_group", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) getHostGroup(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.GetHostGroup(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, "get_host_group", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listHostGroups(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.ListHostGroups(r.Context())
	if err != nil {
		writeError(w, r, "list_host_groups", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteHostGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.Records.DeleteHostGroup(r.Context(), pathParam(r, "name")); err != nil {
		writeError(w, r, "delete_host_group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) putHostMember(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.PutHostMember(r.Context(), pathParam(r, "name"), pathParam(r, "address"))
	if err != nil {
		writeError(w, r, "put_host_member", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteHostMember(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.DeleteHostMember(r.Context(), pathParam(r, "name"), pathParam(r, "address"))
	if err != nil {
		writeError(w, r, "delete_host_member", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listHostMembers(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.ListHostMembers(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, "list_host_members", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) putPolicy(w http.ResponseWriter, r *http.Request) {
	var req dto.PutPolicyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, "put_policy", err)
		return
	}
	res, err := h.Records.PutPolicy(r.Context(), req)
	if err != nil {
		writeError(w, r, "put_policy", err)
		return
	}
	logOK(r, "policy stored", "policy_id", res.ID, "user_group", res.UserGroup, "host_group", res.HostGroup)
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) getPolicy(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "policyID")
	if err != nil {
		writeError(w, r, "get_policy", err)
		return
	}
	res, err := h.Records.GetPolicy(r.Context(), id)
	if err != nil {
		writeError(w, r, "get_policy", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listPolicies(w http.ResponseWriter, r *http.Request) {
	res, err := h.Records.ListPolicies(r.Context())
	if err != nil {
		writeError(w, r, "list_policies", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deletePolicy(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "policyID")
	if err != nil {
		writeError(w, r, "delete_policy", err)
		return
	}
	if err := h.Records.DeletePolicy(r.Context(), id); err != nil {
		writeError(w, r, "delete_policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) addRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "policyID")
	if err != nil {
		writeError(w, r, "add_rule", err)
		return
	}
	var req dto.AddRuleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, "add_rule", err)
		return
	}
	res, err := h.Records.AddRule(r.Context(), id, req)
	if err != nil {
		writeError(w, r, "add_rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) listRules(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "policyID")
	if err != nil {
		writeError(w, r, "list_rules", err)
		return
	}
	res, err := h.Records.ListRules(r.Context(), id)
	if err != nil {
		writeError(w, r, "list_rules", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) getRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ruleID")
	if err != nil {
		writeError(w, r, "get_rule", err)
		return
	}
	res, err := h.Records.GetRule(r.Context(), id)
	if err != nil {
		writeError(w, r, "get_rule", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ruleID")
	if err != nil {
		writeError(w, r, "delete_rule", err)
		return
	}
	if err := h.Records.DeleteRule(r.Context(), id); err != nil {
		writeError(w, r, "delete_rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) addAVPair(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "policyID")
	if err != nil {
		writeError(w, r, "add_avpair", err)
		return
	}
	var req dto.AVPair
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, "add_avpair", err)
		return
	}
	res, err := h.Records.AddAVPair(r.Context(), id, req)
	if err != nil {
		writeError(w, r, "add_avpair", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listAVPairs(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "policyID")
	if err != nil {
		writeError(w, r, "list_avpairs", err)
		return
	}
	res, err := h.Records.ListAVPairs(r.Context(), id)
	if err != nil {
		writeError(w, r, "list_avpairs", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// deleteAVPairs removes every pair of the policy, or only those with the
// ?key= given.
func (h *handler) deleteAVPairs(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "policyID")
	if err != nil {
		writeError(w, r, "delete_avpairs", err)
		return
	}
	res, err := h.Records.DeleteAVPairs(r.Context(), id, r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, r, "delete_avpairs", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
