package main

import (
	"net/http"
	"time"
)

// redactTeam strips the passcode before a team leaves the server. Clients
// prove knowledge of it through the verify endpoint instead.
func redactTeam(t Team) Team {
	t.Passcode = ""
	return t
}

func redactTeams(teams []Team) []Team {
	out := make([]Team, len(teams))
	for i, t := range teams {
		out[i] = redactTeam(t)
	}
	return out
}

func (a *api) handleListTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, redactTeams(a.store.Teams()))
}

func (a *api) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Privacy   string `json:"privacy"`
		Passcode  string `json:"passcode"`
		CreatorID string `json:"creator_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Privacy == "" {
		req.Privacy = string(PrivacyPublic)
	}
	t, err := a.store.CreateTeam(r.Context(), req.Name, Privacy(req.Privacy), req.Passcode, req.CreatorID)
	if err != nil {
		a.fail(w, "create team", err)
		return
	}
	a.store.LogActivity(r.Context(), t.ID, req.CreatorID, "created the team")
	writeJSON(w, 201, redactTeam(t))
}

func (a *api) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := a.store.TeamByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "get team", err)
		return
	}
	writeJSON(w, 200, redactTeam(t))
}

func (a *api) handleRenameTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if err := a.store.RenameTeam(r.Context(), r.PathValue("id"), req.Name); err != nil {
		a.fail(w, "rename team", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteTeam(r.Context(), r.PathValue("id")); err != nil {
		a.fail(w, "delete team", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

// handleVerifyPasscode answers whether the supplied passcode opens the team.
// The comparison is plain equality; the answer is a boolean, never the code.
func (a *api) handleVerifyPasscode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passcode string `json:"passcode"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	ok, err := a.store.VerifyPasscode(r.PathValue("id"), req.Passcode)
	if err != nil {
		a.fail(w, "verify passcode", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": ok})
}

func (a *api) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := readJSON(w, r, &req); err != nil || req.UserID == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	role := Role(req.Role)
	if role == "" {
		role = RoleMember
	}
	teamID := r.PathValue("id")
	if err := a.store.AddMember(r.Context(), teamID, req.UserID, role); err != nil {
		a.fail(w, "add member", err)
		return
	}
	a.store.LogActivity(r.Context(), teamID, req.UserID, "joined the team")
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, userID := r.PathValue("id"), r.PathValue("uid")
	if err := a.store.RemoveMember(r.Context(), teamID, userID); err != nil {
		a.fail(w, "remove member", err)
		return
	}
	a.store.LogActivity(r.Context(), teamID, userID, "left the team")
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) handleChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if err := a.store.ChangeMemberRole(r.Context(), r.PathValue("id"), r.PathValue("uid"), Role(req.Role)); err != nil {
		a.fail(w, "change member role", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) handleTeamActivity(w http.ResponseWriter, r *http.Request) {
	t, err := a.store.TeamByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "team activity", err)
		return
	}
	writeJSON(w, 200, t.ActivityLog)
}

func (a *api) handleTeamChat(w http.ResponseWriter, r *http.Request) {
	t, err := a.store.TeamByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "team chat", err)
		return
	}
	writeJSON(w, 200, t.ChatLog)
}

func (a *api) handlePostChatMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Text   string `json:"text"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	msg, err := a.store.AppendChatMessage(r.Context(), r.PathValue("id"), req.UserID, req.Text)
	if err != nil {
		a.fail(w, "post chat message", err)
		return
	}
	writeJSON(w, 201, msg)
}

func (a *api) handleTeamMetrics(w http.ResponseWriter, r *http.Request) {
	t, err := a.store.TeamByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "team metrics", err)
		return
	}
	writeJSON(w, 200, computeTeamMetrics(t, a.store.Users(), time.Now()))
}

func (a *api) handleAnalyzeTeam(w http.ResponseWriter, r *http.Request) {
	t, err := a.store.TeamByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "analyze team", err)
		return
	}
	out, err := a.ai.AnalyzeTeam(r.Context(), t, a.store.Users())
	if err != nil {
		a.fail(w, "analyze team", err)
		return
	}
	writeJSON(w, 200, out)
}

func (a *api) handleTeamReport(w http.ResponseWriter, r *http.Request) {
	t, err := a.store.TeamByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "team report", err)
		return
	}
	report, err := a.ai.TeamReport(r.Context(), t, a.store.Users(), time.Now())
	if err != nil {
		a.fail(w, "team report", err)
		return
	}
	writeJSON(w, 200, map[string]any{"report": report})
}
