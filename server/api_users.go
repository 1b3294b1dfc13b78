package main

import "net/http"

func (a *api) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, a.store.Users())
}

func (a *api) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		ProfileSummary string `json:"profile_summary"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	u, err := a.store.CreateUser(r.Context(), req.Name, req.ProfileSummary, false)
	if err != nil {
		a.fail(w, "create user", err)
		return
	}
	writeJSON(w, 201, u)
}

func (a *api) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.store.UserByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "get user", err)
		return
	}
	writeJSON(w, 200, u)
}

// The label palette is fixed; clients attach labels to cards by copying
// entries from it.
func (a *api) handleListLabels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, labelPalette())
}
