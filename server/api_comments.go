package main

import "net/http"

func (a *api) handleCommentsByCard(w http.ResponseWriter, r *http.Request) {
	c, _, _, _, err := a.store.CardByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "comments by card", err)
		return
	}
	writeJSON(w, 200, c.Comments)
}

func (a *api) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		UserID string `json:"user_id"`
		Text   string `json:"text"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	cm, err := a.store.AddComment(r.Context(), id, req.UserID, req.Text)
	if err != nil {
		a.fail(w, "add comment", err)
		return
	}
	writeJSON(w, 201, cm)
	if _, _, b, _, err := a.store.CardByID(id); err == nil {
		a.bus.Publish(Event{Type: "comment.created", Entity: "comment", BoardID: b.ID, Payload: cm})
	}
}
