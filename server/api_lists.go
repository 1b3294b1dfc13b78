package main

import "net/http"

func (a *api) handleCreateList(w http.ResponseWriter, r *http.Request) {
	boardID := r.PathValue("id")
	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	l, err := a.store.CreateList(r.Context(), boardID, req.Title)
	if err != nil {
		a.fail(w, "create list", err)
		return
	}
	writeJSON(w, 201, l)
	a.bus.Publish(Event{Type: "list.created", Entity: "list", BoardID: boardID, ListID: l.ID, Payload: l})
}

func (a *api) handleRenameList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	boardID := a.boardIDOfList(id)
	if err := a.store.RenameList(r.Context(), id, req.Title); err != nil {
		a.fail(w, "rename list", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "list.renamed", Entity: "list", BoardID: boardID, ListID: id, Payload: map[string]any{"title": req.Title}})
}

func (a *api) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	boardID := a.boardIDOfList(id)
	if err := a.store.DeleteList(r.Context(), id); err != nil {
		a.fail(w, "delete list", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "list.deleted", Entity: "list", BoardID: boardID, ListID: id})
}

// boardIDOfList resolves the owning board for event publication; an empty
// string simply targets no subscribers.
func (a *api) boardIDOfList(listID string) string {
	teams := a.store.Teams()
	if ti, bi, _, ok := findList(teams, listID); ok {
		return teams[ti].Boards[bi].ID
	}
	return ""
}
