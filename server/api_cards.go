package main

import "net/http"

func (a *api) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("id")
	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		DueDate     string   `json:"due_date"`
		LabelIDs    []string `json:"label_ids"`
	}
	if err := readJSON(w, r, &req); err != nil || req.Title == "" {
		if err != nil {
			a.log.Error("decode create card", "err", err)
		}
		writeError(w, 400, "invalid payload")
		return
	}
	card := Card{Title: req.Title, Description: req.Description, DueDate: req.DueDate}
	for _, id := range req.LabelIDs {
		if l, ok := seedLabels[id]; ok {
			card.Labels = append(card.Labels, l)
		}
	}
	c, err := a.store.CreateCard(r.Context(), listID, card)
	if err != nil {
		a.fail(w, "create card", err)
		return
	}
	writeJSON(w, 201, c)
	a.bus.Publish(Event{Type: "card.created", Entity: "card", BoardID: a.boardIDOfList(listID), ListID: listID, Payload: c})
}

func (a *api) handleGetCard(w http.ResponseWriter, r *http.Request) {
	c, _, _, _, err := a.store.CardByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "get card", err)
		return
	}
	writeJSON(w, 200, c)
}

// handleUpdateCard replaces the whole card record; the id comes from the
// path, not the body.
func (a *api) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var card Card
	if err := readJSON(w, r, &card); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	card.ID = id
	if err := a.store.ReplaceCard(r.Context(), card); err != nil {
		a.fail(w, "update card", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	if _, _, b, _, err := a.store.CardByID(id); err == nil {
		a.bus.Publish(Event{Type: "card.updated", Entity: "card", BoardID: b.ID, Payload: map[string]any{"id": id}})
	}
}

func (a *api) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, _, b, _, err := a.store.CardByID(id)
	if err != nil {
		a.fail(w, "delete card", err)
		return
	}
	if err := a.store.DeleteCard(r.Context(), id); err != nil {
		a.fail(w, "delete card", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "card.deleted", Entity: "card", BoardID: b.ID, Payload: map[string]any{"id": id}})
}

// handleMoveCard splices the card out of the source list and appends it to
// the target list's tail. Same source and target, or a card that is not in
// the source list, is a silent no-op.
func (a *api) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		BoardID      string `json:"board_id"`
		SourceListID string `json:"source_list_id"`
		TargetListID string `json:"target_list_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	// a move request that changes nothing (same list, or card not in the
	// source list) must not produce an event either
	_, srcList, _, _, lookupErr := a.store.CardByID(id)
	willMove := lookupErr == nil && srcList.ID == req.SourceListID && req.SourceListID != req.TargetListID
	if err := a.store.MoveCard(r.Context(), req.BoardID, id, req.SourceListID, req.TargetListID); err != nil {
		a.fail(w, "move card", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	if willMove {
		a.bus.Publish(Event{Type: "card.moved", Entity: "card", BoardID: req.BoardID, Payload: map[string]any{
			"id": id, "source_list_id": req.SourceListID, "target_list_id": req.TargetListID,
		}})
	}
}

// --- checklist -------------------------------------------------------------

func (a *api) handleAddChecklistItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Text string `json:"text"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if err := a.store.AddChecklistItem(r.Context(), id, req.Text); err != nil {
		a.fail(w, "add checklist item", err)
		return
	}
	c, _, _, _, err := a.store.CardByID(id)
	if err != nil {
		a.fail(w, "add checklist item", err)
		return
	}
	writeJSON(w, 201, c.Checklist)
}

func (a *api) handleUpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	cardID, itemID := r.PathValue("id"), r.PathValue("item")
	var req struct {
		Text      *string `json:"text"`
		Completed *bool   `json:"completed"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Completed != nil {
		if err := a.store.ToggleChecklistItem(r.Context(), cardID, itemID, *req.Completed); err != nil {
			a.fail(w, "toggle checklist item", err)
			return
		}
	}
	if req.Text != nil {
		if err := a.store.UpdateChecklistItemText(r.Context(), cardID, itemID, *req.Text); err != nil {
			a.fail(w, "update checklist item", err)
			return
		}
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *api) handleDeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteChecklistItem(r.Context(), r.PathValue("id"), r.PathValue("item")); err != nil {
		a.fail(w, "delete checklist item", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

// --- generation ------------------------------------------------------------

// handleBreakDownCard asks the model for checklist steps and appends each
// one to the card's checklist, creating it on first use.
func (a *api) handleBreakDownCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, _, _, _, err := a.store.CardByID(id)
	if err != nil {
		a.fail(w, "break down card", err)
		return
	}
	steps, err := a.ai.BreakDownTask(r.Context(), c.Title, c.Description)
	if err != nil {
		a.fail(w, "break down card", err)
		return
	}
	for _, s := range steps {
		if err := a.store.AddChecklistItem(r.Context(), id, s); err != nil {
			a.fail(w, "break down card", err)
			return
		}
	}
	c, _, _, _, err = a.store.CardByID(id)
	if err != nil {
		a.fail(w, "break down card", err)
		return
	}
	writeJSON(w, 200, c.Checklist)
}

func (a *api) handleSummarizeCard(w http.ResponseWriter, r *http.Request) {
	c, _, _, _, err := a.store.CardByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "summarize card", err)
		return
	}
	summary, err := a.ai.SummarizeCard(r.Context(), c)
	if err != nil {
		a.fail(w, "summarize card", err)
		return
	}
	writeJSON(w, 200, map[string]any{"summary": summary})
}

// handleSuggestLabels returns candidates from the fixed palette; it does not
// attach them, the client decides.
func (a *api) handleSuggestLabels(w http.ResponseWriter, r *http.Request) {
	c, _, _, _, err := a.store.CardByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "suggest labels", err)
		return
	}
	labels, err := a.ai.SuggestLabels(r.Context(), c, labelPalette())
	if err != nil {
		a.fail(w, "suggest labels", err)
		return
	}
	writeJSON(w, 200, labels)
}

func (a *api) handleSuggestAssignee(w http.ResponseWriter, r *http.Request) {
	c, _, _, t, err := a.store.CardByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "suggest assignee", err)
		return
	}
	var members []User
	for _, m := range t.Members {
		if u, err := a.store.UserByID(m.UserID); err == nil {
			members = append(members, u)
		}
	}
	if len(members) == 0 {
		writeError(w, 400, "team has no members")
		return
	}
	u, reason, err := a.ai.SuggestAssignee(r.Context(), c, members)
	if err != nil {
		a.fail(w, "suggest assignee", err)
		return
	}
	writeJSON(w, 200, map[string]any{"user": u, "reason": reason})
}
