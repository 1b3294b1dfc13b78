package main

import (
	"net/http"
	"time"
)

func (a *api) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, templateCatalog())
}

// handleCreateBoard covers the three creation modes: a blank board with the
// given list titles, an instantiated template, or a layout generated from a
// free-text project description. Exactly one of lists/template_id/
// generate_from applies; generation wins, then template, then blank.
func (a *api) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	var req struct {
		Title        string   `json:"title"`
		Lists        []string `json:"lists"`
		TemplateID   string   `json:"template_id"`
		GenerateFrom string   `json:"generate_from"`
		UserID       string   `json:"user_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}

	var board Board
	switch {
	case req.GenerateFrom != "":
		b, err := a.ai.GenerateBoard(r.Context(), req.GenerateFrom)
		if err != nil {
			a.fail(w, "generate board", err)
			return
		}
		if req.Title != "" {
			b.Title = req.Title
		}
		board = b
	case req.TemplateID != "":
		b, ok := boardFromTemplate(req.TemplateID, req.Title)
		if !ok {
			writeError(w, 400, "unknown template")
			return
		}
		board = b
	default:
		board = Board{ID: newID("board"), Title: req.Title}
		titles := req.Lists
		if len(titles) == 0 {
			titles = []string{"To Do", "In Progress", "Done"}
		}
		for _, t := range titles {
			board.Lists = append(board.Lists, List{ID: newID("list"), Title: t, Cards: []Card{}})
		}
	}

	created, err := a.store.AddBoard(r.Context(), teamID, board)
	if err != nil {
		a.fail(w, "create board", err)
		return
	}
	a.store.LogActivity(r.Context(), teamID, req.UserID, "created board "+created.Title)
	writeJSON(w, 201, created)
}

func (a *api) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	b, _, err := a.store.BoardByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "get board", err)
		return
	}
	writeJSON(w, 200, b)
}

func (a *api) handleRenameBoard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if err := a.store.RenameBoard(r.Context(), id, req.Title); err != nil {
		a.fail(w, "rename board", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "board.renamed", Entity: "board", BoardID: id, Payload: map[string]any{"title": req.Title}})
}

func (a *api) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, t, err := a.store.BoardByID(id)
	if err != nil {
		a.fail(w, "delete board", err)
		return
	}
	if err := a.store.DeleteBoard(r.Context(), id); err != nil {
		a.fail(w, "delete board", err)
		return
	}
	a.store.LogActivity(r.Context(), t.ID, "", "deleted board "+b.Title)
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "board.deleted", Entity: "board", BoardID: id})
}

func (a *api) handleBoardMetrics(w http.ResponseWriter, r *http.Request) {
	b, _, err := a.store.BoardByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "board metrics", err)
		return
	}
	writeJSON(w, 200, computeBoardMetrics(b, time.Now()))
}

func (a *api) handleAnalyzeBoard(w http.ResponseWriter, r *http.Request) {
	b, _, err := a.store.BoardByID(r.PathValue("id"))
	if err != nil {
		a.fail(w, "analyze board", err)
		return
	}
	out, err := a.ai.AnalyzeBoard(r.Context(), b, time.Now())
	if err != nil {
		a.fail(w, "analyze board", err)
		return
	}
	writeJSON(w, 200, out)
}

func (a *api) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, _, err := a.store.BoardByID(id); err != nil {
		a.fail(w, "board events", err)
		return
	}
	a.bus.ServeSSE(w, r, id)
}
