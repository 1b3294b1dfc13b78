package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type api struct {
	store *Store
	log   *slog.Logger
	bus   *EventBus
	ai    *AIClient
	// rate limiting buckets per IP:key, used to gate the generation endpoints
	rlMu sync.Mutex
	rl   map[string]*rateBucket
}

func newAPI(store *Store, log *slog.Logger, ai *AIClient) *api {
	return &api{store: store, log: log, bus: NewEventBus(), ai: ai, rl: map[string]*rateBucket{}}
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

func (a *api) allow(ip, key string, max int, window time.Duration) bool {
	now := time.Now()
	rk := ip + ":" + key
	a.rlMu.Lock()
	b, ok := a.rl[rk]
	if !ok || now.After(b.resetAt) {
		b = &rateBucket{count: 0, resetAt: now.Add(window)}
		a.rl[rk] = b
	}
	if b.count >= max {
		a.rlMu.Unlock()
		return false
	}
	b.count++
	a.rlMu.Unlock()
	return true
}

func (a *api) withRateLimit(name string, max int, window time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if !a.allow(ip, name, max, window) {
			writeError(w, 429, "too many requests")
			return
		}
		next(w, r)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, r.Body)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// fail maps domain errors onto HTTP codes; anything unrecognized is an
// internal error and gets logged with the operation name.
func (a *api) fail(w http.ResponseWriter, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, 400, ve.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, 404, "not found")
	case errors.Is(err, ErrAIGeneration):
		writeError(w, 502, "generation failed, try again")
	default:
		a.log.Error(op, "err", err)
		writeError(w, 500, "internal error")
	}
}

func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sw, r)
		log.Info("http", "method", r.Method, "path", r.URL.Path, "status", sw.status, "dur_ms", time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

// Implement http.Flusher if underlying writer supports it (needed for SSE)
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)

	mux.HandleFunc("GET /api/users", a.handleListUsers)
	mux.HandleFunc("POST /api/users", a.handleCreateUser)
	mux.HandleFunc("GET /api/users/{id}", a.handleGetUser)
	mux.HandleFunc("GET /api/labels", a.handleListLabels)

	mux.HandleFunc("GET /api/teams", a.handleListTeams)
	mux.HandleFunc("POST /api/teams", a.handleCreateTeam)
	mux.HandleFunc("GET /api/teams/{id}", a.handleGetTeam)
	mux.HandleFunc("PATCH /api/teams/{id}", a.handleRenameTeam)
	mux.HandleFunc("DELETE /api/teams/{id}", a.handleDeleteTeam)
	mux.HandleFunc("POST /api/teams/{id}/verify", a.withRateLimit("verify", 10, time.Minute, a.handleVerifyPasscode))
	mux.HandleFunc("POST /api/teams/{id}/members", a.handleAddMember)
	mux.HandleFunc("DELETE /api/teams/{id}/members/{uid}", a.handleRemoveMember)
	mux.HandleFunc("PATCH /api/teams/{id}/members/{uid}", a.handleChangeMemberRole)
	mux.HandleFunc("GET /api/teams/{id}/activity", a.handleTeamActivity)
	mux.HandleFunc("GET /api/teams/{id}/chat", a.handleTeamChat)
	mux.HandleFunc("POST /api/teams/{id}/chat", a.handlePostChatMessage)
	mux.HandleFunc("GET /api/teams/{id}/metrics", a.handleTeamMetrics)

	mux.HandleFunc("GET /api/templates", a.handleListTemplates)
	mux.HandleFunc("POST /api/teams/{id}/boards", a.handleCreateBoard)
	mux.HandleFunc("GET /api/boards/{id}", a.handleGetBoard)
	mux.HandleFunc("PATCH /api/boards/{id}", a.handleRenameBoard)
	mux.HandleFunc("DELETE /api/boards/{id}", a.handleDeleteBoard)
	mux.HandleFunc("GET /api/boards/{id}/metrics", a.handleBoardMetrics)
	mux.HandleFunc("GET /api/boards/{id}/events", a.handleBoardEvents)

	mux.HandleFunc("POST /api/boards/{id}/lists", a.handleCreateList)
	mux.HandleFunc("PATCH /api/lists/{id}", a.handleRenameList)
	mux.HandleFunc("DELETE /api/lists/{id}", a.handleDeleteList)

	mux.HandleFunc("POST /api/lists/{id}/cards", a.handleCreateCard)
	mux.HandleFunc("GET /api/cards/{id}", a.handleGetCard)
	mux.HandleFunc("PUT /api/cards/{id}", a.handleUpdateCard)
	mux.HandleFunc("DELETE /api/cards/{id}", a.handleDeleteCard)
	mux.HandleFunc("POST /api/cards/{id}/move", a.handleMoveCard)

	mux.HandleFunc("POST /api/cards/{id}/checklist", a.handleAddChecklistItem)
	mux.HandleFunc("PATCH /api/cards/{id}/checklist/{item}", a.handleUpdateChecklistItem)
	mux.HandleFunc("DELETE /api/cards/{id}/checklist/{item}", a.handleDeleteChecklistItem)

	mux.HandleFunc("GET /api/cards/{id}/comments", a.handleCommentsByCard)
	mux.HandleFunc("POST /api/cards/{id}/comments", a.handleAddComment)

	mux.HandleFunc("POST /api/cards/{id}/attachments", a.handleUploadAttachment)
	mux.HandleFunc("GET /api/attachments/{id}", a.handleDownloadAttachment)
	mux.HandleFunc("DELETE /api/cards/{id}/attachments/{att}", a.handleDeleteAttachment)

	// generation endpoints share one rate bucket; the upstream quota is the
	// scarce resource, not our CPU
	mux.HandleFunc("POST /api/cards/{id}/breakdown", a.withRateLimit("ai", 20, time.Minute, a.handleBreakDownCard))
	mux.HandleFunc("POST /api/cards/{id}/summarize", a.withRateLimit("ai", 20, time.Minute, a.handleSummarizeCard))
	mux.HandleFunc("POST /api/cards/{id}/suggest-labels", a.withRateLimit("ai", 20, time.Minute, a.handleSuggestLabels))
	mux.HandleFunc("POST /api/cards/{id}/suggest-assignee", a.withRateLimit("ai", 20, time.Minute, a.handleSuggestAssignee))
	mux.HandleFunc("POST /api/boards/{id}/analyze", a.withRateLimit("ai", 20, time.Minute, a.handleAnalyzeBoard))
	mux.HandleFunc("POST /api/teams/{id}/analyze", a.withRateLimit("ai", 20, time.Minute, a.handleAnalyzeTeam))
	mux.HandleFunc("POST /api/teams/{id}/report", a.withRateLimit("ai", 20, time.Minute, a.handleTeamReport))
}
