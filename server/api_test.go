package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *Store, *api) {
	t.Helper()
	s, _ := newTestStore(t)
	mux := http.NewServeMux()
	a := newAPI(s, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	a.routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, s, a
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, body := doJSON(t, "GET", srv.URL+"/api/health", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}

func TestTeamLifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, team := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{
		"name": "Platform", "privacy": "private", "passcode": "s3cret", "creator_id": "user-1",
	})
	require.Equal(t, 201, resp.StatusCode)
	teamID := team["id"].(string)
	assert.Empty(t, team["passcode"], "passcode never leaves the server")

	resp, body := doJSON(t, "POST", srv.URL+"/api/teams/"+teamID+"/verify", map[string]any{"passcode": "s3cret"})
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	_, body = doJSON(t, "POST", srv.URL+"/api/teams/"+teamID+"/verify", map[string]any{"passcode": "nope"})
	assert.Equal(t, false, body["ok"])

	resp, _ = doJSON(t, "PATCH", srv.URL+"/api/teams/"+teamID, map[string]any{"name": "Platform Core"})
	assert.Equal(t, 200, resp.StatusCode)

	resp, got := doJSON(t, "GET", srv.URL+"/api/teams/"+teamID, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Platform Core", got["name"])

	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/teams/"+teamID, nil)
	assert.Equal(t, 200, resp.StatusCode)
	resp, _ = doJSON(t, "GET", srv.URL+"/api/teams/"+teamID, nil)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestCreateTeamRejectsBadPayload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "  "})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, false, body["ok"])

	resp, _ = doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "X", "privacy": "private"})
	assert.Equal(t, 400, resp.StatusCode, "private without passcode")
}

func TestBoardFromTemplate(t *testing.T) {
	srv, _, _ := newTestServer(t)
	_, team := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "T", "creator_id": "user-1"})
	teamID := team["id"].(string)

	resp, board := doJSON(t, "POST", srv.URL+"/api/teams/"+teamID+"/boards", map[string]any{
		"template_id": "software", "title": "Payments Service",
	})
	require.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Payments Service", board["title"])
	lists := board["lists"].([]any)
	require.Len(t, lists, 5)
	last := lists[4].(map[string]any)
	assert.Equal(t, "Done", last["title"])

	resp, _ = doJSON(t, "POST", srv.URL+"/api/teams/"+teamID+"/boards", map[string]any{"template_id": "bogus"})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCardFlow(t *testing.T) {
	srv, _, _ := newTestServer(t)
	_, team := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "T", "creator_id": "user-1"})
	teamID := team["id"].(string)
	_, board := doJSON(t, "POST", srv.URL+"/api/teams/"+teamID+"/boards", map[string]any{"title": "B"})
	boardID := board["id"].(string)
	lists := board["lists"].([]any)
	todoID := lists[0].(map[string]any)["id"].(string)
	doneID := lists[2].(map[string]any)["id"].(string)

	resp, card := doJSON(t, "POST", srv.URL+"/api/lists/"+todoID+"/cards", map[string]any{
		"title": "Wire the API", "due_date": "2026-09-15",
	})
	require.Equal(t, 201, resp.StatusCode)
	cardID := card["id"].(string)

	resp, _ = doJSON(t, "POST", srv.URL+"/api/cards/"+cardID+"/move", map[string]any{
		"board_id": boardID, "source_list_id": todoID, "target_list_id": doneID,
	})
	require.Equal(t, 200, resp.StatusCode)

	_, gotBoard := doJSON(t, "GET", srv.URL+"/api/boards/"+boardID, nil)
	gotLists := gotBoard["lists"].([]any)
	assert.Empty(t, gotLists[0].(map[string]any)["cards"])
	assert.Len(t, gotLists[2].(map[string]any)["cards"], 1)

	resp, metrics := doJSON(t, "GET", srv.URL+"/api/boards/"+boardID+"/metrics", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.EqualValues(t, 1, metrics["total_tasks"])
	assert.EqualValues(t, 100, metrics["progress"])
	assert.EqualValues(t, 0, metrics["overdue_tasks"], "done cards are never overdue")

	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/cards/"+cardID, nil)
	assert.Equal(t, 200, resp.StatusCode)
	resp, _ = doJSON(t, "GET", srv.URL+"/api/cards/"+cardID, nil)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestChecklistEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)
	_, team := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "T", "creator_id": "user-1"})
	_, board := doJSON(t, "POST", srv.URL+"/api/teams/"+team["id"].(string)+"/boards", map[string]any{"title": "B"})
	listID := board["lists"].([]any)[0].(map[string]any)["id"].(string)
	_, card := doJSON(t, "POST", srv.URL+"/api/lists/"+listID+"/cards", map[string]any{"title": "C"})
	cardID := card["id"].(string)

	resp, checklist := doJSON(t, "POST", srv.URL+"/api/cards/"+cardID+"/checklist", map[string]any{"text": "first step"})
	require.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Checklist", checklist["title"], "lazily created with the default title")
	items := checklist["items"].([]any)
	require.Len(t, items, 1)
	itemID := items[0].(map[string]any)["id"].(string)

	resp, _ = doJSON(t, "PATCH", srv.URL+"/api/cards/"+cardID+"/checklist/"+itemID, map[string]any{"completed": true})
	assert.Equal(t, 200, resp.StatusCode)

	_, got := doJSON(t, "GET", srv.URL+"/api/cards/"+cardID, nil)
	gotItems := got["checklist"].(map[string]any)["items"].([]any)
	assert.Equal(t, true, gotItems[0].(map[string]any)["completed"])

	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/cards/"+cardID+"/checklist/"+itemID, nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestAttachmentEndpoints(t *testing.T) {
	srv, s, _ := newTestServer(t)
	_, team := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "T", "creator_id": "user-1"})
	_, board := doJSON(t, "POST", srv.URL+"/api/teams/"+team["id"].(string)+"/boards", map[string]any{"title": "B"})
	listID := board["lists"].([]any)[0].(map[string]any)["id"].(string)
	_, card := doJSON(t, "POST", srv.URL+"/api/lists/"+listID+"/cards", map[string]any{"title": "C"})
	cardID := card["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("attachment body"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", srv.URL+"/api/cards/"+cardID+"/attachments", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)
	var att map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&att))
	resp.Body.Close()
	attID := att["id"].(string)
	assert.Equal(t, "notes.txt", att["name"])

	dl, err := http.Get(srv.URL + "/api/attachments/" + attID)
	require.NoError(t, err)
	data, err := io.ReadAll(dl.Body)
	dl.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "attachment body", string(data))

	resp2, _ := doJSON(t, "DELETE", fmt.Sprintf("%s/api/cards/%s/attachments/%s", srv.URL, cardID, attID), nil)
	assert.Equal(t, 200, resp2.StatusCode)

	_, _, err = s.OpenAttachment(req.Context(), attID)
	assert.ErrorIs(t, err, ErrNotFound, "blob removed with the record")

	dl2, _ := http.Get(srv.URL + "/api/attachments/" + attID)
	assert.Equal(t, 404, dl2.StatusCode)
	dl2.Body.Close()
}

func TestGenerationEndpointsWithoutClient(t *testing.T) {
	srv, _, _ := newTestServer(t)
	_, team := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "T", "creator_id": "user-1"})

	resp, body := doJSON(t, "POST", srv.URL+"/api/teams/"+team["id"].(string)+"/report", nil)
	assert.Equal(t, 502, resp.StatusCode, "no configured model maps to a retryable failure")
	assert.Equal(t, false, body["ok"])
}

func TestMemberEndpoints(t *testing.T) {
	srv, s, _ := newTestServer(t)
	u, err := s.CreateUser(context.Background(), "Frank", "generalist", false)
	require.NoError(t, err)
	_, team := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "T", "creator_id": "user-1"})
	teamID := team["id"].(string)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/teams/"+teamID+"/members", map[string]any{"user_id": u.ID})
	require.Equal(t, 200, resp.StatusCode)

	_, got := doJSON(t, "GET", srv.URL+"/api/teams/"+teamID, nil)
	members := got["members"].([]any)
	assert.Len(t, members, 2)

	resp, _ = doJSON(t, "PATCH", srv.URL+"/api/teams/"+teamID+"/members/"+u.ID, map[string]any{"role": "admin"})
	assert.Equal(t, 200, resp.StatusCode)

	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/teams/"+teamID+"/members/"+u.ID, nil)
	assert.Equal(t, 200, resp.StatusCode)
	_, got = doJSON(t, "GET", srv.URL+"/api/teams/"+teamID, nil)
	assert.Len(t, got["members"].([]any), 1)
}

func TestMoveCardEventOnlyOnRealMove(t *testing.T) {
	srv, _, a := newTestServer(t)
	_, team := doJSON(t, "POST", srv.URL+"/api/teams", map[string]any{"name": "T", "creator_id": "user-1"})
	_, board := doJSON(t, "POST", srv.URL+"/api/teams/"+team["id"].(string)+"/boards", map[string]any{"title": "B"})
	boardID := board["id"].(string)
	lists := board["lists"].([]any)
	todoID := lists[0].(map[string]any)["id"].(string)
	doneID := lists[2].(map[string]any)["id"].(string)
	_, card := doJSON(t, "POST", srv.URL+"/api/lists/"+todoID+"/cards", map[string]any{"title": "C"})
	cardID := card["id"].(string)

	ch, cancel := a.bus.Subscribe(boardID)
	defer cancel()

	// same source and target: 200 but silent
	resp, _ := doJSON(t, "POST", srv.URL+"/api/cards/"+cardID+"/move", map[string]any{
		"board_id": boardID, "source_list_id": todoID, "target_list_id": todoID,
	})
	require.Equal(t, 200, resp.StatusCode)

	// card is not in the claimed source list: 200 but silent
	resp, _ = doJSON(t, "POST", srv.URL+"/api/cards/"+cardID+"/move", map[string]any{
		"board_id": boardID, "source_list_id": doneID, "target_list_id": todoID,
	})
	require.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, ch, "no-op moves publish nothing")

	resp, _ = doJSON(t, "POST", srv.URL+"/api/cards/"+cardID+"/move", map[string]any{
		"board_id": boardID, "source_list_id": todoID, "target_list_id": doneID,
	})
	require.Equal(t, 200, resp.StatusCode)
	require.Len(t, ch, 1, "a real move publishes exactly one event")
	var ev Event
	require.NoError(t, json.Unmarshal(<-ch, &ev))
	assert.Equal(t, "card.moved", ev.Type)
}
