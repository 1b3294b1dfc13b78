package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBlobStore wraps another store and records every Delete call, so
// cascade behavior can be asserted. With failDeletes set, every Delete
// errors after recording the attempt.
type recordingBlobStore struct {
	BlobStore
	mu          sync.Mutex
	deleted     []string
	failDeletes bool
}

func (r *recordingBlobStore) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	r.deleted = append(r.deleted, id)
	fail := r.failDeletes
	r.mu.Unlock()
	if fail {
		return errors.New("blob backend down")
	}
	return r.BlobStore.Delete(ctx, id)
}

func newTestStore(t *testing.T) (*Store, *recordingBlobStore) {
	t.Helper()
	ctx := context.Background()
	kv, err := OpenKV(ctx, "sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	blobs := &recordingBlobStore{BlobStore: NewMemoryBlobStore()}
	s := NewStore(kv, blobs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Load(ctx)
	return s, blobs
}

func TestLoadFallsBackToSeed(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NotEmpty(t, s.Teams(), "empty storage yields the seed dataset")
	assert.NotEmpty(t, s.Users())
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	ctx := context.Background()
	kv, err := OpenKV(ctx, "sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	require.NoError(t, kv.Set(ctx, teamsKey, `{"version":99,"teams":[]}`))
	require.NoError(t, kv.Set(ctx, usersKey, `not json at all`))

	s := NewStore(kv, NewMemoryBlobStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Load(ctx)
	assert.NotEmpty(t, s.Teams(), "version mismatch falls back to seed")
	assert.NotEmpty(t, s.Users(), "parse failure falls back to seed")
}

func TestMutationsPersistAcrossReload(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "test.db")
	kv, err := OpenKV(ctx, "sqlite", dsn)
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewStore(kv, NewMemoryBlobStore(), log)
	s.Load(ctx)
	team, err := s.CreateTeam(ctx, "Persisted", PrivacyPublic, "", "user-1")
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	kv2, err := OpenKV(ctx, "sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv2.Close() })
	s2 := NewStore(kv2, NewMemoryBlobStore(), log)
	s2.Load(ctx)

	got, err := s2.TeamByID(team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Name)
}

// seedBoardWithAttachments builds team -> board -> list -> card with n
// uploaded attachments and returns the ids involved.
func seedBoardWithAttachments(t *testing.T, s *Store, n int) (teamID, boardID, cardID string, attIDs []string) {
	t.Helper()
	ctx := context.Background()
	team, err := s.CreateTeam(ctx, "Cascade", PrivacyPublic, "", "user-1")
	require.NoError(t, err)
	board, err := s.AddBoard(ctx, team.ID, Board{ID: newID("board"), Title: "B", Lists: []List{{ID: newID("list"), Title: "To Do", Cards: []Card{}}}})
	require.NoError(t, err)
	card, err := s.CreateCard(ctx, board.Lists[0].ID, Card{Title: "with files"})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		att, err := s.AddAttachment(ctx, card.ID, "f.txt", "text/plain", 5, strings.NewReader("hello"))
		require.NoError(t, err)
		attIDs = append(attIDs, att.ID)
	}
	return team.ID, board.ID, card.ID, attIDs
}

func TestDeleteCardCascadesToBlobs(t *testing.T) {
	s, blobs := newTestStore(t)
	_, _, cardID, attIDs := seedBoardWithAttachments(t, s, 3)

	require.NoError(t, s.DeleteCard(context.Background(), cardID))
	assert.ElementsMatch(t, attIDs, blobs.deleted, "one blob delete per attachment")

	_, _, _, _, err := s.CardByID(cardID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBoardCascadesToBlobs(t *testing.T) {
	s, blobs := newTestStore(t)
	_, boardID, _, attIDs := seedBoardWithAttachments(t, s, 2)

	require.NoError(t, s.DeleteBoard(context.Background(), boardID))
	assert.ElementsMatch(t, attIDs, blobs.deleted)

	_, _, err := s.BoardByID(boardID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTeamCascadesToBlobs(t *testing.T) {
	s, blobs := newTestStore(t)
	teamID, _, _, attIDs := seedBoardWithAttachments(t, s, 2)

	require.NoError(t, s.DeleteTeam(context.Background(), teamID))
	assert.ElementsMatch(t, attIDs, blobs.deleted)
}

func TestAttachmentRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, cardID, _ := seedBoardWithAttachments(t, s, 0)

	ctx := context.Background()
	att, err := s.AddAttachment(ctx, cardID, "notes.txt", "text/plain", 11, strings.NewReader("hello world"))
	require.NoError(t, err)

	rc, contentType, err := s.OpenAttachment(ctx, att.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, "text/plain", contentType)

	c, _, _, _, err := s.CardByID(cardID)
	require.NoError(t, err)
	require.Len(t, c.Attachments, 1)
	assert.Equal(t, "notes.txt", c.Attachments[0].Name)
	assert.EqualValues(t, 11, c.Attachments[0].Size)
}

func TestVerifyPasscode(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	private, err := s.CreateTeam(ctx, "Secret", PrivacyPrivate, "open sesame", "user-1")
	require.NoError(t, err)
	public, err := s.CreateTeam(ctx, "Open", PrivacyPublic, "", "user-1")
	require.NoError(t, err)

	ok, err := s.VerifyPasscode(private.ID, "open sesame")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.VerifyPasscode(private.ID, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.VerifyPasscode(public.ID, "anything")
	require.NoError(t, err)
	assert.True(t, ok, "public teams never gate")

	_, err = s.VerifyPasscode("team-zzz", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBoardCommitsDespiteBlobFailures(t *testing.T) {
	s, blobs := newTestStore(t)
	_, boardID, _, attIDs := seedBoardWithAttachments(t, s, 3)
	blobs.failDeletes = true

	// every blob delete is attempted and fails; the board removal still
	// commits and the call reports success
	require.NoError(t, s.DeleteBoard(context.Background(), boardID))
	assert.ElementsMatch(t, attIDs, blobs.deleted, "one attempt per attachment, failures do not abort the batch")

	_, _, err := s.BoardByID(boardID)
	assert.ErrorIs(t, err, ErrNotFound, "tree removal is not rolled back on blob failure")
}

func TestDeleteCardCommitsDespiteBlobFailures(t *testing.T) {
	s, blobs := newTestStore(t)
	_, _, cardID, attIDs := seedBoardWithAttachments(t, s, 2)
	blobs.failDeletes = true

	require.NoError(t, s.DeleteCard(context.Background(), cardID))
	assert.ElementsMatch(t, attIDs, blobs.deleted)
	_, _, _, _, err := s.CardByID(cardID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreMutationWrappers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	team, err := s.CreateTeam(ctx, "Wrappers", PrivacyPublic, "", "user-1")
	require.NoError(t, err)
	require.NoError(t, s.RenameTeam(ctx, team.ID, "Wrappers 2"))
	require.NoError(t, s.AddMember(ctx, team.ID, "user-2", RoleMember))
	require.NoError(t, s.ChangeMemberRole(ctx, team.ID, "user-2", RoleAdmin))

	board, err := s.AddBoard(ctx, team.ID, Board{ID: newID("board"), Title: "B", Lists: []List{}})
	require.NoError(t, err)
	require.NoError(t, s.RenameBoard(ctx, board.ID, "B2"))

	list, err := s.CreateList(ctx, board.ID, "To Do")
	require.NoError(t, err)
	require.NoError(t, s.RenameList(ctx, list.ID, "Doing"))

	card, err := s.CreateCard(ctx, list.ID, Card{Title: "C"})
	require.NoError(t, err)
	card.Description = "updated"
	require.NoError(t, s.ReplaceCard(ctx, card))
	require.NoError(t, s.AddChecklistItem(ctx, card.ID, "step"))
	_, err = s.AddComment(ctx, card.ID, "user-1", "hi")
	require.NoError(t, err)
	msg, err := s.AppendChatMessage(ctx, team.ID, "user-1", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	got, err := s.TeamByID(team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wrappers 2", got.Name)
	assert.Equal(t, RoleAdmin, got.Members[1].Role)
	require.Len(t, got.Boards, 1)
	assert.Equal(t, "B2", got.Boards[0].Title)
	require.Len(t, got.Boards[0].Lists, 1)
	assert.Equal(t, "Doing", got.Boards[0].Lists[0].Title)
	c := got.Boards[0].Lists[0].Cards[0]
	assert.Equal(t, "updated", c.Description)
	require.NotNil(t, c.Checklist)
	assert.Len(t, c.Checklist.Items, 1)
	assert.Len(t, c.Comments, 1)
	assert.Len(t, got.ChatLog, 1)

	require.NoError(t, s.RemoveMember(ctx, team.ID, "user-2"))
	got, err = s.TeamByID(team.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 1)
}
