package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("not found")

const (
	teamsKey = "kortex-teams"
	usersKey = "kortex-users"

	// snapshotVersion guards against silently deserializing an incompatible
	// shape; a mismatch falls back to the seed dataset like a missing key.
	snapshotVersion = 1
)

type teamsSnapshot struct {
	Version int    `json:"version"`
	Teams   []Team `json:"teams"`
}

type usersSnapshot struct {
	Version int    `json:"version"`
	Users   []User `json:"users"`
}

// Store owns the in-memory Team/User tree. Every mutation builds a new
// snapshot through the pure functions in domain.go, swaps it in under the
// lock, and rewrites the serialized collection wholesale. Persistence is
// best-effort: a failed write is logged and the in-memory state stays
// authoritative for the session.
type Store struct {
	kv    *KV
	blobs BlobStore
	log   *slog.Logger

	mu    sync.RWMutex
	teams []Team
	users []User
}

func NewStore(kv *KV, blobs BlobStore, log *slog.Logger) *Store {
	return &Store{kv: kv, blobs: blobs, log: log}
}

// Load reads both snapshots once at startup. A missing key, parse failure,
// or version mismatch yields the fixed seed dataset; there is no partial
// recovery.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = s.loadTeams(ctx)
	s.users = s.loadUsers(ctx)
}

func (s *Store) loadTeams(ctx context.Context) []Team {
	raw, err := s.kv.Get(ctx, teamsKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("load teams", "err", err)
		}
		return seedTeams()
	}
	var snap teamsSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap.Version != snapshotVersion {
		s.log.Error("teams snapshot unusable, seeding", "err", err, "version", snap.Version)
		return seedTeams()
	}
	return snap.Teams
}

func (s *Store) loadUsers(ctx context.Context) []User {
	raw, err := s.kv.Get(ctx, usersKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("load users", "err", err)
		}
		return seedUsers()
	}
	var snap usersSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap.Version != snapshotVersion {
		s.log.Error("users snapshot unusable, seeding", "err", err, "version", snap.Version)
		return seedUsers()
	}
	return snap.Users
}

// saveTeams and saveUsers must be called with the write lock held.
func (s *Store) saveTeams(ctx context.Context) {
	raw, err := json.Marshal(teamsSnapshot{Version: snapshotVersion, Teams: s.teams})
	if err != nil {
		s.log.Error("marshal teams", "err", err)
		return
	}
	if err := s.kv.Set(ctx, teamsKey, string(raw)); err != nil {
		s.log.Error("save teams", "err", err)
	}
}

func (s *Store) saveUsers(ctx context.Context) {
	raw, err := json.Marshal(usersSnapshot{Version: snapshotVersion, Users: s.users})
	if err != nil {
		s.log.Error("marshal users", "err", err)
		return
	}
	if err := s.kv.Set(ctx, usersKey, string(raw)); err != nil {
		s.log.Error("save users", "err", err)
	}
}

// apply swaps in the snapshot produced by a domain mutation and persists it.
func (s *Store) apply(ctx context.Context, next []Team, err error) error {
	if err != nil {
		return err
	}
	s.teams = next
	s.saveTeams(ctx)
	return nil
}

// --- reads -----------------------------------------------------------------

// Teams returns the current snapshot. Snapshots are immutable by contract:
// mutations replace them instead of editing in place, so reads are safe to
// hand out without copying.
func (s *Store) Teams() []Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teams
}

func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users
}

func (s *Store) TeamByID(id string) (Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := teamIndex(s.teams, id); i >= 0 {
		return s.teams[i], nil
	}
	return Team{}, ErrNotFound
}

func (s *Store) BoardByID(id string) (Board, Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ti, bi, ok := findBoard(s.teams, id); ok {
		return s.teams[ti].Boards[bi], s.teams[ti], nil
	}
	return Board{}, Team{}, ErrNotFound
}

func (s *Store) CardByID(id string) (Card, List, Board, Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ti, bi, li, ci, ok := findCard(s.teams, id); ok {
		t := s.teams[ti]
		b := t.Boards[bi]
		l := b.Lists[li]
		return l.Cards[ci], l, b, t, nil
	}
	return Card{}, List{}, Board{}, Team{}, ErrNotFound
}

func (s *Store) UserByID(id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// VerifyPasscode gates access to a private team: a byte-for-byte comparison,
// nothing more. Public teams always pass.
func (s *Store) VerifyPasscode(teamID, passcode string) (bool, error) {
	t, err := s.TeamByID(teamID)
	if err != nil {
		return false, err
	}
	if t.Privacy != PrivacyPrivate {
		return true, nil
	}
	return t.Passcode == passcode, nil
}

// --- user mutations --------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, name, profileSummary string, systemAdmin bool) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, validationf("user name cannot be empty")
	}
	u := User{
		ID:             newID("user"),
		Name:           name,
		Avatar:         "https://picsum.photos/seed/" + newID("av") + "/32/32",
		ProfileSummary: profileSummary,
		IsSystemAdmin:  systemAdmin,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]User, len(s.users), len(s.users)+1)
	copy(next, s.users)
	s.users = append(next, u)
	s.saveUsers(ctx)
	return u, nil
}

// --- team mutations --------------------------------------------------------

func (s *Store) CreateTeam(ctx context.Context, name string, privacy Privacy, passcode, creatorID string) (Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, t, err := createTeam(s.teams, name, privacy, passcode, creatorID)
	if err != nil {
		return Team{}, err
	}
	if err := s.apply(ctx, next, nil); err != nil {
		return Team{}, err
	}
	return t, nil
}

func (s *Store) RenameTeam(ctx context.Context, teamID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := renameTeam(s.teams, teamID, name)
	return s.apply(ctx, next, err)
}

// DeleteTeam removes the team after attempting blob cleanup for every
// attachment on every board it owns, so binary payloads are not orphaned.
func (s *Store) DeleteTeam(ctx context.Context, teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := teamIndex(s.teams, teamID)
	if i < 0 {
		return ErrNotFound
	}
	for _, b := range s.teams[i].Boards {
		s.deleteBlobs(ctx, boardAttachmentIDs(b))
	}
	next, err := deleteTeam(s.teams, teamID)
	return s.apply(ctx, next, err)
}

func (s *Store) AddMember(ctx context.Context, teamID, userID string, role Role) error {
	if _, err := s.UserByID(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := addMember(s.teams, teamID, userID, role)
	return s.apply(ctx, next, err)
}

func (s *Store) RemoveMember(ctx context.Context, teamID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := removeMember(s.teams, teamID, userID)
	return s.apply(ctx, next, err)
}

func (s *Store) ChangeMemberRole(ctx context.Context, teamID, userID string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := changeMemberRole(s.teams, teamID, userID, role)
	return s.apply(ctx, next, err)
}

func (s *Store) LogActivity(ctx context.Context, teamID, userID, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := appendActivity(s.teams, teamID, userID, action)
	if err := s.apply(ctx, next, err); err != nil {
		s.log.Error("log activity", "team", teamID, "err", err)
	}
}

func (s *Store) AppendChatMessage(ctx context.Context, teamID, userID, text string) (ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, msg, err := appendChatMessage(s.teams, teamID, userID, text)
	if err != nil {
		return ChatMessage{}, err
	}
	return msg, s.apply(ctx, next, nil)
}

// --- board mutations -------------------------------------------------------

func (s *Store) AddBoard(ctx context.Context, teamID string, board Board) (Board, error) {
	if strings.TrimSpace(board.Title) == "" {
		return Board{}, validationf("board title cannot be empty")
	}
	board.TeamID = teamID
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := addBoard(s.teams, teamID, board)
	if err := s.apply(ctx, next, err); err != nil {
		return Board{}, err
	}
	return board, nil
}

func (s *Store) RenameBoard(ctx context.Context, boardID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := renameBoard(s.teams, boardID, title)
	return s.apply(ctx, next, err)
}

// DeleteBoard is a two-phase cascade: collect every attachment id on the
// board, attempt each blob delete (failures are logged, never abort the
// batch), then commit the tree removal and persist. The blob pass must run
// before the board leaves the tree or the id list is lost. An orphaned blob
// is preferred over a delete that can never finish.
func (s *Store) DeleteBoard(ctx context.Context, boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ti, bi, ok := findBoard(s.teams, boardID)
	if !ok {
		return ErrNotFound
	}
	s.deleteBlobs(ctx, boardAttachmentIDs(s.teams[ti].Boards[bi]))
	next, err := removeBoard(s.teams, boardID)
	return s.apply(ctx, next, err)
}

func (s *Store) deleteBlobs(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.blobs.Delete(ctx, id); err != nil {
			s.log.Error("delete attachment blob", "id", id, "err", err)
		}
	}
}

// --- list mutations --------------------------------------------------------

func (s *Store) CreateList(ctx context.Context, boardID, title string) (List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, l, err := addList(s.teams, boardID, title)
	if err != nil {
		return List{}, err
	}
	return l, s.apply(ctx, next, nil)
}

func (s *Store) RenameList(ctx context.Context, listID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := renameList(s.teams, listID, title)
	return s.apply(ctx, next, err)
}

func (s *Store) DeleteList(ctx context.Context, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ti, bi, li, ok := findList(s.teams, listID)
	if !ok {
		return ErrNotFound
	}
	s.deleteBlobs(ctx, listAttachmentIDs(s.teams[ti].Boards[bi].Lists[li]))
	next, err := removeList(s.teams, listID)
	return s.apply(ctx, next, err)
}

// --- card mutations --------------------------------------------------------

func (s *Store) CreateCard(ctx context.Context, listID string, card Card) (Card, error) {
	if card.ID == "" {
		card.ID = newID("card")
	}
	if card.Labels == nil {
		card.Labels = []Label{}
	}
	if card.Members == nil {
		card.Members = []User{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := addCard(s.teams, listID, card)
	if err := s.apply(ctx, next, err); err != nil {
		return Card{}, err
	}
	return card, nil
}

func (s *Store) ReplaceCard(ctx context.Context, card Card) error {
	if strings.TrimSpace(card.Title) == "" {
		return validationf("card title cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := replaceCard(s.teams, card)
	return s.apply(ctx, next, err)
}

// DeleteCard applies the same cascade contract as DeleteBoard at card scope.
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ti, bi, li, ci, ok := findCard(s.teams, cardID)
	if !ok {
		return ErrNotFound
	}
	card := s.teams[ti].Boards[bi].Lists[li].Cards[ci]
	ids := make([]string, 0, len(card.Attachments))
	for _, a := range card.Attachments {
		ids = append(ids, a.ID)
	}
	s.deleteBlobs(ctx, ids)
	next, err := removeCard(s.teams, cardID)
	return s.apply(ctx, next, err)
}

func (s *Store) MoveCard(ctx context.Context, boardID, cardID, sourceListID, targetListID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := moveCard(s.teams, boardID, cardID, sourceListID, targetListID)
	return s.apply(ctx, next, err)
}

// --- checklist / comment mutations ----------------------------------------

func (s *Store) AddChecklistItem(ctx context.Context, cardID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := addChecklistItem(s.teams, cardID, text)
	return s.apply(ctx, next, err)
}

func (s *Store) ToggleChecklistItem(ctx context.Context, cardID, itemID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := toggleChecklistItem(s.teams, cardID, itemID, completed)
	return s.apply(ctx, next, err)
}

func (s *Store) UpdateChecklistItemText(ctx context.Context, cardID, itemID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := updateChecklistItemText(s.teams, cardID, itemID, text)
	return s.apply(ctx, next, err)
}

func (s *Store) DeleteChecklistItem(ctx context.Context, cardID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := deleteChecklistItem(s.teams, cardID, itemID)
	return s.apply(ctx, next, err)
}

func (s *Store) AddComment(ctx context.Context, cardID, userID, text string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, cm, err := appendComment(s.teams, cardID, userID, text)
	if err != nil {
		return Comment{}, err
	}
	return cm, s.apply(ctx, next, nil)
}

// --- attachments -----------------------------------------------------------

// AddAttachment stores the payload first, then the metadata record, so the
// invariant that every metadata record has a blob holds even if the second
// step fails (a never-referenced blob is harmless).
func (s *Store) AddAttachment(ctx context.Context, cardID, name, contentType string, size int64, r io.Reader) (Attachment, error) {
	if _, _, _, _, err := s.CardByID(cardID); err != nil {
		return Attachment{}, err
	}
	att := Attachment{ID: newID("att"), Name: name, Type: contentType, Size: size}
	if err := s.blobs.Put(ctx, att.ID, r, size, contentType); err != nil {
		return Attachment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := addAttachmentMeta(s.teams, cardID, att)
	if err := s.apply(ctx, next, err); err != nil {
		return Attachment{}, err
	}
	return att, nil
}

func (s *Store) OpenAttachment(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return s.blobs.Get(ctx, id)
}

// DeleteAttachment attempts the blob delete first; a blob failure is logged
// and the metadata removal still proceeds.
func (s *Store) DeleteAttachment(ctx context.Context, cardID, attachmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.blobs.Delete(ctx, attachmentID); err != nil {
		s.log.Error("delete attachment blob", "id", attachmentID, "err", err)
	}
	next, err := removeAttachmentMeta(s.teams, cardID, attachmentID)
	return s.apply(ctx, next, err)
}
