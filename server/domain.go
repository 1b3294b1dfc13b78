package main

import (
	"fmt"
	"strings"
)

// Mutations are pure: they take the current team collection and return a new
// one, never modifying the input. Expected conditions (empty input, missing
// id) come back as a ValidationError or a silent no-op, never a panic; only
// storage I/O can fail hard, and that happens outside this file.

// ValidationError marks a rejected mutation. Handlers surface it as a 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// --- deep clones -----------------------------------------------------------

func cloneTeams(teams []Team) []Team {
	out := make([]Team, len(teams))
	for i := range teams {
		out[i] = cloneTeam(teams[i])
	}
	return out
}

func cloneTeam(t Team) Team {
	c := t
	c.Members = append([]TeamMember(nil), t.Members...)
	c.ActivityLog = append([]Activity(nil), t.ActivityLog...)
	c.ChatLog = append([]ChatMessage(nil), t.ChatLog...)
	c.Boards = make([]Board, len(t.Boards))
	for i := range t.Boards {
		c.Boards[i] = cloneBoard(t.Boards[i])
	}
	return c
}

func cloneBoard(b Board) Board {
	c := b
	c.Lists = make([]List, len(b.Lists))
	for i := range b.Lists {
		c.Lists[i] = cloneList(b.Lists[i])
	}
	return c
}

func cloneList(l List) List {
	c := l
	c.Cards = make([]Card, len(l.Cards))
	for i := range l.Cards {
		c.Cards[i] = cloneCard(l.Cards[i])
	}
	return c
}

func cloneCard(card Card) Card {
	c := card
	c.Labels = append([]Label(nil), card.Labels...)
	c.Members = append([]User(nil), card.Members...)
	c.Attachments = append([]Attachment(nil), card.Attachments...)
	c.Comments = append([]Comment(nil), card.Comments...)
	if card.Checklist != nil {
		cl := *card.Checklist
		cl.Items = append([]ChecklistItem(nil), card.Checklist.Items...)
		c.Checklist = &cl
	}
	return c
}

// --- lookup helpers --------------------------------------------------------

func teamIndex(teams []Team, teamID string) int {
	for i := range teams {
		if teams[i].ID == teamID {
			return i
		}
	}
	return -1
}

func findBoard(teams []Team, boardID string) (ti, bi int, ok bool) {
	for i := range teams {
		for j := range teams[i].Boards {
			if teams[i].Boards[j].ID == boardID {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func findList(teams []Team, listID string) (ti, bi, li int, ok bool) {
	for i := range teams {
		for j := range teams[i].Boards {
			for k := range teams[i].Boards[j].Lists {
				if teams[i].Boards[j].Lists[k].ID == listID {
					return i, j, k, true
				}
			}
		}
	}
	return 0, 0, 0, false
}

func findCard(teams []Team, cardID string) (ti, bi, li, ci int, ok bool) {
	for i := range teams {
		for j := range teams[i].Boards {
			for k := range teams[i].Boards[j].Lists {
				for m := range teams[i].Boards[j].Lists[k].Cards {
					if teams[i].Boards[j].Lists[k].Cards[m].ID == cardID {
						return i, j, k, m, true
					}
				}
			}
		}
	}
	return 0, 0, 0, 0, false
}

// mutateTeam clones the addressed team, applies fn to the clone, and splices
// it back into a fresh slice. The input collection is untouched.
func mutateTeam(teams []Team, teamID string, fn func(*Team) error) ([]Team, error) {
	i := teamIndex(teams, teamID)
	if i < 0 {
		return nil, ErrNotFound
	}
	t := cloneTeam(teams[i])
	if err := fn(&t); err != nil {
		return nil, err
	}
	out := make([]Team, len(teams))
	copy(out, teams)
	out[i] = t
	return out, nil
}

// --- teams -----------------------------------------------------------------

func createTeam(teams []Team, name string, privacy Privacy, passcode, creatorID string) ([]Team, Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Team{}, validationf("team name cannot be empty")
	}
	if privacy != PrivacyPublic && privacy != PrivacyPrivate {
		return nil, Team{}, validationf("invalid privacy %q", privacy)
	}
	if privacy == PrivacyPrivate && strings.TrimSpace(passcode) == "" {
		return nil, Team{}, validationf("private team requires a passcode")
	}
	if privacy == PrivacyPublic {
		passcode = ""
	}
	t := Team{
		ID:          newID("team"),
		Name:        name,
		Privacy:     privacy,
		Passcode:    passcode,
		Members:     []TeamMember{{UserID: creatorID, Role: RoleAdmin}},
		Boards:      []Board{},
		ActivityLog: []Activity{},
		ChatLog:     []ChatMessage{},
	}
	out := make([]Team, len(teams), len(teams)+1)
	copy(out, teams)
	return append(out, t), t, nil
}

func renameTeam(teams []Team, teamID, name string) ([]Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("team name cannot be empty")
	}
	return mutateTeam(teams, teamID, func(t *Team) error {
		t.Name = name
		return nil
	})
}

func deleteTeam(teams []Team, teamID string) ([]Team, error) {
	i := teamIndex(teams, teamID)
	if i < 0 {
		return nil, ErrNotFound
	}
	out := make([]Team, 0, len(teams)-1)
	out = append(out, teams[:i]...)
	return append(out, teams[i+1:]...), nil
}

// addMember appends {userID, role} preserving existing order; adding an
// existing member is a no-op.
func addMember(teams []Team, teamID, userID string, role Role) ([]Team, error) {
	if role != RoleAdmin && role != RoleMember {
		return nil, validationf("invalid role %q", role)
	}
	return mutateTeam(teams, teamID, func(t *Team) error {
		for _, m := range t.Members {
			if m.UserID == userID {
				return nil
			}
		}
		t.Members = append(t.Members, TeamMember{UserID: userID, Role: role})
		return nil
	})
}

func removeMember(teams []Team, teamID, userID string) ([]Team, error) {
	return mutateTeam(teams, teamID, func(t *Team) error {
		kept := t.Members[:0]
		for _, m := range t.Members {
			if m.UserID != userID {
				kept = append(kept, m)
			}
		}
		t.Members = kept
		return nil
	})
}

func changeMemberRole(teams []Team, teamID, userID string, role Role) ([]Team, error) {
	if role != RoleAdmin && role != RoleMember {
		return nil, validationf("invalid role %q", role)
	}
	return mutateTeam(teams, teamID, func(t *Team) error {
		for i := range t.Members {
			if t.Members[i].UserID == userID {
				t.Members[i].Role = role
			}
		}
		return nil
	})
}

func appendActivity(teams []Team, teamID, userID, action string) ([]Team, error) {
	return mutateTeam(teams, teamID, func(t *Team) error {
		t.ActivityLog = append(t.ActivityLog, Activity{
			ID:        newID("activity"),
			UserID:    userID,
			Action:    action,
			Timestamp: nowISO(),
		})
		return nil
	})
}

func appendChatMessage(teams []Team, teamID, userID, text string) ([]Team, ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ChatMessage{}, validationf("message cannot be empty")
	}
	msg := ChatMessage{ID: newID("msg-team"), UserID: userID, Text: text, Timestamp: nowISO()}
	out, err := mutateTeam(teams, teamID, func(t *Team) error {
		t.ChatLog = append(t.ChatLog, msg)
		return nil
	})
	if err != nil {
		return nil, ChatMessage{}, err
	}
	return out, msg, nil
}

// --- boards ----------------------------------------------------------------

func addBoard(teams []Team, teamID string, board Board) ([]Team, error) {
	return mutateTeam(teams, teamID, func(t *Team) error {
		board.TeamID = t.ID
		t.Boards = append(t.Boards, board)
		return nil
	})
}

func renameBoard(teams []Team, boardID, title string) ([]Team, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationf("board title cannot be empty")
	}
	ti, bi, ok := findBoard(teams, boardID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		t.Boards[bi].Title = title
		return nil
	})
}

// removeBoard drops the board from its team. Attachment blob cleanup happens
// before this runs; see Store.DeleteBoard.
func removeBoard(teams []Team, boardID string) ([]Team, error) {
	ti, bi, ok := findBoard(teams, boardID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		t.Boards = append(t.Boards[:bi], t.Boards[bi+1:]...)
		return nil
	})
}

// boardAttachmentIDs collects every attachment id across every card of the board.
func boardAttachmentIDs(b Board) []string {
	var ids []string
	for _, l := range b.Lists {
		for _, c := range l.Cards {
			for _, a := range c.Attachments {
				ids = append(ids, a.ID)
			}
		}
	}
	return ids
}

// --- lists -----------------------------------------------------------------

func addList(teams []Team, boardID, title string) ([]Team, List, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, List{}, validationf("list title cannot be empty")
	}
	ti, bi, ok := findBoard(teams, boardID)
	if !ok {
		return nil, List{}, ErrNotFound
	}
	l := List{ID: newID("list"), Title: title, Cards: []Card{}}
	out, err := mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		t.Boards[bi].Lists = append(t.Boards[bi].Lists, l)
		return nil
	})
	if err != nil {
		return nil, List{}, err
	}
	return out, l, nil
}

func renameList(teams []Team, listID, title string) ([]Team, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationf("list title cannot be empty")
	}
	ti, bi, li, ok := findList(teams, listID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		t.Boards[bi].Lists[li].Title = title
		return nil
	})
}

func removeList(teams []Team, listID string) ([]Team, error) {
	ti, bi, li, ok := findList(teams, listID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		lists := t.Boards[bi].Lists
		t.Boards[bi].Lists = append(lists[:li], lists[li+1:]...)
		return nil
	})
}

// listAttachmentIDs collects attachment ids for every card in the list.
func listAttachmentIDs(l List) []string {
	var ids []string
	for _, c := range l.Cards {
		for _, a := range c.Attachments {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// --- cards -----------------------------------------------------------------

func addCard(teams []Team, listID string, card Card) ([]Team, error) {
	if strings.TrimSpace(card.Title) == "" {
		return nil, validationf("card title cannot be empty")
	}
	ti, bi, li, ok := findList(teams, listID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		cards := t.Boards[bi].Lists[li].Cards
		t.Boards[bi].Lists[li].Cards = append(cards, card)
		return nil
	})
}

// replaceCard swaps the stored card for the one given, matched by id.
func replaceCard(teams []Team, card Card) ([]Team, error) {
	ti, bi, li, ci, ok := findCard(teams, card.ID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		t.Boards[bi].Lists[li].Cards[ci] = card
		return nil
	})
}

func removeCard(teams []Team, cardID string) ([]Team, error) {
	ti, bi, li, ci, ok := findCard(teams, cardID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		cards := t.Boards[bi].Lists[li].Cards
		t.Boards[bi].Lists[li].Cards = append(cards[:ci], cards[ci+1:]...)
		return nil
	})
}

// moveCard removes the card from the source list and appends it to the end of
// the target list. Source order around the removed card is preserved; the
// card always lands at the target's tail. Same source and target, or a card
// id absent from the source list, is a no-op.
func moveCard(teams []Team, boardID, cardID, sourceListID, targetListID string) ([]Team, error) {
	if sourceListID == targetListID {
		return teams, nil
	}
	ti, bi, ok := findBoard(teams, boardID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		b := &t.Boards[bi]
		var src, dst *List
		for i := range b.Lists {
			switch b.Lists[i].ID {
			case sourceListID:
				src = &b.Lists[i]
			case targetListID:
				dst = &b.Lists[i]
			}
		}
		if src == nil || dst == nil {
			return ErrNotFound
		}
		for i := range src.Cards {
			if src.Cards[i].ID == cardID {
				moved := src.Cards[i]
				src.Cards = append(src.Cards[:i], src.Cards[i+1:]...)
				dst.Cards = append(dst.Cards, moved)
				return nil
			}
		}
		// card not in the source list: nothing to move
		return nil
	})
}

// --- checklist -------------------------------------------------------------

const defaultChecklistTitle = "Checklist"

// addChecklistItem creates the checklist lazily on first use.
func addChecklistItem(teams []Team, cardID, text string) ([]Team, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationf("checklist item cannot be empty")
	}
	return mutateCard(teams, cardID, func(c *Card) error {
		if c.Checklist == nil {
			c.Checklist = &Checklist{Title: defaultChecklistTitle, Items: []ChecklistItem{}}
		}
		c.Checklist.Items = append(c.Checklist.Items, ChecklistItem{
			ID:   newID("chk"),
			Text: text,
		})
		return nil
	})
}

func toggleChecklistItem(teams []Team, cardID, itemID string, completed bool) ([]Team, error) {
	return mutateCard(teams, cardID, func(c *Card) error {
		if c.Checklist == nil {
			return nil
		}
		for i := range c.Checklist.Items {
			if c.Checklist.Items[i].ID == itemID {
				c.Checklist.Items[i].Completed = completed
			}
		}
		return nil
	})
}

func updateChecklistItemText(teams []Team, cardID, itemID, text string) ([]Team, error) {
	return mutateCard(teams, cardID, func(c *Card) error {
		if c.Checklist == nil {
			return nil
		}
		for i := range c.Checklist.Items {
			if c.Checklist.Items[i].ID == itemID {
				c.Checklist.Items[i].Text = text
			}
		}
		return nil
	})
}

func deleteChecklistItem(teams []Team, cardID, itemID string) ([]Team, error) {
	return mutateCard(teams, cardID, func(c *Card) error {
		if c.Checklist == nil {
			return nil
		}
		kept := c.Checklist.Items[:0]
		for _, it := range c.Checklist.Items {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		c.Checklist.Items = kept
		return nil
	})
}

// --- comments and attachments ---------------------------------------------

func appendComment(teams []Team, cardID, userID, text string) ([]Team, Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, Comment{}, validationf("comment cannot be empty")
	}
	cm := Comment{ID: newID("comment"), UserID: userID, Text: text, Timestamp: nowISO()}
	out, err := mutateCard(teams, cardID, func(c *Card) error {
		c.Comments = append(c.Comments, cm)
		return nil
	})
	if err != nil {
		return nil, Comment{}, err
	}
	return out, cm, nil
}

func addAttachmentMeta(teams []Team, cardID string, att Attachment) ([]Team, error) {
	return mutateCard(teams, cardID, func(c *Card) error {
		c.Attachments = append(c.Attachments, att)
		return nil
	})
}

func removeAttachmentMeta(teams []Team, cardID, attachmentID string) ([]Team, error) {
	return mutateCard(teams, cardID, func(c *Card) error {
		kept := c.Attachments[:0]
		for _, a := range c.Attachments {
			if a.ID != attachmentID {
				kept = append(kept, a)
			}
		}
		c.Attachments = kept
		return nil
	})
}

func mutateCard(teams []Team, cardID string, fn func(*Card) error) ([]Team, error) {
	ti, bi, li, ci, ok := findCard(teams, cardID)
	if !ok {
		return nil, ErrNotFound
	}
	return mutateTeam(teams, teams[ti].ID, func(t *Team) error {
		return fn(&t.Boards[bi].Lists[li].Cards[ci])
	})
}
