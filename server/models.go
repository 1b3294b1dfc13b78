package main

// Domain entities. The whole Team tree (boards, lists, cards) and the User
// pool are serialized wholesale to the snapshot store; attachment payloads
// live only in the blob store, keyed by Attachment.ID.

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar,omitempty"`
	ProfileSummary string `json:"profile_summary,omitempty"`
	IsSystemAdmin  bool   `json:"is_system_admin,omitempty"`
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

type TeamMember struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Team.Passcode is required iff Privacy is private. It is stored in the
// clear: the gate is a plain equality check, not an auth system.
type Team struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Privacy     Privacy       `json:"privacy"`
	Passcode    string        `json:"passcode,omitempty"`
	Members     []TeamMember  `json:"members"`
	Boards      []Board       `json:"boards"`
	ActivityLog []Activity    `json:"activity_log,omitempty"`
	ChatLog     []ChatMessage `json:"chat_log,omitempty"`
}

type Board struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`
	Title  string `json:"title"`
	Lists  []List `json:"lists"`
}

type List struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

// Card.DueDate is an ISO date (YYYY-MM-DD).
type Card struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Labels      []Label      `json:"labels"`
	DueDate     string       `json:"due_date,omitempty"`
	Members     []User       `json:"members"`
	Checklist   *Checklist   `json:"checklist,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Comments    []Comment    `json:"comments,omitempty"`
}

type Label struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color"`
}

type Checklist struct {
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items"`
}

type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Attachment is the metadata record kept inside the card; the payload lives
// in the blob store under the same id.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type Comment struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Activity and ChatMessage are append-only; entries are never mutated or deleted.
type Activity struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// BoardMetrics and TeamMetrics are derived on demand, never stored.
type BoardMetrics struct {
	TotalTasks      int    `json:"total_tasks"`
	Progress        int    `json:"progress"`
	OverdueTasks    int    `json:"overdue_tasks"`
	AssignedMembers []User `json:"assigned_members"`
}

type TeamMetrics struct {
	TotalTasks     int             `json:"total_tasks"`
	CompletedTasks int             `json:"completed_tasks"`
	OverdueTasks   int             `json:"overdue_tasks"`
	Progress       int             `json:"progress"`
	Workload       []WorkloadEntry `json:"workload"`
}

type WorkloadEntry struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	TaskCount int    `json:"task_count"`
}
