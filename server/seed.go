package main

// Fixed seed dataset returned when a snapshot key is missing or does not
// parse. Mirrors the shape of user-created data; ids here are static and do
// not collide with minted ids because minted ids carry a timestamp.

var seedLabels = map[string]Label{
	"critical": {ID: "lab-1", Text: "Critical", Color: "red"},
	"high":     {ID: "lab-2", Text: "High Priority", Color: "orange"},
	"medium":   {ID: "lab-3", Text: "Medium Priority", Color: "blue"},
	"low":      {ID: "lab-4", Text: "Low Priority", Color: "gray"},
	"backend":  {ID: "lab-5", Text: "Backend", Color: "slate"},
	"frontend": {ID: "lab-6", Text: "Frontend", Color: "sky"},
	"uiux":     {ID: "lab-7", Text: "UI/UX", Color: "violet"},
	"bug":      {ID: "lab-8", Text: "Bug", Color: "red"},
	"feature":  {ID: "lab-9", Text: "Feature", Color: "green"},
	"question": {ID: "lab-10", Text: "Question", Color: "purple"},
	"qa":       {ID: "lab-11", Text: "QA", Color: "teal"},
	"docs":     {ID: "lab-12", Text: "Documentation", Color: "indigo"},
	"epic":     {ID: "lab-13", Text: "Epic", Color: "pink"},
}

// labelPalette lists the fixed labels offered for suggestion, in a stable order.
func labelPalette() []Label {
	keys := []string{"critical", "high", "medium", "low", "backend", "frontend", "uiux", "bug", "feature", "question", "qa", "docs", "epic"}
	out := make([]Label, 0, len(keys))
	for _, k := range keys {
		out = append(out, seedLabels[k])
	}
	return out
}

func seedUsers() []User {
	return []User{
		{
			ID:             "user-1",
			Name:           "Ada Reyes (Project Manager)",
			Avatar:         "https://picsum.photos/id/1011/32/32",
			ProfileSummary: "Project Manager. Coordinates the team, owns the roadmap, tracks tasks and deadlines. Specialty: agile project management. Keywords: strategy, organization, coordination.",
			IsSystemAdmin:  true,
		},
		{
			ID:             "user-2",
			Name:           "Tomás Vega (UX/UI Designer)",
			Avatar:         "https://picsum.photos/id/1012/32/32",
			ProfileSummary: "UX/UI Designer. Produces wireframes, prototypes and design systems. Specialty: Figma, design systems. Keywords: design, UX, UI.",
		},
		{
			ID:             "user-3",
			Name:           "Lena Fischer (Frontend Developer)",
			Avatar:         "https://picsum.photos/id/1013/32/32",
			ProfileSummary: "Frontend Developer. Builds interactive interfaces. Specialty: TypeScript, React. Keywords: development, frontend, UI.",
		},
		{
			ID:             "user-4",
			Name:           "Marco Díaz (Backend Developer)",
			Avatar:         "https://picsum.photos/id/1014/32/32",
			ProfileSummary: "Backend Developer. Designs scalable APIs, data models and server logic. Specialty: Go, PostgreSQL. Keywords: development, backend, API.",
		},
		{
			ID:             "user-5",
			Name:           "Priya Natarajan (QA Engineer)",
			Avatar:         "https://picsum.photos/id/1016/32/32",
			ProfileSummary: "QA Engineer. Designs automated and manual test suites, safeguards quality. Specialty: integration testing. Keywords: QA, testing, quality.",
		},
	}
}

func seedTeams() []Team {
	return []Team{
		{
			ID:      "team-1",
			Name:    "Kortex Product Team",
			Privacy: PrivacyPublic,
			Members: []TeamMember{
				{UserID: "user-1", Role: RoleAdmin},
				{UserID: "user-2", Role: RoleMember},
				{UserID: "user-3", Role: RoleMember},
				{UserID: "user-4", Role: RoleMember},
				{UserID: "user-5", Role: RoleMember},
			},
			Boards: []Board{
				{
					ID:     "board-1",
					TeamID: "team-1",
					Title:  "MVP Launch",
					Lists: []List{
						{
							ID:    "list-1",
							Title: "Backlog",
							Cards: []Card{
								{
									ID:          "card-1-1",
									Title:       "US-01: As a user I can register an expense and split it",
									Description: "Record a payment, pick participants, attach receipts and compute balances.",
									Labels:      []Label{seedLabels["feature"], seedLabels["high"]},
									Members:     []User{},
								},
								{
									ID:          "card-1-2",
									Title:       "US-02: As a user I can create recurring chores and assign them",
									Description: "Creation, manual or rotating assignment, tracking and reminders.",
									Labels:      []Label{seedLabels["feature"], seedLabels["high"]},
									Members:     []User{},
								},
								{
									ID:          "card-1-3",
									Title:       "EPIC-01: Accounts and household groups",
									Description: "Sign-up, sign-in, and creating or joining a household.",
									Labels:      []Label{seedLabels["epic"], seedLabels["critical"]},
									Members:     []User{},
								},
							},
						},
						{
							ID:    "list-2",
							Title: "To Do",
							Cards: []Card{
								{
									ID:      "card-2-1",
									Title:   "TSK-BE-01: Bootstrap the API service and database",
									Labels:  []Label{seedLabels["backend"], seedLabels["high"]},
									Members: []User{},
									Checklist: &Checklist{
										Title: "Acceptance criteria",
										Items: []ChecklistItem{
											{ID: "chk-2-1-1", Text: "Service skeleton committed", Completed: false},
											{ID: "chk-2-1-2", Text: "Database connection established", Completed: false},
										},
									},
								},
								{
									ID:      "card-2-2",
									Title:   "TSK-FE-01: Project scaffolding and basic navigation",
									Labels:  []Label{seedLabels["frontend"], seedLabels["high"]},
									Members: []User{},
								},
							},
						},
						{ID: "list-3", Title: "In Progress", Cards: []Card{}},
						{ID: "list-4", Title: "Done", Cards: []Card{}},
					},
				},
			},
			ActivityLog: []Activity{},
			ChatLog:     []ChatMessage{},
		},
	}
}
