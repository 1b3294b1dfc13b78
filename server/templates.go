package main

// boardTemplates is the built-in catalog for creating a board from a
// template. Each entry lists its column titles; the last column is always a
// done-list so derived metrics work out of the box.
var boardTemplates = map[string]struct {
	Name  string
	Lists []string
}{
	"kanban": {
		Name:  "Basic Kanban",
		Lists: []string{"To Do", "In Progress", "Done"},
	},
	"software": {
		Name:  "Software Development",
		Lists: []string{"Backlog", "To Do", "In Progress", "Code Review", "Done"},
	},
	"marketing": {
		Name:  "Marketing Campaign",
		Lists: []string{"Ideas", "Planned", "In Progress", "Review", "Done"},
	},
	"sprint": {
		Name:  "Sprint Board",
		Lists: []string{"Sprint Backlog", "In Progress", "Blocked", "Done"},
	},
}

type templateInfo struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Lists []string `json:"lists"`
}

func templateCatalog() []templateInfo {
	// fixed order so the catalog endpoint is stable
	out := make([]templateInfo, 0, len(boardTemplates))
	for _, id := range []string{"kanban", "software", "marketing", "sprint"} {
		t := boardTemplates[id]
		out = append(out, templateInfo{ID: id, Name: t.Name, Lists: t.Lists})
	}
	return out
}

// boardFromTemplate instantiates a template with fresh ids. Unknown template
// ids return false.
func boardFromTemplate(templateID, title string) (Board, bool) {
	t, ok := boardTemplates[templateID]
	if !ok {
		return Board{}, false
	}
	if title == "" {
		title = t.Name
	}
	b := Board{ID: newID("board"), Title: title}
	for _, listTitle := range t.Lists {
		b.Lists = append(b.Lists, List{ID: newID("list"), Title: listTitle, Cards: []Card{}})
	}
	return b, true
}
