package main

import (
	"sort"
	"strings"
	"time"
)

// doneListTitles are the list titles (case-insensitive) that count as a
// board's terminal stage when deriving progress and overdue counts.
var doneListTitles = []string{"done", "hecho", "finalizado"}

func isDoneList(title string) bool {
	lower := strings.ToLower(title)
	for _, t := range doneListTitles {
		if lower == t {
			return true
		}
	}
	return false
}

// overdue reports whether the ISO date is strictly before now. Unparseable
// dates are treated as not overdue; the AI boundary can hand back anything.
func overdue(dueDate string, now time.Time) bool {
	if dueDate == "" {
		return false
	}
	due, err := time.Parse("2006-01-02", dueDate)
	if err != nil {
		if due, err = time.Parse(time.RFC3339, dueDate); err != nil {
			return false
		}
	}
	return due.Before(now)
}

// computeBoardMetrics derives progress, overdue count, and the assigned
// member set of a single board. Progress is the done-list share of all cards
// as an integer 0-100, zero for an empty board. Cards sitting in a done-list
// are never overdue regardless of their due date. Assigned members are
// deduplicated by id, in order of first appearance.
func computeBoardMetrics(b Board, now time.Time) BoardMetrics {
	var total, done, over int
	var assigned []User
	seen := map[string]bool{}
	for _, l := range b.Lists {
		doneList := isDoneList(l.Title)
		for _, c := range l.Cards {
			total++
			if doneList {
				done++
			} else if overdue(c.DueDate, now) {
				over++
			}
			for _, m := range c.Members {
				if !seen[m.ID] {
					seen[m.ID] = true
					assigned = append(assigned, m)
				}
			}
		}
	}
	progress := 0
	if total > 0 {
		progress = int(float64(done)/float64(total)*100 + 0.5)
	}
	return BoardMetrics{
		TotalTasks:      total,
		Progress:        progress,
		OverdueTasks:    over,
		AssignedMembers: assigned,
	}
}

// computeWorkload counts, per team member, the cards across all of the
// team's boards that carry the member in their member set. Raw counts, no
// normalization; the result is independent of card member ordering.
func computeWorkload(t Team, users []User) []WorkloadEntry {
	byID := map[string]User{}
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]WorkloadEntry, 0, len(t.Members))
	for _, m := range t.Members {
		entry := WorkloadEntry{UserID: m.UserID}
		if u, ok := byID[m.UserID]; ok {
			entry.UserName = u.Name
		}
		for _, b := range t.Boards {
			for _, l := range b.Lists {
				for _, c := range l.Cards {
					for _, cm := range c.Members {
						if cm.ID == m.UserID {
							entry.TaskCount++
							break
						}
					}
				}
			}
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TaskCount > out[j].TaskCount })
	return out
}

// computeTeamMetrics aggregates board metrics across the whole team.
func computeTeamMetrics(t Team, users []User, now time.Time) TeamMetrics {
	var total, done, over int
	for _, b := range t.Boards {
		m := computeBoardMetrics(b, now)
		total += m.TotalTasks
		over += m.OverdueTasks
		for _, l := range b.Lists {
			if isDoneList(l.Title) {
				done += len(l.Cards)
			}
		}
	}
	progress := 0
	if total > 0 {
		progress = int(float64(done)/float64(total)*100 + 0.5)
	}
	return TeamMetrics{
		TotalTasks:     total,
		CompletedTasks: done,
		OverdueTasks:   over,
		Progress:       progress,
		Workload:       computeWorkload(t, users),
	}
}
