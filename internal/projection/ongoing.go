package projection

import "github.com/hpungsan/sieve/internal/item"

// Tab is an ongoing-board column.
type Tab string

const (
	TabFuture      Tab = "future"
	TabMaintain    Tab = "maintain"
	TabDistraction Tab = "distraction"
	TabOther       Tab = "other"
)

// Tabs lists the board columns in display order.
var Tabs = []Tab{TabFuture, TabMaintain, TabDistraction, TabOther}

// UnassignedProject labels ongoing items without a project.
const UnassignedProject = "Unassigned"

// ProjectGroup is the ongoing items of one project within a tab.
type ProjectGroup struct {
	Project string       `json:"project"`
	Items   []*item.Item `json:"items"`
}

// TabGroup is one board column.
type TabGroup struct {
	Tab      Tab            `json:"tab"`
	Projects []ProjectGroup `json:"projects"`
}

// TabOf returns the board column for an item.
func TabOf(it *item.Item) Tab {
	if it.TaskCategory == nil {
		return TabOther
	}
	switch *it.TaskCategory {
	case item.TaskFuture:
		return TabFuture
	case item.TaskMaintain:
		return TabMaintain
	case item.TaskDistraction:
		return TabDistraction
	}
	return TabOther
}

// ProjectOf returns the item's project label.
func ProjectOf(it *item.Item) string {
	if it.Project == nil || *it.Project == "" {
		return UnassignedProject
	}
	return *it.Project
}

// OngoingBoard partitions ongoing items by tab and then by project. All four
// tabs are always present; projects appear in first-seen order.
func OngoingBoard(items []*item.Item) []TabGroup {
	board := make([]TabGroup, len(Tabs))
	index := make(map[Tab]int, len(Tabs))
	for i, t := range Tabs {
		board[i] = TabGroup{Tab: t, Projects: []ProjectGroup{}}
		index[t] = i
	}

	for _, it := range Ongoing(items) {
		g := &board[index[TabOf(it)]]
		name := ProjectOf(it)
		found := false
		for j := range g.Projects {
			if g.Projects[j].Project == name {
				g.Projects[j].Items = append(g.Projects[j].Items, it)
				found = true
				break
			}
		}
		if !found {
			g.Projects = append(g.Projects, ProjectGroup{Project: name, Items: []*item.Item{it}})
		}
	}
	return board
}
