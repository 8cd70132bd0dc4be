package views

import (
	"math"
	"sort"
	"time"

	"taskboard/internal/service"
)

const (
	week        = 7 * 24 * time.Hour
	recentLimit = 5
)

// ProjectActivity is a project with its tasks completed in the last week.
type ProjectActivity struct {
	Project   service.Project
	Completed int
}

// Summary is what the dashboard home shows.
type Summary struct {
	Stats service.DashboardStats
	// ProductivityScore is the completion percentage, rounded.
	ProductivityScore int
	CompletedThisWeek int
	HighPriority      []service.Task
	ActiveProjects    int
	Recent            []service.Task
	Upcoming          []service.Task
	Overdue           []service.Task
	MostActive        *ProjectActivity
}

// Summary derives the dashboard figures from the caches as of now.
func (d *Dashboard) Summary(now time.Time) Summary {
	return summarize(d.Stats(), d.Projects.Snapshot(), d.Tasks.Snapshot(), now)
}

func summarize(stats service.DashboardStats, projects []service.Project, tasks []service.Task, now time.Time) Summary {
	s := Summary{Stats: stats}
	if stats.TotalTasks > 0 {
		s.ProductivityScore = int(math.Round(float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100))
	}

	weekAgo := now.Add(-week)
	weekAhead := now.Add(week)
	completedByProject := make(map[string]int)
	openByProject := make(map[string]bool)

	for _, t := range tasks {
		open := t.Status != service.StatusDone
		if !open && !t.UpdatedAt.Before(weekAgo) {
			s.CompletedThisWeek++
			if t.ProjectID != "" {
				completedByProject[t.ProjectID]++
			}
		}
		if open && t.ProjectID != "" {
			openByProject[t.ProjectID] = true
		}
		if open && t.Priority == service.PriorityHigh {
			s.HighPriority = append(s.HighPriority, t)
		}
		if open && t.DueDate != nil {
			switch {
			case t.DueDate.Before(now):
				s.Overdue = append(s.Overdue, t)
			case !t.DueDate.After(weekAhead):
				s.Upcoming = append(s.Upcoming, t)
			}
		}
	}

	sort.SliceStable(s.Upcoming, func(i, j int) bool {
		return s.Upcoming[i].DueDate.Before(*s.Upcoming[j].DueDate)
	})

	recent := make([]service.Task, len(tasks))
	copy(recent, tasks)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	s.Recent = recent

	for _, p := range projects {
		if openByProject[p.ID] {
			s.ActiveProjects++
		}
		n := completedByProject[p.ID]
		if s.MostActive == nil || n > s.MostActive.Completed {
			s.MostActive = &ProjectActivity{Project: p, Completed: n}
		}
	}
	return s
}
