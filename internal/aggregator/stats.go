package aggregator

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"taskhub/internal/model"
)

// TaskLike is any task or view embedding one
type TaskLike interface {
	AsTask() model.Task
}

type StatusCounts struct {
	ToDo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	InReview   int `json:"inReview"`
	Done       int `json:"done"`
	Total      int `json:"total"`
}

type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
	Unset  int `json:"unset"`
	Total  int `json:"total"`
}

// ChartPoint is one bar or slice of a chart series
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func CountByStatus[T TaskLike](tasks []T) StatusCounts {
	var c StatusCounts
	for _, t := range tasks {
		switch t.AsTask().Status {
		case model.TaskInProgress:
			c.InProgress++
		case model.TaskInReview:
			c.InReview++
		case model.TaskDone:
			c.Done++
		default:
			c.ToDo++
		}
		c.Total++
	}
	return c
}

func (c StatusCounts) Chart() []ChartPoint {
	return []ChartPoint{
		{Name: string(model.TaskToDo), Value: c.ToDo},
		{Name: string(model.TaskInProgress), Value: c.InProgress},
		{Name: string(model.TaskInReview), Value: c.InReview},
		{Name: string(model.TaskDone), Value: c.Done},
	}
}

func CountByPriority[T TaskLike](tasks []T) PriorityCounts {
	var c PriorityCounts
	for _, t := range tasks {
		switch t.AsTask().Priority {
		case model.PriorityLow:
			c.Low++
		case model.PriorityMedium:
			c.Medium++
		case model.PriorityHigh:
			c.High++
		default:
			c.Unset++
		}
		c.Total++
	}
	return c
}

func (c PriorityCounts) Chart() []ChartPoint {
	return []ChartPoint{
		{Name: string(model.PriorityLow), Value: c.Low},
		{Name: string(model.PriorityMedium), Value: c.Medium},
		{Name: string(model.PriorityHigh), Value: c.High},
	}
}

// percent rounds done/total*100 half-up; 0 when total is 0
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*done + total) / (2 * total)
}

// CompletionPercentage of tasks in Done
func CompletionPercentage[T TaskLike](tasks []T) int {
	c := CountByStatus(tasks)
	return percent(c.Done, c.Total)
}

// ProjectProgress is the completion percentage of one project's tasks
func ProjectProgress[T TaskLike](tasks []T) int {
	return CompletionPercentage(tasks)
}

// UpcomingDeadlines returns up to n unfinished tasks with a due date, soonest first
func UpcomingDeadlines[T TaskLike](tasks []T, n int) []T {
	out := make([]T, 0, len(tasks))
	for _, t := range tasks {
		task := t.AsTask()
		if task.DueDate.IsSet() && task.Status != model.TaskDone {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return a.AsTask().DueDate.Compare(b.AsTask().DueDate.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RecentProjects returns up to n projects, most recently updated first
func RecentProjects(projects []model.ProjectView, n int) []model.ProjectView {
	out := slices.Clone(projects)
	slices.SortStableFunc(out, func(a, b model.ProjectView) int {
		return b.UpdatedAt.Compare(a.UpdatedAt.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Column is one kanban column
type Column[T TaskLike] struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks []T    `json:"tasks"`
}

// BoardColumns places every task in its status column; columns are always
// todo, inprogress, review, done in that order
func BoardColumns[T TaskLike](tasks []T) []Column[T] {
	cols := make([]Column[T], len(model.TaskStatuses))
	index := make(map[string]int, len(cols))
	for i, st := range model.TaskStatuses {
		cols[i] = Column[T]{ID: st.Column(), Title: string(st), Tasks: []T{}}
		index[st.Column()] = i
	}
	for _, t := range tasks {
		i := index[t.AsTask().Status.Column()]
		cols[i].Tasks = append(cols[i].Tasks, t)
	}
	return cols
}

type MembershipStats struct {
	Total        int `json:"total"`
	Owned        int `json:"owned"`
	InProgress   int `json:"inProgress"`
	HighPriority int `json:"highPriority"`
}

func CountMemberships(memberships []model.Membership) MembershipStats {
	var s MembershipStats
	for _, m := range memberships {
		s.Total++
		if m.Role == model.RoleOwner {
			s.Owned++
		}
		if m.Project == nil {
			continue
		}
		if m.Project.Status == model.ProjectInProgress {
			s.InProgress++
		}
		if m.Project.Priority == model.PriorityHigh {
			s.HighPriority++
		}
	}
	return s
}

const day = 24 * time.Hour

// DaysLeft counts whole days from the start of today until due, never negative
func DaysLeft(due model.Timestamp, now time.Time) int {
	if !due.IsSet() {
		return 0
	}
	today := startOfDay(now.In(due.Location()))
	return max(0, ceilDays(due.Sub(today)))
}

// DaysUntil is the signed number of days until due, rounded up
func DaysUntil(due model.Timestamp, now time.Time) int {
	if !due.IsSet() {
		return 0
	}
	return ceilDays(due.Sub(now))
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(day)))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StatusProgress is the progress bar value shown for a task status
func StatusProgress(st model.TaskStatus) int {
	switch st {
	case model.TaskDone:
		return 100
	case model.TaskInReview:
		return 80
	case model.TaskInProgress:
		return 50
	default:
		return 10
	}
}

// Sort orders for SortTasks
const (
	SortByDueDate  = "dueDate"
	SortByPriority = "priority"
	SortByTitle    = "title"
)

// TaskQuery filters and orders a task list. Zero fields match everything.
type TaskQuery struct {
	Status   model.TaskStatus
	Priority model.Priority
	Search   string
	SortBy   string
}

// FilterTasks matches Search case-insensitively against title, description
// and project name
func FilterTasks(tasks []model.TaskView, q TaskQuery) []model.TaskView {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]model.TaskView, 0, len(tasks))
	for _, t := range tasks {
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Priority != model.PriorityUnset && t.Priority != q.Priority {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strings.ToLower(t.ProjectName), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortTasks sorts in place and stably. Undated tasks sort after dated ones;
// unknown orders leave the list untouched.
func SortTasks(tasks []model.TaskView, by string) {
	switch by {
	case SortByDueDate:
		slices.SortStableFunc(tasks, func(a, b model.TaskView) int {
			switch {
			case a.DueDate.IsSet() && !b.DueDate.IsSet():
				return -1
			case !a.DueDate.IsSet() && b.DueDate.IsSet():
				return 1
			}
			return a.DueDate.Compare(b.DueDate.Time)
		})
	case SortByPriority:
		slices.SortStableFunc(tasks, func(a, b model.TaskView) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		})
	case SortByTitle:
		slices.SortStableFunc(tasks, func(a, b model.TaskView) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	}
}
