package model

import (
	"encoding/json"
	"strings"
)

// TaskStatus is the closed set of task states
type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskInReview   TaskStatus = "In Review"
	TaskDone       TaskStatus = "Done"
)

// TaskStatuses lists the states in board order
var TaskStatuses = []TaskStatus{TaskToDo, TaskInProgress, TaskInReview, TaskDone}

var taskStatusSpellings = map[string]TaskStatus{
	"TO_DO":       TaskToDo,
	"TODO":        TaskToDo,
	"IN_PROGRESS": TaskInProgress,
	"INPROGRESS":  TaskInProgress,
	"IN_REVIEW":   TaskInReview,
	"INREVIEW":    TaskInReview,
	"REVIEW":      TaskInReview,
	"DONE":        TaskDone,
	"COMPLETED":   TaskDone,
	"COMPLETE":    TaskDone,
}

// normalizeKey folds "In Progress", "in-progress" and "IN_PROGRESS" together
func normalizeKey(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// ParseTaskStatus maps any known spelling to its status. Unknown spellings
// return ToDo and false; an empty string is ToDo and true.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	if strings.TrimSpace(raw) == "" {
		return TaskToDo, true
	}
	if st, ok := taskStatusSpellings[normalizeKey(raw)]; ok {
		return st, true
	}
	return TaskToDo, false
}

func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s, _ = ParseTaskStatus(raw)
	return nil
}

// Column is the kanban column id for a status
func (s TaskStatus) Column() string {
	switch s {
	case TaskInProgress:
		return "inprogress"
	case TaskInReview:
		return "review"
	case TaskDone:
		return "done"
	default:
		return "todo"
	}
}

// StatusForColumn maps a kanban column id back to a status
func StatusForColumn(column string) (TaskStatus, bool) {
	for _, st := range TaskStatuses {
		if st.Column() == column {
			return st, true
		}
	}
	return "", false
}

// ProjectStatus is the lifecycle of a project; distinct from TaskStatus
type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "Not Started"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectOnHold     ProjectStatus = "On Hold"
)

var projectStatusSpellings = map[string]ProjectStatus{
	"NOT_STARTED": ProjectNotStarted,
	"IN_PROGRESS": ProjectInProgress,
	"COMPLETED":   ProjectCompleted,
	"ON_HOLD":     ProjectOnHold,
}

// ParseProjectStatus returns the canonical status; unknown values pass
// through unchanged with ok=false
func ParseProjectStatus(raw string) (ProjectStatus, bool) {
	if st, ok := projectStatusSpellings[normalizeKey(raw)]; ok {
		return st, true
	}
	return ProjectStatus(strings.TrimSpace(raw)), false
}

func (s *ProjectStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s, _ = ParseProjectStatus(raw)
	return nil
}

// Priority of a project or task; the empty value means unset
type Priority string

const (
	PriorityUnset  Priority = ""
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func ParsePriority(raw string) (Priority, bool) {
	switch normalizeKey(raw) {
	case "LOW":
		return PriorityLow, true
	case "MEDIUM":
		return PriorityMedium, true
	case "HIGH":
		return PriorityHigh, true
	case "":
		return PriorityUnset, true
	}
	return PriorityUnset, false
}

// Rank orders priorities High first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p, _ = ParsePriority(raw)
	return nil
}

// InviteStatus of a project invitation
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

func (s *InviteStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = InviteStatus(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}
