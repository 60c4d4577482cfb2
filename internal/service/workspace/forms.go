package workspace

import (
	"fmt"
	"sort"
	"strings"

	"taskhub/internal/gateway"
	"taskhub/internal/model"
)

// ValidationError lists the invalid fields of a form
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// ProjectForm is a project as entered by the user
type ProjectForm struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	StartDate   string   `json:"startDate"`
	DueDate     string   `json:"dueDate"`
	Budget      string   `json:"budget"`
	Client      string   `json:"client"`
	Tags        []string `json:"tags"`
}

// Input validates the form and converts it to the Gateway body
func (f ProjectForm) Input() (gateway.ProjectInput, error) {
	errs := fieldErrors{}
	in := gateway.ProjectInput{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Client:      strings.TrimSpace(f.Client),
		Tags:        CleanTags(f.Tags),
	}
	if in.Name == "" {
		errs["name"] = "Project name is required"
	}

	if f.Status != "" {
		st, ok := model.ParseProjectStatus(f.Status)
		if !ok {
			errs["status"] = fmt.Sprintf("unknown status %q", f.Status)
		}
		in.Status = st
	}
	if p, ok := model.ParsePriority(f.Priority); ok {
		in.Priority = p
	} else {
		errs["priority"] = fmt.Sprintf("unknown priority %q", f.Priority)
	}

	var err error
	if in.StartDate, err = model.ParseTimestamp(f.StartDate); err != nil {
		errs["startDate"] = err.Error()
	}
	if in.DueDate, err = model.ParseTimestamp(f.DueDate); err != nil {
		errs["dueDate"] = err.Error()
	}
	if in.StartDate.IsSet() && in.DueDate.IsSet() && in.DueDate.Before(in.StartDate.Time) {
		errs["dueDate"] = "Due date must not be before the start date"
	}

	if strings.TrimSpace(f.Budget) != "" {
		b, err := model.ParseBudget(f.Budget)
		if err != nil {
			errs["budget"] = err.Error()
		} else {
			in.Budget = &b
		}
	}

	return in, errs.err()
}

// CleanTags trims tags and drops empty and repeated ones, keeping order
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// TaskForm is a task as entered by the user
type TaskForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	AssigneeID  string `json:"assigneeId"`
}

// Input validates the form. New tasks start in To Do whatever the form says;
// an update without a status leaves Status empty.
func (f TaskForm) Input(projectID model.ID, creating bool) (gateway.TaskInput, error) {
	errs := fieldErrors{}
	in := gateway.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		ProjectID:   projectID,
		AssigneeID:  model.ID(strings.TrimSpace(f.AssigneeID)),
	}
	if creating {
		in.Status = model.TaskToDo
	}
	if in.Title == "" {
		errs["title"] = "Task title is required"
	}
	if in.Description == "" {
		errs["description"] = "Task description is required"
	}
	if in.AssigneeID == "" {
		errs["assigneeId"] = "Please assign the task to a team member"
	}
	if projectID == "" {
		errs["projectId"] = "Project is required"
	}

	due, err := model.ParseTimestamp(f.DueDate)
	switch {
	case err != nil:
		errs["dueDate"] = err.Error()
	case !due.IsSet():
		errs["dueDate"] = "Due date is required"
	}
	in.DueDate = due

	if p, ok := model.ParsePriority(f.Priority); ok {
		in.Priority = p
	} else {
		errs["priority"] = fmt.Sprintf("unknown priority %q", f.Priority)
	}

	if !creating && f.Status != "" {
		st, ok := model.ParseTaskStatus(f.Status)
		if !ok {
			errs["status"] = fmt.Sprintf("unknown status %q", f.Status)
		}
		in.Status = st
	}

	return in, errs.err()
}
