package aggregator

import "taskhub/internal/model"

// DedupTasks keeps the first occurrence of every task id
func DedupTasks(tasks []model.Task) []model.Task {
	seen := make(map[model.ID]struct{}, len(tasks))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// EnrichTasks attaches project name and viewer role. Tasks whose project is
// not in projects get the Unknown Project sentinel.
func EnrichTasks(tasks []model.Task, projects []model.ProjectView) []model.TaskView {
	byID := make(map[model.ID]model.ProjectView, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	out := make([]model.TaskView, 0, len(tasks))
	for _, t := range tasks {
		v := model.TaskView{
			Task:        t,
			ProjectName: model.UnknownProjectName,
			ProjectRole: model.UnknownProjectRole,
		}
		if p, ok := byID[t.ProjectID]; ok {
			v.ProjectName = p.Name
			v.ProjectRole = p.Role
		}
		out = append(out, v)
	}
	return out
}
