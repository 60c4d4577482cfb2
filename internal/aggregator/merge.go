package aggregator

import "taskhub/internal/model"

// MergeProjects combines owned projects and memberships into one list keyed
// by project id. Owned entries come first and win over memberships of the
// same project. Memberships without an embedded project id and name are
// dropped.
func MergeProjects(owned []model.Project, memberships []model.Membership) []model.ProjectView {
	seen := make(map[model.ID]struct{}, len(owned)+len(memberships))
	merged := make([]model.ProjectView, 0, len(owned)+len(memberships))

	for _, p := range owned {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, model.ProjectView{
			Project: p,
			Role:    model.RoleOwner,
			Source:  model.SourceOwned,
		})
	}

	for _, m := range ValidMemberships(memberships) {
		if _, ok := seen[m.Project.ID]; ok {
			continue
		}
		seen[m.Project.ID] = struct{}{}
		merged = append(merged, model.ProjectView{
			Project:  *m.Project,
			Role:     m.Role,
			Source:   model.SourceMember,
			JoinedAt: m.JoinedAt,
		})
	}
	return merged
}

// ValidMemberships keeps memberships whose embedded project has an id and a name
func ValidMemberships(memberships []model.Membership) []model.Membership {
	out := make([]model.Membership, 0, len(memberships))
	for _, m := range memberships {
		if m.Project == nil || m.Project.ID == "" || m.Project.Name == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
