package model

// Sentinels used when a referenced entity cannot be resolved
const (
	UnknownProjectName  = "Unknown Project"
	UnknownProjectRole  = "unknown"
	UnknownMemberName   = "Unknown"
	UnknownMemberEmail  = "Unavailable"
	UnknownInviterName  = "Unknown User"
	UnknownInviterEmail = "unknown@example.com"
	UnavailableProject  = "Project details unavailable"
	UnassignedName      = "Unassigned"
	RoleOwner           = "owner"
	SourceOwned         = "owned"
	SourceMember        = "member"
)

// ProjectView is a project annotated with the viewer's relation to it
type ProjectView struct {
	Project
	Role     string    `json:"role"`
	Source   string    `json:"source"`
	JoinedAt Timestamp `json:"joinedAt"`
}

// TaskView is a task annotated with its project
type TaskView struct {
	Task
	ProjectName string `json:"projectName"`
	ProjectRole string `json:"projectRole"`
}

// MemberView is a project member with resolved user details
type MemberView struct {
	Member
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// InviteProject is the project snapshot carried by an InviteView
type InviteProject struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// InviteView is a pending invite with inviter and project resolved
type InviteView struct {
	Invite
	InviterName   string        `json:"inviterName"`
	InviterEmail  string        `json:"inviterEmail"`
	InviterAvatar string        `json:"inviterAvatar,omitempty"`
	Project       InviteProject `json:"project"`
}
