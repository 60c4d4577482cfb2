package model

import "encoding/json"

type User struct {
	ID          ID     `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

type Project struct {
	ID          ID            `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority"`
	Progress    int           `json:"progress"`
	StartDate   Timestamp     `json:"startDate"`
	DueDate     Timestamp     `json:"dueDate"`
	Budget      *Budget       `json:"budget,omitempty"`
	Client      string        `json:"client,omitempty"`
	Tags        []string      `json:"tags"`
	CreatedAt   Timestamp     `json:"createdAt"`
	UpdatedAt   Timestamp     `json:"updatedAt"`
}

// Membership links the viewer to a project they belong to. Project may be
// missing or partial when the Gateway could not embed it.
type Membership struct {
	ID       ID        `json:"id"`
	UserID   ID        `json:"userId"`
	Role     string    `json:"role"`
	JoinedAt Timestamp `json:"joinedAt"`
	Project  *Project  `json:"project,omitempty"`
}

// Member is one row of a project's member listing
type Member struct {
	ID        ID        `json:"id"`
	UserID    ID        `json:"userId"`
	ProjectID ID        `json:"projectId"`
	Role      string    `json:"role"`
	JoinedAt  Timestamp `json:"joinedAt"`
}

type Task struct {
	ID            ID         `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        TaskStatus `json:"status"`
	RawStatus     string     `json:"rawStatus,omitempty"`
	Priority      Priority   `json:"priority"`
	DueDate       Timestamp  `json:"dueDate"`
	ProjectID     ID         `json:"projectId"`
	AssigneeID    ID         `json:"assigneeId"`
	AssigneeName  string     `json:"assigneeName,omitempty"`
	CreatedByID   ID         `json:"createdById"`
	CreatedByName string     `json:"createdByName,omitempty"`
	CreatedAt     Timestamp  `json:"createdAt"`
	UpdatedAt     Timestamp  `json:"updatedAt"`
}

// UnmarshalJSON normalizes the status and keeps unknown spellings in RawStatus
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		Status string `json:"status"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	st, ok := ParseTaskStatus(aux.Status)
	t.Status = st
	if !ok {
		t.RawStatus = aux.Status
	}
	return nil
}

type Comment struct {
	ID         ID        `json:"id"`
	TaskID     ID        `json:"taskId"`
	AuthorID   ID        `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  Timestamp `json:"createdAt"`
}

type Invite struct {
	ID           ID           `json:"id"`
	ProjectID    ID           `json:"projectId"`
	InvitedBy    ID           `json:"invitedBy"`
	InvitedEmail string       `json:"invitedEmail"`
	Role         string       `json:"role"`
	Status       InviteStatus `json:"status"`
	CreatedAt    Timestamp    `json:"createdAt"`
}

// AsTask returns the task itself; views embedding Task inherit it
func (t Task) AsTask() Task { return t }
