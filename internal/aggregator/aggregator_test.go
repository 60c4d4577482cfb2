package aggregator

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/model"
	"taskhub/pkg/rbac"
)

func newTestAggregator(gw Gateway) *Aggregator {
	a := New(gw, Config{FanOutLimit: 4}, zap.NewNop())
	a.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestFanOutKeepsKeyOrderAndErrors(t *testing.T) {
	keys := []int{1, 2, 3, 4, 5}
	results, err := FanOut(context.Background(), 2, keys, func(ctx context.Context, k int) (int, error) {
		if k == 3 {
			return 0, errUpstream
		}
		return k * 10, nil
	})
	if err != nil {
		t.Fatalf("FanOut: %v", err)
	}
	for i, r := range results {
		if r.Key != keys[i] {
			t.Errorf("result %d has key %d", i, r.Key)
		}
		if r.Key == 3 {
			if !errors.Is(r.Err, errUpstream) {
				t.Errorf("expected item error for key 3, got %v", r.Err)
			}
			continue
		}
		if r.Err != nil || r.Value != r.Key*10 {
			t.Errorf("unexpected result %+v", r)
		}
	}
}

func TestFanOutRespectsLimit(t *testing.T) {
	var inFlight, peak int32
	keys := make([]int, 20)
	_, err := FanOut(context.Background(), 3, keys, func(ctx context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if peak > 3 {
		t.Errorf("peak concurrency %d exceeds limit 3", peak)
	}
}

func TestFanOutReportsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := FanOut(ctx, 0, []int{1, 2}, func(ctx context.Context, _ int) (int, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("fn must not run on a cancelled context")
	}
}

func TestTasksDegradesFailingProject(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["1"] = []model.Task{task("a", "1", model.TaskToDo), task("b", "1", model.TaskDone)}
	gw.tasks["2"] = []model.Task{task("c", "2", model.TaskToDo)}
	gw.fail["tasks:2"] = true
	gw.myTasks = []model.Task{task("b", "1", model.TaskToDo), task("d", "9", model.TaskToDo)}

	projects := MergeProjects([]model.Project{project("1", "One"), project("2", "Two")}, nil)
	res, err := newTestAggregator(gw).Tasks(context.Background(), projects)
	if err != nil {
		t.Fatalf("Tasks must not fail on a partial failure: %v", err)
	}

	if got, want := taskIDs(res.Tasks), []model.ID{"a", "b", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("tasks = %v, want %v", got, want)
	}
	if res.Tasks[1].Status != model.TaskDone {
		t.Error("project fetch comes before the direct fetch, so its copy of b must win")
	}
	if res.Tasks[2].ProjectName != model.UnknownProjectName {
		t.Errorf("task d should carry the sentinel, got %q", res.Tasks[2].ProjectName)
	}
	if len(res.Degraded) != 1 || res.Degraded[0].Source != SourceProjectTasks || res.Degraded[0].Key != "2" {
		t.Errorf("expected one degraded project_tasks source for 2, got %+v", res.Degraded)
	}
}

func TestTasksDirectFailureDegrades(t *testing.T) {
	gw := newFakeGateway()
	gw.tasks["1"] = []model.Task{task("a", "1", model.TaskToDo)}
	gw.fail["mytasks"] = true

	res, err := newTestAggregator(gw).Tasks(context.Background(), MergeProjects([]model.Project{project("1", "One")}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tasks) != 1 || len(res.Degraded) != 1 || res.Degraded[0].Source != SourceMyTasks {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestTasksCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestAggregator(newFakeGateway()).Tasks(ctx, MergeProjects([]model.Project{project("1", "One")}, nil))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProjectsSourceFailures(t *testing.T) {
	gw := newFakeGateway()
	gw.owned = []model.Project{project("1", "One")}
	gw.memberships = []model.Membership{{Role: "member", Project: &model.Project{ID: "2", Name: "Two"}}}
	gw.fail["owned"] = true

	res, err := newTestAggregator(gw).Projects(context.Background())
	if err != nil {
		t.Fatalf("one failing source must degrade: %v", err)
	}
	if len(res.Projects) != 1 || res.Projects[0].ID != "2" {
		t.Errorf("expected member project only, got %+v", res.Projects)
	}

	gw.fail["memberships"] = true
	if _, err := newTestAggregator(gw).Projects(context.Background()); !errors.Is(err, ErrNoProjectSources) {
		t.Errorf("expected ErrNoProjectSources, got %v", err)
	}
}

func dashboardGateway() *fakeGateway {
	gw := newFakeGateway()
	gw.profile = model.User{ID: "u1", FullName: "Viewer"}
	p1 := project("1", "One")
	p1.DueDate = due("2024-02-01")
	p1.UpdatedAt = due("2024-01-01")
	p2 := project("2", "Two")
	p2.UpdatedAt = due("2024-01-05")
	gw.owned = []model.Project{p1}
	gw.memberships = []model.Membership{{Role: "member", Project: &p2}}
	gw.tasks["1"] = []model.Task{task("a", "1", model.TaskDone), task("b", "1", model.TaskInReview)}
	gw.tasks["2"] = []model.Task{task("c", "2", model.TaskToDo)}
	gw.members["1"] = []model.Member{{UserID: "u1", Role: model.RoleOwner}, {UserID: "u2", Role: "member"}}
	gw.members["2"] = []model.Member{{UserID: "u3", Role: model.RoleOwner}}
	gw.invites = []model.Invite{{ID: "i1", Status: model.InvitePending}}
	return gw
}

func TestDashboard(t *testing.T) {
	gw := dashboardGateway()
	d, err := newTestAggregator(gw).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	want := DashboardStats{
		TotalProjects:        2,
		ProjectsWithDeadline: 1,
		TotalTasks:           3,
		DoneTasks:            1,
		InReviewTasks:        1,
		CompletionPercentage: 33,
		PendingInvites:       1,
	}
	if d.Stats != want {
		t.Errorf("stats = %+v, want %+v", d.Stats, want)
	}
	if d.ProjectDetails["1"] != (ProjectCounts{TaskCount: 2, MemberCount: 2}) {
		t.Errorf("unexpected details for 1: %+v", d.ProjectDetails["1"])
	}
	if len(d.Recent) != 2 || d.Recent[0].ID != "2" {
		t.Errorf("recent projects should start with 2: %+v", d.Recent)
	}
	if len(d.StatusChart) != 4 || len(d.PriorityChart) != 3 {
		t.Errorf("unexpected chart series %v %v", d.StatusChart, d.PriorityChart)
	}
	if len(d.Degraded) != 0 {
		t.Errorf("expected no degraded sources, got %+v", d.Degraded)
	}
}

func TestDashboardDegradesInvitesAndMembers(t *testing.T) {
	gw := dashboardGateway()
	gw.fail["invites"] = true
	gw.fail["members:2"] = true

	d, err := newTestAggregator(gw).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Stats.PendingInvites != 0 {
		t.Errorf("failed invites should count 0, got %d", d.Stats.PendingInvites)
	}
	if d.ProjectDetails["2"].MemberCount != 0 || d.ProjectDetails["2"].TaskCount != 1 {
		t.Errorf("unexpected details for 2: %+v", d.ProjectDetails["2"])
	}
	if len(d.Degraded) != 2 {
		t.Errorf("expected 2 degraded sources, got %+v", d.Degraded)
	}
}

func TestDashboardProfileFailureIsFatal(t *testing.T) {
	gw := dashboardGateway()
	gw.fail["profile"] = true
	if _, err := newTestAggregator(gw).Dashboard(context.Background()); !errors.Is(err, errUpstream) {
		t.Errorf("expected profile error, got %v", err)
	}
}

func TestMyTasksFiltersButCountsAll(t *testing.T) {
	gw := dashboardGateway()
	res, err := newTestAggregator(gw).MyTasks(context.Background(), TaskQuery{Status: model.TaskDone})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].ID != "a" {
		t.Errorf("expected only task a, got %v", taskIDs(res.Tasks))
	}
	if res.Stats.Total != 3 || res.Stats.Completed != 1 {
		t.Errorf("stats must cover all tasks: %+v", res.Stats)
	}
}

func TestMyProjects(t *testing.T) {
	gw := dashboardGateway()
	gw.memberships = append(gw.memberships, model.Membership{Role: "member"})
	res, err := newTestAggregator(gw).MyProjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Total != 1 || len(res.Memberships) != 1 {
		t.Errorf("malformed membership must be dropped: %+v", res.Stats)
	}
	if len(res.Projects) != 2 {
		t.Errorf("expected 2 merged projects, got %d", len(res.Projects))
	}
}

func boardGateway() *fakeGateway {
	gw := newFakeGateway()
	gw.profile = model.User{ID: "u1"}
	p := project("1", "One")
	p.DueDate = due("2024-01-11")
	gw.projects["1"] = p
	gw.members["1"] = []model.Member{{UserID: "u1", Role: model.RoleOwner}, {UserID: "u2", Role: "member"}}
	gw.users["u1"] = model.User{ID: "u1", FullName: "Owner", Email: "o@x.io"}
	a := task("a", "1", model.TaskToDo)
	a.AssigneeID = "u1"
	b := task("b", "1", model.TaskDone)
	c := task("c", "1", model.TaskInReview)
	c.AssigneeID = "u2"
	gw.tasks["1"] = []model.Task{a, b, c}
	return gw
}

func TestProjectDetailEnrichesMembers(t *testing.T) {
	d, err := newTestAggregator(boardGateway()).ProjectDetail(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsOwner {
		t.Error("viewer is listed as owner")
	}
	if !slices.Contains(d.Permissions, rbac.PermissionDeleteProject) {
		t.Errorf("owner should be offered project deletion, got %v", d.Permissions)
	}
	if d.Members[0].Name != "Owner" || d.Members[1].Name != model.UnknownMemberName || d.Members[1].Email != model.UnknownMemberEmail {
		t.Errorf("unexpected members %+v", d.Members)
	}
	if d.Progress != 33 {
		t.Errorf("progress = %d, want 33", d.Progress)
	}
	if d.DaysLeft != 10 {
		t.Errorf("days left = %d, want 10", d.DaysLeft)
	}
	if len(d.Degraded) != 1 || d.Degraded[0].Source != SourceMemberUser {
		t.Errorf("expected member_user degradation, got %+v", d.Degraded)
	}
}

func TestProjectDetailRequiresAllSources(t *testing.T) {
	gw := boardGateway()
	gw.fail["members:1"] = true
	if _, err := newTestAggregator(gw).ProjectDetail(context.Background(), "1"); !errors.Is(err, errUpstream) {
		t.Errorf("expected error, got %v", err)
	}
}

func TestProjectBoard(t *testing.T) {
	b, err := newTestAggregator(boardGateway()).ProjectBoard(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	todo := b.Columns[0].Tasks
	if len(todo) != 1 || todo[0].AssigneeName != "Owner" || todo[0].AssigneeEmail != "o@x.io" {
		t.Errorf("unexpected todo column %+v", todo)
	}
	done := b.Columns[3].Tasks
	if len(done) != 1 || done[0].AssigneeName != model.UnassignedName {
		t.Errorf("unassigned task should say Unassigned: %+v", done)
	}
	if review := b.Columns[2].Tasks; len(review) != 1 || review[0].AssigneeName != model.UnknownMemberName {
		t.Errorf("unresolved assignee should use member sentinel: %+v", review)
	}
}

func TestTaskDetail(t *testing.T) {
	gw := boardGateway()
	tk := task("t1", "1", model.TaskInReview)
	tk.AssigneeID = "u1"
	tk.CreatedByID = "u2"
	tk.DueDate = due("2024-01-03")
	gw.taskByID["t1"] = tk
	gw.comments["t1"] = []model.Comment{{ID: "c1", Content: "hi"}}

	d, err := newTestAggregator(gw).TaskDetail(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsAssignedToMe || d.IsCreator {
		t.Errorf("unexpected hints assigned=%v creator=%v", d.IsAssignedToMe, d.IsCreator)
	}
	if d.AssigneeName != "Owner" || d.AssigneeEmail != "o@x.io" {
		t.Errorf("assignee not resolved: %q %q", d.AssigneeName, d.AssigneeEmail)
	}
	if d.Task.ProjectName != "One" || d.Task.ProjectRole != model.RoleOwner {
		t.Errorf("task not enriched: %+v", d.Task)
	}
	if d.StatusProgress != 80 || d.DaysUntilDue != 2 {
		t.Errorf("progress=%d days=%d", d.StatusProgress, d.DaysUntilDue)
	}
	if len(d.Comments) != 1 {
		t.Errorf("expected 1 comment, got %d", len(d.Comments))
	}
}

func TestTaskDetailDegradesProject(t *testing.T) {
	gw := boardGateway()
	gw.taskByID["t1"] = task("t1", "1", model.TaskToDo)
	gw.users["u2"] = model.User{ID: "u2", FullName: "Member"}
	gw.fail["project:1"] = true
	gw.fail["comments:t1"] = true

	d, err := newTestAggregator(gw).TaskDetail(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if d.Project != nil || d.Task.ProjectName != model.UnknownProjectName {
		t.Errorf("expected unknown project, got %+v", d.Task)
	}
	if d.AssigneeName != model.UnassignedName {
		t.Errorf("expected Unassigned, got %q", d.AssigneeName)
	}
	if len(d.Degraded) != 2 {
		t.Errorf("expected 2 degraded sources, got %+v", d.Degraded)
	}
}

func TestInvitesUseSentinels(t *testing.T) {
	gw := newFakeGateway()
	gw.invites = []model.Invite{
		{ID: "1", ProjectID: "p1", InvitedBy: "u1", Status: model.InvitePending},
		{ID: "2", ProjectID: "p404", InvitedBy: "u404", Status: model.InvitePending},
	}
	gw.users["u1"] = model.User{ID: "u1", FullName: "Ada", Email: "ada@x.io"}
	gw.projects["p1"] = model.Project{ID: "p1", Name: "Apollo", Description: "moon"}

	res, err := newTestAggregator(gw).Invites(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.PendingCount != 2 {
		t.Errorf("pending = %d, want 2", res.PendingCount)
	}
	first, second := res.Invites[0], res.Invites[1]
	if first.InviterName != "Ada" || first.Project.Name != "Apollo" {
		t.Errorf("first invite not resolved: %+v", first)
	}
	if second.InviterName != model.UnknownInviterName || second.InviterEmail != model.UnknownInviterEmail {
		t.Errorf("inviter sentinels missing: %+v", second)
	}
	if second.Project.Name != model.UnknownProjectName || second.Project.Description != model.UnavailableProject {
		t.Errorf("project sentinels missing: %+v", second.Project)
	}
}

func TestInvitesListFailureDegrades(t *testing.T) {
	gw := newFakeGateway()
	gw.fail["invites"] = true
	res, err := newTestAggregator(gw).Invites(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Invites) != 0 || len(res.Degraded) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}
