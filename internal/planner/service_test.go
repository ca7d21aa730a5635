package planner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
	"github.com/agb-planner/planner/internal/notify"
	"github.com/agb-planner/planner/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.MemoryBackend) {
	t.Helper()
	store := storage.NewMemoryBackend()
	engine, err := notify.NewEngine(filepath.Join(t.TempDir(), "notifications.json"))
	require.NoError(t, err)
	return New(store, WithNotifier(engine)), store
}

func mustTeam(t *testing.T, s *Service, name string) *model.Team {
	t.Helper()
	team, err := s.CreateTeam(context.Background(), nil, model.TeamFields{Name: model.Ptr(name)})
	require.NoError(t, err)
	return team
}

func mustProject(t *testing.T, s *Service, teamID, name string) *model.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), nil, model.ProjectFields{
		Name: model.Ptr(name),
		Team: model.Ptr(teamID),
	})
	require.NoError(t, err)
	return p
}

func mustTask(t *testing.T, s *Service, f model.TaskFields) *model.Task {
	t.Helper()
	res, err := s.CreateTask(context.Background(), f)
	require.NoError(t, err)
	return res.Task
}

func mustMilestone(t *testing.T, s *Service, projectID, teamID, title string, start time.Time) *model.Milestone {
	t.Helper()
	m, err := s.CreateMilestone(context.Background(), nil, model.MilestoneFields{
		Title:     model.Ptr(title),
		Project:   model.Ptr(projectID),
		Team:      model.Ptr(teamID),
		StartDate: model.Ptr(start),
		DueDate:   model.Ptr(start.AddDate(0, 0, 14)),
	})
	require.NoError(t, err)
	return m
}

func TestCreateTeamOwnership(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	anon, err := s.CreateTeam(ctx, nil, model.TeamFields{Name: model.Ptr("Anon")})
	require.NoError(t, err)
	assert.Equal(t, model.DemoOwner, anon.Owner)
	assert.Empty(t, anon.Members)

	caller := &model.Caller{ID: "u1", Name: "Asha"}
	team, err := s.CreateTeam(ctx, caller, model.TeamFields{
		Name:    model.Ptr("Core"),
		Owner:   model.Ptr("someone-else"),
		Members: model.Ptr([]model.TeamMember{{UserID: "u2", Name: "Ravi"}}),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", team.Owner, "owner is always the caller")
	require.Len(t, team.Members, 2)
	assert.Equal(t, "u1", team.Members[0].UserID)
	assert.Equal(t, model.RoleLead, team.Members[0].Role)
	assert.Equal(t, model.RoleMember, team.Members[1].Role)

	listed, err := s.CreateTeam(ctx, caller, model.TeamFields{
		Name:    model.Ptr("Listed"),
		Members: model.Ptr([]model.TeamMember{{UserID: "u1", Role: model.RoleViewer}}),
	})
	require.NoError(t, err)
	require.Len(t, listed.Members, 1)
	assert.Equal(t, model.RoleViewer, listed.Members[0].Role)
}

func TestTeamMembership(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	team := mustTeam(t, s, "Core")

	team, err := s.AddTeamMember(ctx, team.ID, model.TeamMember{UserID: "u1", Name: "Asha"})
	require.NoError(t, err)
	require.Len(t, team.Members, 1)
	assert.Equal(t, model.RoleMember, team.Members[0].Role)

	_, err = s.AddTeamMember(ctx, team.ID, model.TeamMember{UserID: "u1"})
	assert.True(t, perrors.IsConflict(err))

	_, err = s.AddTeamMember(ctx, team.ID, model.TeamMember{UserID: " "})
	assert.True(t, perrors.IsValidation(err))

	_, err = s.AddTeamMember(ctx, "team_404", model.TeamMember{UserID: "u2"})
	assert.True(t, perrors.IsNotFound(err))

	mine, err := s.UserTeams(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, team.ID, mine[0].ID)

	team, err = s.RemoveTeamMember(ctx, team.ID, "u1")
	require.NoError(t, err)
	assert.Empty(t, team.Members)

	team, err = s.RemoveTeamMember(ctx, team.ID, "u1")
	require.NoError(t, err, "removing a non-member is a no-op")
	assert.Empty(t, team.Members)

	_, err = s.UserTeams(ctx, "")
	assert.True(t, perrors.IsValidation(err))
}

func TestPublicTeams(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	mustTeam(t, s, "Open")
	_, err := s.CreateTeam(ctx, nil, model.TeamFields{Name: model.Ptr("Closed"), IsPublic: model.Ptr(false)})
	require.NoError(t, err)

	teams, err := s.PublicTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Open", teams[0].Name)
}

func TestProjectTeamCache(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	a := mustTeam(t, s, "A")
	b := mustTeam(t, s, "B")

	p := mustProject(t, s, a.ID, "Launch")
	assert.Equal(t, model.DemoOwner, p.Owner)

	got, err := s.GetTeam(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, got.Projects)

	_, err = s.UpdateProject(ctx, p.ID, model.ProjectFields{Team: model.Ptr(b.ID)})
	require.NoError(t, err)
	got, err = s.GetTeam(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Projects)
	got, err = s.GetTeam(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, got.Projects)

	task := mustTask(t, s, model.TaskFields{Title: model.Ptr("Orphan"), Project: model.Ptr(p.ID)})
	require.NoError(t, s.DeleteProject(ctx, p.ID))

	got, err = s.GetTeam(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Projects)

	orphans, err := s.ListTasks(ctx, model.TaskFilter{Project: model.Ptr(p.ID)})
	require.NoError(t, err)
	require.Len(t, orphans, 1, "tasks are never cascade-deleted")
	assert.Equal(t, task.ID, orphans[0].ID)

	assert.True(t, perrors.IsNotFound(s.DeleteProject(ctx, p.ID)))
}

func TestProjectWithUnknownTeam(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	p := mustProject(t, s, "team_404", "Floating")
	detail, err := s.ProjectDetail(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.TeamDetail)
	assert.Empty(t, detail.TaskList)
	assert.Empty(t, detail.MilestoneList)
}

func TestProjectDetail(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	team := mustTeam(t, s, "Core")
	p := mustProject(t, s, team.ID, "Launch")
	mustTask(t, s, model.TaskFields{Title: model.Ptr("One"), Project: model.Ptr(p.ID)})
	mustTask(t, s, model.TaskFields{Title: model.Ptr("Two"), Project: model.Ptr(p.ID)})
	mustMilestone(t, s, p.ID, team.ID, "Beta", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	detail, err := s.ProjectDetail(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", detail.Name)
	require.NotNil(t, detail.TeamDetail)
	assert.Equal(t, "Core", detail.TeamDetail.Name)
	assert.Len(t, detail.TaskList, 2)
	assert.Len(t, detail.MilestoneList, 1)
	assert.Len(t, detail.Tasks, 2, "cache is kept in step")
	assert.Len(t, detail.Milestones, 1)

	_, err = s.ProjectDetail(ctx, "project_404")
	assert.True(t, perrors.IsNotFound(err))
}

func TestProjectStats(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, s, "t1", "Launch")

	for _, tc := range []struct {
		priority model.Priority
		status   model.TaskStatus
	}{
		{model.PriorityCritical, model.TaskTodo},
		{model.PriorityCritical, model.TaskDone},
		{model.PriorityHigh, model.TaskInProgress},
		{model.PriorityLow, model.TaskDone},
	} {
		mustTask(t, s, model.TaskFields{
			Title:    model.Ptr("t"),
			Project:  model.Ptr(p.ID),
			Priority: model.Ptr(tc.priority),
			Status:   model.Ptr(tc.status),
		})
	}

	st, err := s.ProjectStats(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, &ProjectStats{
		TotalTasks:        4,
		CompletedTasks:    2,
		PendingTasks:      2,
		HighPriorityTasks: 1,
		Progress:          50,
	}, st)

	empty := mustProject(t, s, "t1", "Empty")
	st, err = s.ProjectStats(ctx, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, st.Progress)
}

func TestCreateTaskNotifiesMentionedMembers(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, s, "t1", "Launch")

	res, err := s.CreateTask(ctx, model.TaskFields{
		Title:    model.Ptr("Ship release"),
		Project:  model.Ptr(p.ID),
		Priority: model.Ptr(model.PriorityHigh),
		MentionedMembers: model.Ptr([]model.MentionedMember{
			{UserID: "u1", Name: "Asha", WhatsappNumber: "9876543210"},
			{UserID: "u2", Name: "No phone"},
		}),
	})
	require.NoError(t, err)
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, "u1", res.Notifications[0].UserID)
	assert.Contains(t, res.Notifications[0].WhatsappLink, "https://wa.me/919876543210?text=")

	require.Len(t, res.NotificationsSent, 1)
	assert.Equal(t, "u1", res.NotificationsSent[0].UserID)
	assert.Equal(t, notify.Method, res.NotificationsSent[0].Method)

	entries, err := s.TaskNotifications(res.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, notify.ActionCreated, entries[0].Action)
	assert.Equal(t, "Launch", entries[0].ProjectName)

	project, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{res.ID}, project.Tasks)
}

func TestUpdateTaskNotifiesOnStatusChange(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, s, "t1", "Launch")
	task := mustTask(t, s, model.TaskFields{
		Title:   model.Ptr("Ship release"),
		Project: model.Ptr(p.ID),
		MentionedMembers: model.Ptr([]model.MentionedMember{
			{UserID: "u1", Name: "Asha", WhatsappNumber: "9876543210"},
		}),
	})

	res, err := s.UpdateTask(ctx, task.ID, model.TaskFields{Description: model.Ptr("more detail")}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Notifications, "no status change, no notification")

	res, err = s.UpdateTaskStatus(ctx, task.ID, model.TaskInProgress, "started today")
	require.NoError(t, err)
	require.Len(t, res.Notifications, 1)

	entries, err := s.UserNotifications("u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, notify.ActionUpdated, entries[1].Action)
	assert.Contains(t, entries[1].Message, "Status: todo → *in_progress*")
	assert.Contains(t, entries[1].Message, "💬 Update: started today")

	done, err := s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	assert.NotNil(t, done.CompletedAt)
	assert.Len(t, done.NotificationsSent, 3)

	all, err := s.AllNotifications()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTaskWithoutMentionsSendsNothing(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	res, err := s.CreateTask(context.Background(), model.TaskFields{Title: model.Ptr("Quiet"), Project: model.Ptr("p1")})
	require.NoError(t, err)
	assert.Empty(t, res.Notifications)
	assert.Empty(t, res.NotificationsSent)
}

func TestTaskMilestoneCache(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, s, "t1", "Launch")
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	m1 := mustMilestone(t, s, p.ID, "t1", "Beta", start)
	m2 := mustMilestone(t, s, p.ID, "t1", "GA", start.AddDate(0, 1, 0))

	task := mustTask(t, s, model.TaskFields{Title: model.Ptr("T"), Project: model.Ptr(p.ID), Milestone: model.Ptr(m1.ID)})
	got, err := s.GetMilestone(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, got.Tasks)

	_, err = s.UpdateTask(ctx, task.ID, model.TaskFields{Milestone: model.Ptr(m2.ID)}, "")
	require.NoError(t, err)
	got, err = s.GetMilestone(ctx, m1.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tasks)
	got, err = s.GetMilestone(ctx, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, got.Tasks)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	got, err = s.GetMilestone(ctx, m2.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tasks)
	project, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, project.Tasks)

	assert.True(t, perrors.IsNotFound(s.DeleteTask(ctx, task.ID)))
}

func TestDeleteMilestoneUnsetsTasks(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustProject(t, s, "t1", "Launch")
	m := mustMilestone(t, s, p.ID, "t1", "Beta", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	a := mustTask(t, s, model.TaskFields{Title: model.Ptr("A"), Project: model.Ptr(p.ID), Milestone: model.Ptr(m.ID)})
	b := mustTask(t, s, model.TaskFields{Title: model.Ptr("B"), Project: model.Ptr(p.ID), Milestone: model.Ptr(m.ID)})

	require.NoError(t, s.DeleteMilestone(ctx, m.ID))

	for _, id := range []string{a.ID, b.ID} {
		task, err := s.GetTask(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, task.Milestone)
	}
	project, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, project.Milestones)

	assert.True(t, perrors.IsNotFound(s.DeleteMilestone(ctx, m.ID)))
}

func TestRecalculateProgress(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	m := mustMilestone(t, s, "p1", "t1", "Beta", start)

	for i := 0; i < 4; i++ {
		status := model.TaskTodo
		if i == 0 {
			status = model.TaskDone
		}
		mustTask(t, s, model.TaskFields{
			Title:     model.Ptr("t"),
			Project:   model.Ptr("p1"),
			Milestone: model.Ptr(m.ID),
			Status:    model.Ptr(status),
		})
	}

	p, err := s.RecalculateProgress(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, &Progress{TotalTasks: 4, CompletedTasks: 1, Progress: 25}, p)

	got, err := s.GetMilestone(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Progress)

	empty := mustMilestone(t, s, "p1", "t1", "Empty", start)
	p, err = s.RecalculateProgress(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, &Progress{}, p)

	_, err = s.RecalculateProgress(ctx, "milestone_404")
	assert.True(t, perrors.IsNotFound(err))
}

func TestTimeline(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	feb := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	late := mustMilestone(t, s, "p1", "t1", "Late Feb", feb)
	early := mustMilestone(t, s, "p1", "t1", "Early Feb", feb.AddDate(0, 0, -15))
	mustMilestone(t, s, "p1", "t1", "March", feb.AddDate(0, 1, 0))
	done := mustMilestone(t, s, "p1", "t1", "Done", feb)
	_, err := s.UpdateMilestone(ctx, done.ID, model.MilestoneFields{Status: model.Ptr(model.MilestoneCompleted)})
	require.NoError(t, err)
	mustMilestone(t, s, "p2", "other-team", "Elsewhere", feb)

	tl, err := s.Timeline(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02", "2026-03"}, tl.Months())
	require.Len(t, tl["2026-02"], 2)
	assert.Equal(t, early.ID, tl["2026-02"][0].ID)
	assert.Equal(t, late.ID, tl["2026-02"][1].ID)
	assert.Len(t, tl["2026-03"], 1)

	_, err = s.Timeline(ctx, " ")
	assert.True(t, perrors.IsValidation(err))
}

func TestTasksByStatus(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()

	for _, st := range []model.TaskStatus{model.TaskTodo, model.TaskTodo, model.TaskInReview, model.TaskDone} {
		mustTask(t, s, model.TaskFields{Title: model.Ptr("t"), Project: model.Ptr("p1"), Status: model.Ptr(st)})
	}

	b, err := s.TasksByStatus(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, b.Todo, 2)
	assert.NotNil(t, b.InProgress)
	assert.Empty(t, b.InProgress)
	assert.Len(t, b.InReview, 1)
	assert.Len(t, b.Done, 1)
}

func TestCommentsAndAttachments(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	task := mustTask(t, s, model.TaskFields{Title: model.Ptr("T"), Project: model.Ptr("p1")})
	caller := &model.Caller{ID: "u1"}

	got, err := s.AddComment(ctx, caller, task.ID, "  looks good ")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "u1", got.Comments[0].Author)
	assert.Equal(t, "looks good", got.Comments[0].Content)
	assert.False(t, got.Comments[0].CreatedAt.IsZero())

	got, err = s.AddComment(ctx, nil, task.ID, "second")
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, model.DemoOwner, got.Comments[1].Author)

	_, err = s.AddComment(ctx, caller, task.ID, "   ")
	assert.True(t, perrors.IsValidation(err))
	_, err = s.AddComment(ctx, caller, "task_404", "hi")
	assert.True(t, perrors.IsNotFound(err))

	got, err = s.AddAttachment(ctx, caller, task.ID, model.Attachment{Filename: "spec.pdf", URL: "/uploads/spec.pdf", FileSize: 1024})
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "u1", got.Attachments[0].UploadedBy)
	assert.False(t, got.Attachments[0].UploadedAt.IsZero())

	_, err = s.AddAttachment(ctx, caller, task.ID, model.Attachment{})
	pe := perrors.AsPlannerError(err)
	require.NotNil(t, pe)
	assert.Len(t, pe.Fields, 2)
}

func TestAssignTask(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	task := mustTask(t, s, model.TaskFields{Title: model.Ptr("T"), Project: model.Ptr("p1")})

	got, err := s.AssignTask(ctx, task.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.Assignee)

	got, err = s.AssignTask(ctx, task.ID, "")
	require.NoError(t, err)
	assert.Empty(t, got.Assignee)
}

func TestStorageStatus(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	assert.Equal(t, StorageStatus{Backend: "memory"}, s.StorageStatus())

	c := storage.NewCoordinator(nil, storage.NewMemoryBackend(), nil)
	assert.Equal(t, StorageStatus{Backend: "memory", UsingFallback: true}, New(c).StorageStatus())
}

func TestNotificationsWithoutNotifier(t *testing.T) {
	t.Parallel()

	s := New(storage.NewMemoryBackend())
	res, err := s.CreateTask(context.Background(), model.TaskFields{
		Title:            model.Ptr("T"),
		Project:          model.Ptr("p1"),
		MentionedMembers: model.Ptr([]model.MentionedMember{{UserID: "u1", WhatsappNumber: "9876543210"}}),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Notifications)

	_, err = s.AllNotifications()
	assert.Equal(t, perrors.CodeInternal, perrors.CodeOf(err))
	_, err = s.PruneNotifications()
	assert.Error(t, err)
}

func TestDeleteTeam(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	team := mustTeam(t, s, "Core")
	p := mustProject(t, s, team.ID, "Launch")

	require.NoError(t, s.DeleteTeam(ctx, team.ID))
	assert.True(t, perrors.IsNotFound(s.DeleteTeam(ctx, team.ID)))

	_, err := s.GetProject(ctx, p.ID)
	assert.NoError(t, err, "projects survive their team")
}

type downBackend struct {
	*storage.MemoryBackend
}

func (downBackend) Name() string { return "sqlite" }

func (downBackend) CreateProject(context.Context, model.ProjectFields) (*model.Project, error) {
	return nil, errors.New("connection refused")
}

func TestFailoverRoutesLaterCallsToDemo(t *testing.T) {
	t.Parallel()

	primary := downBackend{storage.NewMemoryBackend()}
	demo := storage.NewMemoryBackend()
	s := New(storage.NewCoordinator(primary, demo, nil))
	ctx := context.Background()

	assert.Equal(t, StorageStatus{Backend: "sqlite"}, s.StorageStatus())

	p := mustProject(t, s, "t1", "Launch")
	assert.Equal(t, StorageStatus{Backend: "memory", UsingFallback: true}, s.StorageStatus())

	team := mustTeam(t, s, "Core")
	_, err := demo.GetTeam(ctx, team.ID)
	require.NoError(t, err, "writes after the switch land in demo storage")
	_, err = demo.GetProject(ctx, p.ID)
	require.NoError(t, err)

	teams, err := primary.ListTeams(ctx, model.TeamFilter{})
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestConcurrentCreatesKeepEveryCacheEntry(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := context.Background()
	team := mustTeam(t, s, "Core")
	project := mustProject(t, s, team.ID, "Launch")
	m := mustMilestone(t, s, project.ID, team.ID, "Beta", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateTask(ctx, model.TaskFields{
				Title:     model.Ptr(fmt.Sprintf("task %d", i)),
				Project:   model.Ptr(project.ID),
				Milestone: model.Ptr(m.ID),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tasks, n)

	milestone, err := s.GetMilestone(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, milestone.Tasks, n)
}
