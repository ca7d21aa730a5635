package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agb-planner/planner/internal/db/driver"
	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

var testNow = time.Date(2026, 3, 2, 15, 4, 5, 123456789, time.UTC)

func newTeam(t *testing.T, name string) *model.Team {
	t.Helper()
	team, err := model.NewTeam(model.TeamFields{
		Name:    model.Ptr(name),
		Members: &[]model.TeamMember{{UserID: "u1", Name: "Asha", WhatsappNumber: "9876543210", Role: model.RoleLead}},
	}, testNow)
	require.NoError(t, err)
	return team
}

func TestTeamRoundTrip(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	team := newTeam(t, "Core")
	require.NoError(t, d.CreateTeam(ctx, team))
	assert.Equal(t, "1", team.ID)

	got, err := d.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, team, got)
}

func TestTeamDuplicateNameConflict(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.CreateTeam(ctx, newTeam(t, "Core")))
	err := d.CreateTeam(ctx, newTeam(t, "Core"))
	require.Error(t, err)
	assert.True(t, perrors.IsConflict(err), "got %v", err)
}

func TestGetUnknownAndMalformedIDs(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	_, err := d.GetTeam(ctx, "42")
	assert.True(t, perrors.IsNotFound(err))

	_, err = d.GetTask(ctx, "task_1")
	assert.True(t, perrors.IsNotFound(err))

	ok, err := d.DeleteProject(ctx, "not-a-number")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListTeamsFilter(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	a := newTeam(t, "Alpha")
	b := newTeam(t, "Beta")
	b.IsPublic = false
	b.Members = []model.TeamMember{{UserID: "u2", Role: model.RoleMember, JoinedAt: testNow}}
	require.NoError(t, d.CreateTeam(ctx, a))
	require.NoError(t, d.CreateTeam(ctx, b))

	all, err := d.ListTeams(ctx, model.TeamFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alpha", all[0].Name)

	public, err := d.ListTeams(ctx, model.TeamFilter{IsPublic: model.Ptr(true)})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, a.ID, public[0].ID)

	mine, err := d.ListTeams(ctx, model.TeamFilter{MemberUserID: model.Ptr("u2")})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].ID)

	none, err := d.ListTeams(ctx, model.TeamFilter{Owner: model.Ptr("nobody")})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTaskUpdateInTransaction(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	due := testNow.AddDate(0, 0, 7)
	task, err := model.NewTask(model.TaskFields{
		Title:            model.Ptr("Ship release"),
		Project:          model.Ptr("1"),
		DueDate:          &due,
		Tags:             &[]string{"release"},
		MentionedMembers: &[]model.MentionedMember{{UserID: "u1", Name: "Asha", WhatsappNumber: "9876543210"}},
	}, testNow)
	require.NoError(t, err)
	require.NoError(t, d.CreateTask(ctx, task))

	later := testNow.Add(time.Hour)
	updated, err := d.UpdateTask(ctx, task.ID, func(tk *model.Task) error {
		return tk.Apply(model.TaskFields{Status: model.Ptr(model.TaskDone)}, later)
	})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, later.Equal(*updated.CompletedAt))

	got, err := d.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, []string{"release"}, got.Tags)
	assert.Empty(t, got.Comments)
	assert.NotNil(t, got.Comments)

	done, err := d.ListTasks(ctx, model.TaskFilter{IsCompleted: model.Ptr(true), Project: model.Ptr("1")})
	require.NoError(t, err)
	assert.Len(t, done, 1)
}

func TestUpdateValidationFailureRollsBack(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	team := newTeam(t, "Core")
	require.NoError(t, d.CreateTeam(ctx, team))

	_, err := d.UpdateTeam(ctx, team.ID, func(tm *model.Team) error {
		return tm.Apply(model.TeamFields{Name: model.Ptr("")}, testNow)
	})
	assert.True(t, perrors.IsValidation(err))

	got, err := d.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Core", got.Name)

	_, err = d.UpdateTeam(ctx, "999", func(*model.Team) error { return nil })
	assert.True(t, perrors.IsNotFound(err))
}

func TestProjectAndMilestoneCRUD(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	p, err := model.NewProject(model.ProjectFields{Name: model.Ptr("Launch"), Team: model.Ptr("1")}, testNow)
	require.NoError(t, err)
	require.NoError(t, d.CreateProject(ctx, p))
	assert.Nil(t, p.EndDate)

	got, err := d.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	m, err := model.NewMilestone(model.MilestoneFields{
		Title:     model.Ptr("Beta"),
		Project:   model.Ptr(p.ID),
		Team:      model.Ptr("1"),
		StartDate: model.Ptr(testNow),
		DueDate:   model.Ptr(testNow.AddDate(0, 1, 0)),
	}, testNow)
	require.NoError(t, err)
	require.NoError(t, d.CreateMilestone(ctx, m))

	ms, err := d.ListMilestones(ctx, model.MilestoneFilter{Project: model.Ptr(p.ID)})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, m, ms[0])

	ok, err := d.DeleteMilestone(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.DeleteMilestone(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckConstraintBecomesValidation(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	// Bypass model validation to reach the table constraint.
	p := &model.Project{
		Name:      "Bad",
		Team:      "1",
		Owner:     model.DemoOwner,
		Status:    "sleeping",
		Priority:  model.PriorityLow,
		StartDate: testNow,
		Color:     model.DefaultProjectColor,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	err := d.CreateProject(ctx, p)
	require.Error(t, err)
	assert.True(t, perrors.IsValidation(err), "got %v", err)
}

func TestFileDatabaseSurvivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "planner.db")
	ctx := context.Background()

	d, err := Open(path, driver.DialectSQLite)
	require.NoError(t, err)
	require.NoError(t, d.Migrate(ctx))
	require.NoError(t, d.CreateTeam(ctx, newTeam(t, "Core")))
	require.NoError(t, d.Close())

	d, err = Open(path, driver.DialectSQLite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Migrate(ctx))

	teams, err := d.ListTeams(ctx, model.TeamFilter{})
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Core", teams[0].Name)
}
