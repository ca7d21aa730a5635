package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agb-planner/planner/internal/config"
	"github.com/agb-planner/planner/internal/model"
)

func TestSeedBuiltinFixtures(t *testing.T) {
	t.Parallel()

	fx, err := LoadFixtures(BuiltinFixtures)
	require.NoError(t, err)

	for name, b := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			res, err := Seed(ctx, b, fx)
			require.NoError(t, err)
			assert.Equal(t, &SeedResult{Teams: 3, Projects: 3, Milestones: 3, Tasks: 4}, res)

			teams, err := b.ListTeams(ctx, model.TeamFilter{Name: model.Ptr("Platform Team")})
			require.NoError(t, err)
			require.Len(t, teams, 1)
			platform := teams[0]
			require.Len(t, platform.Members, 2)
			assert.Equal(t, model.RoleLead, platform.Members[0].Role)
			require.Len(t, platform.Projects, 1)

			site, err := b.GetProject(ctx, platform.Projects[0])
			require.NoError(t, err)
			assert.Equal(t, "Parent Site", site.Name)
			assert.Equal(t, platform.ID, site.Team)
			assert.Len(t, site.Tasks, 2)
			assert.Len(t, site.Milestones, 2)
			assert.Equal(t, model.DefaultProjectColor, site.Color)

			tasks, err := b.ListTasks(ctx, model.TaskFilter{Project: model.Ptr(site.ID)})
			require.NoError(t, err)
			require.Len(t, tasks, 2)
			assert.True(t, tasks[0].IsCompleted)
			assert.NotNil(t, tasks[0].CompletedAt)
			assert.NotEmpty(t, tasks[0].Milestone)

			beta, err := b.GetMilestone(ctx, tasks[0].Milestone)
			require.NoError(t, err)
			assert.Equal(t, platform.ID, beta.Team, "milestone team comes from its project")
			assert.ElementsMatch(t, []string{tasks[0].ID, tasks[1].ID}, beta.Tasks)

			private, err := b.ListTeams(ctx, model.TeamFilter{IsPublic: model.Ptr(false)})
			require.NoError(t, err)
			require.Len(t, private, 1)
			assert.Equal(t, "Travel Team", private[0].Name)
		})
	}
}

func TestSeedUnknownKey(t *testing.T) {
	t.Parallel()

	fx, err := ParseFixtures([]byte(`
teams:
  - key: a
    name: A
projects:
  - key: p
    team: missing
    name: P
`))
	require.NoError(t, err)

	res, err := Seed(context.Background(), NewMemoryBackend(), fx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown team key "missing"`)
	assert.Equal(t, 1, res.Teams)
}

func TestSeedBadDate(t *testing.T) {
	t.Parallel()

	fx, err := ParseFixtures([]byte(`
teams:
  - key: a
    name: A
projects:
  - key: p
    team: a
    name: P
    startDate: next tuesday
`))
	require.NoError(t, err)

	_, err = Seed(context.Background(), NewMemoryBackend(), fx)
	assert.ErrorContains(t, err, "startDate")
}

func TestLoadFixturesFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte("teams:\n  - key: a\n    name: A\n"), 0644))

	fx, err := LoadFixtures(path)
	require.NoError(t, err)
	require.Len(t, fx.Teams, 1)
	assert.Equal(t, "A", fx.Teams[0].Name)

	_, err = LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseFixtures([]byte("teams: [unclosed"))
	assert.Error(t, err)
}

func TestOpenMemoryDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Storage
	cfg.Driver = config.DriverMemory
	cfg.Fixtures = BuiltinFixtures

	c, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.True(t, c.UsingFallback())
	teams, err := c.ListTeams(context.Background(), model.TeamFilter{})
	require.NoError(t, err)
	assert.Len(t, teams, 3)
}

func TestOpenSQLiteDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Storage
	cfg.DSN = filepath.Join(t.TempDir(), "planner.db")

	c, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.False(t, c.UsingFallback())
	assert.Equal(t, "sqlite", c.Name())
}

func TestOpenUnavailablePrimaryStartsInFallback(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Storage
	cfg.Driver = "cassandra"

	logger, logs := newTestLogger()
	c, err := Open(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.True(t, c.UsingFallback())
	assert.Contains(t, logs.String(), "persistent storage unavailable")
}

func TestOpenBadFixtures(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Storage
	cfg.Driver = config.DriverMemory
	cfg.Fixtures = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
