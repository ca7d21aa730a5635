package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

// flakyBackend is a memory backend whose team and task operations fail with
// an infrastructure error while down is set.
type flakyBackend struct {
	*MemoryBackend
	name  string
	down  atomic.Bool
	calls atomic.Int32
}

func newFlakyBackend(name string) *flakyBackend {
	return &flakyBackend{MemoryBackend: NewMemoryBackend(), name: name}
}

func (f *flakyBackend) Name() string { return f.name }

func (f *flakyBackend) fail(op string) error {
	f.calls.Add(1)
	if f.down.Load() {
		return perrors.ErrBackendUnavailable(f.name, op, errConnRefused)
	}
	return nil
}

func (f *flakyBackend) CreateTeam(ctx context.Context, tf model.TeamFields) (*model.Team, error) {
	if err := f.fail("create team"); err != nil {
		return nil, err
	}
	return f.MemoryBackend.CreateTeam(ctx, tf)
}

func (f *flakyBackend) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	if err := f.fail("get team"); err != nil {
		return nil, err
	}
	return f.MemoryBackend.GetTeam(ctx, id)
}

func (f *flakyBackend) ListTeams(ctx context.Context, tf model.TeamFilter) ([]*model.Team, error) {
	if err := f.fail("list teams"); err != nil {
		return nil, err
	}
	return f.MemoryBackend.ListTeams(ctx, tf)
}

func (f *flakyBackend) DeleteTask(ctx context.Context, id string) (bool, error) {
	if err := f.fail("delete task"); err != nil {
		return false, err
	}
	return f.MemoryBackend.DeleteTask(ctx, id)
}

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestCoordinatorUsesPrimaryWhenHealthy(t *testing.T) {
	t.Parallel()

	primary := newFlakyBackend("sqlite")
	demo := NewMemoryBackend()
	c := NewCoordinator(primary, demo, nil)
	ctx := context.Background()

	team, err := c.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("Alpha")})
	require.NoError(t, err)
	assert.False(t, c.UsingFallback())
	assert.Equal(t, "sqlite", c.Name())
	assert.Same(t, Backend(primary), c.ActiveBackend())

	demoTeams, err := demo.ListTeams(ctx, model.TeamFilter{})
	require.NoError(t, err)
	assert.Empty(t, demoTeams)

	got, err := c.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
}

func TestCoordinatorWriteFailureTripsFallback(t *testing.T) {
	t.Parallel()

	primary := newFlakyBackend("postgres")
	primary.down.Store(true)
	logger, logs := newTestLogger()
	c := NewCoordinator(primary, NewMemoryBackend(), logger)
	ctx := context.Background()

	team, err := c.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("Alpha")})
	require.NoError(t, err, "the caller gets the demo result")
	assert.Equal(t, "team_1", team.ID)
	assert.True(t, c.UsingFallback())
	assert.Equal(t, "memory", c.Name())
	assert.Contains(t, logs.String(), "switching to demo storage")

	// Once tripped, the persistent backend is not consulted again, even
	// after it recovers.
	primary.down.Store(false)
	calls := primary.calls.Load()
	second, err := c.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("Beta")})
	require.NoError(t, err)
	assert.Equal(t, "team_2", second.ID)
	assert.Equal(t, calls, primary.calls.Load())

	got, err := c.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
}

func TestCoordinatorDomainErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(newFlakyBackend("sqlite"), NewMemoryBackend(), nil)
	ctx := context.Background()

	_, err := c.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("   ")})
	assert.True(t, perrors.IsValidation(err))
	assert.False(t, c.UsingFallback())

	_, err = c.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("Alpha")})
	require.NoError(t, err)
	_, err = c.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("Alpha")})
	assert.True(t, perrors.IsConflict(err))
	assert.False(t, c.UsingFallback())

	_, err = c.UpdateProject(ctx, "project_404", model.ProjectFields{Name: model.Ptr("x")})
	assert.True(t, perrors.IsNotFound(err))
	assert.False(t, c.UsingFallback())
}

func TestCoordinatorReadFailureFallsBackPerCall(t *testing.T) {
	t.Parallel()

	primary := newFlakyBackend("mongo")
	demo := NewMemoryBackend()
	logger, logs := newTestLogger()
	c := NewCoordinator(primary, demo, logger)
	ctx := context.Background()

	_, err := demo.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("Demo team")})
	require.NoError(t, err)

	primary.down.Store(true)
	teams, err := c.ListTeams(ctx, model.TeamFilter{})
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Demo team", teams[0].Name)
	assert.False(t, c.UsingFallback(), "reads never trip the flag")
	assert.Contains(t, logs.String(), "serving from demo storage")

	primary.down.Store(false)
	teams, err = c.ListTeams(ctx, model.TeamFilter{})
	require.NoError(t, err)
	assert.Empty(t, teams, "a healthy primary serves reads again")
}

func TestCoordinatorDemoFailureIsInternal(t *testing.T) {
	t.Parallel()

	primary := newFlakyBackend("sqlite")
	demo := newFlakyBackend("memory")
	primary.down.Store(true)
	demo.down.Store(true)
	c := NewCoordinator(primary, demo, nil)

	_, err := c.CreateTeam(context.Background(), model.TeamFields{Name: model.Ptr("Alpha")})
	require.Error(t, err)
	assert.Equal(t, perrors.CodeInternal, perrors.CodeOf(err))
	assert.True(t, c.UsingFallback())
}

func TestCoordinatorWithoutPrimary(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil, NewMemoryBackend(), nil)
	assert.True(t, c.UsingFallback())
	assert.Equal(t, "memory", c.Name())

	ok, err := c.DeleteTask(context.Background(), "task_1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestCoordinatorConcurrentTrip(t *testing.T) {
	t.Parallel()

	primary := newFlakyBackend("postgres")
	primary.down.Store(true)
	logger, logs := newTestLogger()
	c := NewCoordinator(primary, NewMemoryBackend(), logger)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.DeleteTask(ctx, "task_1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, c.UsingFallback())
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("switching to demo storage")),
		"only the call that flips the flag logs")
}

func TestCoordinatorCancelledRequestKeepsDatabase(t *testing.T) {
	t.Parallel()

	primary := NewTestDatabaseBackend(t)
	demo := NewMemoryBackend()
	logger, logs := newTestLogger()
	c := NewCoordinator(primary, demo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	team, err := c.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("Ops")})
	require.NoError(t, err, "a statement already issued runs to completion")
	assert.False(t, c.UsingFallback())
	assert.NotContains(t, logs.String(), "switching to demo storage")

	stored, err := primary.GetTeam(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ops", stored.Name)

	next, err := c.CreateTeam(context.Background(), model.TeamFields{Name: model.Ptr("Design")})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Name())
	_, err = primary.GetTeam(context.Background(), next.ID)
	require.NoError(t, err)

	demoTeams, err := demo.ListTeams(context.Background(), model.TeamFilter{})
	require.NoError(t, err)
	assert.Empty(t, demoTeams)
}

func TestCoordinatorCancelledCallerDoesNotTrip(t *testing.T) {
	t.Parallel()

	primary := newFlakyBackend("postgres")
	primary.down.Store(true)
	demo := NewMemoryBackend()
	c := NewCoordinator(primary, demo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreateTeam(ctx, model.TeamFields{Name: model.Ptr("Ops")})
	require.Error(t, err)
	assert.Equal(t, perrors.CodeBackendUnavailable, perrors.CodeOf(err))
	assert.False(t, c.UsingFallback())

	_, err = c.ListTeams(ctx, model.TeamFilter{})
	require.Error(t, err)

	demoTeams, err := demo.ListTeams(context.Background(), model.TeamFilter{})
	require.NoError(t, err)
	assert.Empty(t, demoTeams, "nothing is retried on demo for a cancelled caller")

	primary.down.Store(false)
	_, err = c.CreateTeam(context.Background(), model.TeamFields{Name: model.Ptr("Ops")})
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.Name())
}
