package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/agb-planner/planner/internal/db"
	"github.com/agb-planner/planner/internal/db/driver"
	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// DatabaseBackend stores entities in SQLite or PostgreSQL.
// Every call runs under its own operation timeout. Domain errors (validation,
// conflict, not found) pass through unchanged; every other failure is
// reported as BACKEND_UNAVAILABLE.
type DatabaseBackend struct {
	db      *db.DB
	timeout time.Duration
	now     Clock
}

// NewDatabaseBackend wraps an open, migrated database.
func NewDatabaseBackend(d *db.DB, timeout time.Duration) *DatabaseBackend {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return &DatabaseBackend{db: d, timeout: timeout, now: systemClock}
}

// OpenDatabaseBackend opens the database at dsn and creates any missing tables.
func OpenDatabaseBackend(ctx context.Context, dialect driver.Dialect, dsn string, timeout time.Duration) (*DatabaseBackend, error) {
	d, err := db.Open(dsn, dialect)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if err := d.Migrate(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return NewDatabaseBackend(d, timeout), nil
}

// NewInMemoryBackend creates a database backend over a fresh in-memory SQLite
// database.
func NewInMemoryBackend() (*DatabaseBackend, error) {
	d, err := db.OpenInMemory()
	if err != nil {
		return nil, err
	}
	return NewDatabaseBackend(d, DefaultOperationTimeout), nil
}

// DB returns the underlying database.
func (b *DatabaseBackend) DB() *db.DB {
	return b.db
}

// Name implements Backend.
func (b *DatabaseBackend) Name() string {
	return string(b.db.Dialect())
}

// Close implements Backend.
func (b *DatabaseBackend) Close() error {
	return b.db.Close()
}

// opContext bounds a call by the operation timeout only. A caller that goes
// away does not abort a statement already sent to the store.
func (b *DatabaseBackend) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
}

func (b *DatabaseBackend) wrap(op string, err error) error {
	if err == nil || perrors.IsDomain(err) {
		return err
	}
	return perrors.ErrBackendUnavailable(b.Name(), op, err)
}

// --- Teams ---

// CreateTeam implements Backend.
func (b *DatabaseBackend) CreateTeam(ctx context.Context, f model.TeamFields) (*model.Team, error) {
	t, err := model.NewTeam(f, b.now())
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	if err := b.db.CreateTeam(ctx, t); err != nil {
		return nil, b.wrap("create team", err)
	}
	return t, nil
}

// GetTeam implements Backend.
func (b *DatabaseBackend) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	t, err := b.db.GetTeam(ctx, id)
	return t, b.wrap("get team", err)
}

// ListTeams implements Backend.
func (b *DatabaseBackend) ListTeams(ctx context.Context, f model.TeamFilter) ([]*model.Team, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	teams, err := b.db.ListTeams(ctx, f)
	return teams, b.wrap("list teams", err)
}

// UpdateTeam implements Backend.
func (b *DatabaseBackend) UpdateTeam(ctx context.Context, id string, f model.TeamFields) (*model.Team, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	now := b.now()
	t, err := b.db.UpdateTeam(ctx, id, func(t *model.Team) error { return t.Apply(f, now) })
	return t, b.wrap("update team", err)
}

// DeleteTeam implements Backend.
func (b *DatabaseBackend) DeleteTeam(ctx context.Context, id string) (bool, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ok, err := b.db.DeleteTeam(ctx, id)
	return ok, b.wrap("delete team", err)
}

// --- Projects ---

// CreateProject implements Backend.
func (b *DatabaseBackend) CreateProject(ctx context.Context, f model.ProjectFields) (*model.Project, error) {
	p, err := model.NewProject(f, b.now())
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	if err := b.db.CreateProject(ctx, p); err != nil {
		return nil, b.wrap("create project", err)
	}
	return p, nil
}

// GetProject implements Backend.
func (b *DatabaseBackend) GetProject(ctx context.Context, id string) (*model.Project, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	p, err := b.db.GetProject(ctx, id)
	return p, b.wrap("get project", err)
}

// ListProjects implements Backend.
func (b *DatabaseBackend) ListProjects(ctx context.Context, f model.ProjectFilter) ([]*model.Project, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	projects, err := b.db.ListProjects(ctx, f)
	return projects, b.wrap("list projects", err)
}

// UpdateProject implements Backend.
func (b *DatabaseBackend) UpdateProject(ctx context.Context, id string, f model.ProjectFields) (*model.Project, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	now := b.now()
	p, err := b.db.UpdateProject(ctx, id, func(p *model.Project) error { return p.Apply(f, now) })
	return p, b.wrap("update project", err)
}

// DeleteProject implements Backend.
func (b *DatabaseBackend) DeleteProject(ctx context.Context, id string) (bool, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ok, err := b.db.DeleteProject(ctx, id)
	return ok, b.wrap("delete project", err)
}

// --- Tasks ---

// CreateTask implements Backend.
func (b *DatabaseBackend) CreateTask(ctx context.Context, f model.TaskFields) (*model.Task, error) {
	t, err := model.NewTask(f, b.now())
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	if err := b.db.CreateTask(ctx, t); err != nil {
		return nil, b.wrap("create task", err)
	}
	return t, nil
}

// GetTask implements Backend.
func (b *DatabaseBackend) GetTask(ctx context.Context, id string) (*model.Task, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	t, err := b.db.GetTask(ctx, id)
	return t, b.wrap("get task", err)
}

// ListTasks implements Backend.
func (b *DatabaseBackend) ListTasks(ctx context.Context, f model.TaskFilter) ([]*model.Task, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	tasks, err := b.db.ListTasks(ctx, f)
	return tasks, b.wrap("list tasks", err)
}

// UpdateTask implements Backend.
func (b *DatabaseBackend) UpdateTask(ctx context.Context, id string, f model.TaskFields) (*model.Task, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	now := b.now()
	t, err := b.db.UpdateTask(ctx, id, func(t *model.Task) error { return t.Apply(f, now) })
	return t, b.wrap("update task", err)
}

// DeleteTask implements Backend.
func (b *DatabaseBackend) DeleteTask(ctx context.Context, id string) (bool, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ok, err := b.db.DeleteTask(ctx, id)
	return ok, b.wrap("delete task", err)
}

// --- Milestones ---

// CreateMilestone implements Backend.
func (b *DatabaseBackend) CreateMilestone(ctx context.Context, f model.MilestoneFields) (*model.Milestone, error) {
	m, err := model.NewMilestone(f, b.now())
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	if err := b.db.CreateMilestone(ctx, m); err != nil {
		return nil, b.wrap("create milestone", err)
	}
	return m, nil
}

// GetMilestone implements Backend.
func (b *DatabaseBackend) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	m, err := b.db.GetMilestone(ctx, id)
	return m, b.wrap("get milestone", err)
}

// ListMilestones implements Backend.
func (b *DatabaseBackend) ListMilestones(ctx context.Context, f model.MilestoneFilter) ([]*model.Milestone, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ms, err := b.db.ListMilestones(ctx, f)
	return ms, b.wrap("list milestones", err)
}

// UpdateMilestone implements Backend.
func (b *DatabaseBackend) UpdateMilestone(ctx context.Context, id string, f model.MilestoneFields) (*model.Milestone, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	now := b.now()
	m, err := b.db.UpdateMilestone(ctx, id, func(m *model.Milestone) error { return m.Apply(f, now) })
	return m, b.wrap("update milestone", err)
}

// DeleteMilestone implements Backend.
func (b *DatabaseBackend) DeleteMilestone(ctx context.Context, id string) (bool, error) {
	ctx, cancel := b.opContext(ctx)
	defer cancel()
	ok, err := b.db.DeleteMilestone(ctx, id)
	return ok, b.wrap("delete milestone", err)
}
