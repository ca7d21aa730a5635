package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// Coordinator routes entity operations to a persistent backend and fails
// over to the in-memory demo backend.
//
// A write that fails on the persistent backend with an infrastructure error
// trips the fallback flag and is retried on demo. Once tripped, every call
// goes to demo for the rest of the process. A failed read is served from
// demo for that call only. Validation, conflict and not-found errors are
// answers, not failures, and are returned as-is. So is any error seen after
// the caller's context is done: a hung-up client says nothing about the
// health of the persistent store.
type Coordinator struct {
	primary       Backend
	demo          Backend
	usingFallback atomic.Bool
	logger        *slog.Logger
}

// NewCoordinator creates a coordinator. A nil primary starts in fallback mode.
func NewCoordinator(primary, demo Backend, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{primary: primary, demo: demo, logger: logger}
	if primary == nil {
		c.usingFallback.Store(true)
	}
	return c
}

// UsingFallback reports whether calls are being routed to the demo backend.
func (c *Coordinator) UsingFallback() bool {
	return c.usingFallback.Load()
}

// ActiveBackend returns the backend currently serving writes.
func (c *Coordinator) ActiveBackend() Backend {
	if c.UsingFallback() {
		return c.demo
	}
	return c.primary
}

// Name implements Backend.
func (c *Coordinator) Name() string {
	return c.ActiveBackend().Name()
}

// Close closes both backends.
func (c *Coordinator) Close() error {
	var errs []error
	if c.primary != nil {
		errs = append(errs, c.primary.Close())
	}
	errs = append(errs, c.demo.Close())
	return errors.Join(errs...)
}

// fromDemo surfaces a demo failure. Domain errors pass through.
func fromDemo(op string, err error) error {
	if err == nil || perrors.IsDomain(err) {
		return err
	}
	return perrors.ErrInternal(op+" failed", err)
}

func write[T any](ctx context.Context, c *Coordinator, op string, fn func(Backend) (T, error)) (T, error) {
	if !c.UsingFallback() {
		v, err := fn(c.primary)
		if err == nil || perrors.IsDomain(err) || ctx.Err() != nil {
			return v, err
		}
		if c.usingFallback.CompareAndSwap(false, true) {
			c.logger.WarnContext(ctx, "persistent storage failed, switching to demo storage",
				"op", op, "backend", c.primary.Name(), "error", err)
		}
	}
	v, err := fn(c.demo)
	return v, fromDemo(op, err)
}

func read[T any](ctx context.Context, c *Coordinator, op string, fn func(Backend) (T, error)) (T, error) {
	if !c.UsingFallback() {
		v, err := fn(c.primary)
		if err == nil || perrors.IsDomain(err) || ctx.Err() != nil {
			return v, err
		}
		c.logger.WarnContext(ctx, "persistent read failed, serving from demo storage",
			"op", op, "backend", c.primary.Name(), "error", err)
	}
	v, err := fn(c.demo)
	return v, fromDemo(op, err)
}

// --- Teams ---

// CreateTeam implements Backend.
func (c *Coordinator) CreateTeam(ctx context.Context, f model.TeamFields) (*model.Team, error) {
	return write(ctx, c, "create team", func(b Backend) (*model.Team, error) { return b.CreateTeam(ctx, f) })
}

// GetTeam implements Backend.
func (c *Coordinator) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	return read(ctx, c, "get team", func(b Backend) (*model.Team, error) { return b.GetTeam(ctx, id) })
}

// ListTeams implements Backend.
func (c *Coordinator) ListTeams(ctx context.Context, f model.TeamFilter) ([]*model.Team, error) {
	return read(ctx, c, "list teams", func(b Backend) ([]*model.Team, error) { return b.ListTeams(ctx, f) })
}

// UpdateTeam implements Backend.
func (c *Coordinator) UpdateTeam(ctx context.Context, id string, f model.TeamFields) (*model.Team, error) {
	return write(ctx, c, "update team", func(b Backend) (*model.Team, error) { return b.UpdateTeam(ctx, id, f) })
}

// DeleteTeam implements Backend.
func (c *Coordinator) DeleteTeam(ctx context.Context, id string) (bool, error) {
	return write(ctx, c, "delete team", func(b Backend) (bool, error) { return b.DeleteTeam(ctx, id) })
}

// --- Projects ---

// CreateProject implements Backend.
func (c *Coordinator) CreateProject(ctx context.Context, f model.ProjectFields) (*model.Project, error) {
	return write(ctx, c, "create project", func(b Backend) (*model.Project, error) { return b.CreateProject(ctx, f) })
}

// GetProject implements Backend.
func (c *Coordinator) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return read(ctx, c, "get project", func(b Backend) (*model.Project, error) { return b.GetProject(ctx, id) })
}

// ListProjects implements Backend.
func (c *Coordinator) ListProjects(ctx context.Context, f model.ProjectFilter) ([]*model.Project, error) {
	return read(ctx, c, "list projects", func(b Backend) ([]*model.Project, error) { return b.ListProjects(ctx, f) })
}

// UpdateProject implements Backend.
func (c *Coordinator) UpdateProject(ctx context.Context, id string, f model.ProjectFields) (*model.Project, error) {
	return write(ctx, c, "update project", func(b Backend) (*model.Project, error) { return b.UpdateProject(ctx, id, f) })
}

// DeleteProject implements Backend.
func (c *Coordinator) DeleteProject(ctx context.Context, id string) (bool, error) {
	return write(ctx, c, "delete project", func(b Backend) (bool, error) { return b.DeleteProject(ctx, id) })
}

// --- Tasks ---

// CreateTask implements Backend.
func (c *Coordinator) CreateTask(ctx context.Context, f model.TaskFields) (*model.Task, error) {
	return write(ctx, c, "create task", func(b Backend) (*model.Task, error) { return b.CreateTask(ctx, f) })
}

// GetTask implements Backend.
func (c *Coordinator) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return read(ctx, c, "get task", func(b Backend) (*model.Task, error) { return b.GetTask(ctx, id) })
}

// ListTasks implements Backend.
func (c *Coordinator) ListTasks(ctx context.Context, f model.TaskFilter) ([]*model.Task, error) {
	return read(ctx, c, "list tasks", func(b Backend) ([]*model.Task, error) { return b.ListTasks(ctx, f) })
}

// UpdateTask implements Backend.
func (c *Coordinator) UpdateTask(ctx context.Context, id string, f model.TaskFields) (*model.Task, error) {
	return write(ctx, c, "update task", func(b Backend) (*model.Task, error) { return b.UpdateTask(ctx, id, f) })
}

// DeleteTask implements Backend.
func (c *Coordinator) DeleteTask(ctx context.Context, id string) (bool, error) {
	return write(ctx, c, "delete task", func(b Backend) (bool, error) { return b.DeleteTask(ctx, id) })
}

// --- Milestones ---

// CreateMilestone implements Backend.
func (c *Coordinator) CreateMilestone(ctx context.Context, f model.MilestoneFields) (*model.Milestone, error) {
	return write(ctx, c, "create milestone", func(b Backend) (*model.Milestone, error) { return b.CreateMilestone(ctx, f) })
}

// GetMilestone implements Backend.
func (c *Coordinator) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	return read(ctx, c, "get milestone", func(b Backend) (*model.Milestone, error) { return b.GetMilestone(ctx, id) })
}

// ListMilestones implements Backend.
func (c *Coordinator) ListMilestones(ctx context.Context, f model.MilestoneFilter) ([]*model.Milestone, error) {
	return read(ctx, c, "list milestones", func(b Backend) ([]*model.Milestone, error) { return b.ListMilestones(ctx, f) })
}

// UpdateMilestone implements Backend.
func (c *Coordinator) UpdateMilestone(ctx context.Context, id string, f model.MilestoneFields) (*model.Milestone, error) {
	return write(ctx, c, "update milestone", func(b Backend) (*model.Milestone, error) { return b.UpdateMilestone(ctx, id, f) })
}

// DeleteMilestone implements Backend.
func (c *Coordinator) DeleteMilestone(ctx context.Context, id string) (bool, error) {
	return write(ctx, c, "delete milestone", func(b Backend) (bool, error) { return b.DeleteMilestone(ctx, id) })
}

var _ Backend = (*Coordinator)(nil)
