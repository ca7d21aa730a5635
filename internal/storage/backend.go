// Package storage provides the entity store for planner.
//
// Every adapter (relational, document and in-memory) implements Backend and
// returns the same model shapes. Coordinator routes calls to a persistent
// adapter and fails over to the in-memory demo adapter when it breaks.
package storage

import (
	"context"
	"time"

	"github.com/agb-planner/planner/internal/model"
)

// Backend defines the entity store operations.
// All implementations must be safe for concurrent access.
//
// Create applies defaults, validates every field and assigns an id. Update
// merges only the supplied fields. Delete is a hard delete that reports
// false when the id does not exist. List returns records in insertion order
// and an empty, non-nil slice when nothing matches.
type Backend interface {
	// Name identifies the adapter in logs and health output.
	Name() string

	// Team operations
	CreateTeam(ctx context.Context, f model.TeamFields) (*model.Team, error)
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	ListTeams(ctx context.Context, f model.TeamFilter) ([]*model.Team, error)
	UpdateTeam(ctx context.Context, id string, f model.TeamFields) (*model.Team, error)
	DeleteTeam(ctx context.Context, id string) (bool, error)

	// Project operations
	CreateProject(ctx context.Context, f model.ProjectFields) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context, f model.ProjectFilter) ([]*model.Project, error)
	UpdateProject(ctx context.Context, id string, f model.ProjectFields) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) (bool, error)

	// Task operations
	CreateTask(ctx context.Context, f model.TaskFields) (*model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, f model.TaskFilter) ([]*model.Task, error)
	UpdateTask(ctx context.Context, id string, f model.TaskFields) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) (bool, error)

	// Milestone operations
	CreateMilestone(ctx context.Context, f model.MilestoneFields) (*model.Milestone, error)
	GetMilestone(ctx context.Context, id string) (*model.Milestone, error)
	ListMilestones(ctx context.Context, f model.MilestoneFilter) ([]*model.Milestone, error)
	UpdateMilestone(ctx context.Context, id string, f model.MilestoneFields) (*model.Milestone, error)
	DeleteMilestone(ctx context.Context, id string) (bool, error)

	// Lifecycle
	Close() error
}

// DefaultOperationTimeout bounds every persistent adapter call.
const DefaultOperationTimeout = 5 * time.Second

// Clock returns the current time. Adapters stamp createdAt/updatedAt with it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
