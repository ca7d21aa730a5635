package storage

import (
	"context"
	"fmt"
	"sync"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// collection keeps one entity type in insertion order with a monotonic
// id counter. Ids are never reused, even after deletes.
type collection[T any] struct {
	prefix string
	seq    int
	order  []string
	items  map[string]*T
}

func newCollection[T any](prefix string) *collection[T] {
	return &collection[T]{prefix: prefix, items: make(map[string]*T)}
}

func (c *collection[T]) nextID() string {
	c.seq++
	return fmt.Sprintf("%s_%d", c.prefix, c.seq)
}

func (c *collection[T]) add(id string, v *T) {
	c.order = append(c.order, id)
	c.items[id] = v
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// each calls fn for every item in insertion order.
func (c *collection[T]) each(fn func(*T)) {
	for _, id := range c.order {
		fn(c.items[id])
	}
}

// MemoryBackend is the demo adapter: process-lifetime collections guarded by
// one RWMutex. Records are cloned on the way in and out so callers never
// share memory with the store.
type MemoryBackend struct {
	mu         sync.RWMutex
	teams      *collection[model.Team]
	projects   *collection[model.Project]
	tasks      *collection[model.Task]
	milestones *collection[model.Milestone]
	now        Clock
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		teams:      newCollection[model.Team]("team"),
		projects:   newCollection[model.Project]("project"),
		tasks:      newCollection[model.Task]("task"),
		milestones: newCollection[model.Milestone]("milestone"),
		now:        systemClock,
	}
}

// Name implements Backend.
func (m *MemoryBackend) Name() string { return "memory" }

// Close implements Backend. The data lives as long as the process.
func (m *MemoryBackend) Close() error { return nil }

// teamNameTaken reports whether another team already uses name.
// Caller must hold m.mu.
func (m *MemoryBackend) teamNameTaken(name, exceptID string) bool {
	taken := false
	m.teams.each(func(t *model.Team) {
		if t.ID != exceptID && t.Name == name {
			taken = true
		}
	})
	return taken
}

// --- Teams ---

// CreateTeam implements Backend.
func (m *MemoryBackend) CreateTeam(_ context.Context, f model.TeamFields) (*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := model.NewTeam(f, m.now())
	if err != nil {
		return nil, err
	}
	if m.teamNameTaken(t.Name, "") {
		return nil, perrors.ErrConflict("team", "name", t.Name)
	}
	t.ID = m.teams.nextID()
	m.teams.add(t.ID, t)
	return t.Clone(), nil
}

// GetTeam implements Backend.
func (m *MemoryBackend) GetTeam(_ context.Context, id string) (*model.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.teams.items[id]
	if !ok {
		return nil, perrors.ErrNotFound("team", id)
	}
	return t.Clone(), nil
}

// ListTeams implements Backend.
func (m *MemoryBackend) ListTeams(_ context.Context, f model.TeamFilter) ([]*model.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*model.Team{}
	m.teams.each(func(t *model.Team) {
		if f.Matches(t) {
			out = append(out, t.Clone())
		}
	})
	return out, nil
}

// UpdateTeam implements Backend.
func (m *MemoryBackend) UpdateTeam(_ context.Context, id string, f model.TeamFields) (*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.teams.items[id]
	if !ok {
		return nil, perrors.ErrNotFound("team", id)
	}
	t := stored.Clone()
	if err := t.Apply(f, m.now()); err != nil {
		return nil, err
	}
	if f.Name != nil && m.teamNameTaken(t.Name, id) {
		return nil, perrors.ErrConflict("team", "name", t.Name)
	}
	m.teams.items[id] = t
	return t.Clone(), nil
}

// DeleteTeam implements Backend.
func (m *MemoryBackend) DeleteTeam(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teams.remove(id), nil
}

// --- Projects ---

// CreateProject implements Backend.
func (m *MemoryBackend) CreateProject(_ context.Context, f model.ProjectFields) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := model.NewProject(f, m.now())
	if err != nil {
		return nil, err
	}
	p.ID = m.projects.nextID()
	m.projects.add(p.ID, p)
	return p.Clone(), nil
}

// GetProject implements Backend.
func (m *MemoryBackend) GetProject(_ context.Context, id string) (*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects.items[id]
	if !ok {
		return nil, perrors.ErrNotFound("project", id)
	}
	return p.Clone(), nil
}

// ListProjects implements Backend.
func (m *MemoryBackend) ListProjects(_ context.Context, f model.ProjectFilter) ([]*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*model.Project{}
	m.projects.each(func(p *model.Project) {
		if f.Matches(p) {
			out = append(out, p.Clone())
		}
	})
	return out, nil
}

// UpdateProject implements Backend.
func (m *MemoryBackend) UpdateProject(_ context.Context, id string, f model.ProjectFields) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.projects.items[id]
	if !ok {
		return nil, perrors.ErrNotFound("project", id)
	}
	p := stored.Clone()
	if err := p.Apply(f, m.now()); err != nil {
		return nil, err
	}
	m.projects.items[id] = p
	return p.Clone(), nil
}

// DeleteProject implements Backend.
func (m *MemoryBackend) DeleteProject(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects.remove(id), nil
}

// --- Tasks ---

// CreateTask implements Backend.
func (m *MemoryBackend) CreateTask(_ context.Context, f model.TaskFields) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := model.NewTask(f, m.now())
	if err != nil {
		return nil, err
	}
	t.ID = m.tasks.nextID()
	m.tasks.add(t.ID, t)
	return t.Clone(), nil
}

// GetTask implements Backend.
func (m *MemoryBackend) GetTask(_ context.Context, id string) (*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks.items[id]
	if !ok {
		return nil, perrors.ErrNotFound("task", id)
	}
	return t.Clone(), nil
}

// ListTasks implements Backend.
func (m *MemoryBackend) ListTasks(_ context.Context, f model.TaskFilter) ([]*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*model.Task{}
	m.tasks.each(func(t *model.Task) {
		if f.Matches(t) {
			out = append(out, t.Clone())
		}
	})
	return out, nil
}

// UpdateTask implements Backend.
func (m *MemoryBackend) UpdateTask(_ context.Context, id string, f model.TaskFields) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.tasks.items[id]
	if !ok {
		return nil, perrors.ErrNotFound("task", id)
	}
	t := stored.Clone()
	if err := t.Apply(f, m.now()); err != nil {
		return nil, err
	}
	m.tasks.items[id] = t
	return t.Clone(), nil
}

// DeleteTask implements Backend.
func (m *MemoryBackend) DeleteTask(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks.remove(id), nil
}

// --- Milestones ---

// CreateMilestone implements Backend.
func (m *MemoryBackend) CreateMilestone(_ context.Context, f model.MilestoneFields) (*model.Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, err := model.NewMilestone(f, m.now())
	if err != nil {
		return nil, err
	}
	ms.ID = m.milestones.nextID()
	m.milestones.add(ms.ID, ms)
	return ms.Clone(), nil
}

// GetMilestone implements Backend.
func (m *MemoryBackend) GetMilestone(_ context.Context, id string) (*model.Milestone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ms, ok := m.milestones.items[id]
	if !ok {
		return nil, perrors.ErrNotFound("milestone", id)
	}
	return ms.Clone(), nil
}

// ListMilestones implements Backend.
func (m *MemoryBackend) ListMilestones(_ context.Context, f model.MilestoneFilter) ([]*model.Milestone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*model.Milestone{}
	m.milestones.each(func(ms *model.Milestone) {
		if f.Matches(ms) {
			out = append(out, ms.Clone())
		}
	})
	return out, nil
}

// UpdateMilestone implements Backend.
func (m *MemoryBackend) UpdateMilestone(_ context.Context, id string, f model.MilestoneFields) (*model.Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.milestones.items[id]
	if !ok {
		return nil, perrors.ErrNotFound("milestone", id)
	}
	ms := stored.Clone()
	if err := ms.Apply(f, m.now()); err != nil {
		return nil, err
	}
	m.milestones.items[id] = ms
	return ms.Clone(), nil
}

// DeleteMilestone implements Backend.
func (m *MemoryBackend) DeleteMilestone(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.milestones.remove(id), nil
}
