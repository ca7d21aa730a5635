package planner

import (
	"context"

	"golang.org/x/sync/errgroup"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// ProjectDetail is a project with its team, tasks and milestones resolved.
// TeamDetail is nil when the project's team reference does not resolve.
type ProjectDetail struct {
	*model.Project
	TeamDetail    *model.Team        `json:"teamDetail,omitempty"`
	TaskList      []*model.Task      `json:"taskList"`
	MilestoneList []*model.Milestone `json:"milestoneList"`
}

// ProjectStats summarises a project's tasks. HighPriorityTasks counts open
// critical tasks.
type ProjectStats struct {
	TotalTasks        int `json:"totalTasks"`
	CompletedTasks    int `json:"completedTasks"`
	PendingTasks      int `json:"pendingTasks"`
	HighPriorityTasks int `json:"highPriorityTasks"`
	Progress          int `json:"progress"`
}

// CreateProject creates a project and records it on its team.
func (s *Service) CreateProject(ctx context.Context, caller *model.Caller, f model.ProjectFields) (*model.Project, error) {
	if f.Owner == nil {
		f.Owner = model.Ptr(caller.OwnerID())
	}
	p, err := s.store.CreateProject(ctx, f)
	if err != nil {
		return nil, err
	}
	s.linkProject(ctx, p.Team, p.ID)
	return p, nil
}

// GetProject returns a project by id.
func (s *Service) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.store.GetProject(ctx, id)
}

// ProjectDetail loads a project together with its team, tasks and
// milestones. The related lookups run concurrently.
func (s *Service) ProjectDetail(ctx context.Context, id string) (*ProjectDetail, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ProjectDetail{Project: p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		team, err := s.store.GetTeam(gctx, p.Team)
		if perrors.IsNotFound(err) {
			return nil
		}
		detail.TeamDetail = team
		return err
	})
	g.Go(func() error {
		tasks, err := s.store.ListTasks(gctx, model.TaskFilter{Project: model.Ptr(id)})
		detail.TaskList = tasks
		return err
	})
	g.Go(func() error {
		ms, err := s.store.ListMilestones(gctx, model.MilestoneFilter{Project: model.Ptr(id)})
		detail.MilestoneList = ms
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListProjects returns the projects matching f.
func (s *Service) ListProjects(ctx context.Context, f model.ProjectFilter) ([]*model.Project, error) {
	return s.store.ListProjects(ctx, f)
}

// UpdateProject merges the supplied fields. Moving a project to another
// team moves it between the teams' caches.
func (s *Service) UpdateProject(ctx context.Context, id string, f model.ProjectFields) (*model.Project, error) {
	var previousTeam string
	if f.Team != nil {
		before, err := s.store.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		previousTeam = before.Team
	}
	p, err := s.store.UpdateProject(ctx, id, f)
	if err != nil {
		return nil, err
	}
	if previousTeam != "" && previousTeam != p.Team {
		s.unlinkProject(ctx, previousTeam, p.ID)
		s.linkProject(ctx, p.Team, p.ID)
	}
	return p, nil
}

// DeleteProject removes a project and drops it from its team's cache. Its
// tasks and milestones stay listable by project id.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.store.DeleteProject(ctx, id)
	if err := deleted("project", id, ok, err); err != nil {
		return err
	}
	s.unlinkProject(ctx, p.Team, id)
	return nil
}

// ProjectStats counts a project's tasks by completion.
func (s *Service) ProjectStats(ctx context.Context, id string) (*ProjectStats, error) {
	if _, err := s.store.GetProject(ctx, id); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, model.TaskFilter{Project: model.Ptr(id)})
	if err != nil {
		return nil, err
	}
	st := &ProjectStats{TotalTasks: len(tasks)}
	for _, t := range tasks {
		if t.IsCompleted {
			st.CompletedTasks++
		} else if t.Priority == model.PriorityCritical {
			st.HighPriorityTasks++
		}
	}
	st.PendingTasks = st.TotalTasks - st.CompletedTasks
	st.Progress = model.ComputeProgress(st.CompletedTasks, st.TotalTasks)
	return st, nil
}

func (s *Service) linkProject(ctx context.Context, teamID, projectID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	team, err := s.store.GetTeam(ctx, teamID)
	if err == nil {
		ids := appendID(team.Projects, projectID)
		_, err = s.store.UpdateTeam(ctx, teamID, model.TeamFields{Projects: &ids})
	}
	s.cacheWarning(ctx, "add project to team cache", err, "team_id", teamID, "project_id", projectID)
}

func (s *Service) unlinkProject(ctx context.Context, teamID, projectID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	team, err := s.store.GetTeam(ctx, teamID)
	if err == nil {
		ids := removeID(team.Projects, projectID)
		_, err = s.store.UpdateTeam(ctx, teamID, model.TeamFields{Projects: &ids})
	}
	s.cacheWarning(ctx, "remove project from team cache", err, "team_id", teamID, "project_id", projectID)
}
