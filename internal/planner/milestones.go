package planner

import (
	"context"
	"sort"
	"strings"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// timelineMonthLayout keys timeline groups by start month.
const timelineMonthLayout = "2006-01"

// Progress is the result of recomputing a milestone's progress.
type Progress struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	Progress       int `json:"progress"`
}

// Timeline maps a YYYY-MM start month to the milestones starting in it,
// each group ordered by start date.
type Timeline map[string][]*model.Milestone

// Months returns the timeline's keys in chronological order.
func (t Timeline) Months() []string {
	months := make([]string, 0, len(t))
	for m := range t {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// CreateMilestone creates a milestone and records it on its project.
// An authenticated caller becomes the owner unless one is supplied.
func (s *Service) CreateMilestone(ctx context.Context, caller *model.Caller, f model.MilestoneFields) (*model.Milestone, error) {
	if f.Owner == nil && caller != nil && caller.ID != "" {
		f.Owner = model.Ptr(caller.ID)
	}
	m, err := s.store.CreateMilestone(ctx, f)
	if err != nil {
		return nil, err
	}
	s.linkMilestone(ctx, m.Project, m.ID)
	return m, nil
}

// GetMilestone returns a milestone by id.
func (s *Service) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	return s.store.GetMilestone(ctx, id)
}

// ListMilestones returns the milestones matching f.
func (s *Service) ListMilestones(ctx context.Context, f model.MilestoneFilter) ([]*model.Milestone, error) {
	return s.store.ListMilestones(ctx, f)
}

// UpdateMilestone merges the supplied fields.
func (s *Service) UpdateMilestone(ctx context.Context, id string, f model.MilestoneFields) (*model.Milestone, error) {
	var previousProject string
	if f.Project != nil {
		before, err := s.store.GetMilestone(ctx, id)
		if err != nil {
			return nil, err
		}
		previousProject = before.Project
	}
	m, err := s.store.UpdateMilestone(ctx, id, f)
	if err != nil {
		return nil, err
	}
	if previousProject != "" && previousProject != m.Project {
		s.unlinkMilestone(ctx, previousProject, m.ID)
		s.linkMilestone(ctx, m.Project, m.ID)
	}
	return m, nil
}

// DeleteMilestone removes a milestone, unsets it on every task that
// referenced it and drops it from its project's cache.
func (s *Service) DeleteMilestone(ctx context.Context, id string) error {
	m, err := s.store.GetMilestone(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.store.DeleteMilestone(ctx, id)
	if err := deleted("milestone", id, ok, err); err != nil {
		return err
	}

	tasks, err := s.store.ListTasks(ctx, model.TaskFilter{Milestone: model.Ptr(id)})
	if err != nil {
		s.logger.WarnContext(ctx, "list tasks of deleted milestone", "milestone_id", id, "error", err)
	}
	for _, t := range tasks {
		_, err := s.store.UpdateTask(ctx, t.ID, model.TaskFields{Milestone: model.Ptr("")})
		s.cacheWarning(ctx, "unset milestone on task", err, "milestone_id", id, "task_id", t.ID)
	}
	s.unlinkMilestone(ctx, m.Project, id)
	return nil
}

// RecalculateProgress sets a milestone's progress from the share of its
// tasks that are completed. A milestone without tasks has progress 0.
func (s *Service) RecalculateProgress(ctx context.Context, id string) (*Progress, error) {
	if _, err := s.store.GetMilestone(ctx, id); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, model.TaskFilter{Milestone: model.Ptr(id)})
	if err != nil {
		return nil, err
	}
	p := &Progress{TotalTasks: len(tasks)}
	for _, t := range tasks {
		if t.IsCompleted {
			p.CompletedTasks++
		}
	}
	p.Progress = model.ComputeProgress(p.CompletedTasks, p.TotalTasks)

	if _, err := s.store.UpdateMilestone(ctx, id, model.MilestoneFields{Progress: model.Ptr(p.Progress)}); err != nil {
		return nil, err
	}
	return p, nil
}

// Timeline returns a team's milestones that are not completed, grouped by
// the month they start in.
func (s *Service) Timeline(ctx context.Context, teamID string) (Timeline, error) {
	if strings.TrimSpace(teamID) == "" {
		var v perrors.Violations
		v.Add("teamId", "teamId is required")
		return nil, v.Err("timeline")
	}
	ms, err := s.store.ListMilestones(ctx, model.MilestoneFilter{Team: model.Ptr(teamID)})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].StartDate.Before(ms[j].StartDate) })

	tl := Timeline{}
	for _, m := range ms {
		if m.Status == model.MilestoneCompleted {
			continue
		}
		key := m.StartDate.UTC().Format(timelineMonthLayout)
		tl[key] = append(tl[key], m)
	}
	return tl, nil
}

func (s *Service) linkMilestone(ctx context.Context, projectID, milestoneID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	p, err := s.store.GetProject(ctx, projectID)
	if err == nil {
		ids := appendID(p.Milestones, milestoneID)
		_, err = s.store.UpdateProject(ctx, projectID, model.ProjectFields{Milestones: &ids})
	}
	s.cacheWarning(ctx, "add milestone to project cache", err, "project_id", projectID, "milestone_id", milestoneID)
}

func (s *Service) unlinkMilestone(ctx context.Context, projectID, milestoneID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	p, err := s.store.GetProject(ctx, projectID)
	if err == nil {
		ids := removeID(p.Milestones, milestoneID)
		_, err = s.store.UpdateProject(ctx, projectID, model.ProjectFields{Milestones: &ids})
	}
	s.cacheWarning(ctx, "remove milestone from project cache", err, "project_id", projectID, "milestone_id", milestoneID)
}
