package db

import (
	"context"

	"github.com/agb-planner/planner/internal/model"
)

var milestoneTable = &table[model.Milestone]{
	name:   "milestones",
	entity: "milestone",
	columns: []string{
		"title", "description", "project_id", "team_id", "start_date", "due_date",
		"status", "progress", "owner", "tasks", "created_at", "updated_at",
	},
	values: func(m *model.Milestone) ([]any, error) {
		tasks, err := encodeJSON(m.Tasks)
		if err != nil {
			return nil, err
		}
		return []any{
			m.Title, m.Description, m.Project, m.Team, formatTime(m.StartDate), formatTime(m.DueDate),
			string(m.Status), m.Progress, m.Owner, tasks, formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
		}, nil
	},
	scan:  scanMilestone,
	setID: func(m *model.Milestone, id string) { m.ID = id },
}

func scanMilestone(s scanner) (*model.Milestone, error) {
	var (
		m                    model.Milestone
		id                   int64
		startDate, dueDate   string
		status, tasks        string
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &m.Title, &m.Description, &m.Project, &m.Team, &startDate, &dueDate,
		&status, &m.Progress, &m.Owner, &tasks, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	m.ID = formatID(id)
	m.Status = model.MilestoneStatus(status)

	var err error
	if m.StartDate, err = parseTime(startDate); err != nil {
		return nil, err
	}
	if m.DueDate, err = parseTime(dueDate); err != nil {
		return nil, err
	}
	if m.Tasks, err = decodeJSON[string](tasks); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMilestone inserts m and sets its id.
func (d *DB) CreateMilestone(ctx context.Context, m *model.Milestone) error {
	return milestoneTable.insert(ctx, d.driver, m)
}

// GetMilestone returns the milestone with id, or a NOT_FOUND error.
func (d *DB) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	return milestoneTable.get(ctx, d.driver, id)
}

// ListMilestones returns milestones matching f in ascending id order.
func (d *DB) ListMilestones(ctx context.Context, f model.MilestoneFilter) ([]*model.Milestone, error) {
	return milestoneTable.list(ctx, d.driver, f.Conditions())
}

// UpdateMilestone applies mutate to the stored milestone and saves it.
func (d *DB) UpdateMilestone(ctx context.Context, id string, mutate func(*model.Milestone) error) (*model.Milestone, error) {
	return milestoneTable.update(ctx, d, id, mutate)
}

// DeleteMilestone removes the milestone, reporting whether it existed.
func (d *DB) DeleteMilestone(ctx context.Context, id string) (bool, error) {
	return milestoneTable.delete(ctx, d.driver, id)
}
