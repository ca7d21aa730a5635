package db

import (
	"context"
	"database/sql"

	"github.com/agb-planner/planner/internal/model"
)

var projectTable = &table[model.Project]{
	name:   "projects",
	entity: "project",
	columns: []string{
		"name", "description", "team_id", "owner", "status", "priority",
		"start_date", "end_date", "color", "tasks", "milestones",
		"created_at", "updated_at",
	},
	values: func(p *model.Project) ([]any, error) {
		tasks, err := encodeJSON(p.Tasks)
		if err != nil {
			return nil, err
		}
		milestones, err := encodeJSON(p.Milestones)
		if err != nil {
			return nil, err
		}
		return []any{
			p.Name, p.Description, p.Team, p.Owner, string(p.Status), string(p.Priority),
			formatTime(p.StartDate), nullableTime(p.EndDate), p.Color, tasks, milestones,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		}, nil
	},
	scan:  scanProject,
	setID: func(p *model.Project, id string) { p.ID = id },
}

func scanProject(s scanner) (*model.Project, error) {
	var (
		p                    model.Project
		id                   int64
		status, priority     string
		startDate            string
		endDate              sql.NullString
		tasks, milestones    string
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &p.Name, &p.Description, &p.Team, &p.Owner, &status, &priority,
		&startDate, &endDate, &p.Color, &tasks, &milestones, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.ID = formatID(id)
	p.Status = model.ProjectStatus(status)
	p.Priority = model.Priority(priority)

	var err error
	if p.StartDate, err = parseTime(startDate); err != nil {
		return nil, err
	}
	if p.EndDate, err = parseNullableTime(endDate); err != nil {
		return nil, err
	}
	if p.Tasks, err = decodeJSON[string](tasks); err != nil {
		return nil, err
	}
	if p.Milestones, err = decodeJSON[string](milestones); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts p and sets its id.
func (d *DB) CreateProject(ctx context.Context, p *model.Project) error {
	return projectTable.insert(ctx, d.driver, p)
}

// GetProject returns the project with id, or a NOT_FOUND error.
func (d *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return projectTable.get(ctx, d.driver, id)
}

// ListProjects returns projects matching f in ascending id order.
func (d *DB) ListProjects(ctx context.Context, f model.ProjectFilter) ([]*model.Project, error) {
	return projectTable.list(ctx, d.driver, f.Conditions())
}

// UpdateProject applies mutate to the stored project and saves it.
func (d *DB) UpdateProject(ctx context.Context, id string, mutate func(*model.Project) error) (*model.Project, error) {
	return projectTable.update(ctx, d, id, mutate)
}

// DeleteProject removes the project, reporting whether it existed.
func (d *DB) DeleteProject(ctx context.Context, id string) (bool, error) {
	return projectTable.delete(ctx, d.driver, id)
}
