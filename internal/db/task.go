package db

import (
	"context"
	"database/sql"

	"github.com/agb-planner/planner/internal/model"
)

var taskTable = &table[model.Task]{
	name:   "tasks",
	entity: "task",
	columns: []string{
		"title", "description", "project_id", "assignee", "priority", "status",
		"due_date", "estimated_hours", "actual_hours", "milestone_id",
		"attachments", "comments", "tags", "mentioned_members", "notifications_sent",
		"is_completed", "completed_at", "created_at", "updated_at",
	},
	values: func(t *model.Task) ([]any, error) {
		attachments, err := encodeJSON(t.Attachments)
		if err != nil {
			return nil, err
		}
		comments, err := encodeJSON(t.Comments)
		if err != nil {
			return nil, err
		}
		tags, err := encodeJSON(t.Tags)
		if err != nil {
			return nil, err
		}
		mentioned, err := encodeJSON(t.MentionedMembers)
		if err != nil {
			return nil, err
		}
		sent, err := encodeJSON(t.NotificationsSent)
		if err != nil {
			return nil, err
		}
		return []any{
			t.Title, t.Description, t.Project, t.Assignee, string(t.Priority), string(t.Status),
			nullableTime(t.DueDate), t.EstimatedHours, t.ActualHours, t.Milestone,
			attachments, comments, tags, mentioned, sent,
			t.IsCompleted, nullableTime(t.CompletedAt), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
		}, nil
	},
	scan:  scanTask,
	setID: func(t *model.Task, id string) { t.ID = id },
}

func scanTask(s scanner) (*model.Task, error) {
	var (
		t                    model.Task
		id                   int64
		priority, status     string
		dueDate, completedAt sql.NullString
		attachments          string
		comments             string
		tags                 string
		mentioned, sent      string
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &t.Title, &t.Description, &t.Project, &t.Assignee, &priority, &status,
		&dueDate, &t.EstimatedHours, &t.ActualHours, &t.Milestone,
		&attachments, &comments, &tags, &mentioned, &sent,
		&t.IsCompleted, &completedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.ID = formatID(id)
	t.Priority = model.Priority(priority)
	t.Status = model.TaskStatus(status)

	var err error
	if t.DueDate, err = parseNullableTime(dueDate); err != nil {
		return nil, err
	}
	if t.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return nil, err
	}
	if t.Attachments, err = decodeJSON[model.Attachment](attachments); err != nil {
		return nil, err
	}
	if t.Comments, err = decodeJSON[model.Comment](comments); err != nil {
		return nil, err
	}
	if t.Tags, err = decodeJSON[string](tags); err != nil {
		return nil, err
	}
	if t.MentionedMembers, err = decodeJSON[model.MentionedMember](mentioned); err != nil {
		return nil, err
	}
	if t.NotificationsSent, err = decodeJSON[model.NotificationRecord](sent); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts t and sets its id.
func (d *DB) CreateTask(ctx context.Context, t *model.Task) error {
	return taskTable.insert(ctx, d.driver, t)
}

// GetTask returns the task with id, or a NOT_FOUND error.
func (d *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return taskTable.get(ctx, d.driver, id)
}

// ListTasks returns tasks matching f in ascending id order.
func (d *DB) ListTasks(ctx context.Context, f model.TaskFilter) ([]*model.Task, error) {
	return taskTable.list(ctx, d.driver, f.Conditions())
}

// UpdateTask applies mutate to the stored task and saves it.
func (d *DB) UpdateTask(ctx context.Context, id string, mutate func(*model.Task) error) (*model.Task, error) {
	return taskTable.update(ctx, d, id, mutate)
}

// DeleteTask removes the task, reporting whether it existed.
func (d *DB) DeleteTask(ctx context.Context, id string) (bool, error) {
	return taskTable.delete(ctx, d.driver, id)
}
