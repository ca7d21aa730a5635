package planner

import (
	"context"
	"strings"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
	"github.com/agb-planner/planner/internal/notify"
)

// TaskResult is a task plus the notification links its change produced.
type TaskResult struct {
	*model.Task
	Notifications []notify.Link `json:"notifications,omitempty"`
}

// Board groups a project's tasks by status for a kanban view.
type Board struct {
	Todo       []*model.Task `json:"todo"`
	InProgress []*model.Task `json:"in_progress"`
	InReview   []*model.Task `json:"in_review"`
	Done       []*model.Task `json:"done"`
}

// CreateTask creates a task, records it on its project and milestone, and
// prepares "created" links for its mentioned members.
func (s *Service) CreateTask(ctx context.Context, f model.TaskFields) (*TaskResult, error) {
	t, err := s.store.CreateTask(ctx, f)
	if err != nil {
		return nil, err
	}
	s.linkTask(ctx, t.Project, t.ID)
	if t.Milestone != "" {
		s.linkMilestoneTask(ctx, t.Milestone, t.ID)
	}
	return s.sendNotifications(ctx, t, notify.ActionCreated, notify.Change{}), nil
}

// GetTask returns a task by id.
func (s *Service) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return s.store.GetTask(ctx, id)
}

// ListTasks returns the tasks matching f.
func (s *Service) ListTasks(ctx context.Context, f model.TaskFilter) ([]*model.Task, error) {
	return s.store.ListTasks(ctx, f)
}

// UpdateTask merges the supplied fields. When the status changes and the
// task mentions members, "updated" links are prepared carrying note.
func (s *Service) UpdateTask(ctx context.Context, id string, f model.TaskFields, note string) (*TaskResult, error) {
	before, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.store.UpdateTask(ctx, id, f)
	if err != nil {
		return nil, err
	}

	if t.Project != before.Project {
		s.unlinkTask(ctx, before.Project, id)
		s.linkTask(ctx, t.Project, id)
	}
	if t.Milestone != before.Milestone {
		if before.Milestone != "" {
			s.unlinkMilestoneTask(ctx, before.Milestone, id)
		}
		if t.Milestone != "" {
			s.linkMilestoneTask(ctx, t.Milestone, id)
		}
	}

	if t.Status == before.Status {
		return &TaskResult{Task: t}, nil
	}
	return s.sendNotifications(ctx, t, notify.ActionUpdated, notify.Change{
		PreviousStatus: before.Status,
		Note:           strings.TrimSpace(note),
	}), nil
}

// CompleteTask marks a task done.
func (s *Service) CompleteTask(ctx context.Context, id string) (*TaskResult, error) {
	return s.UpdateTask(ctx, id, model.TaskFields{Status: model.Ptr(model.TaskDone)}, "")
}

// UpdateTaskStatus moves a task to status, with an optional note for the
// notification.
func (s *Service) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus, note string) (*TaskResult, error) {
	return s.UpdateTask(ctx, id, model.TaskFields{Status: &status}, note)
}

// AssignTask sets or, with an empty assignee, clears the assignee.
func (s *Service) AssignTask(ctx context.Context, id, assignee string) (*model.Task, error) {
	return s.store.UpdateTask(ctx, id, model.TaskFields{Assignee: model.Ptr(strings.TrimSpace(assignee))})
}

// AddComment appends a comment authored by the caller.
func (s *Service) AddComment(ctx context.Context, caller *model.Caller, id, content string) (*model.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		var v perrors.Violations
		v.Add("content", "content is required")
		return nil, v.Err("comment")
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	comments := append(t.Comments, model.Comment{
		Author:    caller.OwnerID(),
		Content:   content,
		CreatedAt: s.now(),
	})
	return s.store.UpdateTask(ctx, id, model.TaskFields{Comments: &comments})
}

// AddAttachment appends uploaded-file metadata. UploadedBy defaults to the
// caller and UploadedAt to now.
func (s *Service) AddAttachment(ctx context.Context, caller *model.Caller, id string, a model.Attachment) (*model.Task, error) {
	if strings.TrimSpace(a.Filename) == "" || strings.TrimSpace(a.URL) == "" {
		var v perrors.Violations
		if strings.TrimSpace(a.Filename) == "" {
			v.Add("filename", "filename is required")
		}
		if strings.TrimSpace(a.URL) == "" {
			v.Add("url", "url is required")
		}
		return nil, v.Err("attachment")
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UploadedBy == "" {
		a.UploadedBy = caller.OwnerID()
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = s.now()
	}
	attachments := append(t.Attachments, a)
	return s.store.UpdateTask(ctx, id, model.TaskFields{Attachments: &attachments})
}

// TasksByStatus returns a project's tasks grouped into kanban columns.
// Every column is present, empty when it holds no tasks.
func (s *Service) TasksByStatus(ctx context.Context, projectID string) (*Board, error) {
	tasks, err := s.store.ListTasks(ctx, model.TaskFilter{Project: model.Ptr(projectID)})
	if err != nil {
		return nil, err
	}
	b := &Board{
		Todo:       []*model.Task{},
		InProgress: []*model.Task{},
		InReview:   []*model.Task{},
		Done:       []*model.Task{},
	}
	for _, t := range tasks {
		switch t.Status {
		case model.TaskTodo:
			b.Todo = append(b.Todo, t)
		case model.TaskInProgress:
			b.InProgress = append(b.InProgress, t)
		case model.TaskInReview:
			b.InReview = append(b.InReview, t)
		case model.TaskDone:
			b.Done = append(b.Done, t)
		}
	}
	return b, nil
}

// DeleteTask removes a task and drops it from its project's and
// milestone's caches.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.store.DeleteTask(ctx, id)
	if err := deleted("task", id, ok, err); err != nil {
		return err
	}
	s.unlinkTask(ctx, t.Project, id)
	if t.Milestone != "" {
		s.unlinkMilestoneTask(ctx, t.Milestone, id)
	}
	return nil
}

// sendNotifications prepares links for the task's mentioned members and records the
// sends on the task. Failures are logged; the task change has already
// happened and stands.
func (s *Service) sendNotifications(ctx context.Context, t *model.Task, action notify.Action, change notify.Change) *TaskResult {
	res := &TaskResult{Task: t}
	if s.notifier == nil || len(t.MentionedMembers) == 0 {
		return res
	}

	project, err := s.store.GetProject(ctx, t.Project)
	if err != nil {
		s.cacheWarning(ctx, "resolve project for notification", err, "task_id", t.ID)
		project = nil
	}

	links, err := s.notifier.PrepareNotifications(ctx, t, project, t.MentionedMembers, action, change)
	if err != nil {
		s.logger.WarnContext(ctx, "prepare notifications failed", "task_id", t.ID, "error", err)
		return res
	}
	res.Notifications = links
	if len(links) == 0 {
		return res
	}

	sentAt := s.now()
	sent := append([]model.NotificationRecord{}, t.NotificationsSent...)
	for _, l := range links {
		sent = append(sent, model.NotificationRecord{UserID: l.UserID, SentAt: sentAt, Method: notify.Method})
	}
	updated, err := s.store.UpdateTask(ctx, t.ID, model.TaskFields{NotificationsSent: &sent})
	if err != nil {
		s.logger.WarnContext(ctx, "record notifications on task failed", "task_id", t.ID, "error", err)
		return res
	}
	res.Task = updated
	return res
}

func (s *Service) linkTask(ctx context.Context, projectID, taskID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	p, err := s.store.GetProject(ctx, projectID)
	if err == nil {
		ids := appendID(p.Tasks, taskID)
		_, err = s.store.UpdateProject(ctx, projectID, model.ProjectFields{Tasks: &ids})
	}
	s.cacheWarning(ctx, "add task to project cache", err, "project_id", projectID, "task_id", taskID)
}

func (s *Service) unlinkTask(ctx context.Context, projectID, taskID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	p, err := s.store.GetProject(ctx, projectID)
	if err == nil {
		ids := removeID(p.Tasks, taskID)
		_, err = s.store.UpdateProject(ctx, projectID, model.ProjectFields{Tasks: &ids})
	}
	s.cacheWarning(ctx, "remove task from project cache", err, "project_id", projectID, "task_id", taskID)
}

func (s *Service) linkMilestoneTask(ctx context.Context, milestoneID, taskID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	m, err := s.store.GetMilestone(ctx, milestoneID)
	if err == nil {
		ids := appendID(m.Tasks, taskID)
		_, err = s.store.UpdateMilestone(ctx, milestoneID, model.MilestoneFields{Tasks: &ids})
	}
	s.cacheWarning(ctx, "add task to milestone cache", err, "milestone_id", milestoneID, "task_id", taskID)
}

func (s *Service) unlinkMilestoneTask(ctx context.Context, milestoneID, taskID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	m, err := s.store.GetMilestone(ctx, milestoneID)
	if err == nil {
		ids := removeID(m.Tasks, taskID)
		_, err = s.store.UpdateMilestone(ctx, milestoneID, model.MilestoneFields{Tasks: &ids})
	}
	s.cacheWarning(ctx, "remove task from milestone cache", err, "milestone_id", milestoneID, "task_id", taskID)
}
