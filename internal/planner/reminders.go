package planner

import (
	"context"
	"sort"
	"time"

	"github.com/agb-planner/planner/internal/model"
)

// MilestoneAlertWindow is how far ahead UpcomingMilestones looks.
const MilestoneAlertWindow = 30 * 24 * time.Hour

// Reminders is the result of one due-date scan.
type Reminders struct {
	DueTomorrow        []*model.Task      `json:"dueTomorrow"`
	Overdue            []*model.Task      `json:"overdue"`
	UpcomingMilestones []*model.Milestone `json:"upcomingMilestones"`
	CheckedAt          time.Time          `json:"checkedAt"`
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// openTasksDue lists incomplete tasks whose due date satisfies keep, earliest
// due first.
func (s *Service) openTasksDue(ctx context.Context, keep func(due time.Time) bool) ([]*model.Task, error) {
	tasks, err := s.store.ListTasks(ctx, model.TaskFilter{IsCompleted: model.Ptr(false)})
	if err != nil {
		return nil, err
	}
	out := []*model.Task{}
	for _, t := range tasks {
		if t.DueDate != nil && keep(*t.DueDate) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, nil
}

// DueTasks lists incomplete tasks due at any time tomorrow (UTC).
func (s *Service) DueTasks(ctx context.Context) ([]*model.Task, error) {
	from := startOfDay(s.now()).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)
	return s.openTasksDue(ctx, func(due time.Time) bool {
		return !due.Before(from) && due.Before(to)
	})
}

// OverdueTasks lists incomplete tasks whose due date has passed.
func (s *Service) OverdueTasks(ctx context.Context) ([]*model.Task, error) {
	now := s.now()
	return s.openTasksDue(ctx, func(due time.Time) bool { return due.Before(now) })
}

// UpcomingMilestones lists milestones that are not completed and fall due
// between now and now+within, earliest first.
func (s *Service) UpcomingMilestones(ctx context.Context, within time.Duration) ([]*model.Milestone, error) {
	now := s.now()
	until := now.Add(within)
	ms, err := s.store.ListMilestones(ctx, model.MilestoneFilter{})
	if err != nil {
		return nil, err
	}
	out := []*model.Milestone{}
	for _, m := range ms {
		if m.Status == model.MilestoneCompleted {
			continue
		}
		if !m.DueDate.Before(now) && !m.DueDate.After(until) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// CheckReminders runs the three scans and logs every hit that has someone
// to remind: the assignee for tasks, the owner for milestones.
func (s *Service) CheckReminders(ctx context.Context) (*Reminders, error) {
	r := &Reminders{CheckedAt: s.now()}
	var err error
	if r.DueTomorrow, err = s.DueTasks(ctx); err != nil {
		return nil, err
	}
	if r.Overdue, err = s.OverdueTasks(ctx); err != nil {
		return nil, err
	}
	if r.UpcomingMilestones, err = s.UpcomingMilestones(ctx, MilestoneAlertWindow); err != nil {
		return nil, err
	}

	for _, t := range r.DueTomorrow {
		if t.Assignee != "" {
			s.logger.InfoContext(ctx, "task due tomorrow",
				"task_id", t.ID, "title", t.Title, "assignee", t.Assignee, "due", *t.DueDate)
		}
	}
	for _, t := range r.Overdue {
		if t.Assignee != "" {
			s.logger.InfoContext(ctx, "task overdue",
				"task_id", t.ID, "title", t.Title, "assignee", t.Assignee, "due", *t.DueDate)
		}
	}
	for _, m := range r.UpcomingMilestones {
		if m.Owner != "" && m.Owner != model.DemoOwner {
			s.logger.InfoContext(ctx, "milestone due soon",
				"milestone_id", m.ID, "title", m.Title, "owner", m.Owner, "due", m.DueDate)
		}
	}
	s.logger.InfoContext(ctx, "reminder check complete",
		"due_tomorrow", len(r.DueTomorrow),
		"overdue", len(r.Overdue),
		"upcoming_milestones", len(r.UpcomingMilestones))
	return r, nil
}

// RunReminders calls CheckReminders once, then every interval until ctx is
// done. It returns immediately when interval is not positive.
func (s *Service) RunReminders(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	check := func() {
		if _, err := s.CheckReminders(ctx); err != nil && ctx.Err() == nil {
			s.logger.WarnContext(ctx, "reminder check failed", "error", err)
		}
	}
	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
