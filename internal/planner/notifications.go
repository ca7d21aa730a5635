package planner

import (
	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/notify"
)

func (s *Service) requireNotifier() error {
	if s.notifier == nil {
		return perrors.ErrInternal("notifications are not configured", nil)
	}
	return nil
}

// TaskNotifications returns the notification log entries for a task.
func (s *Service) TaskNotifications(taskID string) ([]notify.Entry, error) {
	if err := s.requireNotifier(); err != nil {
		return nil, err
	}
	return s.notifier.TaskNotifications(taskID), nil
}

// UserNotifications returns the notification log entries for a user.
func (s *Service) UserNotifications(userID string) ([]notify.Entry, error) {
	if err := s.requireNotifier(); err != nil {
		return nil, err
	}
	return s.notifier.UserNotifications(userID), nil
}

// AllNotifications returns the whole notification log.
func (s *Service) AllNotifications() ([]notify.Entry, error) {
	if err := s.requireNotifier(); err != nil {
		return nil, err
	}
	return s.notifier.AllNotifications(), nil
}

// PruneNotifications applies the 30-day retention and reports how many
// entries were removed.
func (s *Service) PruneNotifications() (int, error) {
	if err := s.requireNotifier(); err != nil {
		return 0, err
	}
	return s.notifier.Prune()
}
