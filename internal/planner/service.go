// Package planner implements the planner operations on top of the entity
// store: team membership, derived caches, project statistics, kanban and
// timeline views, and notification links for task changes.
//
// Child records carry the authoritative reference (task.project,
// milestone.project, project.team). The id lists on parents are caches kept
// in step on a best-effort basis: a failed cache update is logged and never
// fails the operation that caused it. Nothing is cascade-deleted.
package planner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
	"github.com/agb-planner/planner/internal/notify"
	"github.com/agb-planner/planner/internal/storage"
)

// Notifier produces and records notification links.
type Notifier interface {
	PrepareNotifications(ctx context.Context, task *model.Task, project *model.Project,
		members []model.MentionedMember, action notify.Action, change notify.Change) ([]notify.Link, error)
	TaskNotifications(taskID string) []notify.Entry
	UserNotifications(userID string) []notify.Entry
	AllNotifications() []notify.Entry
	Prune() (int, error)
}

// failoverReporter is implemented by storage.Coordinator.
type failoverReporter interface {
	UsingFallback() bool
}

// Service is the planner application layer. It is safe for concurrent use.
type Service struct {
	store    storage.Backend
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	// cacheMu serialises the read-modify-write of parent id caches
	// (team.projects, project.tasks, project.milestones, milestone.tasks)
	// within this process.
	cacheMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier enables notification links for task changes.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the time source for comments and attachments.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service over store.
func New(store storage.Backend, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StorageStatus describes the backend currently serving requests.
type StorageStatus struct {
	Backend       string `json:"backend"`
	UsingFallback bool   `json:"usingFallback"`
}

// StorageStatus reports which backend is active.
func (s *Service) StorageStatus() StorageStatus {
	st := StorageStatus{Backend: s.store.Name()}
	if r, ok := s.store.(failoverReporter); ok {
		st.UsingFallback = r.UsingFallback()
	}
	return st
}

// deleted turns a false delete result into NotFound.
func deleted(entity, id string, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return perrors.ErrNotFound(entity, id)
	}
	return nil
}

func (s *Service) cacheWarning(ctx context.Context, msg string, err error, args ...any) {
	if err == nil {
		return
	}
	if perrors.IsNotFound(err) {
		s.logger.DebugContext(ctx, msg+": parent not found", append(args, "error", err)...)
		return
	}
	s.logger.WarnContext(ctx, msg, append(args, "error", err)...)
}

func appendID(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
