// Package notify turns task mutations into WhatsApp deep links for the
// task's mentioned members and keeps a persistent log of every link produced.
//
// The engine never delivers anything. Callers hand the links to a person,
// who opens them to send the prepared message.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// Retention is how long ClearOldNotifications keeps log entries.
const Retention = 30 * 24 * time.Hour

// Method is recorded on a task's notificationsSent entries.
const Method = "whatsapp"

// Link is what the caller receives for each notified member.
type Link struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	WhatsappLink string `json:"whatsappLink"`
}

// Engine renders notification links and records them in the log file.
// It is safe for concurrent use.
type Engine struct {
	path      string
	normalize PhoneNormalizer
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger

	mu      sync.Mutex
	entries []Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithPhoneNormalizer replaces the default India rule.
func WithPhoneNormalizer(n PhoneNormalizer) Option {
	return func(e *Engine) { e.normalize = n }
}

// WithClock sets the time source for sentAt and retention.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger for skipped members.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine opens the log stored at path. A missing file starts an empty
// log; an unreadable one is an error.
func NewEngine(path string, opts ...Option) (*Engine, error) {
	e := &Engine{
		path:      path,
		normalize: NormalizeIndianPhone,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	entries, err := readLog(path)
	if err != nil {
		return nil, err
	}
	e.entries = entries
	e.logger.Debug("notification log loaded", "path", path, "entries", len(entries))
	return e, nil
}

// Path returns the log file location.
func (e *Engine) Path() string {
	return e.path
}

// PrepareNotifications renders one message for the task and returns a link
// for every member with a usable phone number. Members without one are
// skipped with a warning. Every produced link is appended to the log, which
// is written to disk before returning; on a write failure nothing is
// recorded and the error is returned. Repeated calls are never deduplicated.
func (e *Engine) PrepareNotifications(ctx context.Context, task *model.Task, project *model.Project,
	members []model.MentionedMember, action Action, change Change) ([]Link, error) {
	if !action.Valid() {
		return nil, perrors.ErrBadRequest("unknown notification action " + string(action))
	}

	message := RenderMessage(task, project, action, change)
	projectName := ""
	if project != nil {
		projectName = project.Name
	}
	sentAt := e.now()

	links := []Link{}
	batch := make([]Entry, 0, len(members))
	for _, m := range members {
		if m.WhatsappNumber == "" {
			e.logger.WarnContext(ctx, "member has no whatsapp number", "user_id", m.UserID, "name", m.Name)
			continue
		}
		digits := e.normalize(m.WhatsappNumber)
		if digits == "" {
			e.logger.WarnContext(ctx, "invalid whatsapp number", "user_id", m.UserID, "number", m.WhatsappNumber)
			continue
		}
		link := WhatsAppLink(digits, message)
		links = append(links, Link{UserID: m.UserID, Name: m.Name, WhatsappLink: link})
		batch = append(batch, Entry{
			ID:             e.newID(),
			UserID:         m.UserID,
			Name:           m.Name,
			WhatsappNumber: m.WhatsappNumber,
			Link:           link,
			Message:        message,
			SentAt:         sentAt,
			TaskID:         task.ID,
			TaskTitle:      task.Title,
			ProjectName:    projectName,
			Action:         action,
		})
	}
	if len(batch) == 0 {
		return links, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := append(append(make([]Entry, 0, len(e.entries)+len(batch)), e.entries...), batch...)
	if err := writeLog(e.path, next); err != nil {
		return nil, perrors.ErrInternal("save notification log", err)
	}
	e.entries = next
	e.logger.InfoContext(ctx, "notifications prepared", "task_id", task.ID, "action", string(action), "count", len(batch))
	return links, nil
}

func (e *Engine) filter(keep func(*Entry) bool) []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := []Entry{}
	for i := range e.entries {
		if keep(&e.entries[i]) {
			out = append(out, e.entries[i])
		}
	}
	return out
}

// TaskNotifications returns the log entries for a task, oldest first.
func (e *Engine) TaskNotifications(taskID string) []Entry {
	return e.filter(func(n *Entry) bool { return n.TaskID == taskID })
}

// UserNotifications returns the log entries addressed to a user, oldest first.
func (e *Engine) UserNotifications(userID string) []Entry {
	return e.filter(func(n *Entry) bool { return n.UserID == userID })
}

// AllNotifications returns a copy of the whole log.
func (e *Engine) AllNotifications() []Entry {
	return e.filter(func(*Entry) bool { return true })
}

// ClearOldNotifications drops entries sent more than Retention before now,
// persists the pruned log and reports how many were removed. The engine never
// calls it on its own.
func (e *Engine) ClearOldNotifications(now time.Time) (int, error) {
	cutoff := now.Add(-Retention)

	e.mu.Lock()
	defer e.mu.Unlock()

	kept := make([]Entry, 0, len(e.entries))
	for _, n := range e.entries {
		if n.SentAt.After(cutoff) {
			kept = append(kept, n)
		}
	}
	removed := len(e.entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := writeLog(e.path, kept); err != nil {
		return 0, perrors.ErrInternal("save notification log", err)
	}
	e.entries = kept
	e.logger.Info("old notifications cleared", "removed", removed, "kept", len(kept))
	return removed, nil
}

// Prune runs ClearOldNotifications with the engine's clock.
func (e *Engine) Prune() (int, error) {
	return e.ClearOldNotifications(e.now())
}

// RunPruner calls Prune every interval until ctx is done.
func (e *Engine) RunPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.Prune(); err != nil {
				e.logger.Warn("prune notifications failed", "error", err)
			}
		}
	}
}
