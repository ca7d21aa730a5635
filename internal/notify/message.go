package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/agb-planner/planner/internal/model"
)

// Action is the task mutation a notification announces.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionCreated || a == ActionUpdated
}

// Change describes a status transition for an updated notification.
type Change struct {
	PreviousStatus model.TaskStatus
	// Note is an optional free-text update from the person changing status.
	Note string
	// Progress is rendered as a percentage when set.
	Progress *int
}

const (
	dueDateLayout = "2006-01-02"
	footerRule    = "---"
	footerText    = "_Sent from AGB Planner_"
)

var priorityMarkers = map[model.Priority]string{
	model.PriorityLow:      "🟢",
	model.PriorityMedium:   "🟡",
	model.PriorityHigh:     "🟠",
	model.PriorityCritical: "🔴",
}

func priorityMarker(p model.Priority) string {
	if m, ok := priorityMarkers[p]; ok {
		return m
	}
	return "⚪"
}

// RenderMessage builds the message text for a task notification. project may
// be nil when the task's project does not resolve.
func RenderMessage(task *model.Task, project *model.Project, action Action, change Change) string {
	if action == ActionUpdated {
		return renderUpdated(task, project, change)
	}
	return renderCreated(task, project, action)
}

func renderCreated(task *model.Task, project *model.Project, action Action) string {
	lines := []string{
		fmt.Sprintf("🔔 *Task %s*", strings.ToUpper(string(action))),
		"",
		fmt.Sprintf("📋 *%s*", task.Title),
	}
	if task.Description != "" {
		lines = append(lines, "", "📝 "+task.Description)
	}
	if project != nil {
		lines = append(lines, "", fmt.Sprintf("🎯 Project: *%s*", project.Name))
	}
	if task.Priority != "" {
		lines = append(lines, fmt.Sprintf("%s Priority: *%s*",
			priorityMarker(task.Priority), strings.ToUpper(string(task.Priority))))
	}
	if task.DueDate != nil {
		lines = append(lines, "📅 Due: "+task.DueDate.UTC().Format(dueDateLayout))
	}
	if task.Assignee != "" {
		lines = append(lines, "👤 Assigned to: "+task.Assignee)
	}
	lines = append(lines, "", footerRule, footerText)
	return strings.Join(lines, "\n")
}

func renderUpdated(task *model.Task, project *model.Project, change Change) string {
	lines := []string{
		"📊 *TASK PROGRESS UPDATE*",
		"",
		fmt.Sprintf("📋 *%s*", task.Title),
	}
	if project != nil {
		lines = append(lines, fmt.Sprintf("🎯 Project: *%s*", project.Name))
	}
	lines = append(lines, "", fmt.Sprintf("Status: %s → *%s*", change.PreviousStatus, task.Status))
	if change.Note != "" {
		lines = append(lines, "", "💬 Update: "+change.Note)
	}
	if change.Progress != nil {
		lines = append(lines, fmt.Sprintf("Progress: %d%%", *change.Progress))
	}
	lines = append(lines, "", footerRule, footerText)
	return strings.Join(lines, "\n")
}

// WhatsAppLink builds a wa.me deep link. Spaces are encoded as %20.
func WhatsAppLink(digits, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text
}
