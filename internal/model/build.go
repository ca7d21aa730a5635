package model

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	perrors "github.com/agb-planner/planner/internal/errors"
)

// Length limits, in characters.
const (
	MaxTeamNameLen             = 100
	MaxTeamDescriptionLen      = 500
	MaxProjectNameLen          = 100
	MaxProjectDescriptionLen   = 1000
	MaxTaskTitleLen            = 200
	MaxTaskDescriptionLen      = 2000
	MaxMilestoneTitleLen       = 200
	MaxMilestoneDescriptionLen = 1000
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func checkRequired(v *perrors.Violations, field, value string, max int) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "%s is required", field)
		return
	}
	checkMax(v, field, value, max)
}

func checkMax(v *perrors.Violations, field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v.Add(field, "%s cannot exceed %d characters", field, max)
	}
}

func checkHours(v *perrors.Violations, field string, h float64) {
	if h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		v.Add(field, "%s must be a non-negative number", field)
	}
}

// --- Team ---

// NewTeam builds a team from f, applying defaults and validating every field.
func NewTeam(f TeamFields, now time.Time) (*Team, error) {
	t := &Team{
		Name:        strings.TrimSpace(valueOr(f.Name, "")),
		Description: valueOr(f.Description, ""),
		Owner:       valueOr(f.Owner, DemoOwner),
		IsPublic:    valueOr(f.IsPublic, true),
		Members:     normalizeMembers(sliceOr(f.Members), now),
		Projects:    sliceOr(f.Projects),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Owner == "" {
		t.Owner = DemoOwner
	}

	var v perrors.Violations
	checkRequired(&v, "name", t.Name, MaxTeamNameLen)
	checkMax(&v, "description", t.Description, MaxTeamDescriptionLen)
	validateMembers(&v, t.Members)
	if err := v.Err("team"); err != nil {
		return nil, err
	}
	return t, nil
}

// Apply merges the supplied fields into t. Only supplied fields are validated;
// t is left untouched when validation fails.
func (t *Team) Apply(f TeamFields, now time.Time) error {
	var v perrors.Violations
	name := t.Name
	if f.Name != nil {
		name = strings.TrimSpace(*f.Name)
		checkRequired(&v, "name", name, MaxTeamNameLen)
	}
	if f.Description != nil {
		checkMax(&v, "description", *f.Description, MaxTeamDescriptionLen)
	}
	var members []TeamMember
	if f.Members != nil {
		members = normalizeMembers(sliceOr(f.Members), now)
		validateMembers(&v, members)
	}
	if err := v.Err("team"); err != nil {
		return err
	}

	t.Name = name
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Owner != nil && *f.Owner != "" {
		t.Owner = *f.Owner
	}
	if f.IsPublic != nil {
		t.IsPublic = *f.IsPublic
	}
	if f.Members != nil {
		t.Members = members
	}
	if f.Projects != nil {
		t.Projects = sliceOr(f.Projects)
	}
	t.UpdatedAt = now
	return nil
}

func normalizeMembers(members []TeamMember, now time.Time) []TeamMember {
	for i := range members {
		members[i].UserID = strings.TrimSpace(members[i].UserID)
		if members[i].Role == "" {
			members[i].Role = RoleMember
		}
		if members[i].JoinedAt.IsZero() {
			members[i].JoinedAt = now
		}
	}
	return members
}

func validateMembers(v *perrors.Violations, members []TeamMember) {
	seen := make(map[string]bool, len(members))
	for i, m := range members {
		field := fmt.Sprintf("members[%d]", i)
		if m.UserID == "" {
			v.Add(field+".userId", "%s.userId is required", field)
			continue
		}
		if !m.Role.Valid() {
			v.Add(field+".role", "%s.role must be one of lead, member, viewer", field)
		}
		if seen[m.UserID] {
			v.Add(field+".userId", "member %s appears more than once", m.UserID)
		}
		seen[m.UserID] = true
	}
}

// --- Project ---

// NewProject builds a project from f, applying defaults and validating every field.
func NewProject(f ProjectFields, now time.Time) (*Project, error) {
	p := &Project{
		Name:        strings.TrimSpace(valueOr(f.Name, "")),
		Description: valueOr(f.Description, ""),
		Team:        valueOr(f.Team, ""),
		Owner:       valueOr(f.Owner, DemoOwner),
		Status:      valueOr(f.Status, ProjectActive),
		Priority:    valueOr(f.Priority, PriorityMedium),
		StartDate:   valueOr(f.StartDate, now),
		EndDate:     optionalTime(f.EndDate),
		Color:       valueOr(f.Color, DefaultProjectColor),
		Tasks:       sliceOr(f.Tasks),
		Milestones:  sliceOr(f.Milestones),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Owner == "" {
		p.Owner = DemoOwner
	}
	if p.StartDate.IsZero() {
		p.StartDate = now
	}
	if p.Color == "" {
		p.Color = DefaultProjectColor
	}

	var v perrors.Violations
	checkRequired(&v, "name", p.Name, MaxProjectNameLen)
	checkMax(&v, "description", p.Description, MaxProjectDescriptionLen)
	if strings.TrimSpace(p.Team) == "" {
		v.Add("team", "team is required")
	}
	validateProjectEnums(&v, p.Status, p.Priority)
	if !hexColor.MatchString(p.Color) {
		v.Add("color", "color must be a hex color such as #2080c0")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		v.Add("endDate", "endDate cannot be before startDate")
	}
	if err := v.Err("project"); err != nil {
		return nil, err
	}
	return p, nil
}

func validateProjectEnums(v *perrors.Violations, s ProjectStatus, p Priority) {
	if !s.Valid() {
		v.Add("status", "status must be one of planning, active, paused, completed, archived")
	}
	if !p.Valid() {
		v.Add("priority", "priority must be one of low, medium, high, critical")
	}
}

// Apply merges the supplied fields into p.
func (p *Project) Apply(f ProjectFields, now time.Time) error {
	var v perrors.Violations
	name := p.Name
	if f.Name != nil {
		name = strings.TrimSpace(*f.Name)
		checkRequired(&v, "name", name, MaxProjectNameLen)
	}
	if f.Description != nil {
		checkMax(&v, "description", *f.Description, MaxProjectDescriptionLen)
	}
	if f.Team != nil && strings.TrimSpace(*f.Team) == "" {
		v.Add("team", "team is required")
	}
	if f.Status != nil && !f.Status.Valid() {
		v.Add("status", "status must be one of planning, active, paused, completed, archived")
	}
	if f.Priority != nil && !f.Priority.Valid() {
		v.Add("priority", "priority must be one of low, medium, high, critical")
	}
	if f.Color != nil && !hexColor.MatchString(*f.Color) {
		v.Add("color", "color must be a hex color such as #2080c0")
	}
	start := p.StartDate
	if f.StartDate != nil {
		if f.StartDate.IsZero() {
			v.Add("startDate", "startDate is required")
		} else {
			start = *f.StartDate
		}
	}
	end := p.EndDate
	if f.EndDate != nil {
		end = optionalTime(f.EndDate)
	}
	if (f.StartDate != nil || f.EndDate != nil) && end != nil && end.Before(start) {
		v.Add("endDate", "endDate cannot be before startDate")
	}
	if err := v.Err("project"); err != nil {
		return err
	}

	p.Name = name
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.Team != nil {
		p.Team = *f.Team
	}
	if f.Owner != nil && *f.Owner != "" {
		p.Owner = *f.Owner
	}
	if f.Status != nil {
		p.Status = *f.Status
	}
	if f.Priority != nil {
		p.Priority = *f.Priority
	}
	p.StartDate = start
	p.EndDate = end
	if f.Color != nil {
		p.Color = *f.Color
	}
	if f.Tasks != nil {
		p.Tasks = sliceOr(f.Tasks)
	}
	if f.Milestones != nil {
		p.Milestones = sliceOr(f.Milestones)
	}
	p.UpdatedAt = now
	return nil
}

// --- Task ---

// NewTask builds a task from f, applying defaults and validating every field.
func NewTask(f TaskFields, now time.Time) (*Task, error) {
	t := &Task{
		Title:             strings.TrimSpace(valueOr(f.Title, "")),
		Description:       valueOr(f.Description, ""),
		Project:           valueOr(f.Project, ""),
		Assignee:          valueOr(f.Assignee, ""),
		Priority:          valueOr(f.Priority, PriorityMedium),
		Status:            valueOr(f.Status, TaskTodo),
		DueDate:           optionalTime(f.DueDate),
		EstimatedHours:    valueOr(f.EstimatedHours, 0),
		ActualHours:       valueOr(f.ActualHours, 0),
		Milestone:         valueOr(f.Milestone, ""),
		Attachments:       normalizeAttachments(sliceOr(f.Attachments), now),
		Comments:          normalizeComments(sliceOr(f.Comments), now),
		Tags:              NormalizeTags(sliceOr(f.Tags)),
		MentionedMembers:  sliceOr(f.MentionedMembers),
		NotificationsSent: sliceOr(f.NotificationsSent),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var v perrors.Violations
	checkRequired(&v, "title", t.Title, MaxTaskTitleLen)
	checkMax(&v, "description", t.Description, MaxTaskDescriptionLen)
	if strings.TrimSpace(t.Project) == "" {
		v.Add("project", "project is required")
	}
	validateTaskEnums(&v, t.Status, t.Priority)
	checkHours(&v, "estimatedHours", t.EstimatedHours)
	checkHours(&v, "actualHours", t.ActualHours)
	validateComments(&v, t.Comments)
	if err := v.Err("task"); err != nil {
		return nil, err
	}
	t.syncCompletion(now)
	return t, nil
}

func validateTaskEnums(v *perrors.Violations, s TaskStatus, p Priority) {
	if !s.Valid() {
		v.Add("status", "status must be one of todo, in_progress, in_review, done")
	}
	if !p.Valid() {
		v.Add("priority", "priority must be one of low, medium, high, critical")
	}
}

// Apply merges the supplied fields into t and re-derives completion state.
func (t *Task) Apply(f TaskFields, now time.Time) error {
	var v perrors.Violations
	title := t.Title
	if f.Title != nil {
		title = strings.TrimSpace(*f.Title)
		checkRequired(&v, "title", title, MaxTaskTitleLen)
	}
	if f.Description != nil {
		checkMax(&v, "description", *f.Description, MaxTaskDescriptionLen)
	}
	if f.Project != nil && strings.TrimSpace(*f.Project) == "" {
		v.Add("project", "project is required")
	}
	if f.Status != nil && !f.Status.Valid() {
		v.Add("status", "status must be one of todo, in_progress, in_review, done")
	}
	if f.Priority != nil && !f.Priority.Valid() {
		v.Add("priority", "priority must be one of low, medium, high, critical")
	}
	if f.EstimatedHours != nil {
		checkHours(&v, "estimatedHours", *f.EstimatedHours)
	}
	if f.ActualHours != nil {
		checkHours(&v, "actualHours", *f.ActualHours)
	}
	var comments []Comment
	if f.Comments != nil {
		comments = normalizeComments(sliceOr(f.Comments), now)
		validateComments(&v, comments)
	}
	if err := v.Err("task"); err != nil {
		return err
	}

	t.Title = title
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Project != nil {
		t.Project = *f.Project
	}
	if f.Assignee != nil {
		t.Assignee = *f.Assignee
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.Status != nil {
		t.Status = *f.Status
	}
	if f.DueDate != nil {
		t.DueDate = optionalTime(f.DueDate)
	}
	if f.EstimatedHours != nil {
		t.EstimatedHours = *f.EstimatedHours
	}
	if f.ActualHours != nil {
		t.ActualHours = *f.ActualHours
	}
	if f.Milestone != nil {
		t.Milestone = *f.Milestone
	}
	if f.Attachments != nil {
		t.Attachments = normalizeAttachments(sliceOr(f.Attachments), now)
	}
	if f.Comments != nil {
		t.Comments = comments
	}
	if f.Tags != nil {
		t.Tags = NormalizeTags(sliceOr(f.Tags))
	}
	if f.MentionedMembers != nil {
		t.MentionedMembers = sliceOr(f.MentionedMembers)
	}
	if f.NotificationsSent != nil {
		t.NotificationsSent = sliceOr(f.NotificationsSent)
	}
	t.syncCompletion(now)
	t.UpdatedAt = now
	return nil
}

// syncCompletion enforces isCompleted == (status == done) and keeps
// completedAt set exactly while the task is completed. A task that was
// already done keeps its original completion time.
func (t *Task) syncCompletion(now time.Time) {
	if t.Status == TaskDone {
		if !t.IsCompleted || t.CompletedAt == nil {
			completed := now
			t.CompletedAt = &completed
		}
		t.IsCompleted = true
		return
	}
	t.IsCompleted = false
	t.CompletedAt = nil
}

func normalizeAttachments(atts []Attachment, now time.Time) []Attachment {
	for i := range atts {
		if atts[i].UploadedAt.IsZero() {
			atts[i].UploadedAt = now
		}
	}
	return atts
}

func normalizeComments(comments []Comment, now time.Time) []Comment {
	for i := range comments {
		if comments[i].CreatedAt.IsZero() {
			comments[i].CreatedAt = now
		}
		if comments[i].Author == "" {
			comments[i].Author = DemoOwner
		}
	}
	return comments
}

func validateComments(v *perrors.Violations, comments []Comment) {
	for i, c := range comments {
		if strings.TrimSpace(c.Content) == "" {
			v.Add(fmt.Sprintf("comments[%d].content", i), "comments[%d].content is required", i)
		}
	}
}

// NormalizeTags trims tags, drops blanks and removes duplicates while
// preserving first-occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// --- Milestone ---

// NewMilestone builds a milestone from f, applying defaults and validating every field.
func NewMilestone(f MilestoneFields, now time.Time) (*Milestone, error) {
	m := &Milestone{
		Title:       strings.TrimSpace(valueOr(f.Title, "")),
		Description: valueOr(f.Description, ""),
		Project:     valueOr(f.Project, ""),
		Team:        valueOr(f.Team, ""),
		Status:      valueOr(f.Status, MilestoneNotStarted),
		Progress:    valueOr(f.Progress, 0),
		Owner:       valueOr(f.Owner, ""),
		Tasks:       sliceOr(f.Tasks),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if f.StartDate != nil {
		m.StartDate = *f.StartDate
	}
	if f.DueDate != nil {
		m.DueDate = *f.DueDate
	}

	var v perrors.Violations
	checkRequired(&v, "title", m.Title, MaxMilestoneTitleLen)
	checkMax(&v, "description", m.Description, MaxMilestoneDescriptionLen)
	if strings.TrimSpace(m.Project) == "" {
		v.Add("project", "project is required")
	}
	if strings.TrimSpace(m.Team) == "" {
		v.Add("team", "team is required")
	}
	validateMilestoneDates(&v, m.StartDate, m.DueDate)
	if !m.Status.Valid() {
		v.Add("status", "status must be one of not_started, in_progress, at_risk, completed")
	}
	checkProgress(&v, m.Progress)
	if err := v.Err("milestone"); err != nil {
		return nil, err
	}
	return m, nil
}

func validateMilestoneDates(v *perrors.Violations, start, due time.Time) {
	if start.IsZero() {
		v.Add("startDate", "startDate is required")
	}
	if due.IsZero() {
		v.Add("dueDate", "dueDate is required")
	}
	if !start.IsZero() && !due.IsZero() && due.Before(start) {
		v.Add("dueDate", "dueDate cannot be before startDate")
	}
}

func checkProgress(v *perrors.Violations, progress int) {
	if progress < 0 || progress > 100 {
		v.Add("progress", "progress must be between 0 and 100")
	}
}

// Apply merges the supplied fields into m.
func (m *Milestone) Apply(f MilestoneFields, now time.Time) error {
	var v perrors.Violations
	title := m.Title
	if f.Title != nil {
		title = strings.TrimSpace(*f.Title)
		checkRequired(&v, "title", title, MaxMilestoneTitleLen)
	}
	if f.Description != nil {
		checkMax(&v, "description", *f.Description, MaxMilestoneDescriptionLen)
	}
	if f.Project != nil && strings.TrimSpace(*f.Project) == "" {
		v.Add("project", "project is required")
	}
	if f.Team != nil && strings.TrimSpace(*f.Team) == "" {
		v.Add("team", "team is required")
	}
	start, due := m.StartDate, m.DueDate
	if f.StartDate != nil {
		start = *f.StartDate
	}
	if f.DueDate != nil {
		due = *f.DueDate
	}
	if f.StartDate != nil || f.DueDate != nil {
		validateMilestoneDates(&v, start, due)
	}
	if f.Status != nil && !f.Status.Valid() {
		v.Add("status", "status must be one of not_started, in_progress, at_risk, completed")
	}
	if f.Progress != nil {
		checkProgress(&v, *f.Progress)
	}
	if err := v.Err("milestone"); err != nil {
		return err
	}

	m.Title = title
	if f.Description != nil {
		m.Description = *f.Description
	}
	if f.Project != nil {
		m.Project = *f.Project
	}
	if f.Team != nil {
		m.Team = *f.Team
	}
	m.StartDate, m.DueDate = start, due
	if f.Status != nil {
		m.Status = *f.Status
	}
	if f.Progress != nil {
		m.Progress = *f.Progress
	}
	if f.Owner != nil {
		m.Owner = *f.Owner
	}
	if f.Tasks != nil {
		m.Tasks = sliceOr(f.Tasks)
	}
	m.UpdatedAt = now
	return nil
}

// ComputeProgress returns round(100 * completed / total), or 0 for no tasks.
func ComputeProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
