package model

import "time"

// The *Fields types carry a partial set of entity fields. They are used both
// to create an entity (omitted fields take their defaults) and to update one
// (only non-nil fields change).
//
// For optional references and dates, a supplied zero value clears the field:
// Milestone = ptr("") unsets the task's milestone, DueDate = ptr(time.Time{})
// removes its due date.

// TeamFields is the partial form of Team.
type TeamFields struct {
	Name        *string
	Description *string
	Owner       *string
	IsPublic    *bool
	Members     *[]TeamMember
	Projects    *[]string
}

// ProjectFields is the partial form of Project.
type ProjectFields struct {
	Name        *string
	Description *string
	Team        *string
	Owner       *string
	Status      *ProjectStatus
	Priority    *Priority
	StartDate   *time.Time
	EndDate     *time.Time
	Color       *string
	Tasks       *[]string
	Milestones  *[]string
}

// TaskFields is the partial form of Task. IsCompleted and CompletedAt are
// derived from Status and cannot be supplied.
type TaskFields struct {
	Title             *string
	Description       *string
	Project           *string
	Assignee          *string
	Priority          *Priority
	Status            *TaskStatus
	DueDate           *time.Time
	EstimatedHours    *float64
	ActualHours       *float64
	Milestone         *string
	Attachments       *[]Attachment
	Comments          *[]Comment
	Tags              *[]string
	MentionedMembers  *[]MentionedMember
	NotificationsSent *[]NotificationRecord
}

// MilestoneFields is the partial form of Milestone.
type MilestoneFields struct {
	Title       *string
	Description *string
	Project     *string
	Team        *string
	StartDate   *time.Time
	DueDate     *time.Time
	Status      *MilestoneStatus
	Progress    *int
	Owner       *string
	Tasks       *[]string
}

// Ptr returns a pointer to v. Handy for building *Fields literals.
func Ptr[T any](v T) *T {
	return &v
}

func optionalTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := *t
	return &v
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func sliceOr[T any](p *[]T) []T {
	if p == nil || *p == nil {
		return []T{}
	}
	out := make([]T, len(*p))
	copy(out, *p)
	return out
}
