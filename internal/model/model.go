// Package model defines the planner entities (Team, Project, Task, Milestone),
// their partial-field types, defaults and validation rules.
//
// Every backend adapter stores and returns these exact shapes, so callers and
// the notification engine never care which adapter produced a record.
package model

import "time"

// DemoOwner is the owner recorded for entities created by unauthenticated callers.
const DemoOwner = "demo_user"

// DefaultProjectColor is applied when a project is created without a color.
const DefaultProjectColor = "#2080c0"

// Caller identifies the authenticated user issuing a request.
// A nil *Caller means the request is anonymous.
type Caller struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// OwnerID returns the caller id, or DemoOwner for anonymous callers.
func (c *Caller) OwnerID() string {
	if c == nil || c.ID == "" {
		return DemoOwner
	}
	return c.ID
}

// Priority is shared by projects and tasks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// MemberRole is a team member's role.
type MemberRole string

const (
	RoleLead   MemberRole = "lead"
	RoleMember MemberRole = "member"
	RoleViewer MemberRole = "viewer"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleLead, RoleMember, RoleViewer:
		return true
	}
	return false
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectPaused, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskInReview   TaskStatus = "in_review"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses lists task statuses in board order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskInReview, TaskDone}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskInReview, TaskDone:
		return true
	}
	return false
}

// MilestoneStatus is the state of a milestone.
type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "not_started"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneAtRisk     MilestoneStatus = "at_risk"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// Valid reports whether s is a known milestone status.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneNotStarted, MilestoneInProgress, MilestoneAtRisk, MilestoneCompleted:
		return true
	}
	return false
}

// TeamMember is an entry in a team's member list.
type TeamMember struct {
	UserID         string     `json:"userId" bson:"userId" yaml:"userId"`
	Name           string     `json:"name,omitempty" bson:"name,omitempty" yaml:"name"`
	WhatsappNumber string     `json:"whatsappNumber,omitempty" bson:"whatsappNumber,omitempty" yaml:"whatsappNumber"`
	Role           MemberRole `json:"role" bson:"role" yaml:"role"`
	JoinedAt       time.Time  `json:"joinedAt" bson:"joinedAt" yaml:"joinedAt"`
}

// Team owns projects and lists its members.
type Team struct {
	ID          string       `json:"id" bson:"-"`
	Name        string       `json:"name" bson:"name"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	Owner       string       `json:"owner" bson:"owner"`
	IsPublic    bool         `json:"isPublic" bson:"isPublic"`
	Members     []TeamMember `json:"members" bson:"members"`
	// Projects is a lookup cache; Project.Team is authoritative.
	Projects  []string  `json:"projects" bson:"projects"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasMember reports whether userID is in the member list.
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// Project groups tasks and milestones under a team.
type Project struct {
	ID          string        `json:"id" bson:"-"`
	Name        string        `json:"name" bson:"name"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
	Team        string        `json:"team" bson:"team"`
	Owner       string        `json:"owner" bson:"owner"`
	Status      ProjectStatus `json:"status" bson:"status"`
	Priority    Priority      `json:"priority" bson:"priority"`
	StartDate   time.Time     `json:"startDate" bson:"startDate"`
	EndDate     *time.Time    `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Color       string        `json:"color" bson:"color"`
	// Tasks and Milestones are lookup caches; the child's Project field is authoritative.
	Tasks      []string  `json:"tasks" bson:"tasks"`
	Milestones []string  `json:"milestones" bson:"milestones"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Attachment is uploaded-file metadata passed through from the upload collaborator.
type Attachment struct {
	Filename   string    `json:"filename" bson:"filename"`
	URL        string    `json:"url" bson:"url"`
	FileSize   int64     `json:"fileSize" bson:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy,omitempty" bson:"uploadedBy,omitempty"`
}

// Comment is a note left on a task.
type Comment struct {
	Author    string    `json:"author" bson:"author"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// MentionedMember is a notification recipient attached to a task,
// independent of assignment.
type MentionedMember struct {
	UserID         string `json:"userId" bson:"userId" yaml:"userId"`
	Name           string `json:"name" bson:"name" yaml:"name"`
	WhatsappNumber string `json:"whatsappNumber,omitempty" bson:"whatsappNumber,omitempty" yaml:"whatsappNumber"`
}

// NotificationRecord notes that a notification link was produced for a user.
type NotificationRecord struct {
	UserID string    `json:"userId" bson:"userId"`
	SentAt time.Time `json:"sentAt" bson:"sentAt"`
	Method string    `json:"method" bson:"method"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID                string               `json:"id" bson:"-"`
	Title             string               `json:"title" bson:"title"`
	Description       string               `json:"description,omitempty" bson:"description,omitempty"`
	Project           string               `json:"project" bson:"project"`
	Assignee          string               `json:"assignee,omitempty" bson:"assignee,omitempty"`
	Priority          Priority             `json:"priority" bson:"priority"`
	Status            TaskStatus           `json:"status" bson:"status"`
	DueDate           *time.Time           `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	EstimatedHours    float64              `json:"estimatedHours" bson:"estimatedHours"`
	ActualHours       float64              `json:"actualHours" bson:"actualHours"`
	Milestone         string               `json:"milestone,omitempty" bson:"milestone,omitempty"`
	Attachments       []Attachment         `json:"attachments" bson:"attachments"`
	Comments          []Comment            `json:"comments" bson:"comments"`
	Tags              []string             `json:"tags" bson:"tags"`
	MentionedMembers  []MentionedMember    `json:"mentionedMembers" bson:"mentionedMembers"`
	NotificationsSent []NotificationRecord `json:"notificationsSent" bson:"notificationsSent"`
	IsCompleted       bool                 `json:"isCompleted" bson:"isCompleted"`
	CompletedAt       *time.Time           `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CreatedAt         time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Milestone is a dated checkpoint of a project.
type Milestone struct {
	ID          string          `json:"id" bson:"-"`
	Title       string          `json:"title" bson:"title"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	Project     string          `json:"project" bson:"project"`
	Team        string          `json:"team" bson:"team"`
	StartDate   time.Time       `json:"startDate" bson:"startDate"`
	DueDate     time.Time       `json:"dueDate" bson:"dueDate"`
	Status      MilestoneStatus `json:"status" bson:"status"`
	Progress    int             `json:"progress" bson:"progress"`
	Owner       string          `json:"owner,omitempty" bson:"owner,omitempty"`
	// Tasks is a lookup cache; Task.Milestone is authoritative.
	Tasks     []string  `json:"tasks" bson:"tasks"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
