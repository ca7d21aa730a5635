package model

import "time"

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Clone returns a deep copy of t.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	c.Members = cloneSlice(t.Members)
	c.Projects = cloneSlice(t.Projects)
	return &c
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.EndDate = cloneTime(p.EndDate)
	c.Tasks = cloneSlice(p.Tasks)
	c.Milestones = cloneSlice(p.Milestones)
	return &c
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.DueDate = cloneTime(t.DueDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.Attachments = cloneSlice(t.Attachments)
	c.Comments = cloneSlice(t.Comments)
	c.Tags = cloneSlice(t.Tags)
	c.MentionedMembers = cloneSlice(t.MentionedMembers)
	c.NotificationsSent = cloneSlice(t.NotificationsSent)
	return &c
}

// Clone returns a deep copy of m.
func (m *Milestone) Clone() *Milestone {
	if m == nil {
		return nil
	}
	c := *m
	c.Tasks = cloneSlice(m.Tasks)
	return &c
}

// Fields returns the full field set of t, suitable for Apply or for
// re-creating the team on another backend.
func (t *Team) Fields() TeamFields {
	return TeamFields{
		Name:        Ptr(t.Name),
		Description: Ptr(t.Description),
		Owner:       Ptr(t.Owner),
		IsPublic:    Ptr(t.IsPublic),
		Members:     Ptr(cloneSlice(t.Members)),
		Projects:    Ptr(cloneSlice(t.Projects)),
	}
}

// Fields returns the full field set of p.
func (p *Project) Fields() ProjectFields {
	f := ProjectFields{
		Name:        Ptr(p.Name),
		Description: Ptr(p.Description),
		Team:        Ptr(p.Team),
		Owner:       Ptr(p.Owner),
		Status:      Ptr(p.Status),
		Priority:    Ptr(p.Priority),
		StartDate:   Ptr(p.StartDate),
		Color:       Ptr(p.Color),
		Tasks:       Ptr(cloneSlice(p.Tasks)),
		Milestones:  Ptr(cloneSlice(p.Milestones)),
	}
	if p.EndDate != nil {
		f.EndDate = Ptr(*p.EndDate)
	}
	return f
}

// Fields returns the full field set of t. Completion state is re-derived
// from Status when the fields are applied.
func (t *Task) Fields() TaskFields {
	f := TaskFields{
		Title:             Ptr(t.Title),
		Description:       Ptr(t.Description),
		Project:           Ptr(t.Project),
		Assignee:          Ptr(t.Assignee),
		Priority:          Ptr(t.Priority),
		Status:            Ptr(t.Status),
		EstimatedHours:    Ptr(t.EstimatedHours),
		ActualHours:       Ptr(t.ActualHours),
		Milestone:         Ptr(t.Milestone),
		Attachments:       Ptr(cloneSlice(t.Attachments)),
		Comments:          Ptr(cloneSlice(t.Comments)),
		Tags:              Ptr(cloneSlice(t.Tags)),
		MentionedMembers:  Ptr(cloneSlice(t.MentionedMembers)),
		NotificationsSent: Ptr(cloneSlice(t.NotificationsSent)),
	}
	if t.DueDate != nil {
		f.DueDate = Ptr(*t.DueDate)
	}
	return f
}

// Fields returns the full field set of m.
func (m *Milestone) Fields() MilestoneFields {
	return MilestoneFields{
		Title:       Ptr(m.Title),
		Description: Ptr(m.Description),
		Project:     Ptr(m.Project),
		Team:        Ptr(m.Team),
		StartDate:   Ptr(m.StartDate),
		DueDate:     Ptr(m.DueDate),
		Status:      Ptr(m.Status),
		Progress:    Ptr(m.Progress),
		Owner:       Ptr(m.Owner),
		Tasks:       Ptr(cloneSlice(m.Tasks)),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// EnsureLists replaces nil list fields with empty ones, so decoded records
// serialise lists as [] rather than null.
func (t *Team) EnsureLists() {
	t.Members = orEmpty(t.Members)
	t.Projects = orEmpty(t.Projects)
}

// EnsureLists replaces nil list fields with empty ones.
func (p *Project) EnsureLists() {
	p.Tasks = orEmpty(p.Tasks)
	p.Milestones = orEmpty(p.Milestones)
}

// EnsureLists replaces nil list fields with empty ones.
func (t *Task) EnsureLists() {
	t.Attachments = orEmpty(t.Attachments)
	t.Comments = orEmpty(t.Comments)
	t.Tags = orEmpty(t.Tags)
	t.MentionedMembers = orEmpty(t.MentionedMembers)
	t.NotificationsSent = orEmpty(t.NotificationsSent)
}

// EnsureLists replaces nil list fields with empty ones.
func (m *Milestone) EnsureLists() {
	m.Tasks = orEmpty(m.Tasks)
}
