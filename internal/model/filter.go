package model

// Condition is one equality match of a filter. Field is the document field
// name, Column the SQL column name.
type Condition struct {
	Field  string
	Column string
	Value  any
}

// TeamFilter selects teams. Nil fields match everything.
type TeamFilter struct {
	Owner    *string
	Name     *string
	IsPublic *bool
	// MemberUserID matches teams listing the user as a member. Backends
	// evaluate it with Matches after the equality conditions.
	MemberUserID *string
}

// Conditions returns the equality matches in a stable order.
func (f TeamFilter) Conditions() []Condition {
	var c []Condition
	if f.Owner != nil {
		c = append(c, Condition{"owner", "owner", *f.Owner})
	}
	if f.Name != nil {
		c = append(c, Condition{"name", "name", *f.Name})
	}
	if f.IsPublic != nil {
		c = append(c, Condition{"isPublic", "is_public", *f.IsPublic})
	}
	return c
}

// Matches reports whether t satisfies every set field.
func (f TeamFilter) Matches(t *Team) bool {
	if f.Owner != nil && t.Owner != *f.Owner {
		return false
	}
	if f.Name != nil && t.Name != *f.Name {
		return false
	}
	if f.IsPublic != nil && t.IsPublic != *f.IsPublic {
		return false
	}
	if f.MemberUserID != nil && !t.HasMember(*f.MemberUserID) {
		return false
	}
	return true
}

// ProjectFilter selects projects.
type ProjectFilter struct {
	Team     *string
	Owner    *string
	Status   *ProjectStatus
	Priority *Priority
}

// Conditions returns the equality matches in a stable order.
func (f ProjectFilter) Conditions() []Condition {
	var c []Condition
	if f.Team != nil {
		c = append(c, Condition{"team", "team_id", *f.Team})
	}
	if f.Owner != nil {
		c = append(c, Condition{"owner", "owner", *f.Owner})
	}
	if f.Status != nil {
		c = append(c, Condition{"status", "status", string(*f.Status)})
	}
	if f.Priority != nil {
		c = append(c, Condition{"priority", "priority", string(*f.Priority)})
	}
	return c
}

// Matches reports whether p satisfies every set field.
func (f ProjectFilter) Matches(p *Project) bool {
	if f.Team != nil && p.Team != *f.Team {
		return false
	}
	if f.Owner != nil && p.Owner != *f.Owner {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.Priority != nil && p.Priority != *f.Priority {
		return false
	}
	return true
}

// TaskFilter selects tasks.
type TaskFilter struct {
	Project     *string
	Assignee    *string
	Milestone   *string
	Status      *TaskStatus
	Priority    *Priority
	IsCompleted *bool
}

// Conditions returns the equality matches in a stable order.
func (f TaskFilter) Conditions() []Condition {
	var c []Condition
	if f.Project != nil {
		c = append(c, Condition{"project", "project_id", *f.Project})
	}
	if f.Assignee != nil {
		c = append(c, Condition{"assignee", "assignee", *f.Assignee})
	}
	if f.Milestone != nil {
		c = append(c, Condition{"milestone", "milestone_id", *f.Milestone})
	}
	if f.Status != nil {
		c = append(c, Condition{"status", "status", string(*f.Status)})
	}
	if f.Priority != nil {
		c = append(c, Condition{"priority", "priority", string(*f.Priority)})
	}
	if f.IsCompleted != nil {
		c = append(c, Condition{"isCompleted", "is_completed", *f.IsCompleted})
	}
	return c
}

// Matches reports whether t satisfies every set field.
func (f TaskFilter) Matches(t *Task) bool {
	if f.Project != nil && t.Project != *f.Project {
		return false
	}
	if f.Assignee != nil && t.Assignee != *f.Assignee {
		return false
	}
	if f.Milestone != nil && t.Milestone != *f.Milestone {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.IsCompleted != nil && t.IsCompleted != *f.IsCompleted {
		return false
	}
	return true
}

// MilestoneFilter selects milestones.
type MilestoneFilter struct {
	Project *string
	Team    *string
	Owner   *string
	Status  *MilestoneStatus
}

// Conditions returns the equality matches in a stable order.
func (f MilestoneFilter) Conditions() []Condition {
	var c []Condition
	if f.Project != nil {
		c = append(c, Condition{"project", "project_id", *f.Project})
	}
	if f.Team != nil {
		c = append(c, Condition{"team", "team_id", *f.Team})
	}
	if f.Owner != nil {
		c = append(c, Condition{"owner", "owner", *f.Owner})
	}
	if f.Status != nil {
		c = append(c, Condition{"status", "status", string(*f.Status)})
	}
	return c
}

// Matches reports whether m satisfies every set field.
func (f MilestoneFilter) Matches(m *Milestone) bool {
	if f.Project != nil && m.Project != *f.Project {
		return false
	}
	if f.Team != nil && m.Team != *f.Team {
		return false
	}
	if f.Owner != nil && m.Owner != *f.Owner {
		return false
	}
	if f.Status != nil && m.Status != *f.Status {
		return false
	}
	return true
}
