package storage

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agb-planner/planner/internal/model"
)

// BuiltinFixtures selects the embedded demo data set.
const BuiltinFixtures = "builtin"

//go:embed fixtures/demo.yaml
var demoFixtures []byte

// Fixtures is a seed data set. Records reference each other by key rather
// than id, since ids are assigned by the backend being seeded.
type Fixtures struct {
	Teams      []TeamFixture      `yaml:"teams"`
	Projects   []ProjectFixture   `yaml:"projects"`
	Milestones []MilestoneFixture `yaml:"milestones"`
	Tasks      []TaskFixture      `yaml:"tasks"`
}

// TeamFixture seeds one team.
type TeamFixture struct {
	Key         string             `yaml:"key"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Owner       string             `yaml:"owner"`
	IsPublic    *bool              `yaml:"isPublic"`
	Members     []model.TeamMember `yaml:"members"`
}

// ProjectFixture seeds one project. Team is a team key.
type ProjectFixture struct {
	Key         string              `yaml:"key"`
	Team        string              `yaml:"team"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Owner       string              `yaml:"owner"`
	Status      model.ProjectStatus `yaml:"status"`
	Priority    model.Priority      `yaml:"priority"`
	StartDate   string              `yaml:"startDate"`
	EndDate     string              `yaml:"endDate"`
	Color       string              `yaml:"color"`
}

// MilestoneFixture seeds one milestone. Project is a project key; the team
// is taken from the project.
type MilestoneFixture struct {
	Key         string                `yaml:"key"`
	Project     string                `yaml:"project"`
	Title       string                `yaml:"title"`
	Description string                `yaml:"description"`
	Owner       string                `yaml:"owner"`
	StartDate   string                `yaml:"startDate"`
	DueDate     string                `yaml:"dueDate"`
	Status      model.MilestoneStatus `yaml:"status"`
}

// TaskFixture seeds one task. Project and Milestone are keys.
type TaskFixture struct {
	Title            string                  `yaml:"title"`
	Description      string                  `yaml:"description"`
	Project          string                  `yaml:"project"`
	Milestone        string                  `yaml:"milestone"`
	Assignee         string                  `yaml:"assignee"`
	Status           model.TaskStatus        `yaml:"status"`
	Priority         model.Priority          `yaml:"priority"`
	DueDate          string                  `yaml:"dueDate"`
	EstimatedHours   float64                 `yaml:"estimatedHours"`
	ActualHours      float64                 `yaml:"actualHours"`
	Tags             []string                `yaml:"tags"`
	MentionedMembers []model.MentionedMember `yaml:"mentionedMembers"`
}

// SeedResult counts the records a seed created.
type SeedResult struct {
	Teams      int
	Projects   int
	Milestones int
	Tasks      int
}

// ParseFixtures decodes a YAML fixture document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &fx, nil
}

// LoadFixtures reads fixtures from path, or the embedded demo set when path
// is BuiltinFixtures.
func LoadFixtures(path string) (*Fixtures, error) {
	if path == BuiltinFixtures {
		return ParseFixtures(demoFixtures)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	return ParseFixtures(data)
}

// fixtureDate parses a YYYY-MM-DD or RFC 3339 date. Empty means unset.
func fixtureDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s: invalid date %q", field, s)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Seed creates every fixture record on b and keeps the derived caches
// (team.projects, project.tasks/milestones, milestone.tasks) in step.
// It stops at the first failure; records created before it remain.
func Seed(ctx context.Context, b Backend, fx *Fixtures) (*SeedResult, error) {
	res := &SeedResult{}
	teams := map[string]string{}
	projects := map[string]*model.Project{}
	milestones := map[string]string{}

	teamProjects := map[string][]string{}
	projectTasks := map[string][]string{}
	projectMilestones := map[string][]string{}
	milestoneTasks := map[string][]string{}

	for _, tf := range fx.Teams {
		f := model.TeamFields{
			Name:        model.Ptr(tf.Name),
			Description: nonEmpty(tf.Description),
			Owner:       nonEmpty(tf.Owner),
			IsPublic:    tf.IsPublic,
		}
		if tf.Members != nil {
			f.Members = model.Ptr(tf.Members)
		}
		t, err := b.CreateTeam(ctx, f)
		if err != nil {
			return res, fmt.Errorf("seed team %q: %w", tf.Key, err)
		}
		teams[tf.Key] = t.ID
		res.Teams++
	}

	for _, pf := range fx.Projects {
		teamID, ok := teams[pf.Team]
		if !ok {
			return res, fmt.Errorf("seed project %q: unknown team key %q", pf.Key, pf.Team)
		}
		start, err := fixtureDate("startDate", pf.StartDate)
		if err != nil {
			return res, fmt.Errorf("seed project %q: %w", pf.Key, err)
		}
		end, err := fixtureDate("endDate", pf.EndDate)
		if err != nil {
			return res, fmt.Errorf("seed project %q: %w", pf.Key, err)
		}
		f := model.ProjectFields{
			Name:        model.Ptr(pf.Name),
			Description: nonEmpty(pf.Description),
			Team:        model.Ptr(teamID),
			Owner:       nonEmpty(pf.Owner),
			StartDate:   start,
			EndDate:     end,
			Color:       nonEmpty(pf.Color),
		}
		if pf.Status != "" {
			f.Status = model.Ptr(pf.Status)
		}
		if pf.Priority != "" {
			f.Priority = model.Ptr(pf.Priority)
		}
		p, err := b.CreateProject(ctx, f)
		if err != nil {
			return res, fmt.Errorf("seed project %q: %w", pf.Key, err)
		}
		projects[pf.Key] = p
		teamProjects[teamID] = append(teamProjects[teamID], p.ID)
		res.Projects++
	}

	for _, mf := range fx.Milestones {
		p, ok := projects[mf.Project]
		if !ok {
			return res, fmt.Errorf("seed milestone %q: unknown project key %q", mf.Key, mf.Project)
		}
		start, err := fixtureDate("startDate", mf.StartDate)
		if err != nil {
			return res, fmt.Errorf("seed milestone %q: %w", mf.Key, err)
		}
		due, err := fixtureDate("dueDate", mf.DueDate)
		if err != nil {
			return res, fmt.Errorf("seed milestone %q: %w", mf.Key, err)
		}
		f := model.MilestoneFields{
			Title:       model.Ptr(mf.Title),
			Description: nonEmpty(mf.Description),
			Project:     model.Ptr(p.ID),
			Team:        model.Ptr(p.Team),
			Owner:       nonEmpty(mf.Owner),
			StartDate:   start,
			DueDate:     due,
		}
		if mf.Status != "" {
			f.Status = model.Ptr(mf.Status)
		}
		m, err := b.CreateMilestone(ctx, f)
		if err != nil {
			return res, fmt.Errorf("seed milestone %q: %w", mf.Key, err)
		}
		milestones[mf.Key] = m.ID
		projectMilestones[p.ID] = append(projectMilestones[p.ID], m.ID)
		res.Milestones++
	}

	for i, tf := range fx.Tasks {
		p, ok := projects[tf.Project]
		if !ok {
			return res, fmt.Errorf("seed task %d: unknown project key %q", i, tf.Project)
		}
		due, err := fixtureDate("dueDate", tf.DueDate)
		if err != nil {
			return res, fmt.Errorf("seed task %d: %w", i, err)
		}
		f := model.TaskFields{
			Title:          model.Ptr(tf.Title),
			Description:    nonEmpty(tf.Description),
			Project:        model.Ptr(p.ID),
			Assignee:       nonEmpty(tf.Assignee),
			DueDate:        due,
			EstimatedHours: model.Ptr(tf.EstimatedHours),
			ActualHours:    model.Ptr(tf.ActualHours),
		}
		if tf.Status != "" {
			f.Status = model.Ptr(tf.Status)
		}
		if tf.Priority != "" {
			f.Priority = model.Ptr(tf.Priority)
		}
		if tf.Tags != nil {
			f.Tags = model.Ptr(tf.Tags)
		}
		if tf.MentionedMembers != nil {
			f.MentionedMembers = model.Ptr(tf.MentionedMembers)
		}
		var milestoneID string
		if tf.Milestone != "" {
			if milestoneID, ok = milestones[tf.Milestone]; !ok {
				return res, fmt.Errorf("seed task %d: unknown milestone key %q", i, tf.Milestone)
			}
			f.Milestone = model.Ptr(milestoneID)
		}
		t, err := b.CreateTask(ctx, f)
		if err != nil {
			return res, fmt.Errorf("seed task %d: %w", i, err)
		}
		projectTasks[p.ID] = append(projectTasks[p.ID], t.ID)
		if milestoneID != "" {
			milestoneTasks[milestoneID] = append(milestoneTasks[milestoneID], t.ID)
		}
		res.Tasks++
	}

	for teamID, ids := range teamProjects {
		if _, err := b.UpdateTeam(ctx, teamID, model.TeamFields{Projects: model.Ptr(ids)}); err != nil {
			return res, fmt.Errorf("seed team %s projects: %w", teamID, err)
		}
	}
	for _, p := range projects {
		f := model.ProjectFields{
			Tasks:      model.Ptr(orEmpty(projectTasks[p.ID])),
			Milestones: model.Ptr(orEmpty(projectMilestones[p.ID])),
		}
		if _, err := b.UpdateProject(ctx, p.ID, f); err != nil {
			return res, fmt.Errorf("seed project %s caches: %w", p.ID, err)
		}
	}
	for milestoneID, ids := range milestoneTasks {
		if _, err := b.UpdateMilestone(ctx, milestoneID, model.MilestoneFields{Tasks: model.Ptr(ids)}); err != nil {
			return res, fmt.Errorf("seed milestone %s tasks: %w", milestoneID, err)
		}
	}
	return res, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
