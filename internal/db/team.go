package db

import (
	"context"

	"github.com/agb-planner/planner/internal/model"
)

var teamTable = &table[model.Team]{
	name:   "teams",
	entity: "team",
	columns: []string{
		"name", "description", "owner", "is_public", "members", "projects",
		"created_at", "updated_at",
	},
	values: func(t *model.Team) ([]any, error) {
		members, err := encodeJSON(t.Members)
		if err != nil {
			return nil, err
		}
		projects, err := encodeJSON(t.Projects)
		if err != nil {
			return nil, err
		}
		return []any{
			t.Name, t.Description, t.Owner, t.IsPublic, members, projects,
			formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
		}, nil
	},
	scan:   scanTeam,
	setID:  func(t *model.Team, id string) { t.ID = id },
	unique: func(t *model.Team) (string, string) { return "name", t.Name },
}

func scanTeam(s scanner) (*model.Team, error) {
	var (
		t                  model.Team
		id                 int64
		members, projects  string
		createdAt, updated string
	)
	if err := s.Scan(&id, &t.Name, &t.Description, &t.Owner, &t.IsPublic,
		&members, &projects, &createdAt, &updated); err != nil {
		return nil, err
	}
	t.ID = formatID(id)

	var err error
	if t.Members, err = decodeJSON[model.TeamMember](members); err != nil {
		return nil, err
	}
	if t.Projects, err = decodeJSON[string](projects); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTeam inserts t and sets its id.
func (d *DB) CreateTeam(ctx context.Context, t *model.Team) error {
	return teamTable.insert(ctx, d.driver, t)
}

// GetTeam returns the team with id, or a NOT_FOUND error.
func (d *DB) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	return teamTable.get(ctx, d.driver, id)
}

// ListTeams returns teams matching f in ascending id order.
func (d *DB) ListTeams(ctx context.Context, f model.TeamFilter) ([]*model.Team, error) {
	teams, err := teamTable.list(ctx, d.driver, f.Conditions())
	if err != nil || f.MemberUserID == nil {
		return teams, err
	}
	out := teams[:0]
	for _, t := range teams {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// UpdateTeam applies mutate to the stored team and saves it.
func (d *DB) UpdateTeam(ctx context.Context, id string, mutate func(*model.Team) error) (*model.Team, error) {
	return teamTable.update(ctx, d, id, mutate)
}

// DeleteTeam removes the team, reporting whether it existed.
func (d *DB) DeleteTeam(ctx context.Context, id string) (bool, error) {
	return teamTable.delete(ctx, d.driver, id)
}
