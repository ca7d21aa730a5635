package planner

import (
	"context"
	"strings"

	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// CreateTeam creates a team owned by the caller. An authenticated caller
// also becomes the team's first lead unless already listed as a member.
func (s *Service) CreateTeam(ctx context.Context, caller *model.Caller, f model.TeamFields) (*model.Team, error) {
	f.Owner = model.Ptr(caller.OwnerID())
	if caller != nil && caller.ID != "" {
		var members []model.TeamMember
		if f.Members != nil {
			members = append(members, *f.Members...)
		}
		listed := false
		for _, m := range members {
			if strings.TrimSpace(m.UserID) == caller.ID {
				listed = true
				break
			}
		}
		if !listed {
			lead := model.TeamMember{UserID: caller.ID, Name: caller.Name, Role: model.RoleLead}
			members = append([]model.TeamMember{lead}, members...)
		}
		f.Members = &members
	}
	return s.store.CreateTeam(ctx, f)
}

// GetTeam returns a team by id.
func (s *Service) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	return s.store.GetTeam(ctx, id)
}

// ListTeams returns the teams matching f.
func (s *Service) ListTeams(ctx context.Context, f model.TeamFilter) ([]*model.Team, error) {
	return s.store.ListTeams(ctx, f)
}

// PublicTeams returns every public team.
func (s *Service) PublicTeams(ctx context.Context) ([]*model.Team, error) {
	return s.store.ListTeams(ctx, model.TeamFilter{IsPublic: model.Ptr(true)})
}

// UserTeams returns the teams listing userID as a member.
func (s *Service) UserTeams(ctx context.Context, userID string) ([]*model.Team, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, perrors.ErrValidation("team", []perrors.FieldError{{Field: "userId", Message: "userId is required"}})
	}
	return s.store.ListTeams(ctx, model.TeamFilter{MemberUserID: model.Ptr(userID)})
}

// UpdateTeam merges the supplied fields into a team.
func (s *Service) UpdateTeam(ctx context.Context, id string, f model.TeamFields) (*model.Team, error) {
	return s.store.UpdateTeam(ctx, id, f)
}

// DeleteTeam removes a team. Its projects are left in place.
func (s *Service) DeleteTeam(ctx context.Context, id string) error {
	ok, err := s.store.DeleteTeam(ctx, id)
	return deleted("team", id, ok, err)
}

// AddTeamMember appends a member. Adding an existing member is a conflict.
func (s *Service) AddTeamMember(ctx context.Context, teamID string, m model.TeamMember) (*model.Team, error) {
	m.UserID = strings.TrimSpace(m.UserID)
	if m.UserID == "" {
		return nil, perrors.ErrValidation("team member", []perrors.FieldError{{Field: "userId", Message: "userId is required"}})
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.HasMember(m.UserID) {
		return nil, perrors.ErrConflict("team member", "userId", m.UserID)
	}
	members := append(team.Members, m)
	return s.store.UpdateTeam(ctx, teamID, model.TeamFields{Members: &members})
}

// RemoveTeamMember drops a member. Removing someone who is not a member
// leaves the team unchanged.
func (s *Service) RemoveTeamMember(ctx context.Context, teamID, userID string) (*model.Team, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, perrors.ErrValidation("team member", []perrors.FieldError{{Field: "userId", Message: "userId is required"}})
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(userID) {
		return team, nil
	}
	members := make([]model.TeamMember, 0, len(team.Members))
	for _, m := range team.Members {
		if m.UserID != userID {
			members = append(members, m)
		}
	}
	return s.store.UpdateTeam(ctx, teamID, model.TeamFields{Members: &members})
}
