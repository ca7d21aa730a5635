package api

import (
	"net/http"
	"strconv"

	"github.com/agb-planner/planner/internal/model"
)

// body decodes the request body, writing the error response on failure.
func (s *Server) body(w http.ResponseWriter, r *http.Request) (*decoder, bool) {
	d, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return d, true
}

// queryPtr returns the query parameter or nil when it is absent or empty.
func queryPtr(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	f := model.TeamFilter{Owner: queryPtr(r, "owner")}
	if v := queryPtr(r, "isPublic"); v != nil {
		if b, err := strconv.ParseBool(*v); err == nil {
			f.IsPublic = &b
		}
	}
	teams, err := s.svc.ListTeams(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONList(w, teams)
}

func (s *Server) handlePublicTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.svc.PublicTeams(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONList(w, teams)
}

// handleMyTeams lists the caller's teams. Anonymous callers name the user
// with ?userId.
func (s *Server) handleMyTeams(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if c := CallerFrom(r.Context()); c != nil {
		userID = c.ID
	}
	teams, err := s.svc.UserTeams(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONList(w, teams)
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	f, err := decodeTeam(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	team, err := s.svc.CreateTeam(r.Context(), CallerFrom(r.Context()), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONCreated(w, "Team created successfully", team)
}

func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.svc.GetTeam(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, team)
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	f, err := decodeTeam(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	team, err := s.svc.UpdateTeam(r.Context(), r.PathValue("id"), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, team)
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTeam(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	JSONMessage(w, "Team deleted")
}

func (s *Server) handleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	m := model.TeamMember{
		UserID:         valueOf(d.text("userId")),
		Name:           valueOf(d.text("name")),
		WhatsappNumber: valueOf(d.text("whatsappNumber")),
		Role:           model.MemberRole(valueOf(d.text("role"))),
	}
	if err := d.err("team member"); err != nil {
		s.fail(w, r, err)
		return
	}
	team, err := s.svc.AddTeamMember(r.Context(), r.PathValue("id"), m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, team)
}

// handleRemoveTeamMember takes the user from the body or ?userId.
func (s *Server) handleRemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	userID := valueOf(d.text("userId"))
	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	if err := d.err("team member"); err != nil {
		s.fail(w, r, err)
		return
	}
	team, err := s.svc.RemoveTeamMember(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, team)
}

func valueOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
