package api

import (
	"net/http"

	"github.com/agb-planner/planner/internal/model"
)

func (s *Server) handleListMilestones(w http.ResponseWriter, r *http.Request) {
	f := model.MilestoneFilter{
		Team:    queryPtr(r, "teamId"),
		Project: queryPtr(r, "projectId"),
		Owner:   queryPtr(r, "owner"),
	}
	if v := queryPtr(r, "status"); v != nil {
		f.Status = model.Ptr(model.MilestoneStatus(*v))
	}
	ms, err := s.svc.ListMilestones(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONList(w, ms)
}

func (s *Server) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	f, err := decodeMilestone(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.svc.CreateMilestone(r.Context(), CallerFrom(r.Context()), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONCreated(w, "Milestone created successfully", m)
}

// handleTimeline groups a team's open milestones by start month.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	tl, err := s.svc.Timeline(r.Context(), r.URL.Query().Get("teamId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, tl)
}

func (s *Server) handleGetMilestone(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.GetMilestone(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, m)
}

func (s *Server) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	f, err := decodeMilestone(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.svc.UpdateMilestone(r.Context(), r.PathValue("id"), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, m)
}

func (s *Server) handleDeleteMilestone(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteMilestone(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	JSONMessage(w, "Milestone deleted")
}

func (s *Server) handleRecalculateProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.RecalculateProgress(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, p)
}
