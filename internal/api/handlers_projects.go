package api

import (
	"net/http"

	"github.com/agb-planner/planner/internal/model"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	f := model.ProjectFilter{
		Team:  queryPtr(r, "teamId"),
		Owner: queryPtr(r, "owner"),
	}
	if v := queryPtr(r, "status"); v != nil {
		f.Status = model.Ptr(model.ProjectStatus(*v))
	}
	if v := queryPtr(r, "priority"); v != nil {
		f.Priority = model.Ptr(model.Priority(*v))
	}
	projects, err := s.svc.ListProjects(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONList(w, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	f, err := decodeProject(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.svc.CreateProject(r.Context(), CallerFrom(r.Context()), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONCreated(w, "Project created successfully", p)
}

// handleGetProject returns the project with its team, tasks and milestones.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.ProjectDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, detail)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	f, err := decodeProject(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.svc.UpdateProject(r.Context(), r.PathValue("id"), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	JSONMessage(w, "Project deleted")
}

func (s *Server) handleProjectStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.ProjectStats(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, st)
}

// handleProjectBoard returns the project's tasks grouped by status.
func (s *Server) handleProjectBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.TasksByStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, b)
}
