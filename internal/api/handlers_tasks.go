package api

import (
	"net/http"

	"github.com/agb-planner/planner/internal/model"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	f := model.TaskFilter{
		Project:   queryPtr(r, "projectId"),
		Assignee:  queryPtr(r, "assignee"),
		Milestone: queryPtr(r, "milestoneId"),
	}
	if v := queryPtr(r, "status"); v != nil {
		f.Status = model.Ptr(model.TaskStatus(*v))
	}
	if v := queryPtr(r, "priority"); v != nil {
		f.Priority = model.Ptr(model.Priority(*v))
	}
	tasks, err := s.svc.ListTasks(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONList(w, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	f, err := decodeTask(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.CreateTask(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONCreated(w, "Task created successfully", res)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, t)
}

// handleUpdateTask accepts task fields plus an optional note carried into
// status-change notifications.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	note := valueOf(d.text("note"))
	f, err := decodeTask(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.UpdateTask(r.Context(), r.PathValue("id"), f, note)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, res)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	JSONMessage(w, "Task deleted")
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.CompleteTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, res)
}

func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	status := d.text("status")
	note := valueOf(d.text("note"))
	if status == nil {
		d.v.Add("status", "status is required")
	}
	if err := d.err("task"); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.UpdateTaskStatus(r.Context(), r.PathValue("id"), model.TaskStatus(*status), note)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, res)
}

// handleAssignTask sets the assignee; null or "" unassigns.
func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	assignee := d.str("assignee")
	if err := d.err("task"); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.svc.AssignTask(r.Context(), r.PathValue("id"), valueOf(assignee))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, t)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	content := d.text("content")
	if err := d.err("comment"); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.svc.AddComment(r.Context(), CallerFrom(r.Context()), r.PathValue("id"), valueOf(content))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, t)
}

// handleAddAttachment records metadata of a file already stored by the
// upload collaborator.
func (s *Server) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	d, ok := s.body(w, r)
	if !ok {
		return
	}
	a := model.Attachment{
		Filename: valueOf(d.text("filename")),
		URL:      valueOf(d.text("url")),
	}
	if size := d.number("fileSize"); size != nil {
		if *size < 0 {
			d.v.Add("fileSize", "fileSize cannot be negative")
		}
		a.FileSize = int64(*size)
	}
	if err := d.err("attachment"); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.svc.AddAttachment(r.Context(), CallerFrom(r.Context()), r.PathValue("id"), a)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, t)
}

// handleTaskNotifications lists logged links for a task. Entries outlive
// the task they were sent for.
func (s *Server) handleTaskNotifications(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.TaskNotifications(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONList(w, entries)
}
