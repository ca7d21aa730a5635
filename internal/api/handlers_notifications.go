package api

import (
	"net/http"

	"github.com/agb-planner/planner/internal/notify"
)

// handleListNotifications returns one user's log entries with ?userId, or
// the whole log.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	var (
		entries []notify.Entry
		err     error
	)
	if userID := r.URL.Query().Get("userId"); userID != "" {
		entries, err = s.svc.UserNotifications(userID)
	} else {
		entries, err = s.svc.AllNotifications()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONList(w, entries)
}

// handleReminders runs the due, overdue and upcoming-milestone scans now.
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	rem, err := s.svc.CheckReminders(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, rem)
}
