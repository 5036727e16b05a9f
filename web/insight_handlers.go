// ABOUTME: Read-only views for the caller: dashboard, calendar, pipeline graph and notices
// ABOUTME: Thin wrappers over the viz generators
package web

import (
	"net/http"

	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

const activeNoticeLimit = 10

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := viz.GenerateUserDashboard(r.Context(), s.db, currentUser(r.Context()).ID, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, d, s.logger)
}

// handleCalendar takes optional start and end dates (YYYY-MM-DD, inclusive).
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "start")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	events, err := viz.CalendarEvents(r.Context(), s.db, currentUser(r.Context()).ID, start, end)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, events, s.logger)
}

func (s *Server) handlePipelineGraph(w http.ResponseWriter, r *http.Request) {
	dot, err := s.graphs.GeneratePipelineGraph(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	writeDOT(w, dot)
}

func (s *Server) handleActiveNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := db.ListNotices(r.Context(), s.db, true, activeNoticeLimit)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if notices == nil {
		notices = []models.Notice{}
	}
	success(w, notices, s.logger)
}
