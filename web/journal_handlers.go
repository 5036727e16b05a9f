// ABOUTME: Daily log and weekly plan endpoints
// ABOUTME: Both are upserted by natural key: (user, date) and (user, week start)
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

const defaultPlanLimit = 12

type dailyLogRequest struct {
	Date          string `json:"date" validate:"required,date"`
	Content       string `json:"content" validate:"required"`
	Goals         string `json:"goals"`
	Achievements  string `json:"achievements"`
	LettersSent   int    `json:"letters_sent" validate:"gte=0"`
	Calls         int    `json:"calls" validate:"gte=0"`
	SocialTouches int    `json:"social_touches" validate:"gte=0"`
	GiftsSent     int    `json:"gifts_sent" validate:"gte=0"`
}

type planGoalRequest struct {
	Text   string `json:"text" validate:"max=200"`
	Status string `json:"status" validate:"omitempty,oneof=TODO DOING DONE"`
}

type meetingRequest struct {
	PostmanID   string `json:"postman_id" validate:"omitempty,uuid"`
	TargetName  string `json:"target_name" validate:"required"`
	Purpose     string `json:"purpose"`
	Location    string `json:"location"`
	ScheduledAt string `json:"scheduled_at"`
	Agenda      string `json:"agenda"`
	Notes       string `json:"notes"`
}

type weeklyPlanRequest struct {
	WeekStart string            `json:"week_start" validate:"required,date"`
	Goals     []planGoalRequest `json:"goals" validate:"max=3,dive"`
	Meetings  []meetingRequest  `json:"meetings" validate:"max=3,dive"`
}

func (s *Server) handleListDailyLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := db.ListDailyLogs(r.Context(), s.db, currentUser(r.Context()).ID, queryInt(r, "limit", 0))
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if logs == nil {
		logs = []models.DailyLog{}
	}
	success(w, logs, s.logger)
}

func (s *Server) handleGetDailyLog(w http.ResponseWriter, r *http.Request) {
	l, err := db.GetDailyLog(r.Context(), s.db, currentUser(r.Context()).ID, chi.URLParam(r, "date"))
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if l == nil {
		handleError(w, r, apperr.NotFoundf("해당 날짜의 로그가 없습니다"), s.logger)
		return
	}
	success(w, l, s.logger)
}

func (s *Server) handleUpsertDailyLog(w http.ResponseWriter, r *http.Request) {
	var req dailyLogRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	l := &models.DailyLog{
		UserID:        currentUser(r.Context()).ID,
		Date:          req.Date,
		Content:       req.Content,
		Goals:         req.Goals,
		Achievements:  req.Achievements,
		LettersSent:   req.LettersSent,
		Calls:         req.Calls,
		SocialTouches: req.SocialTouches,
		GiftsSent:     req.GiftsSent,
	}
	if err := db.UpsertDailyLog(r.Context(), s.db, l); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, l, s.logger)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := viz.UserStreaks(r.Context(), s.db, currentUser(r.Context()).ID, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, streak, s.logger)
}

func (s *Server) handleListWeeklyPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := db.ListWeeklyPlans(r.Context(), s.db, currentUser(r.Context()).ID, "", queryInt(r, "limit", defaultPlanLimit))
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if plans == nil {
		plans = []models.WeeklyPlan{}
	}
	success(w, plans, s.logger)
}

// handleGetWeeklyPlan accepts any date in the week; "current" means this week.
func (s *Server) handleGetWeeklyPlan(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "current" {
		date = s.today()
	}
	plan, err := db.GetWeeklyPlan(r.Context(), s.db, currentUser(r.Context()).ID, date)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if plan == nil {
		handleError(w, r, apperr.NotFoundf("해당 주의 계획이 없습니다"), s.logger)
		return
	}
	success(w, plan, s.logger)
}

func (s *Server) handleUpsertWeeklyPlan(w http.ResponseWriter, r *http.Request) {
	var req weeklyPlanRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	plan := &models.WeeklyPlan{
		UserID:    currentUser(r.Context()).ID,
		WeekStart: req.WeekStart,
	}
	for i, g := range req.Goals {
		plan.Goals[i] = models.PlanGoal{Text: g.Text, Status: models.PlanStatus(g.Status)}
	}
	for _, m := range req.Meetings {
		prep := models.MeetingPrep{
			TargetName:  m.TargetName,
			Purpose:     m.Purpose,
			Location:    m.Location,
			ScheduledAt: m.ScheduledAt,
			Agenda:      m.Agenda,
			Notes:       m.Notes,
		}
		if m.PostmanID != "" {
			id := uuid.MustParse(m.PostmanID)
			prep.PostmanID = &id
		}
		plan.Meetings = append(plan.Meetings, prep)
	}

	if err := db.UpsertWeeklyPlan(r.Context(), s.db, plan); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, plan, s.logger)
}
