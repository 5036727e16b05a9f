// ABOUTME: Administrator endpoints: reporting, account management, notices and backups
// ABOUTME: Every mutation is recorded in the admin audit log
package web

import (
	"encoding/json"
	"net/http"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/viz"
)

const adminNoticeLimit = 100

type userUpdateRequest struct {
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"is_active"`
}

type noticeRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

type noticePatch struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Content  *string `json:"content"`
	IsActive *bool   `json:"is_active"`
}

// audit appends an admin log entry. A failed write is logged, not returned:
// the action itself already happened.
func (s *Server) audit(r *http.Request, action models.AdminAction, detail any) {
	raw, err := json.Marshal(detail)
	if err != nil {
		s.logger.Error("Failed to encode audit detail", "action", action, "error", err)
		return
	}
	admin := currentUser(r.Context())
	if _, err := db.AppendAdminLog(r.Context(), s.db, admin.ID, action, string(raw)); err != nil {
		s.logger.Error("Failed to write admin log", "action", action, "error", err)
	}
}

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	o, err := viz.GenerateAdminOverview(r.Context(), s.db, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, o, s.logger)
}

func (s *Server) handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := viz.GenerateAdminAnalytics(r.Context(), s.db, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, a, s.logger)
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := viz.ListUserSummaries(r.Context(), s.db, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, users, s.logger)
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	d, err := viz.GenerateUserDetail(r.Context(), s.db, id, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, d, s.logger)
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	var req userUpdateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if req.Role == nil && req.IsActive == nil {
		handleError(w, r, apperr.Validationf("nothing to update"), s.logger)
		return
	}
	if id == currentUser(r.Context()).ID && (req.IsActive != nil && !*req.IsActive ||
		req.Role != nil && *req.Role != string(models.RoleAdmin)) {
		handleError(w, r, apperr.Forbiddenf("자기 자신의 권한은 변경할 수 없습니다"), s.logger)
		return
	}

	var role *models.Role
	changes := map[string]any{}
	if req.Role != nil {
		rl := models.Role(*req.Role)
		role = &rl
		changes["role"] = rl
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
	}

	u, err := db.UpdateUser(r.Context(), s.db, id, role, req.IsActive)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	s.audit(r, models.ActionUserUpdate, map[string]any{"target_user_id": id, "changes": changes})
	success(w, u, s.logger)
}

func (s *Server) handleAdminListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := db.ListNotices(r.Context(), s.db, false, adminNoticeLimit)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if notices == nil {
		notices = []models.Notice{}
	}
	success(w, notices, s.logger)
}

func (s *Server) handleAdminCreateNotice(w http.ResponseWriter, r *http.Request) {
	var req noticeRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	n := &models.Notice{Title: req.Title, Content: req.Content, IsActive: true}
	if req.IsActive != nil {
		n.IsActive = *req.IsActive
	}
	if err := db.CreateNotice(r.Context(), s.db, n); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	s.audit(r, models.ActionCreateNotice, map[string]any{"notice_id": n.ID, "title": n.Title})
	created(w, n, s.logger)
}

func (s *Server) handleAdminUpdateNotice(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	var req noticePatch
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	n, err := db.UpdateNotice(r.Context(), s.db, id, req.Title, req.Content, req.IsActive)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	s.audit(r, models.ActionUpdateNotice, map[string]any{"notice_id": id})
	success(w, n, s.logger)
}

func (s *Server) handleAdminDeleteNotice(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if err := db.DeleteNotice(r.Context(), s.db, id); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	s.audit(r, models.ActionDeleteNotice, map[string]any{"notice_id": id})
	message(w, "삭제되었습니다", s.logger)
}

func (s *Server) handleAdminSystem(w http.ResponseWriter, r *http.Request) {
	report, err := viz.GenerateSystemReport(r.Context(), s.db, s.cfg.BackupDir, s.startedAt, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, report, s.logger)
}

func (s *Server) handleAdminBackup(w http.ResponseWriter, r *http.Request) {
	info, err := db.Backup(r.Context(), s.db, s.cfg.BackupDir, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	s.logger.Info("Manual backup written", "name", info.Name, "size", info.Size)
	s.audit(r, models.ActionManualBackup, map[string]any{"name": info.Name, "size": info.Size})
	created(w, info, s.logger)
}

func (s *Server) handleAdminLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := db.ListAdminLogs(r.Context(), s.db, queryInt(r, "limit", 0))
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if logs == nil {
		logs = []models.AdminLog{}
	}
	success(w, logs, s.logger)
}
