// ABOUTME: Postman CRUD, scoring and CSV transfer endpoints
// ABOUTME: Every postman route is scoped to the calling user
package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
	"github.com/relationcraft/postman/transfer"
	"github.com/relationcraft/postman/viz"
)

type postmanRequest struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Company         string  `json:"company" validate:"max=100"`
	Position        string  `json:"position" validate:"max=100"`
	Phone           string  `json:"phone" validate:"max=30"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Category        string  `json:"category"`
	Stage           string  `json:"stage"`
	Notes           string  `json:"notes"`
	ProfileImage    string  `json:"profile_image"`
	Birthday        *string `json:"birthday" validate:"omitempty,date"`
	Strengths       string  `json:"strengths"`
	Interests       string  `json:"interests"`
	Goals           string  `json:"goals"`
	BusinessSummary string  `json:"business_summary"`
	LifePurpose     string  `json:"life_purpose"`
}

type postmanPatch struct {
	Name            *string `json:"name" validate:"omitempty,max=100"`
	Company         *string `json:"company" validate:"omitempty,max=100"`
	Position        *string `json:"position" validate:"omitempty,max=100"`
	Phone           *string `json:"phone" validate:"omitempty,max=30"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Category        *string `json:"category"`
	Stage           *string `json:"stage"`
	Notes           *string `json:"notes"`
	ProfileImage    *string `json:"profile_image"`
	Birthday        *string `json:"birthday" validate:"omitempty,date"`
	Strengths       *string `json:"strengths"`
	Interests       *string `json:"interests"`
	Goals           *string `json:"goals"`
	BusinessSummary *string `json:"business_summary"`
	LifePurpose     *string `json:"life_purpose"`
}

func (p postmanPatch) toUpdate() (db.PostmanUpdate, error) {
	upd := db.PostmanUpdate{
		Name:            p.Name,
		Company:         p.Company,
		Position:        p.Position,
		Phone:           p.Phone,
		Email:           p.Email,
		Notes:           p.Notes,
		ProfileImage:    p.ProfileImage,
		Strengths:       p.Strengths,
		Interests:       p.Interests,
		Goals:           p.Goals,
		BusinessSummary: p.BusinessSummary,
		LifePurpose:     p.LifePurpose,
	}
	if p.Category != nil {
		c := models.Category(*p.Category)
		upd.Category = &c
	}
	if p.Stage != nil {
		st := models.Stage(*p.Stage)
		upd.Stage = &st
	}
	if p.Birthday != nil {
		b, err := db.ParseDate(*p.Birthday)
		if err != nil {
			return upd, err
		}
		upd.Birthday = &b
	}
	return upd, nil
}

func (s *Server) handleListPostmen(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	q := r.URL.Query()

	filter := db.PostmanFilter{
		UserID: user.ID,
		Query:  q.Get("q"),
		Limit:  queryInt(r, "limit", 0),
	}
	if v := q.Get("stage"); v != "" {
		stage, err := models.ParseStage(v)
		if err != nil {
			handleError(w, r, apperr.Validationf("%v", err), s.logger)
			return
		}
		filter.Stage = stage
	}
	if v := q.Get("category"); v != "" {
		category, err := models.ParseCategory(v)
		if err != nil {
			handleError(w, r, apperr.Validationf("%v", err), s.logger)
			return
		}
		filter.Category = category
	}
	if q.Get("sort") == "name" {
		filter.Order = db.OrderName
	}

	postmen, err := db.ListPostmen(r.Context(), s.db, filter)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if postmen == nil {
		postmen = []models.Postman{}
	}
	success(w, postmen, s.logger)
}

func (s *Server) handleCreatePostman(w http.ResponseWriter, r *http.Request) {
	var req postmanRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	p := &models.Postman{
		UserID:          currentUser(r.Context()).ID,
		Name:            req.Name,
		Company:         req.Company,
		Position:        req.Position,
		Phone:           req.Phone,
		Email:           req.Email,
		Category:        models.Category(req.Category),
		Stage:           models.Stage(req.Stage),
		Notes:           req.Notes,
		ProfileImage:    req.ProfileImage,
		Strengths:       req.Strengths,
		Interests:       req.Interests,
		Goals:           req.Goals,
		BusinessSummary: req.BusinessSummary,
		LifePurpose:     req.LifePurpose,
	}
	if req.Birthday != nil {
		b, err := db.ParseDate(*req.Birthday)
		if err != nil {
			handleError(w, r, err, s.logger)
			return
		}
		p.Birthday = &b
	}

	if err := db.CreatePostman(r.Context(), s.db, p); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	created(w, p, s.logger)
}

// ownedPostman loads the postman named by the {id} URL parameter and checks
// that the caller owns it. Other users' postmen are reported as not found.
func (s *Server) ownedPostman(r *http.Request) (*models.Postman, error) {
	id, err := urlUUID(r, "id")
	if err != nil {
		return nil, err
	}
	p, err := db.GetPostman(r.Context(), s.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != currentUser(r.Context()).ID {
		return nil, apperr.NotFoundf("포스트맨을 찾을 수 없습니다")
	}
	return p, nil
}

func (s *Server) handleGetPostman(w http.ResponseWriter, r *http.Request) {
	p, err := s.ownedPostman(r)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, p, s.logger)
}

func (s *Server) handleUpdatePostman(w http.ResponseWriter, r *http.Request) {
	p, err := s.ownedPostman(r)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	var patch postmanPatch
	if err := s.decodeJSON(r, &patch); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	upd, err := patch.toUpdate()
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	updated, err := db.UpdatePostman(r.Context(), s.db, p.ID, upd)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, updated, s.logger)
}

func (s *Server) handleDeletePostman(w http.ResponseWriter, r *http.Request) {
	p, err := s.ownedPostman(r)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if err := db.DeletePostman(r.Context(), s.db, p.ID); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	message(w, "삭제되었습니다", s.logger)
}

func (s *Server) handleScorePostmen(w http.ResponseWriter, r *http.Request) {
	scored, err := viz.ScorePostmen(r.Context(), s.db, currentUser(r.Context()).ID, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if limit := queryInt(r, "limit", 0); limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	success(w, scored, s.logger)
}

func (s *Server) handleGetPostmanScore(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	scored, err := viz.ScorePostman(r.Context(), s.db, currentUser(r.Context()).ID, id, s.now())
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	success(w, scored, s.logger)
}

func (s *Server) handlePostmanGraph(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	dot, err := s.graphs.GeneratePostmanGraph(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	writeDOT(w, dot)
}

func (s *Server) handleExportPostmen(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, transfer.ExportFilename(s.now())))

	n, err := transfer.Export(r.Context(), s.db, w, currentUser(r.Context()).ID)
	if err != nil {
		// Headers are already sent; all that is left is to log.
		s.logger.Error("CSV export failed", "error", err, "rows", n)
	}
}

func (s *Server) handleImportPostmen(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, apperr.Validationf("파일이 없습니다"), s.logger)
		return
	}
	defer file.Close()

	res, err := transfer.Import(r.Context(), s.db, file, currentUser(r.Context()).ID)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    res,
		Message: fmt.Sprintf("%d명 가져오기 완료, %d건 실패", res.SuccessCount, res.FailCount),
	}, s.logger)
}

func writeDOT(w http.ResponseWriter, dot string) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(dot))
}

func urlUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validationf("invalid %s", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return time.Time{}, nil
	}
	return db.ParseDate(v)
}

func (s *Server) today() string {
	return s.now().Format(models.DateLayout)
}
