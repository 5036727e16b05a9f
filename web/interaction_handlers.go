// ABOUTME: Give/take interaction endpoints
// ABOUTME: Creating or deleting an interaction adjusts the postman's counters in the same transaction
package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

const defaultInteractionLimit = 50

type interactionRequest struct {
	PostmanID   string `json:"postman_id" validate:"required,uuid"`
	Type        string `json:"type" validate:"required,oneof=GIVE TAKE give take"`
	Category    string `json:"category" validate:"required,max=50"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"omitempty,date"`
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.InteractionFilter{
		UserID: currentUser(r.Context()).ID,
		Limit:  queryInt(r, "limit", defaultInteractionLimit),
	}
	if v := q.Get("postman_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			handleError(w, r, apperr.Validationf("invalid postman_id"), s.logger)
			return
		}
		filter.PostmanID = id
	}
	if v := q.Get("type"); v != "" {
		typ, err := models.ParseInteractionType(v)
		if err != nil {
			handleError(w, r, apperr.Validationf("%v", err), s.logger)
			return
		}
		filter.Type = typ
	}

	interactions, err := db.ListInteractions(r.Context(), s.db, filter)
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if interactions == nil {
		interactions = []models.Interaction{}
	}
	success(w, interactions, s.logger)
}

func (s *Server) handleCreateInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err, s.logger)
		return
	}

	in := &models.Interaction{
		UserID:      currentUser(r.Context()).ID,
		PostmanID:   uuid.MustParse(req.PostmanID),
		Type:        models.InteractionType(req.Type),
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != "" {
		d, err := db.ParseDate(req.Date)
		if err != nil {
			handleError(w, r, err, s.logger)
			return
		}
		// A bare date means "that day", stamped at the current time of day.
		now := s.now().UTC()
		in.Date = d.Add(now.Sub(now.Truncate(24 * time.Hour)))
	}

	if err := db.CreateInteraction(r.Context(), s.db, in); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	created(w, in, s.logger)
}

func (s *Server) handleDeleteInteraction(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	if err := db.DeleteInteraction(r.Context(), s.db, id, currentUser(r.Context()).ID); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	message(w, "삭제되었습니다", s.logger)
}
