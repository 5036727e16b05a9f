// ABOUTME: Request logging, caller identity and admin gating middleware
// ABOUTME: The caller is named by the X-User-ID header and must be an active account
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/models"
)

// UserIDHeader carries the caller's user id, set by the fronting deployment.
const UserIDHeader = "X-User-ID"

type contextKey string

const contextKeyUser contextKey = "user"

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// identify resolves the caller and stores the user in the request context.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			handleError(w, r, apperr.Unauthorizedf("로그인이 필요합니다"), s.logger)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			handleError(w, r, apperr.Unauthorizedf("invalid %s header", UserIDHeader), s.logger)
			return
		}

		user, err := db.GetUser(r.Context(), s.db, id)
		if err != nil {
			handleError(w, r, err, s.logger)
			return
		}
		if user == nil {
			handleError(w, r, apperr.Unauthorizedf("unknown user"), s.logger)
			return
		}
		if !user.IsActive {
			handleError(w, r, apperr.Forbiddenf("비활성화된 계정입니다"), s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin must run after identify.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := currentUser(r.Context()); u == nil || u.Role != models.RoleAdmin {
			handleError(w, r, apperr.Forbiddenf("관리자 권한이 필요합니다"), s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(contextKeyUser).(*models.User)
	return u
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	success(w, currentUser(r.Context()), s.logger)
}
