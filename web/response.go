// ABOUTME: JSON response envelope shared by every API handler
// ABOUTME: Maps coded domain errors to HTTP statuses and logs unexpected failures
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/relationcraft/postman/apperr"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

func success(w http.ResponseWriter, data any, logger *slog.Logger) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data}, logger)
}

func created(w http.ResponseWriter, data any, logger *slog.Logger) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data}, logger)
}

func message(w http.ResponseWriter, msg string, logger *slog.Logger) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: msg}, logger)
}

func errorResponse(w http.ResponseWriter, status int, msg string, logger *slog.Logger) {
	writeJSON(w, status, Envelope{Success: false, Error: msg}, logger)
}

// handleError writes err as an envelope. Coded errors keep their status and
// message; anything else is logged and reported as a 500.
func handleError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Code != apperr.CodeInternal {
		writeJSON(w, appErr.Code.HTTPStatus(), Envelope{
			Success: false,
			Error:   appErr.Message,
			Details: appErr.Details,
		}, logger)
		return
	}

	logger.Error("Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	errorResponse(w, http.StatusInternalServerError, "서버 오류가 발생했습니다", logger)
}

// decodeJSON reads a request body into dst and validates it.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validationf("invalid JSON body: %v", err)
	}
	return s.validator.Validate(dst)
}
