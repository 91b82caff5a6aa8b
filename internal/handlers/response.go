package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iyunix/go-medreport/internal/middleware"
	"github.com/iyunix/go-medreport/internal/services/chat"
	"github.com/iyunix/go-medreport/internal/services/report"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeData wraps a successful result in the {"data": ...} envelope.
func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"data": data})
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors onto HTTP statuses. Anything
// unrecognised is a 500 carrying the error text.
func writeServiceError(w http.ResponseWriter, logger Logger, err error) {
	var re *report.ReportError
	var ce *chat.ChatError
	switch {
	case errors.As(err, &re) && re.Type == report.ErrTypeInvalidInput:
		writeError(w, re.Message, http.StatusBadRequest)
	case errors.As(err, &re) && re.Type == report.ErrTypeNotFound:
		writeError(w, re.Message, http.StatusNotFound)
	case errors.As(err, &ce) && ce.Type == chat.ErrTypeValidation:
		writeError(w, ce.Message, http.StatusBadRequest)
	case errors.Is(err, chat.ErrChatNotFound):
		writeError(w, "Chat not found", http.StatusNotFound)
	default:
		logger.Error("request failed", "error", err)
		writeError(w, "Internal server error: "+err.Error(), http.StatusInternalServerError)
	}
}

// resolveUserID picks the acting user. With an authenticated request the
// token subject wins and a conflicting supplied id is rejected; otherwise
// the supplied id is used as is.
func resolveUserID(w http.ResponseWriter, r *http.Request, supplied string, required bool) (string, bool) {
	if subject, ok := middleware.UserIDFromContext(r.Context()); ok {
		if supplied != "" && supplied != subject {
			writeError(w, "user_id does not match the authenticated user", http.StatusForbidden)
			return "", false
		}
		return subject, true
	}
	if required && supplied == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return "", false
	}
	return supplied, true
}
