package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"autofill-workbench/internal/domain"
	"autofill-workbench/internal/service"
	apperrors "autofill-workbench/pkg/errors"
)

type contextKey string

const sessionContextKey contextKey = "session"

// GetSessionFromContext returns the session attached by SessionMiddleware.
func GetSessionFromContext(r *http.Request) (*service.Session, bool) {
	sess, ok := r.Context().Value(sessionContextKey).(*service.Session)
	return sess, ok
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeAppError writes err's message with the status of its error type.
func writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	writeError(w, err.StatusCode, err.Message)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeHTML(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

// statusFor maps domain and application errors to HTTP status codes.
func statusFor(err error) int {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidEdit),
		errors.Is(err, domain.ErrFieldIndex),
		errors.Is(err, domain.ErrUnsupportedDownload),
		errors.Is(err, domain.ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBlobNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoFile),
		errors.Is(err, domain.ErrNoAutoFill),
		errors.Is(err, domain.ErrExtractInFlight),
		errors.Is(err, domain.ErrDownloadInFlight),
		errors.Is(err, domain.ErrStaleResult):
		return http.StatusConflict
	}
	return apperrors.GetStatusCode(err)
}
