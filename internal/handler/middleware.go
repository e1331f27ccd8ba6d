package handler

import (
	"context"
	"net/http"
	"time"

	"autofill-workbench/internal/domain"
	"autofill-workbench/internal/service"
)

// SessionCookieName names the cookie carrying the session id.
const SessionCookieName = "autofill_session"

// SessionMiddleware attaches the caller's session to the request context,
// creating one and setting the cookie when none exists.
type SessionMiddleware struct {
	sessions *service.SessionManager
	ttl      time.Duration
	logger   domain.Logger
}

// NewSessionMiddleware creates the middleware.
func NewSessionMiddleware(sessions *service.SessionManager, ttl time.Duration, logger domain.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
	}
}

// Middleware is the http middleware func.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookieName); err == nil {
			id = c.Value
		}

		sess, created := m.sessions.GetOrCreate(id)
		if created {
			cookie := &http.Cookie{
				Name:     SessionCookieName,
				Value:    sess.ID(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			}
			if m.ttl > 0 {
				cookie.MaxAge = int(m.ttl.Seconds())
			}
			http.SetCookie(w, cookie)
			if id != "" {
				m.logger.Debug("Unknown session replaced", "session_id", sess.ID())
			}
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
