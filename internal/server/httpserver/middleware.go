package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/dmitrijs2005/webportal/internal/server/models"
)

type ctxKey string

const (
	sessionKey    ctxKey = "session"
	sessionErrKey ctxKey = "session_error"
)

func sessionFromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*models.Session)
	return s, ok && s != nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handlers) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				h.logger.Error(r.Context(), "panic while serving request", "path", r.URL.Path, "panic", p)
				h.internalError(w, r)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// timeout bounds the request context. Handlers pass it down to the stores
// and the resolver, which give up once it expires.
func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loadSession attaches the caller's session, if any. A cookie that no longer
// resolves is cleared. Store failures are kept in the context so protected
// pages can answer 500 instead of bouncing the user to the login form.
func (h *Handlers) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(common.SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		session, err := h.accounts.CurrentSession(ctx, cookie.Value)
		switch {
		case err == nil:
			ctx = context.WithValue(ctx, sessionKey, session)
		case errors.Is(err, common.ErrNotAuthenticated):
			h.clearSessionCookie(w)
		default:
			h.logger.Error(ctx, "session lookup failed", "error", err)
			ctx = context.WithValue(ctx, sessionErrKey, err)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sessionFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if err, ok := r.Context().Value(sessionErrKey).(error); ok && err != nil {
			h.internalError(w, r)
			return
		}
		http.Redirect(w, r, common.LoginPath, http.StatusSeeOther)
	})
}
