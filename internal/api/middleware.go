package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/terra-clan/aptitude-engine/internal/auth"
)

// AuthMiddleware handles bearer token authentication
type AuthMiddleware struct {
	verifier auth.Verifier
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(verifier auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate verifies the bearer token from the Authorization header.
// WebSocket upgrades may pass the token as a "token" query parameter instead,
// since browsers cannot set headers on them.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		identityID, err := m.verifier.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				slog.Debug("rejected token", "remote_addr", r.RemoteAddr, "error", err)
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			slog.Error("failed to verify token", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "authentication error")
			return
		}

		ctx := ContextWithIdentity(r.Context(), identityID, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the bearer token from the request
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// loggingMiddleware logs HTTP requests using slog
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
