package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// AuthMiddleware trusts the identity the session provider already verified
// upstream and exposes it as user_id on the request context. Requests
// without an identity pass through; handlers decide whether they need one.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		ctx := context.WithValue(r.Context(), "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RoleChecker answers whether a user may use the admin surface
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// AdminOnly guards the back-office routes.
func AdminOnly(roles RoleChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := getUserIDFromContext(r.Context())
			if userID == "" {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
				return
			}
			isAdmin, err := roles.IsAdmin(r.Context(), userID)
			if err != nil {
				handleServiceError(w, err)
				return
			}
			if !isAdmin {
				respondError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
