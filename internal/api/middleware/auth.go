package middleware

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/attend/internal/api/problem"
	"github.com/Togather-Foundation/attend/internal/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID stores the authenticated user's internal ID on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// CurrentUserID returns the authenticated user's internal ID, or "" when the
// request is unauthenticated.
func CurrentUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// RequireUser rejects requests that do not carry a valid bearer token and
// stores the token's user on the context for downstream handlers.
func RequireUser(store auth.TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ValidateToken(r.Context(), store, r.Header.Get("Authorization"))
			if err != nil {
				problem.WriteProblem(w, problem.ProblemDetails{
					Type:     problem.TypeUnauthorized,
					Title:    "Unauthorized",
					Status:   http.StatusUnauthorized,
					Detail:   "Unauthenticated.",
					Instance: r.URL.Path,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), token.UserID)))
		})
	}
}
