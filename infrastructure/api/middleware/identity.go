package middleware

import (
	"context"
	"net/http"
	"strconv"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Identity resolves the calling user from the X-User-ID header and stores it
// on the request context. Requests without a parseable id are rejected; the
// header is a stand-in for a real authentication layer and every tenant-scoped
// query depends on it.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-ID")
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				WriteJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing or invalid X-User-ID header"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying the user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the user id stored on the context, or zero.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}
