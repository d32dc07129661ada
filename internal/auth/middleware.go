package auth

import (
	"context"
	"net/http"

	"github.com/mvetrov/churnguard/internal/store"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// contextKeyUser is the context key for the authenticated user.
const contextKeyUser contextKey = "user"

// RequireAuth is a middleware that rejects unauthenticated requests and
// places the authenticated user in the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized","message":"` + err.Error() + `","code":"UNAUTHORIZED"}`))
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*store.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*store.User)
	return user, ok
}
