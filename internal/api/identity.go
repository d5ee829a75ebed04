package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/joestump/devhub/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// bearerIdentity resolves "Authorization: Bearer <token>" against the users
// collection. It never rejects a request: a missing or unknown token simply
// leaves the request anonymous, the way json-server ignores the header.
type bearerIdentity struct {
	users *store.UserStore
}

func (m *bearerIdentity) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetByToken(r.Context(), token)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("api: resolve bearer token: %v", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user identified by the bearer token, or nil.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(userContextKey).(*store.User)
	return u
}
