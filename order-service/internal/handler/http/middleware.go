package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/user"
)

// UserIDHeader carries the id of the user authenticated by the gateway.
const UserIDHeader = "X-User-ID"

type actorKey struct{}

func WithActor(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(access.Actor)
	return actor, ok
}

// ActorMiddleware resolves UserIDHeader to an access.Actor stored in the request context.
func ActorMiddleware(users user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(UserIDHeader)
			if raw == "" {
				respondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided")
				return
			}

			userID, err := uuid.FromString(raw)
			if err != nil {
				log.Warn().Err(err).Str("user_id", raw).Msg("Failed to parse user id header")
				respondWithError(w, http.StatusUnauthorized, "Invalid user id")
				return
			}

			u, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					respondWithError(w, http.StatusUnauthorized, "User not found")
					return
				}
				log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to resolve request user")
				respondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), u.Actor())))
		})
	}
}

// Recoverer turns a handler panic into the 500 error envelope.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Recovered from handler panic")
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
