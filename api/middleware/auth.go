package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tandemflight-backend/api/responses"
	pkgAuth "github.com/angelmondragon/tandemflight-backend/pkg/auth"
	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

var errMissingCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")

// bearerToken accepts "Bearer <jwt>" in any case, or a bare token.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, rest, ok := strings.Cut(raw, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return raw
}

// Auth verifies the bearer token and puts the actor on the request context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(ctx, logg, w, errMissingCredentials)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := types.NewActor(claims.ActorID, claims.Role)
			actor.Name = claims.Name
			ctx = WithActor(ctx, actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, claims.ActorID.String(), claims.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
