package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	chaterrs "github.com/jdholdren/chatter/internal/errors"
	"github.com/jdholdren/chatter/internal/serverutil"
	"github.com/jdholdren/chatter/logger"
)

// authed requires a valid HMAC-signed bearer token in front of next when the
// server has a secret. Without one, everything is open.
//
// The token's user_id claim is attached to the request's log attributes.
func (s *Server) authed(next serverutil.HandlerFuncE) serverutil.HandlerFuncE {
	if len(s.jwtSecret) == 0 {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			return chaterrs.E(http.StatusUnauthorized, "missing bearer token")
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil {
			return chaterrs.E(http.StatusUnauthorized, "invalid token")
		}

		userID, ok := claims["user_id"]
		if !ok {
			return chaterrs.E(http.StatusUnauthorized, "invalid user_id in token")
		}

		ctx := logger.Ctx(r.Context(), slog.Any("auth_user_id", userID))
		return next(w, r.WithContext(ctx))
	}
}
