package middleware

import (
	"net/http"
	"strings"

	"postbus/internal/handlers/render"
	"postbus/internal/handlers/userctx"
	"postbus/internal/service/auth/tokenmanager"
)

type tokenAuthenticator interface {
	Authenticate(accessToken string) (*tokenmanager.Claims, error)
}

// BearerAuth guards protected endpoints with an access token check.
// Missing credential and rejected credential are distinguished on purpose:
// 401 when no token is presented, 403 when one is presented but invalid.
// There is no persisted state to protect here, unlike refresh failures
func BearerAuth(auth tokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				render.ServiceError(w, "Access token required", http.StatusUnauthorized)
				return
			}

			claims, err := auth.Authenticate(token)
			if err != nil {
				render.ServiceError(w, "Invalid or expired token", http.StatusForbidden)
				return
			}

			ctx := userctx.New(r.Context(), userctx.AuthUser{ID: claims.UserID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner rejects requests whose {userID} path segment doesn't match
// the authenticated user. Must be wrapped by BearerAuth
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}

		if r.PathValue("userID") != user.ID.String() {
			render.ServiceError(w, "Access denied to this user's data", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
