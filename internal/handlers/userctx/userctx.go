package userctx

import (
	"context"

	"github.com/google/uuid"
)

// AuthUser is the identity decoded from a verified access token.
// No store lookup stands behind it: access tokens are stateless
type AuthUser struct {
	ID    uuid.UUID
	Email string
}

type ctxKey string

const userKey ctxKey = "user"

// Create a new context with the authenticated user
func New(ctx context.Context, u AuthUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the authenticated user from the context
func FromContext(ctx context.Context) (AuthUser, bool) {
	u, ok := ctx.Value(userKey).(AuthUser)
	return u, ok
}
