package api

import (
	"context"
)

type contextKey string

const (
	identityContextKey contextKey = "identity_id"
	tokenContextKey    contextKey = "bearer_token"
)

// IdentityFromContext returns the authenticated identity id, empty when absent
func IdentityFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityContextKey).(string)
	return id
}

// TokenFromContext returns the bearer token the request was authenticated with
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// ContextWithIdentity adds the authenticated identity and its token to context
func ContextWithIdentity(ctx context.Context, identityID, token string) context.Context {
	ctx = context.WithValue(ctx, identityContextKey, identityID)
	return context.WithValue(ctx, tokenContextKey, token)
}
