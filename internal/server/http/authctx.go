package httpserver

import (
	"context"

	"github.com/shopworks/storeauth/internal/model"
)

type ctxKey string

const identityKey ctxKey = "storeauth.identity"

// WithIdentity stores the verified caller identity in the context.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx fetches the verified caller identity from the context.
func IdentityFromCtx(ctx context.Context) (model.Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return model.Identity{}, false
	}
	id, ok := v.(model.Identity)
	return id, ok
}
