package actor

import (
	"context"
	"errors"
)

// ErrRootCtx is returned by New when asked for the root user id.
var ErrRootCtx = errors.New("actor: cannot create root ctx with New, use Root")

// Ctx identifies the principal on whose behalf a model operation runs.
// It is stamped into owner and audit columns.
type Ctx struct {
	userID int64
}

// Root returns the system context (user id 0), used by bootstrap and background jobs.
func Root() Ctx {
	return Ctx{userID: 0}
}

// New returns a context for the given user. The root id is reserved for Root.
func New(userID int64) (Ctx, error) {
	if userID == 0 {
		return Ctx{}, ErrRootCtx
	}
	return Ctx{userID: userID}, nil
}

// UserID returns the acting principal's id.
func (c Ctx) UserID() int64 {
	return c.userID
}

type ctxKey struct{}

// WithContext stores c in ctx so transport layers can hand it to services.
func WithContext(ctx context.Context, c Ctx) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the Ctx stored by WithContext.
func FromContext(ctx context.Context) (Ctx, bool) {
	c, ok := ctx.Value(ctxKey{}).(Ctx)
	return c, ok
}
