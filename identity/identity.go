package identity

import "context"

// Identity is an opaque, comparable token naming a caller. The zero value
// is anonymous and never matches a bound owner.
type Identity string

const Anonymous Identity = ""

func (i Identity) String() string { return string(i) }

func (i Identity) IsAnonymous() bool { return i == Anonymous }

type contextKey struct{}

func WithIdentity(ctx context.Context, i Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, i)
}

func FromContext(ctx context.Context) Identity {
	if i, ok := ctx.Value(contextKey{}).(Identity); ok {
		return i
	}

	return Anonymous
}
