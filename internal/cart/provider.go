package cart

import (
	"context"
	"errors"
)

// ErrNoProvider is the panic value raised when a cart is requested from a
// context that was never given one.
var ErrNoProvider = errors.New("cart: MustFromContext called outside a cart provider scope")

type cartContextKey struct{}

// WithCart returns a child context that provides c to its descendants.
func WithCart(ctx context.Context, c *Cart) context.Context {
	return context.WithValue(ctx, cartContextKey{}, c)
}

func FromContext(ctx context.Context) (*Cart, bool) {
	c, ok := ctx.Value(cartContextKey{}).(*Cart)
	return c, ok && c != nil
}

// MustFromContext returns the provided cart and panics with ErrNoProvider
// when there is none.
func MustFromContext(ctx context.Context) *Cart {
	c, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoProvider)
	}
	return c
}
