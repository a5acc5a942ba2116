package engine

import "context"

type ctxKey int

const accountKey ctxKey = iota

// WithAccount binds the authenticated account address to a dispatch
// context. Handlers take identity from here, never from the payload.
func WithAccount(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, accountKey, address)
}

// Account returns the address bound with WithAccount, or "" when the
// context carries none.
func Account(ctx context.Context) string {
	address, _ := ctx.Value(accountKey).(string)
	return address
}
