// ABOUTME: Owner identity propagation through request handlers
// ABOUTME: Provides WithOwner/OwnerFromContext for passing identity via context

package auth

import "context"

// ownerKey is the key type for storing the owner identity in context.Context.
type ownerKey struct{}

// WithOwner returns a new context with the owner identity attached.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext retrieves the owner identity from the context,
// returning "" if not present.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
