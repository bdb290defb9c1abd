package actor

import (
	"context"

	"github.com/pborman/uuid"
)

type chainKey struct{}

// chainFrom returns the causal chain token carried by ctx, if any.
func chainFrom(ctx context.Context) string {
	if v, ok := ctx.Value(chainKey{}).(string); ok {
		return v
	}
	return ""
}

func withChain(ctx context.Context, chain string) context.Context {
	return context.WithValue(ctx, chainKey{}, chain)
}

func newChain() string {
	return uuid.New()
}
