package ratelimit

import "context"

type contextKey struct{}

// DefaultKey is the caller key used when the context carries none.
const DefaultKey = "default"

// ContextWithKey returns a context carrying the caller key used for pacing.
// Callers set one key per work item so each item's calls are paced
// independently; the harvest stage keys by keyword.
func ContextWithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, contextKey{}, key)
}

// KeyFromContext returns the caller key carried by ctx, or DefaultKey.
func KeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(contextKey{}).(string); ok && key != "" {
		return key
	}
	return DefaultKey
}
