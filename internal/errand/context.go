package errand

import "context"

type nameKey struct{}

// WithName attaches the calling errand's name to ctx, so an llm.Client that
// routes by errand (spec.md §9's per-errand client/provider selection) can
// pick a provider without widening the Client interface itself.
func WithName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, nameKey{}, name)
}

// NameFromContext returns the errand name WithName attached, if any.
func NameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(nameKey{}).(string)
	return name, ok
}
