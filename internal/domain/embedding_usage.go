package domain

import "context"

type queryUsageKey struct{}

// QueryUsage collects embedding usage for a single search request.
// The handler places a pointer into the context, the search service records
// every embedding call, and the handler turns it into response headers.
type QueryUsage struct {
	TotalTokens int
	Calls       int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *QueryUsage) {
	u := &QueryUsage{}
	return context.WithValue(ctx, queryUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil if not set.
func UsageFromContext(ctx context.Context) *QueryUsage {
	u, _ := ctx.Value(queryUsageKey{}).(*QueryUsage)
	return u
}

// Record notes one embedding call. Cache hits record zero tokens.
func (u *QueryUsage) Record(tokens int) {
	if u == nil {
		return
	}
	u.TotalTokens += tokens
	u.Calls++
}

// Used reports whether any embedding call was made.
func (u *QueryUsage) Used() bool {
	return u != nil && u.Calls > 0
}
