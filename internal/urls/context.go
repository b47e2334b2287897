package urls

import (
	"context"
	"fmt"
)

type contextKey int

const (
	tableKey contextKey = iota
	matchKey
)

func withTable(ctx context.Context, t *Table) context.Context {
	return context.WithValue(ctx, tableKey, t)
}

func withMatch(ctx context.Context, m *Match) context.Context {
	return context.WithValue(ctx, matchKey, m)
}

// TableFromContext returns the table that is serving the request.
func TableFromContext(ctx context.Context) (*Table, bool) {
	t, ok := ctx.Value(tableKey).(*Table)
	return t, ok
}

// MatchFromContext returns the match that dispatched the request.
func MatchFromContext(ctx context.Context) (*Match, bool) {
	m, ok := ctx.Value(matchKey).(*Match)
	return m, ok
}

// ReverseContext reverses name using the table serving the request.
func ReverseContext(ctx context.Context, name string, params map[string]string) (string, error) {
	t, ok := TableFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("%w: no route table in context", ErrNoReverseMatch)
	}
	return t.Reverse(name, params)
}
