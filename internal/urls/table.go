// Package urls implements an ordered, named route table.
//
// Entries are matched in registration order and the first full match wins.
// Include splices a nested group of entries under a prefix at the position
// of the include, so the flattened table keeps the relative order of both
// the outer and the inner entries. Tables are built once at startup and are
// read-only afterwards, which makes them safe for concurrent use.
package urls

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Entry is a single row of a route table definition. Build entries with
// Path and Include.
type Entry struct {
	pattern  string
	handler  http.Handler
	name     string
	children []Entry
	include  bool
}

// Path returns an entry that dispatches requests matching pattern to handler.
// name may be empty when the route does not need reverse lookup.
func Path(pattern string, handler http.Handler, name string) Entry {
	return Entry{pattern: pattern, handler: handler, name: name}
}

// Include returns an entry that splices entries into the table, each with
// prefix prepended to its pattern.
func Include(prefix string, entries ...Entry) Entry {
	return Entry{pattern: prefix, children: entries, include: true}
}

// Route is a resolved row of a built table.
type Route struct {
	Pattern string
	Name    string
	Rank    int
	Handler http.Handler

	pattern *pattern
}

// Params returns the parameter names declared by the route pattern.
func (r *Route) Params() []string {
	out := make([]string, len(r.pattern.params))
	copy(out, r.pattern.params)
	return out
}

// Match is the result of resolving a path.
type Match struct {
	Route  *Route
	Params map[string]string
}

// Table is an immutable ordered route table.
type Table struct {
	routes      []*Route
	names       map[string]*Route
	notFound    http.Handler
	appendSlash bool
}

// Option configures a Table.
type Option func(*Table)

// WithNotFound sets the handler used when no route matches.
func WithNotFound(h http.Handler) Option {
	return func(t *Table) {
		t.notFound = h
	}
}

// WithAppendSlash redirects GET and HEAD requests for an unmatched path to
// the same path with a trailing slash when that path resolves.
func WithAppendSlash() Option {
	return func(t *Table) {
		t.appendSlash = true
	}
}

// New builds a table from entries. Malformed patterns, missing handlers and
// duplicate names are reported together as ConfigErrors.
func New(entries []Entry, opts ...Option) (*Table, error) {
	t := &Table{
		names:    make(map[string]*Route),
		notFound: http.NotFoundHandler(),
	}
	for _, opt := range opts {
		opt(t)
	}

	var errs []error
	t.flatten("", entries, &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return t, nil
}

// MustNew is like New but panics on configuration errors.
func MustNew(entries []Entry, opts ...Option) *Table {
	t, err := New(entries, opts...)
	if err != nil {
		panic(fmt.Sprintf("urls: invalid route table: %v", err))
	}
	return t
}

func (t *Table) flatten(prefix string, entries []Entry, errs *[]error) {
	for _, e := range entries {
		full := prefix + e.pattern

		if e.include {
			if _, err := compilePattern(full); err != nil {
				*errs = append(*errs, &ConfigError{Pattern: full, Reason: err.Error()})
				continue
			}
			t.flatten(full, e.children, errs)
			continue
		}

		if e.handler == nil {
			*errs = append(*errs, &ConfigError{Pattern: full, Name: e.name, Reason: "nil handler"})
			continue
		}

		p, err := compilePattern(full)
		if err != nil {
			*errs = append(*errs, &ConfigError{Pattern: full, Name: e.name, Reason: err.Error()})
			continue
		}

		route := &Route{
			Pattern: full,
			Name:    e.name,
			Rank:    len(t.routes),
			Handler: e.handler,
			pattern: p,
		}

		if e.name != "" {
			if prev, dup := t.names[e.name]; dup {
				*errs = append(*errs, &ConfigError{
					Pattern: full,
					Name:    e.name,
					Reason:  fmt.Sprintf("duplicate name, already used by %q", prev.Pattern),
				})
				continue
			}
			t.names[e.name] = route
		}

		t.routes = append(t.routes, route)
	}
}

// Routes returns the flattened routes in match order.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Resolve returns the first route matching path. A leading slash is ignored.
func (t *Table) Resolve(path string) (*Match, error) {
	path = strings.TrimPrefix(path, "/")

	for _, route := range t.routes {
		if params, ok := route.pattern.match(path); ok {
			return &Match{Route: route, Params: params}, nil
		}
	}

	tried := make([]string, len(t.routes))
	for i, route := range t.routes {
		tried[i] = route.Pattern
	}
	return nil, &NoMatchError{Path: path, Tried: tried}
}

// Reverse builds the absolute path of the named route.
func (t *Table) Reverse(name string, params map[string]string) (string, error) {
	route, ok := t.names[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown route name %q", ErrNoReverseMatch, name)
	}

	path, err := route.pattern.build(params)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNoReverseMatch, name, err)
	}

	return "/" + path, nil
}

// ServeHTTP dispatches the request to the first matching route. Captured
// parameters are available through r.PathValue.
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	match, err := t.Resolve(r.URL.Path)
	if err != nil {
		if t.appendSlash && t.redirectWithSlash(w, r) {
			return
		}
		t.notFound.ServeHTTP(w, r.WithContext(withTable(r.Context(), t)))
		return
	}

	ctx := withMatch(withTable(r.Context(), t), match)
	req := r.WithContext(ctx)
	for name, value := range match.Params {
		req.SetPathValue(name, value)
	}

	match.Route.Handler.ServeHTTP(w, req)
}

func (t *Table) redirectWithSlash(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	if strings.HasSuffix(r.URL.Path, "/") {
		return false
	}
	if _, err := t.Resolve(r.URL.Path + "/"); err != nil {
		return false
	}

	target := r.URL.Path + "/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
	return true
}
