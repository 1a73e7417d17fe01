package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-layouts/pkg/attr"
)

// CatalogScheme is the URL scheme served by Catalog, e.g.
// "catalog:countries?q=ger&limit=10".
const CatalogScheme = "catalog"

// EmptySearch controls what a catalog returns for a blank query.
type EmptySearch string

const (
	EmptySearchNone EmptySearch = "none"
	EmptySearchTop  EmptySearch = "top"
)

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithList registers values under name. Duplicates and blanks are dropped
// and the list is sorted.
func WithList(name string, values ...string) CatalogOption {
	return func(c *Catalog) {
		c.lists[strings.ToLower(strings.TrimSpace(name))] = normaliseList(values)
	}
}

// WithLimits sets the default and maximum number of options returned.
func WithLimits(defaultLimit, maxLimit int) CatalogOption {
	return func(c *Catalog) {
		c.defaultLimit = defaultLimit
		c.maxLimit = maxLimit
	}
}

// WithEmptySearch sets the behaviour for blank queries.
func WithEmptySearch(mode EmptySearch) CatalogOption {
	return func(c *Catalog) {
		c.emptySearch = mode
	}
}

// Catalog serves named option lists in process. Fetch answers with an
// "options" attribute so select widgets pick the values up directly.
type Catalog struct {
	mu           sync.RWMutex
	lists        map[string][]string
	defaultLimit int
	maxLimit     int
	emptySearch  EmptySearch
}

// NewCatalog creates a catalog. Blank queries return the first entries
// unless configured otherwise.
func NewCatalog(options ...CatalogOption) *Catalog {
	c := &Catalog{
		lists:        make(map[string][]string),
		defaultLimit: 50,
		maxLimit:     200,
		emptySearch:  EmptySearchTop,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.defaultLimit <= 0 {
		c.defaultLimit = 50
	}
	if c.maxLimit <= 0 {
		c.maxLimit = 200
	}
	return c
}

// Set replaces the list stored under name.
func (c *Catalog) Set(name string, values ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[strings.ToLower(strings.TrimSpace(name))] = normaliseList(values)
}

// Names returns the registered list names.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.lists))
	for name := range c.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch implements Fetcher for catalog URLs.
func (c *Catalog) Fetch(ctx context.Context, raw string) (attr.Attributes, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{URL: raw, Err: err}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != CatalogScheme {
		return nil, &Error{URL: raw, Err: fmt.Errorf("not a %s URL", CatalogScheme)}
	}
	name := strings.ToLower(strings.Trim(u.Opaque+u.Host+u.Path, "/"))

	c.mu.RLock()
	values, ok := c.lists[name]
	c.mu.RUnlock()
	if !ok {
		return nil, &Error{URL: raw, Err: fmt.Errorf("unknown catalog %q", name)}
	}

	query := u.Query()
	limit := 0
	if s := query.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return nil, &Error{URL: raw, Err: fmt.Errorf("invalid limit %q", s)}
		}
	}
	results := c.search(values, query.Get("q"), limit)
	return attr.Attributes{"options": attr.Strings(results...)}, nil
}

// search ranks prefix matches ahead of substring matches, then by name.
func (c *Catalog) search(values []string, query string, limit int) []string {
	limit = c.clamp(limit)
	if limit == 0 {
		return []string{}
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if c.emptySearch != EmptySearchTop {
			return []string{}
		}
		return append([]string{}, values[:min(limit, len(values))]...)
	}

	type match struct {
		value  string
		prefix bool
	}
	matches := make([]match, 0, 16)
	for _, value := range values {
		lower := strings.ToLower(value)
		if strings.Contains(lower, query) {
			matches = append(matches, match{value: value, prefix: strings.HasPrefix(lower, query)})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		return matches[i].value < matches[j].value
	})

	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches[:min(limit, len(matches))] {
		out = append(out, m.value)
	}
	return out
}

func (c *Catalog) clamp(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = c.defaultLimit
	}
	return min(limit, c.maxLimit)
}

func normaliseList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

// Mux routes fetches by URL scheme and sends everything else to the
// fallback fetcher.
type Mux struct {
	routes   map[string]Fetcher
	fallback Fetcher
}

// NewMux creates a Mux around fallback.
func NewMux(fallback Fetcher) *Mux {
	return &Mux{routes: make(map[string]Fetcher), fallback: fallback}
}

// Handle serves scheme with fetcher.
func (m *Mux) Handle(scheme string, fetcher Fetcher) *Mux {
	m.routes[strings.ToLower(scheme)] = fetcher
	return m
}

// Fetch implements Fetcher.
func (m *Mux) Fetch(ctx context.Context, raw string) (attr.Attributes, error) {
	if scheme, _, ok := strings.Cut(raw, ":"); ok {
		if fetcher, ok := m.routes[strings.ToLower(scheme)]; ok {
			return fetcher.Fetch(ctx, raw)
		}
	}
	if m.fallback == nil {
		return nil, &Error{URL: raw, Err: fmt.Errorf("no fetcher for URL")}
	}
	return m.fallback.Fetch(ctx, raw)
}
