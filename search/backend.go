package search

import (
	"context"
	"fmt"
	"time"

	"github.com/convoke-ai/convoke/pkg/cachex"
)

// Window restricts search results to a recency window.
type Window string

const (
	WindowUnrestricted Window = ""
	WindowDay          Window = "day"
	WindowWeek         Window = "week"
	WindowMonth        Window = "month"
	WindowQuarter      Window = "3months"
	WindowYear         Window = "year"
)

// Result is one search hit. PageText is bounded extracted page content,
// present only when the backend was asked to fetch it.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	PageText string `json:"page_text,omitempty"`
	Date     string `json:"date,omitempty"` // ISO date when known
	_        struct{}
}

// Options shapes one search call.
type Options struct {
	Count            int
	Window           Window
	FetchPageContent int // fetch extracted page text for the top N results
	MaxPageChars     int
	_                struct{}
}

// Backend executes a web search. Implementations must not return an
// error; internal failures degrade to an empty slice.
type Backend interface {
	Search(ctx context.Context, query string, opts Options) []Result
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, query string, opts Options) []Result

func (f BackendFunc) Search(ctx context.Context, query string, opts Options) []Result {
	return f(ctx, query, opts)
}

const (
	resultTTL   = 10 * time.Minute
	resultBound = 512
)

// Cached decorates a backend with a bounded TTL cache keyed by
// (query, count, window). Page-content settings are not part of the key;
// a cached hit simply reuses whatever extraction the first call asked for.
type Cached struct {
	next  Backend
	cache *cachex.Cache[[]Result]
}

// Cache wraps next with the result cache.
func Cache(next Backend) *Cached {
	return &Cached{
		next:  next,
		cache: cachex.New[[]Result](resultTTL, resultBound),
	}
}

// Search serves from cache when possible. Empty result sets are not
// cached so a transient backend failure does not pin a miss for the TTL.
func (c *Cached) Search(ctx context.Context, query string, opts Options) []Result {
	key := fmt.Sprintf("%s|%d|%s", query, opts.Count, opts.Window)
	if results, ok := c.cache.Get(key); ok {
		return results
	}
	results := c.next.Search(ctx, query, opts)
	if len(results) > 0 {
		c.cache.Set(key, results)
	}
	return results
}
