package augment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/convoke-ai/convoke/messages"
	"github.com/convoke-ai/convoke/pkg/slogx"
	"github.com/convoke-ai/convoke/search"
	"github.com/fogfish/opts"
)

const (
	// resultCount is how many results are requested per search.
	resultCount = 8
	// pageContentCount is how many of the top results get full page text
	// fetched and attached.
	pageContentCount = 4
	// maxPageChars bounds attached page text per result.
	maxPageChars = 4000
)

// Augmenter decides whether a conversation needs fresh web context and,
// when it does, injects one synthetic system message with search
// results. Every failure degrades silently: the conversation proceeds
// unaugmented rather than failing the request.
type Augmenter struct {
	backend search.Backend
	refiner Refiner
	log     *slog.Logger
	now     func() time.Time
}

// Config carries the augmenter's wiring.
type Config struct {
	Refiner Refiner
	Log     *slog.Logger
	Now     func() time.Time
}

var (
	// WithRefiner attaches a query refiner.
	WithRefiner = opts.ForName[Config, Refiner]("Refiner")
	// WithLogger overrides the default logger.
	WithLogger = opts.ForName[Config, *slog.Logger]("Log")
	// WithClock overrides the timestamp source.
	WithClock = opts.ForName[Config, func() time.Time]("Now")
)

// New builds an Augmenter over the given search backend.
func New(backend search.Backend, options ...opts.Option[Config]) (*Augmenter, error) {
	cfg := Config{
		Log: slog.Default().With(slogx.LoggerName("augment")),
		Now: time.Now,
	}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}
	return &Augmenter{
		backend: backend,
		refiner: cfg.Refiner,
		log:     cfg.Log,
		now:     cfg.Now,
	}, nil
}

// Apply runs the full augmentation pipeline over the conversation:
// policy injection, trigger decision, query refinement, windowed
// search, and result injection. The returned slice always carries the
// policy message; results are added only when the trigger fires and
// the backend produced something.
func (a *Augmenter) Apply(ctx context.Context, msgs []messages.Message, directive Directive) []messages.Message {
	msgs = InjectPolicy(msgs)

	query := ExtractQuery(msgs)
	if query == "" || !ShouldSearch(query, directive) {
		return msgs
	}

	refined := refineOrFallback(ctx, a.refiner, query, userTurns(msgs), a.log)
	window := DetectWindow(refined)

	results := a.backend.Search(ctx, refined, search.Options{
		Count:            resultCount,
		Window:           window,
		FetchPageContent: pageContentCount,
		MaxPageChars:     maxPageChars,
	})
	if len(results) == 0 && window != search.WindowUnrestricted {
		// A recency window can filter everything out; retry once
		// without it.
		results = a.backend.Search(ctx, refined, search.Options{
			Count:            resultCount,
			Window:           search.WindowUnrestricted,
			FetchPageContent: pageContentCount,
			MaxPageChars:     maxPageChars,
		})
	}
	if len(results) == 0 {
		a.log.Debug("search produced no results, continuing unaugmented", slog.String("query", refined))
		return msgs
	}

	a.log.Debug("augmenting conversation with search results",
		slog.String("query", refined),
		slog.String("window", string(window)),
		slog.Int("results", len(results)))
	return injectResults(msgs, formatResults(refined, results, a.now()))
}

// userTurns extracts the user/assistant exchange for refiner context,
// leaving system messages out.
func userTurns(msgs []messages.Message) []messages.Message {
	out := make([]messages.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == messages.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// resultsMarker identifies the injected results message so it can be
// replaced rather than duplicated on repeated application.
const resultsMarker = "[web-search results]"

// formatResults renders one system message: the query, the retrieval
// timestamp, numbered entries, and the citation instruction.
func formatResults(query string, results []search.Result, at time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Results for %q, retrieved %s:\n\n",
		resultsMarker, query, at.UTC().Format(time.RFC3339))
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n", i+1, r.Title, r.Link)
		if r.Date != "" {
			fmt.Fprintf(&sb, "Published: %s\n", r.Date)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "%s\n", r.Snippet)
		}
		if r.PageText != "" {
			fmt.Fprintf(&sb, "Page content: %s\n", r.PageText)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Cite sources by their bracketed number.")
	return sb.String()
}

// injectResults places the results message after the leading system
// messages, replacing any results message from a previous pass.
func injectResults(msgs []messages.Message, body string) []messages.Message {
	out := make([]messages.Message, 0, len(msgs)+1)
	for _, m := range msgs {
		if m.Role == messages.RoleSystem && strings.Contains(m.Text(), resultsMarker) {
			continue
		}
		out = append(out, m)
	}

	insertAt := 0
	for insertAt < len(out) && out[insertAt].Role == messages.RoleSystem {
		insertAt++
	}
	injected := make([]messages.Message, 0, len(out)+1)
	injected = append(injected, out[:insertAt]...)
	injected = append(injected, messages.System(body))
	injected = append(injected, out[insertAt:]...)
	return injected
}
