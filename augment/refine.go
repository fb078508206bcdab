package augment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/convoke-ai/convoke/messages"
	"github.com/convoke-ai/convoke/pkg/slogx"
	"github.com/convoke-ai/convoke/provider"
	"github.com/google/uuid"
)

const (
	// refineTimeout bounds the auxiliary model call so refinement can
	// never stall the main request.
	refineTimeout = 5 * time.Second
	// refineContextTurns is how many trailing conversation turns the
	// refiner sees.
	refineContextTurns = 4
	// refineMaxWords bounds the emitted query.
	refineMaxWords = 12

	// refineMinQueryChars: short queries without pronouns are already
	// good search terms and skip refinement.
	refineMinQueryChars = 40
)

// Refiner turns a raw conversational query into a concise search query.
type Refiner interface {
	Refine(ctx context.Context, query string, turns []messages.Message) (string, error)
}

// ModelRefiner refines queries with one bounded call to a fast model.
type ModelRefiner struct {
	Provider provider.Provider
	Model    string
	_        struct{}
}

const refineInstructions = `Rewrite the user's request as a concise web search query of at most ` +
	`12 words. Resolve pronouns using the conversation. Reply with the query only, no quotes, ` +
	`no explanation.`

// Refine issues the auxiliary call and collects the streamed answer.
// Any failure, truncation included, is the caller's cue to fall back
// to the unrefined query.
func (r *ModelRefiner) Refine(ctx context.Context, query string, turns []messages.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, refineTimeout)
	defer cancel()

	if len(turns) > refineContextTurns {
		turns = turns[len(turns)-refineContextTurns:]
	}

	prompt := make([]messages.Message, 0, len(turns)+2)
	prompt = append(prompt, messages.System(refineInstructions))
	prompt = append(prompt, turns...)
	prompt = append(prompt, messages.User("Search query for: "+query))

	events, err := r.Provider.Stream(ctx, provider.StreamParams{
		RequestID: uuid.New(),
		Model:     r.Model,
		Messages:  prompt,
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for ev := range events {
		switch e := ev.(type) {
		case provider.Chunk:
			sb.WriteString(e.Content)
		case provider.Error:
			return "", e.Err
		}
	}

	refined := strings.TrimSpace(strings.Trim(strings.TrimSpace(sb.String()), `"`))
	if refined == "" {
		return "", errors.New("refiner produced an empty query")
	}
	words := strings.Fields(refined)
	if len(words) > refineMaxWords {
		words = words[:refineMaxWords]
	}
	return strings.Join(words, " "), nil
}

// needsRefinement reports whether the query is worth an auxiliary
// model call: long conversational phrasing or a dangling pronoun.
func needsRefinement(query string) bool {
	return len(query) >= refineMinQueryChars || HasUnresolvedPronoun(query)
}

// refineOrFallback applies the refiner and degrades to the unrefined
// query on any failure.
func refineOrFallback(ctx context.Context, refiner Refiner, query string, turns []messages.Message, log *slog.Logger) string {
	if refiner == nil || !needsRefinement(query) {
		return query
	}
	refined, err := refiner.Refine(ctx, query, turns)
	if err != nil {
		log.Debug("query refinement failed, using raw query", slogx.Error(err))
		return query
	}
	return refined
}
