package augment

import (
	"context"
	"errors"
	"testing"

	"github.com/convoke-ai/convoke/messages"
	"github.com/convoke-ai/convoke/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays a fixed set of stream events.
type scriptedProvider struct {
	events    []provider.StreamEvent
	streamErr error
	gotParams provider.StreamParams
}

func (s *scriptedProvider) Name() string         { return "scripted" }
func (s *scriptedProvider) SupportsImages() bool { return false }

func (s *scriptedProvider) Stream(ctx context.Context, params provider.StreamParams) (<-chan provider.StreamEvent, error) {
	s.gotParams = params
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	events := make(chan provider.StreamEvent)
	go func() {
		defer close(events)
		for _, ev := range s.events {
			events <- ev
		}
	}()
	return events, nil
}

func TestModelRefiner(t *testing.T) {
	t.Run("collects the streamed query", func(t *testing.T) {
		p := &scriptedProvider{events: []provider.StreamEvent{
			provider.Chunk{Content: "bitcoin "},
			provider.Chunk{Content: "price today"},
			provider.Done{},
		}}
		r := &ModelRefiner{Provider: p, Model: "fast-model"}

		refined, err := r.Refine(context.Background(), "how much is it worth", nil)
		require.NoError(t, err)
		assert.Equal(t, "bitcoin price today", refined)
		assert.Equal(t, "fast-model", p.gotParams.Model)
	})

	t.Run("strips quotes and caps word count", func(t *testing.T) {
		p := &scriptedProvider{events: []provider.StreamEvent{
			provider.Chunk{Content: `"one two three four five six seven eight nine ten eleven twelve thirteen"`},
		}}
		r := &ModelRefiner{Provider: p}

		refined, err := r.Refine(context.Background(), "q", nil)
		require.NoError(t, err)
		assert.Equal(t, "one two three four five six seven eight nine ten eleven twelve", refined)
	})

	t.Run("propagates stream errors", func(t *testing.T) {
		p := &scriptedProvider{streamErr: errors.New("boom")}
		r := &ModelRefiner{Provider: p}

		_, err := r.Refine(context.Background(), "q", nil)
		assert.Error(t, err)
	})

	t.Run("empty output is an error", func(t *testing.T) {
		p := &scriptedProvider{events: []provider.StreamEvent{provider.Done{}}}
		r := &ModelRefiner{Provider: p}

		_, err := r.Refine(context.Background(), "q", nil)
		assert.Error(t, err)
	})

	t.Run("bounds the context turns", func(t *testing.T) {
		p := &scriptedProvider{events: []provider.StreamEvent{provider.Chunk{Content: "q"}}}
		r := &ModelRefiner{Provider: p}

		turns := []messages.Message{
			messages.User("one"), messages.Assistant("two"),
			messages.User("three"), messages.Assistant("four"),
			messages.User("five"), messages.Assistant("six"),
		}
		_, err := r.Refine(context.Background(), "q", turns)
		require.NoError(t, err)
		// system instruction + 4 trailing turns + the query prompt
		assert.Len(t, p.gotParams.Messages, refineContextTurns+2)
		assert.Equal(t, "three", p.gotParams.Messages[1].Text())
	})
}

type failingRefiner struct{}

func (failingRefiner) Refine(context.Context, string, []messages.Message) (string, error) {
	return "", errors.New("refiner down")
}

func TestRefineOrFallback(t *testing.T) {
	log := discardLogger()

	t.Run("short pronoun-free queries skip refinement", func(t *testing.T) {
		got := refineOrFallback(context.Background(), failingRefiner{}, "bitcoin price", nil, log)
		assert.Equal(t, "bitcoin price", got)
	})

	t.Run("falls back to the raw query on failure", func(t *testing.T) {
		query := "can you figure out how much the thing we discussed costs nowadays"
		got := refineOrFallback(context.Background(), failingRefiner{}, query, nil, log)
		assert.Equal(t, query, got)
	})

	t.Run("nil refiner is a no-op", func(t *testing.T) {
		query := "how much does it cost"
		got := refineOrFallback(context.Background(), nil, query, nil, log)
		assert.Equal(t, query, got)
	})
}
