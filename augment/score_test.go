package augment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, score int)
	}{
		{
			name:  "volatile factual query scores well past the threshold",
			query: "What is the current Bitcoin price?",
			check: func(t *testing.T, score int) { assert.GreaterOrEqual(t, score, triggerThreshold) },
		},
		{
			name:  "coding query scores negative",
			query: "refactor this function to avoid the extra allocation",
			check: func(t *testing.T, score int) { assert.Negative(t, score) },
		},
		{
			name:  "greeting scores negative",
			query: "hey, how are you",
			check: func(t *testing.T, score int) { assert.Negative(t, score) },
		},
		{
			name:  "named entity adds weight only when capitalized",
			query: "Taylor Swift tour dates",
			check: func(t *testing.T, score int) { assert.GreaterOrEqual(t, score, triggerThreshold) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Score(tt.query))
		})
	}
}

func TestShouldSearch(t *testing.T) {
	t.Run("directives win", func(t *testing.T) {
		assert.True(t, ShouldSearch("write me a poem", DirectiveAlways))
		assert.False(t, ShouldSearch("What is the current Bitcoin price?", DirectiveOff))
	})

	t.Run("opt-out phrasing short-circuits", func(t *testing.T) {
		assert.False(t, ShouldSearch("don't search for this, what is the latest Go release?", DirectiveAuto))
		assert.False(t, ShouldSearch("from memory, what is the current inflation rate?", DirectiveAuto))
	})

	t.Run("opt-in phrasing short-circuits", func(t *testing.T) {
		assert.True(t, ShouldSearch("search the web for good hiking trails", DirectiveAuto))
		assert.True(t, ShouldSearch("look it up please", DirectiveAuto))
	})

	t.Run("score decides otherwise", func(t *testing.T) {
		assert.True(t, ShouldSearch("What is the current Bitcoin price?", DirectiveAuto))
		assert.False(t, ShouldSearch("write me a haiku about autumn", DirectiveAuto))
	})

	t.Run("short low-signal queries never trigger", func(t *testing.T) {
		assert.False(t, ShouldSearch("hm", DirectiveAuto))
	})
}
