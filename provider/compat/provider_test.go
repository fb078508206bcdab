package compat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/convoke-ai/convoke/messages"
	"github.com/convoke-ai/convoke/provider"
	"github.com/convoke-ai/convoke/secrets"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("groq", srv.URL, "GROQ_API_KEY",
		WithSecrets(secrets.Static{"GROQ_API_KEY": "gsk-test"}),
	)
}

func collect(t *testing.T, events <-chan provider.StreamEvent) (string, bool, error) {
	t.Helper()
	var text strings.Builder
	var done bool
	var failure error
	for ev := range events {
		switch e := ev.(type) {
		case provider.Chunk:
			text.WriteString(e.Content)
		case provider.Done:
			done = true
		case provider.Error:
			failure = e.Err
		}
	}
	return text.String(), done, failure
}

func params() provider.StreamParams {
	return provider.StreamParams{
		RequestID: uuid.New(),
		Model:     "llama-3.3-70b",
		Messages:  []messages.Message{messages.User("hi")},
	}
}

func TestStream_DeltaContentOnly(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		// reasoning_content and message.content must be ignored here.
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"reasoning_content\":\"hidden\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"fast \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"answer\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	events, err := p.Stream(context.Background(), params())
	require.NoError(t, err)

	text, done, failure := collect(t, events)
	require.NoError(t, failure)
	assert.True(t, done)
	assert.Equal(t, "fast answer", text)
}

func TestStream_NoWholeMessageFallback(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"full answer"}}]}`)
	})

	events, err := p.Stream(context.Background(), params())
	require.NoError(t, err)

	text, done, failure := collect(t, events)
	assert.Empty(t, text)
	assert.False(t, done)
	assert.ErrorIs(t, failure, provider.ErrNoContent)
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, "groq", Groq().Name())
	assert.Equal(t, "mistral", Mistral().Name())
	assert.Equal(t, "openrouter", OpenRouter().Name())
	assert.False(t, Groq().SupportsImages())
}

func TestBuildBody_FlattensParts(t *testing.T) {
	p := params()
	p.Messages = []messages.Message{{
		Role: messages.RoleUser,
		Content: messages.ContentOrParts{Parts: []messages.ContentPart{
			messages.Text("describe"),
			messages.Image("https://example.com/a.png"),
		}},
	}}
	body := buildBody(p)
	content := gjson.GetBytes(body, "messages.0.content").String()
	assert.Contains(t, content, "describe")
	assert.Contains(t, content, "[image attached]")
	assert.NotContains(t, content, "example.com")
}
