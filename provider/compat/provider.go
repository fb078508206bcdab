package compat

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/convoke-ai/convoke/pkg/stdx"
	"github.com/convoke-ai/convoke/provider"
	"github.com/convoke-ai/convoke/secrets"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const doneSentinel = "[DONE]"

// Config holds the adapter's wiring knobs.
type Config struct {
	BaseURL    string
	Credential string
	HTTPClient *http.Client
	Secrets    secrets.Source
}

var (
	// WithBaseURL points the adapter at an alternate API root.
	WithBaseURL = opts.ForName[Config, string]("BaseURL")
	// WithCredential overrides the credential name resolved at dispatch.
	WithCredential = opts.ForName[Config, string]("Credential")
	// WithHTTPClient overrides the HTTP client.
	WithHTTPClient = opts.ForName[Config, *http.Client]("HTTPClient")
	// WithSecrets overrides the credential source.
	WithSecrets = opts.ForName[Config, secrets.Source]("Secrets")
)

// Provider streams chat completions from one OpenAI-compatible service.
type Provider struct {
	name string
	cfg  Config
}

// New builds an adapter for the named service. The defaults position it
// for one of the known third parties; see Groq, Mistral and OpenRouter.
func New(name, baseURL, credential string, options ...opts.Option[Config]) *Provider {
	cfg := Config{
		BaseURL:    baseURL,
		Credential: credential,
		HTTPClient: http.DefaultClient,
		Secrets:    secrets.Memoize(secrets.Env{}),
	}
	stdx.Must0(opts.Apply(&cfg, options))
	return &Provider{name: name, cfg: cfg}
}

// Groq returns the adapter for the Groq API.
func Groq(options ...opts.Option[Config]) *Provider {
	return New("groq", "https://api.groq.com/openai/v1", "GROQ_API_KEY", options...)
}

// Mistral returns the adapter for the Mistral API.
func Mistral(options ...opts.Option[Config]) *Provider {
	return New("mistral", "https://api.mistral.ai/v1", "MISTRAL_API_KEY", options...)
}

// OpenRouter returns the adapter for the OpenRouter API.
func OpenRouter(options ...opts.Option[Config]) *Provider {
	return New("openrouter", "https://openrouter.ai/api/v1", "OPENROUTER_API_KEY", options...)
}

func (p *Provider) Name() string { return p.name }

// SupportsImages is false for the compatible third parties; the gateway
// flattens image parts to text markers before dispatching here.
func (p *Provider) SupportsImages() bool { return false }

// Stream issues the completion call and decodes the SSE response.
func (p *Provider) Stream(ctx context.Context, params provider.StreamParams) (<-chan provider.StreamEvent, error) {
	body := buildBody(params)

	key, err := p.cfg.Secrets.Require(p.cfg.Credential)
	if err != nil {
		return nil, err
	}

	events := make(chan provider.StreamEvent)
	go func() {
		defer close(events)
		p.run(ctx, body, key, params, events)
	}()
	return events, nil
}

func (p *Provider) run(ctx context.Context, body []byte, key string, params provider.StreamParams, events chan<- provider.StreamEvent) {
	ctx, cancel := provider.EnsureTimeout(ctx, provider.DefaultStreamTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+key)
	header.Set("Accept", "text/event-stream")

	res, err := provider.PostStream(ctx, p.cfg.HTTPClient, p.name, p.cfg.BaseURL+"/chat/completions", body, header)
	if err != nil {
		provider.Emit(ctx, events, provider.Error{
			RequestID: params.RequestID,
			Err:       err,
			Timestamp: strfmt.DateTime(time.Now()),
		})
		return
	}
	defer res.Body.Close()

	decoder := ssestream.NewDecoder(res)
	defer decoder.Close()

	var produced bool
	for decoder.Next() {
		data := bytes.TrimSpace(decoder.Event().Data)
		if string(data) == doneSentinel {
			break
		}
		if !gjson.ValidBytes(data) {
			continue
		}
		text := gjson.GetBytes(data, "choices.0.delta.content").String()
		if text == "" {
			continue
		}
		produced = true
		if !provider.Emit(ctx, events, provider.Chunk{
			RequestID: params.RequestID,
			Content:   text,
			Timestamp: strfmt.DateTime(time.Now()),
		}) {
			return
		}
	}

	if err := decoder.Err(); err != nil {
		provider.Emit(ctx, events, provider.Error{
			RequestID: params.RequestID,
			Err:       err,
			Timestamp: strfmt.DateTime(time.Now()),
		})
		return
	}
	if ctx.Err() != nil {
		provider.Emit(ctx, events, provider.Error{
			RequestID: params.RequestID,
			Err:       ctx.Err(),
			Timestamp: strfmt.DateTime(time.Now()),
		})
		return
	}
	if !produced {
		provider.Emit(ctx, events, provider.Error{
			RequestID: params.RequestID,
			Err:       fmt.Errorf("%s: %w", p.name, provider.ErrNoContent),
			Timestamp: strfmt.DateTime(time.Now()),
		})
		return
	}

	provider.Emit(ctx, events, provider.Done{
		RequestID: params.RequestID,
		Model:     params.Model,
		Timestamp: strfmt.DateTime(time.Now()),
	})
}

func buildBody(params provider.StreamParams) []byte {
	converted := make([]map[string]any, 0, len(params.Messages))
	for _, m := range params.Messages {
		converted = append(converted, map[string]any{
			"role":    string(m.Role),
			"content": m.Text(),
		})
	}
	msgs := stdx.Must1(json.Marshal(converted))

	body := []byte(`{"stream":true}`)
	body = stdx.Must1(sjson.SetBytes(body, "model", params.Model))
	body = stdx.Must1(sjson.SetRawBytes(body, "messages", msgs))
	if params.Temperature != nil {
		body = stdx.Must1(sjson.SetBytes(body, "temperature", *params.Temperature))
	}
	if params.MaxTokens != nil {
		field := "max_tokens"
		if params.AltTokenParam {
			field = "max_completion_tokens"
		}
		body = stdx.Must1(sjson.SetBytes(body, field, *params.MaxTokens))
	}
	return body
}
