package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/convoke-ai/convoke/messages"
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

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultCredential is the environment name of the API key.
	DefaultCredential = "OPENAI_API_KEY"

	// maxInlineImageChars caps an inline base64 image data URL. The
	// upstream rejects larger payloads anyway; exceeding the cap is an
	// input-validation error, never fallback-eligible.
	maxInlineImageChars = 20 << 20

	doneSentinel = "[DONE]"
)

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

// Provider streams chat completions from the OpenAI API.
type Provider struct {
	cfg Config
}

// New builds the adapter. The credential is not resolved here: an
// unused provider never forces its key to be configured.
func New(options ...opts.Option[Config]) *Provider {
	cfg := Config{
		BaseURL:    DefaultBaseURL,
		Credential: DefaultCredential,
		HTTPClient: http.DefaultClient,
		Secrets:    secrets.Memoize(secrets.Env{}),
	}
	stdx.Must0(opts.Apply(&cfg, options))
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) SupportsImages() bool { return true }

// Stream issues the completion call and decodes the SSE response.
// Request building and validation happen synchronously so input errors
// surface before any fragment is produced.
func (p *Provider) Stream(ctx context.Context, params provider.StreamParams) (<-chan provider.StreamEvent, error) {
	body, err := buildBody(params)
	if err != nil {
		return nil, err
	}

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

	res, err := provider.PostStream(ctx, p.cfg.HTTPClient, p.Name(), p.cfg.BaseURL+"/chat/completions", body, header)
	if err != nil {
		provider.Emit(ctx, events, provider.Error{
			RequestID: params.RequestID,
			Err:       err,
			Timestamp: strfmt.DateTime(time.Now()),
		})
		return
	}
	defer res.Body.Close()

	// Tee the wire bytes so a stream that yields nothing can still be
	// re-parsed as one whole buffer afterwards.
	var raw bytes.Buffer
	res.Body = teeBody{Reader: io.TeeReader(res.Body, &raw), Closer: res.Body}

	decoder := ssestream.NewDecoder(res)
	defer decoder.Close()

	var produced bool

	for decoder.Next() {
		data := bytes.TrimSpace(decoder.Event().Data)
		if string(data) == doneSentinel {
			break
		}

		if text := extractDelta(data); text != "" {
			produced = true
			if !provider.Emit(ctx, events, provider.Chunk{
				RequestID: params.RequestID,
				Content:   text,
				Timestamp: strfmt.DateTime(time.Now()),
			}) {
				return
			}
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

	// Two-pass: only a stream that yielded nothing gets the
	// whole-buffer parse, in case the upstream answered with a plain
	// completion object instead of deltas.
	if !produced {
		if text := wholeBufferContent(raw.Bytes()); text != "" {
			if !provider.Emit(ctx, events, provider.Chunk{
				RequestID: params.RequestID,
				Content:   text,
				Timestamp: strfmt.DateTime(time.Now()),
			}) {
				return
			}
		} else {
			provider.Emit(ctx, events, provider.Error{
				RequestID: params.RequestID,
				Err:       fmt.Errorf("%s: %w", p.Name(), provider.ErrNoContent),
				Timestamp: strfmt.DateTime(time.Now()),
			})
			return
		}
	}

	provider.Emit(ctx, events, provider.Done{
		RequestID: params.RequestID,
		Model:     params.Model,
		Timestamp: strfmt.DateTime(time.Now()),
	})
}

// extractDelta pulls fragment text out of one frame, checking the three
// content paths in their required priority order.
func extractDelta(frame []byte) string {
	if !gjson.ValidBytes(frame) {
		return ""
	}
	for _, path := range []string{
		"choices.0.delta.content",
		"choices.0.delta.reasoning_content",
		"choices.0.message.content",
	} {
		if v := gjson.GetBytes(frame, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// wholeBufferContent attempts one parse of the accumulated response as
// a single completion object.
func wholeBufferContent(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if !gjson.ValidBytes(raw) {
		return ""
	}
	return gjson.GetBytes(raw, "choices.0.message.content").String()
}

type teeBody struct {
	io.Reader
	io.Closer
}

func buildBody(params provider.StreamParams) ([]byte, error) {
	converted, err := convertMessages(params.Messages)
	if err != nil {
		return nil, err
	}
	msgs, err := json.Marshal(converted)
	if err != nil {
		return nil, err
	}

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
	return body, nil
}

func convertMessages(msgs []messages.Message) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		if len(m.Content.Parts) == 0 {
			out = append(out, map[string]any{"role": string(m.Role), "content": m.Content.Content})
			continue
		}
		parts := make([]map[string]any, 0, len(m.Content.Parts))
		for _, part := range m.Content.Parts {
			switch p := part.(type) {
			case messages.TextContentPart:
				parts = append(parts, map[string]any{"type": "text", "text": p.Text})
			case messages.ImageContentPart:
				if len(p.URL) > maxInlineImageChars {
					return nil, &provider.ValidationError{Reason: "inline image exceeds the size cap"}
				}
				parts = append(parts, map[string]any{
					"type":      "image_url",
					"image_url": map[string]any{"url": p.URL},
				})
			}
		}
		out = append(out, map[string]any{"role": string(m.Role), "content": parts})
	}
	return out, nil
}
