package anthropic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
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
	// DefaultBaseURL is the public Anthropic API root.
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultCredential is the environment name of the API key.
	DefaultCredential = "ANTHROPIC_API_KEY"

	apiVersion = "2023-06-01"

	// defaultMaxTokens is sent when the request does not bound output;
	// the upstream requires the field.
	defaultMaxTokens = int64(4096)
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

// Provider streams messages from the Anthropic API.
type Provider struct {
	cfg Config
}

// New builds the adapter; the credential resolves lazily at dispatch.
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

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) SupportsImages() bool { return true }

// Stream issues the messages call and decodes the typed SSE response.
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
	header.Set("x-api-key", key)
	header.Set("anthropic-version", apiVersion)
	header.Set("Accept", "text/event-stream")

	res, err := provider.PostStream(ctx, p.cfg.HTTPClient, p.Name(), p.cfg.BaseURL+"/v1/messages", body, header)
	if err != nil {
		provider.Emit(ctx, events, provider.Error{
			RequestID: params.RequestID,
			Err:       err,
			Timestamp: strfmt.DateTime(time.Now()),
		})
		return
	}
	defer res.Body.Close()

	var raw bytes.Buffer
	res.Body = teeBody{Reader: io.TeeReader(res.Body, &raw), Closer: res.Body}

	decoder := ssestream.NewDecoder(res)
	defer decoder.Close()

	var produced bool
	for decoder.Next() {
		event := decoder.Event()
		if event.Type == "message_stop" {
			break
		}
		if event.Type != "content_block_delta" {
			continue
		}
		data := event.Data
		if !gjson.ValidBytes(data) {
			continue
		}
		if gjson.GetBytes(data, "delta.type").String() != "text_delta" {
			continue
		}
		text := gjson.GetBytes(data, "delta.text").String()
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

	// Two-pass: a zero-fragment stream may have been a whole message
	// object delivered without SSE framing.
	if !produced {
		if text := wholeBufferContent(raw.Bytes()); text != "" {
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

	if !produced {
		provider.Emit(ctx, events, provider.Error{
			RequestID: params.RequestID,
			Err:       fmt.Errorf("%s: %w", p.Name(), provider.ErrNoContent),
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

func wholeBufferContent(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if !gjson.ValidBytes(raw) {
		return ""
	}
	var sb strings.Builder
	for _, block := range gjson.GetBytes(raw, "content").Array() {
		if block.Get("type").String() == "text" {
			sb.WriteString(block.Get("text").String())
		}
	}
	return sb.String()
}

type teeBody struct {
	io.Reader
	io.Closer
}

func buildBody(params provider.StreamParams) ([]byte, error) {
	var system []string
	converted := make([]map[string]any, 0, len(params.Messages))

	for _, m := range params.Messages {
		if m.Role == messages.RoleSystem {
			system = append(system, m.Text())
			continue
		}
		converted = append(converted, map[string]any{
			"role":    string(m.Role),
			"content": convertContent(m),
		})
	}

	raw, err := json.Marshal(converted)
	if err != nil {
		return nil, err
	}

	body := []byte(`{"stream":true}`)
	body = stdx.Must1(sjson.SetBytes(body, "model", params.Model))
	body = stdx.Must1(sjson.SetRawBytes(body, "messages", raw))

	maxTokens := defaultMaxTokens
	if params.MaxTokens != nil {
		maxTokens = *params.MaxTokens
	}
	body = stdx.Must1(sjson.SetBytes(body, "max_tokens", maxTokens))

	if len(system) > 0 {
		body = stdx.Must1(sjson.SetBytes(body, "system", strings.Join(system, "\n\n")))
	}
	if params.Temperature != nil {
		body = stdx.Must1(sjson.SetBytes(body, "temperature", *params.Temperature))
	}
	return body, nil
}

// convertContent maps message content to Anthropic content blocks.
func convertContent(m messages.Message) any {
	if len(m.Content.Parts) == 0 {
		return m.Content.Content
	}
	blocks := make([]map[string]any, 0, len(m.Content.Parts))
	for _, part := range m.Content.Parts {
		switch p := part.(type) {
		case messages.TextContentPart:
			blocks = append(blocks, map[string]any{"type": "text", "text": p.Text})
		case messages.ImageContentPart:
			if mime, data, ok := parseDataURL(p.URL); ok {
				blocks = append(blocks, map[string]any{
					"type": "image",
					"source": map[string]any{
						"type":       "base64",
						"media_type": mime,
						"data":       data,
					},
				})
			} else {
				blocks = append(blocks, map[string]any{
					"type":   "image",
					"source": map[string]any{"type": "url", "url": p.URL},
				})
			}
		}
	}
	return blocks
}

func parseDataURL(url string) (mime, data string, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return "", "", false
	}
	mime, data, found = strings.Cut(rest, ";base64,")
	if !found || mime == "" || data == "" {
		return "", "", false
	}
	return mime, data, true
}
