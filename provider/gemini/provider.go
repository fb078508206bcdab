package gemini

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
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
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// DefaultBaseURL is the public Gemini API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultCredential is the environment name of the API key.
	DefaultCredential = "GEMINI_API_KEY"

	// maxFrameBytes bounds a single wire frame; Gemini frames carry at
	// most a few KiB of text but inline data can inflate them.
	maxFrameBytes = 4 << 20
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

// Provider streams generations from the Gemini API.
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

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) SupportsImages() bool { return true }

// Stream issues the generation call and decodes the response.
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
	header.Set("x-goog-api-key", key)

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.cfg.BaseURL, params.Model)
	res, err := provider.PostStream(ctx, p.cfg.HTTPClient, p.Name(), url, body, header)
	if err != nil {
		provider.Emit(ctx, events, provider.Error{
			RequestID: params.RequestID,
			Err:       err,
			Timestamp: strfmt.DateTime(time.Now()),
		})
		return
	}
	defer res.Body.Close()

	// First pass: line-oriented. Every wire byte is retained so the
	// whole-buffer pass can run if this one yields nothing.
	var raw bytes.Buffer
	var produced bool

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Bytes()
		raw.Write(line)
		raw.WriteByte('\n')

		if text := frameText(line); text != "" {
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

	if err := scanner.Err(); err != nil {
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

	// Second pass, strictly sequential with the first: the accumulated
	// response may be a JSON array of frames or one object delivered
	// without line framing.
	if !produced {
		for _, text := range wholeBufferText(raw.Bytes()) {
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

// frameText extracts the concatenated part texts from one wire line.
// Lines may carry an SSE "data:" prefix or array punctuation from
// JSON-array framing; both are stripped before parsing.
func frameText(line []byte) string {
	trimmed := bytes.TrimSpace(line)
	trimmed = bytes.TrimPrefix(trimmed, []byte("data:"))
	trimmed = bytes.TrimSpace(trimmed)
	trimmed = bytes.TrimPrefix(trimmed, []byte(","))
	trimmed = bytes.TrimSuffix(trimmed, []byte(","))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	if !gjson.ValidBytes(trimmed) {
		return ""
	}
	return candidateText(gjson.ParseBytes(trimmed))
}

// wholeBufferText parses the entire accumulated response once, as
// either a JSON array of frames or a single frame object.
func wholeBufferText(raw []byte) []string {
	raw = bytes.TrimSpace(raw)
	if !gjson.ValidBytes(raw) {
		return nil
	}
	doc := gjson.ParseBytes(raw)
	if doc.IsArray() {
		var texts []string
		for _, frame := range doc.Array() {
			if text := candidateText(frame); text != "" {
				texts = append(texts, text)
			}
		}
		return texts
	}
	if text := candidateText(doc); text != "" {
		return []string{text}
	}
	return nil
}

// candidateText concatenates every part text of the first candidate.
func candidateText(frame gjson.Result) string {
	parts := frame.Get("candidates.0.content.parts")
	if !parts.Exists() {
		return ""
	}
	var sb strings.Builder
	for _, part := range parts.Array() {
		sb.WriteString(part.Get("text").String())
	}
	return sb.String()
}

func buildBody(params provider.StreamParams) ([]byte, error) {
	var system []string
	contents := make([]map[string]any, 0, len(params.Messages))

	for _, m := range params.Messages {
		if m.Role == messages.RoleSystem {
			system = append(system, m.Text())
			continue
		}
		role := "user"
		if m.Role == messages.RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": convertParts(m),
		})
	}

	body := []byte(`{}`)
	raw, err := json.Marshal(contents)
	if err != nil {
		return nil, err
	}
	body = stdx.Must1(sjson.SetRawBytes(body, "contents", raw))

	if len(system) > 0 {
		body = stdx.Must1(sjson.SetBytes(body, "systemInstruction.parts.0.text", strings.Join(system, "\n\n")))
	}
	if params.Temperature != nil {
		body = stdx.Must1(sjson.SetBytes(body, "generationConfig.temperature", *params.Temperature))
	}
	if params.MaxTokens != nil {
		body = stdx.Must1(sjson.SetBytes(body, "generationConfig.maxOutputTokens", *params.MaxTokens))
	}
	return body, nil
}

// convertParts maps message content to Gemini parts. Inline data URLs
// become inlineData payloads; remote image URLs cannot be fetched by
// the upstream, so they degrade to a text marker.
func convertParts(m messages.Message) []map[string]any {
	if len(m.Content.Parts) == 0 {
		return []map[string]any{{"text": m.Content.Content}}
	}
	parts := make([]map[string]any, 0, len(m.Content.Parts))
	for _, part := range m.Content.Parts {
		switch p := part.(type) {
		case messages.TextContentPart:
			parts = append(parts, map[string]any{"text": p.Text})
		case messages.ImageContentPart:
			if mime, data, ok := parseDataURL(p.URL); ok {
				parts = append(parts, map[string]any{
					"inlineData": map[string]any{"mimeType": mime, "data": data},
				})
			} else {
				parts = append(parts, map[string]any{"text": "[image attached]"})
			}
		}
	}
	return parts
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
