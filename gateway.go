package convoke

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/convoke-ai/convoke/augment"
	"github.com/convoke-ai/convoke/catalog"
	"github.com/convoke-ai/convoke/messages"
	"github.com/convoke-ai/convoke/normalize"
	"github.com/convoke-ai/convoke/pkg/slogx"
	"github.com/convoke-ai/convoke/pkg/uuidx"
	"github.com/convoke-ai/convoke/provider"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UsageAuthority is the external budget collaborator, consulted once
// per request before any upstream dial. An error short-circuits the
// request; the gateway never defaults a missing answer to "allowed".
type UsageAuthority interface {
	Authorize(ctx context.Context, desc catalog.ModelDescriptor) error
}

// Gateway is the streaming orchestrator. It resolves model keys,
// prepares the conversation, dispatches to the matching provider
// adapter, and supervises fallback on classified upstream failures.
type Gateway struct {
	resolver  catalog.Resolver
	providers *haxmap.Map[string, provider.Provider]
	augmenter *augment.Augmenter
	usage     UsageAuthority
	log       *slog.Logger
}

// Config carries the gateway's optional collaborators.
type Config struct {
	Augmenter *augment.Augmenter
	Usage     UsageAuthority
	Log       *slog.Logger
}

var (
	// WithAugmenter attaches the search augmentation pipeline.
	WithAugmenter = opts.ForName[Config, *augment.Augmenter]("Augmenter")
	// WithUsageAuthority attaches the external usage budget check.
	WithUsageAuthority = opts.ForName[Config, UsageAuthority]("Usage")
	// WithLogger overrides the default logger.
	WithLogger = opts.ForName[Config, *slog.Logger]("Log")
)

// New builds a Gateway over a resolver and the adapters to route to.
// Descriptors whose provider tag has no registered adapter fail at
// dispatch time, not here, so a deployment may register a subset.
func New(resolver catalog.Resolver, providers map[catalog.ProviderTag]provider.Provider, options ...opts.Option[Config]) (*Gateway, error) {
	cfg := Config{
		Log: slog.Default().With(slogx.LoggerName("gateway")),
	}
	if err := opts.Apply(&cfg, options); err != nil {
		return nil, err
	}

	registry := haxmap.New[string, provider.Provider]()
	for tag, p := range providers {
		registry.Set(string(tag), p)
	}

	return &Gateway{
		resolver:  resolver,
		providers: registry,
		augmenter: cfg.Augmenter,
		usage:     cfg.Usage,
		log:       cfg.Log,
	}, nil
}

// Stream runs one chat-completion request. Validation, resolution, and
// the usage check fail synchronously; everything after that arrives on
// the returned channel, which is closed after a terminal Done or Error
// event. Events are sent unbuffered, so the upstream connection is read
// no faster than the caller consumes.
func (g *Gateway) Stream(ctx context.Context, req Request) (<-chan provider.StreamEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	desc, err := g.resolver.Resolve(ctx, req.ModelKey)
	if err != nil {
		return nil, err
	}

	if g.usage != nil {
		if err := g.usage.Authorize(ctx, desc); err != nil {
			return nil, fmt.Errorf("usage authority rejected model %q: %w", desc.Key, err)
		}
	}

	events := make(chan provider.StreamEvent)
	go g.run(ctx, uuidx.New(), req, desc, events)
	return events, nil
}

// run drives the request state machine: prepare the conversation once,
// then dispatch, and on a transient failure follow the fallback chain
// until it completes, exhausts, or loops.
func (g *Gateway) run(ctx context.Context, requestID uuid.UUID, req Request, desc catalog.ModelDescriptor, events chan<- provider.StreamEvent) {
	defer close(events)

	log := g.log.With(slogx.Stringer("request_id", requestID))

	conv := normalize.Conversation(req.Messages)
	if g.augmenter != nil {
		mode := req.SearchMode
		if mode == "" {
			mode = augment.DirectiveAuto
		}
		conv = g.augmenter.Apply(ctx, conv, mode)
	}

	tried := orderedmap.New[string, struct{}]()
	for {
		if _, seen := tried.Get(desc.Key); seen {
			log.Error("fallback chain revisited a model key", slog.String("model", desc.Key))
			g.fail(ctx, events, requestID, provider.ErrFallbackLoop)
			return
		}
		tried.Set(desc.Key, struct{}{})

		adapter, ok := g.providers.Get(string(desc.Provider))
		if !ok {
			g.fail(ctx, events, requestID, fmt.Errorf("no adapter registered for provider %q", desc.Provider))
			return
		}

		failure := g.dispatch(ctx, events, requestID, req, desc, conv, adapter)
		if failure == nil {
			return
		}

		if !provider.Transient(failure) || desc.Fallback == "" {
			g.fail(ctx, events, requestID, failure)
			return
		}

		next, err := g.resolver.Resolve(ctx, desc.Fallback)
		if err != nil {
			log.Warn("fallback model is unresolvable",
				slog.String("fallback", desc.Fallback), slogx.Error(err))
			g.fail(ctx, events, requestID, failure)
			return
		}

		log.Warn("falling back after transient upstream failure",
			slog.String("from", desc.Key),
			slog.String("to", next.Key),
			slogx.Error(failure))
		desc = next
	}
}

// dispatch runs one streaming attempt against one adapter. A nil return
// means the attempt reached a terminal Done (or the caller went away);
// a non-nil return is the failure to classify for fallback.
func (g *Gateway) dispatch(ctx context.Context, events chan<- provider.StreamEvent, requestID uuid.UUID, req Request, desc catalog.ModelDescriptor, conv []messages.Message, adapter provider.Provider) error {
	upstream, err := adapter.Stream(ctx, g.buildParams(requestID, req, desc, conv, adapter))
	if err != nil {
		return err
	}

	for ev := range upstream {
		switch e := ev.(type) {
		case provider.Chunk:
			if !provider.Emit(ctx, events, e) {
				return nil
			}
		case provider.Done:
			// Report the key that actually served, which differs from
			// the requested key after a fallback.
			e.Model = desc.Key
			provider.Emit(ctx, events, e)
			return nil
		case provider.Error:
			return e.Err
		}
	}
	return provider.ErrNoContent
}

// buildParams maps the request and descriptor onto adapter parameters,
// applying the per-model quirks and capability down-conversion.
func (g *Gateway) buildParams(requestID uuid.UUID, req Request, desc catalog.ModelDescriptor, conv []messages.Message, adapter provider.Provider) provider.StreamParams {
	params := provider.StreamParams{
		RequestID: requestID,
		Model:     desc.UpstreamID,
		Messages:  conv,
	}

	if !adapter.SupportsImages() {
		params.Messages = flatten(conv)
	}

	params.Temperature = req.Temperature
	if params.Temperature == nil && desc.DefaultTemperature > 0 {
		params.Temperature = swag.Float64(desc.DefaultTemperature)
	}
	params.MaxTokens = req.MaxTokens
	if params.MaxTokens == nil && desc.DefaultMaxTokens > 0 {
		params.MaxTokens = swag.Int64(desc.DefaultMaxTokens)
	}

	if reasoningFamily(desc.UpstreamID) {
		params.Temperature = nil
		params.AltTokenParam = true
	}

	return params
}

// flatten down-converts multi-part content to plain text for adapters
// that reject image parts. Image parts become "[image attached]".
func flatten(conv []messages.Message) []messages.Message {
	out := make([]messages.Message, len(conv))
	for i, m := range conv {
		if len(m.Content.Parts) == 0 {
			out[i] = m
			continue
		}
		out[i] = messages.Message{
			Role:    m.Role,
			Content: messages.ContentOrParts{Content: m.Text()},
		}
	}
	return out
}

func (g *Gateway) fail(ctx context.Context, events chan<- provider.StreamEvent, requestID uuid.UUID, err error) {
	provider.Emit(ctx, events, provider.Error{
		RequestID: requestID,
		Err:       err,
		Timestamp: strfmt.DateTime(time.Now()),
	})
}
