package provider

import (
	"context"

	"github.com/convoke-ai/convoke/messages"
	"github.com/google/uuid"
)

// StreamParams carries everything an adapter needs for one streaming
// completion call. Model is the concrete upstream model id, already
// resolved from the caller-facing key.
type StreamParams struct {
	// RequestID identifies the originating gateway request in every
	// emitted event.
	RequestID uuid.UUID

	// Model is the provider's own model identifier.
	Model string

	// Messages is the normalized conversation, oldest first.
	Messages []messages.Message

	// Temperature, when non-nil, overrides the provider default. The
	// gateway strips it for model families that reject the parameter.
	Temperature *float64

	// MaxTokens, when non-nil, bounds the response length.
	MaxTokens *int64

	// AltTokenParam selects the alternate token-limit field name
	// required by newer model families on some providers.
	AltTokenParam bool

	// Prevents unkeyed literals
	_ struct{}
}

// Provider is implemented once per upstream service. Stream returns a
// lazily produced sequence of events ending in either Done or Error;
// the channel is closed when the sequence is complete. A non-nil error
// from Stream itself reports a failure detected before any network
// traffic, such as input validation.
type Provider interface {
	Name() string

	// SupportsImages reports whether the adapter can carry image parts.
	// The gateway flattens multi-part content to text for adapters that
	// cannot.
	SupportsImages() bool

	Stream(ctx context.Context, params StreamParams) (<-chan StreamEvent, error)
}
