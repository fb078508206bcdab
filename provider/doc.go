// Package provider defines the adapter contract shared by the six
// upstream model services and the stream-event types the gateway
// delivers to its caller.
//
// An adapter translates a normalized conversation into one provider's
// request shape, opens the streaming connection, and decodes that
// provider's wire format (SSE chat-completion frames, bespoke SSE JSON,
// or NDJSON) into an ordered sequence of text fragments. The sequence
// for one request is finite, forward-only, and not restartable.
//
// The package also owns failure classification: adapters report errors
// through the same channel as fragments, and the gateway consults
// Transient to decide whether a failure is eligible for a fallback
// model or must surface unmodified.
package provider
