// Package convoke is a provider-agnostic gateway for streaming chat
// completions. A Gateway resolves a caller-facing model key to an
// upstream provider, normalizes and optionally search-augments the
// conversation, and streams the provider's response back as an ordered
// sequence of events. Classified upstream failures trigger a fallback
// to the descriptor's fallback model; a per-request tried set keeps
// fallback chains finite.
//
// Supporting packages hold the moving parts: messages defines the
// conversation model, catalog the model descriptors and resolver,
// provider the adapter contract and the six upstream adapters, augment
// the web-search augmentation pipeline, and normalize the request
// normalizer.
package convoke
