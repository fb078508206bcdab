// Package normalize cleans a conversation before dispatch: it drops
// messages with no usable content and rewrites inline base64 payloads
// embedded in message text so that upstream request-size ceilings are
// respected. Raw opaque binary gives a model nothing useful, so
// anything that is not decodably text-like is reduced to a bounded
// preview or an opaque placeholder.
//
// Normalization never fails; malformed input degrades to placeholders.
package normalize
