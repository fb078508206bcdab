// Package anthropic implements the adapter for the Anthropic-style
// streaming messages API. The wire format is typed SSE events; only
// content_block_delta events whose delta is a text_delta carry fragment
// text, and message_stop is the authoritative end of the stream. All
// other event types (pings, block starts, usage updates) are ignored.
package anthropic
