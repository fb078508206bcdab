// Package openai implements the adapter for the OpenAI-style streaming
// chat-completion API: blank-line separated "data:" SSE frames, a
// literal "[DONE]" terminal sentinel, and delta text under a fixed
// priority of JSON paths (delta content, delta reasoning content, then
// whole-message content).
package openai
