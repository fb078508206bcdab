// Package compat implements the adapter shared by the three
// OpenAI-compatible third-party services (Groq, Mistral, OpenRouter).
// The frame shape matches the OpenAI streaming API, but the adapter is
// stricter on purpose: text is read only from choices[0].delta.content,
// and a stream that produces nothing is an error with no whole-message
// fallback.
package compat
