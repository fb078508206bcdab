// Package gemini implements the adapter for the Gemini-style streaming
// API. Frames are bare JSON objects, one per line or SSE data frame,
// with no reliable terminal sentinel; fragment text is the
// concatenation of candidates[0].content.parts[].text. Parsing is
// deliberately two-pass: the line-oriented streaming parse runs first,
// and only if it yields nothing is the entire accumulated response
// re-parsed once, as either a JSON array of frames or a single object.
package gemini
