// Package augment decides whether a conversation should be enriched
// with live web-search context before dispatch, and performs the
// enrichment. The pipeline is: inject the search-policy system message
// (idempotent), extract a query from the latest user turn, score it
// against weighted pattern families, optionally refine it with one
// bounded fast-model call, detect a recency window, execute the search,
// and insert the formatted results as a single synthetic system
// message.
//
// Augmentation is strictly best-effort: every failure in this package
// degrades to "proceed unaugmented" and nothing here ever fails the
// chat request itself.
package augment
