// Package messages defines the provider-agnostic conversation model:
// role-tagged messages whose content is either a plain string or an
// ordered list of content parts (text and image references).
//
// Every provider adapter translates from this model into its own wire
// shape; nothing upstream-specific leaks into it.
package messages
