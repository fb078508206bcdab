// Package search defines the contract with the external web-search
// backend and a caching decorator for its results. The backend itself
// (crawling, indexing, page extraction) is a collaborator; this package
// only shapes queries and results.
//
// Backends never return an error: a failed search is an empty result
// list, because augmentation is always best-effort.
package search
