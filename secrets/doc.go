// Package secrets resolves per-provider API credentials. Resolution is
// deliberately lazy: an adapter asks for its credential on first
// dispatch, so providers that never serve a request never require their
// credential to be configured.
package secrets
