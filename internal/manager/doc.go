// Package manager owns the server-side model lifecycle: it resolves model
// ids against the on-disk registry, loads at most one model (and its
// execution context) at a time, and drives generation sessions through the
// engine, streaming NDJSON to the transport. The HTTP layer talks only to
// this package.
package manager
