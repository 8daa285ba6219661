// Package registry implements the in-process template version registry.
//
// A Registry tracks every registered version of every template id, keeps each
// template's version list sorted descending, and derives the latest and
// latest-stable versions on every insertion. Registration is additive: there
// is no per-version delete or update, only a full Clear used for process
// reset and test isolation. Nothing here is persisted; callers rebuild the
// registry with explicit Register calls at startup.
//
// Provider is the read-only interface the constraint resolver consumes,
// enabling mock substitution in tests.
//
// The registry is not internally synchronized; it is expected to be owned by
// a single subsystem instance with callers serializing mutation themselves.
package registry
