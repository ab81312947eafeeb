// Package session holds the per-user ingestion state machine.
//
// A session collects recognized readings from a batch of screenshots,
// aggregates them into per-nickname score vectors, classifies disagreements
// between images, and walks the user through resolving the ones that need a
// decision. Phase 2 runs the same cycle three times and sums the rounds.
//
// Sessions live in memory only. The Manager owns them, keyed by guild and
// user, and destroys any session idle past the inactivity timeout.
package session
