// Package daemon runs the long-lived stalker process: it holds the
// single-instance lock, owns the ingestion engine, and drives the periodic
// housekeeping pass (session sweeps, reservation expiry, weekly punishment
// decay).
//
// The daemon itself is transport-agnostic; the ipc package exposes it over a
// Unix socket and the platform gateway feeds it interactions.
package daemon
