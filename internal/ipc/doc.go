// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management, request/response DTOs, and conversions
// between in-process session and queue models and their lightweight wire
// representations. Punishment writes go through the daemon here so role
// enforcement runs against the live gateway rather than the ledger alone.
//
// Reuse these types when adding new RPC endpoints to keep the protocol stable
// and compatible with existing command implementations.
package ipc
