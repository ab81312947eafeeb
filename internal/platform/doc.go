// Package platform defines the narrow seam between the ingestion engine and
// whatever chat gateway hosts it.
//
// The engine never talks to a chat SDK directly. It consumes the small
// interfaces declared here: member listing for roster building, channel
// messaging, prompt editing on a session's public interaction, attachment
// download, and role management for punishment enforcement. A gateway binds
// these to its SDK and translates SDK failures into the sentinel errors in
// errors.go so callers can branch on category instead of transport detail.
//
// The platformtest subpackage provides a scriptable in-memory implementation
// used throughout the engine tests.
package platform
