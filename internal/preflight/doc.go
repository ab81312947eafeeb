// Package preflight provides readiness checks for the filesystem paths and
// external binaries the daemon depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll and CheckSystemDeps at startup and logs the
//     outcome, so a misconfigured data directory or a missing recognition
//     binary is visible before the first session starts.
//   - The CLI "stalker status" command uses the same functions to display
//     runtime health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
