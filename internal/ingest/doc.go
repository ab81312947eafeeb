// Package ingest orchestrates the score ingestion workflow end to end.
//
// The engine wires the queue coordinator, roster service, image
// preprocessing, text recognition, line alignment, the session aggregator,
// the results store, and the punishment ledger behind one surface the chat
// gateway and the daemon drive. One engine serves every configured guild.
//
// The workflow for one session: the coordinator admits the user, the roster
// is resolved and frozen to a snapshot, each uploaded screenshot runs
// through preprocess, recognition, and alignment into the session, the user
// confirms completeness, conflicts are resolved interactively, and the
// final results land in the week record. Releasing the guild slot cascades
// reservations and position notices to the waiters by direct message.
//
// All user-facing state lives in the session's public prompt, edited in
// place for every stage. An expired prompt handle tears the session down
// softly with a plain channel message.
package ingest
