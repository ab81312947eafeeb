// Package punish keeps the per-guild penalty point ledger and its weekly
// decay.
//
// Points live in data/punishments.json as guild -> user -> record with an
// append-only history. Weekly decay subtracts one point from every user and
// is guarded by a per-week marker in data/weekly_removal.json, so repeated
// runs inside the same week are no-ops.
//
// Several bot processes may share these files, so every operation takes a
// file lock and re-reads the current state right before mutating it.
package punish
