// Package queue serializes ingestion sessions per guild.
//
// Each guild has at most one active processor. Everyone else waits in a
// strict FIFO queue. When the slot frees, the head of the queue receives a
// time-bounded reservation: the slot is theirs if they claim it before the
// reservation expires, otherwise they lose the turn and the next waiter is
// promoted. The coordinator only tracks state and reports what happened;
// notifying the affected users is the caller's job.
package queue
