// Package kv is the boundary to the Redis store that backs all persistence.
//
// It exposes a narrow Store interface over the string, hash, and sorted-set
// commands the repositories use, a deterministic key builder, and a Batch
// type that submits several commands in one pipelined round trip.
//
// A Batch is a latency optimization, not a transaction: the store executes
// queued commands in order and reports a result per command, but commands
// that already ran are not rolled back when a later one fails. Cross-key
// writes (hash + lists + indexes) are therefore consistent only when every
// command in the batch succeeds; drift from partial failures is repaired by
// the periodic reconciliation job.
package kv
