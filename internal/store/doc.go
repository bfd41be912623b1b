// Package store provides durable SQLite storage for the transaction
// engine: transactions, transaction types, operation templates, and
// target records.
//
// The chain resolver queries live here: last/previous/next executed
// transaction of a (type, target) pair, ordered by execution time with
// an explicit id tie-break. SaveExecuted is the concurrency linchpin -
// it re-verifies the chain head inside a storage transaction so a racing
// writer cannot silently claim the same chain position, and persists the
// executed transaction together with its mutated target atomically.
package store
