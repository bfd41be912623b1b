// Package entity defines the core records of the transaction engine:
// the Transaction itself, the TransactionType configuration that binds a
// transactor plugin to a target entity type, the Operation template, and
// the TargetRecord a transaction is recorded against.
//
// A transaction has exactly two states, discriminated by its execution
// timestamp: pending (Executed == nil) and executed. The only transition
// is pending -> executed, driven by the transactor handler. Executed
// transactions are immutable historical facts.
package entity
