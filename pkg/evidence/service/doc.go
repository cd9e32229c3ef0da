// Package service orchestrates evidence capture: id generation, timestamp
// assignment, validation, the evidence index write, and the ledger append,
// treated as one atomic operation from the caller's point of view.
package service
