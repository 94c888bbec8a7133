// Package storage holds the errors shared by every persistence adapter.
package storage

import "errors"

// ErrConcurrentUpdate means another writer committed the same aggregate
// between this transaction's read and its commit. The caller retries or
// reports a booking conflict.
var ErrConcurrentUpdate = errors.New("storage: concurrent update")
