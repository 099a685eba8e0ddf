package errors

import "errors"

// ErrOptimisticLock the row was modified by another writer since it was read.
var ErrOptimisticLock = errors.New("record was modified concurrently, reload and retry")

// ErrLockNotAcquired a distributed lock is held by someone else.
var ErrLockNotAcquired = errors.New("lock is held by another request")
