package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrNoPriceAvailable indicates that VWAP, top-of-book and last-trade prices
// are all absent for a requested side.
var ErrNoPriceAvailable = errors.New("no price available")

// ErrNoRateAvailable indicates that no enabled source has a usable final rate
// for a requested pair and operation.
var ErrNoRateAvailable = errors.New("no rate available")

// ErrSourceUnavailable indicates that an exchange client call failed after
// exhausting its retry budget.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrSyncInProgress indicates that a sync run for the same source is already
// active; overlapping runs are skipped, never queued.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrStaleRate indicates that the only rate on record is older than the
// staleness threshold and the caller did not opt in to stale data.
var ErrStaleRate = errors.New("rate is stale")
