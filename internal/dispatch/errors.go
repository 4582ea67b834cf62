package dispatch

import "battery-arbitrage/internal/model"

// ErrCapacityViolation is returned when the running capacity or the
// recomputed closing trace leaves [0, Capacity]. It indicates a bug, not bad
// input.
var ErrCapacityViolation = model.ErrCapacityViolation
