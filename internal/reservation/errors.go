package reservation

import "errors"

// Errors returned by Reserve. Callers match them with errors.Is; the
// wrapped detail is for logs only.
var (
	ErrValidation      = errors.New("invalid reservation request")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotUnavailable = errors.New("slot not available")
	ErrPersistence     = errors.New("reservation could not be saved")
	ErrTimeout         = errors.New("reservation timed out")
)
