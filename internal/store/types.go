package store

import "campus-parking-backend/internal/model"

// SlotFilter narrows ListSlots. Zero values match everything.
type SlotFilter struct {
	Zone   string
	Status model.SlotStatus
}

// ZoneCount is the number of slots in one zone with one status.
type ZoneCount struct {
	Zone   string
	Status model.SlotStatus
	Count  int64
}
