package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-parking-backend/config"
	"campus-parking-backend/internal/model"
	"campus-parking-backend/internal/parse"
)

// SeedSlots builds the slot list described by cfg: SlotsPerZone slots for every
// zone, followed by the explicit labels. Duplicates are collapsed.
func SeedSlots(cfg config.SeedConfig) ([]model.ParkingSlot, error) {
	seen := make(map[string]bool)
	var slots []model.ParkingSlot

	add := func(label parse.SlotLabel) {
		if seen[label.ID()] {
			return
		}
		seen[label.ID()] = true
		slots = append(slots, model.ParkingSlot{
			ID:         label.ID(),
			SlotNumber: label.String(),
			Zone:       label.Zone,
			Status:     model.SlotAvailable,
		})
	}

	for _, zone := range cfg.Zones {
		zone = strings.ToUpper(strings.TrimSpace(zone))
		if zone == "" {
			continue
		}
		for n := 1; n <= cfg.SlotsPerZone; n++ {
			add(parse.SlotLabel{Zone: zone, Number: n})
		}
	}

	for _, raw := range cfg.Labels {
		label, err := parse.ParseSlotLabel(raw)
		if err != nil {
			return nil, err
		}
		add(label)
	}

	return slots, nil
}

// Seed inserts the configured slots. Existing slots, and therefore their
// status, are left untouched, so running it repeatedly is safe.
func Seed(ctx context.Context, db *gorm.DB, cfg config.SeedConfig) (int64, error) {
	slots, err := SeedSlots(cfg)
	if err != nil {
		return 0, err
	}
	if len(slots) == 0 {
		return 0, nil
	}

	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&slots)
	if res.Error != nil {
		return 0, fmt.Errorf("seeding parking slots failed: %w", res.Error)
	}

	slog.InfoContext(ctx, "parking slots seeded", "configured", len(slots), "inserted", res.RowsAffected)
	return res.RowsAffected, nil
}
