package schedule

import (
	"github.com/clinicore/clinic-api/internal/model"
)

// GenerateSlots derives the bookable slots of a window. Slots are pure
// projections; they are never stored. A window too short for a single
// slot yields an empty result, and a trailing partial period is dropped.
func GenerateSlots(w *model.AvailabilityWindow) []model.Slot {
	start, err := model.MinuteOfDay(w.StartTime)
	if err != nil {
		return nil
	}
	end, err := model.MinuteOfDay(w.EndTime)
	if err != nil {
		return nil
	}
	if w.SlotDurationMinutes <= 0 || end <= start {
		return nil
	}

	count := (end - start) / w.SlotDurationMinutes
	slots := make([]model.Slot, 0, count)
	for i := 0; i < count; i++ {
		slotStart := start + i*w.SlotDurationMinutes
		slots = append(slots, model.Slot{
			WindowID:  w.ID,
			Ordinal:   i,
			StartTime: model.ClockString(slotStart),
			EndTime:   model.ClockString(slotStart + w.SlotDurationMinutes),
		})
	}
	return slots
}
