package calendar

import (
	"context"
	"time"
)

// Business hours bound the free-slot search. Appointments outside these
// hours are still allowed; they just don't produce suggested slots.
const (
	businessStartHour = 9
	businessEndHour   = 17
)

// Slot is a free window between appointments.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// String formats the slot the way it would be spoken, e.g.
// "09:00 AM - 11:30 AM".
func (s Slot) String() string {
	return s.Start.Format("03:04 PM") + " - " + s.End.Format("03:04 PM")
}

// FindConflict returns the first stored appointment overlapping the window
// [startsAt, startsAt+duration), or nil when the window is free. excludeID
// skips one appointment, for reschedule checks against the appointment's own
// old slot.
func FindConflict(ctx context.Context, s Store, startsAt time.Time, duration time.Duration, excludeID string) (*Appointment, error) {
	// A linear scan over the surrounding day is plenty: per-owner calendars
	// hold tens of entries, not thousands.
	probe := Appointment{StartsAt: startsAt, Duration: duration}
	appts, err := s.List(ctx, startsAt.Add(-24*time.Hour), startsAt.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	for _, other := range appts {
		if other.ID == excludeID {
			continue
		}
		if probe.Overlaps(other) {
			return &other, nil
		}
	}
	return nil, nil
}

// OpenSlots returns the free windows within business hours on the day
// containing `day`, given that day's appointments sorted by start time.
// With no appointments the whole business day is one slot.
func OpenSlots(appts []Appointment, day time.Time) []Slot {
	y, m, d := day.Date()
	dayOpen := time.Date(y, m, d, businessStartHour, 0, 0, 0, day.Location())
	dayClose := time.Date(y, m, d, businessEndHour, 0, 0, 0, day.Location())

	if len(appts) == 0 {
		return []Slot{{Start: dayOpen, End: dayClose}}
	}

	var slots []Slot
	cursor := dayOpen
	for _, appt := range appts {
		if appt.StartsAt.After(cursor) {
			end := appt.StartsAt
			if end.After(dayClose) {
				end = dayClose
			}
			if end.After(cursor) {
				slots = append(slots, Slot{Start: cursor, End: end})
			}
		}
		if appt.EndsAt().After(cursor) {
			cursor = appt.EndsAt()
		}
	}
	if cursor.Before(dayClose) {
		slots = append(slots, Slot{Start: cursor, End: dayClose})
	}
	return slots
}

// DayOf returns the appointments from appts that start on the same calendar
// day as `day`, preserving order.
func DayOf(appts []Appointment, day time.Time) []Appointment {
	y, m, d := day.Date()
	var out []Appointment
	for _, appt := range appts {
		ay, am, ad := appt.StartsAt.In(day.Location()).Date()
		if ay == y && am == m && ad == d {
			out = append(out, appt)
		}
	}
	return out
}
