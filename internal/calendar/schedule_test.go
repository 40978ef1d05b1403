package calendar

import (
	"context"
	"testing"
	"time"
)

func TestFindConflict(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	ctx := context.Background()
	appt := &Appointment{Title: "Review", StartsAt: at(14, 0), Duration: time.Hour}
	if err := s.Create(ctx, appt); err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("overlap found", func(t *testing.T) {
		got, err := FindConflict(ctx, s, at(14, 30), time.Hour, "")
		if err != nil {
			t.Fatalf("FindConflict: %v", err)
		}
		if got == nil || got.Title != "Review" {
			t.Errorf("FindConflict = %+v, want Review", got)
		}
	})

	t.Run("free window", func(t *testing.T) {
		got, err := FindConflict(ctx, s, at(16, 0), time.Hour, "")
		if err != nil {
			t.Fatalf("FindConflict: %v", err)
		}
		if got != nil {
			t.Errorf("FindConflict = %+v, want nil", got)
		}
	})

	t.Run("excluded appointment is skipped", func(t *testing.T) {
		got, err := FindConflict(ctx, s, at(14, 30), time.Hour, appt.ID)
		if err != nil {
			t.Fatalf("FindConflict: %v", err)
		}
		if got != nil {
			t.Errorf("FindConflict = %+v, want nil when excluding self", got)
		}
	})
}

func TestOpenSlots(t *testing.T) {
	t.Parallel()

	day := at(0, 0)

	tests := []struct {
		name  string
		appts []Appointment
		want  []string
	}{
		{
			name:  "empty day is one big slot",
			appts: nil,
			want:  []string{"09:00 AM - 05:00 PM"},
		},
		{
			name: "gap before, between, and after",
			appts: []Appointment{
				{StartsAt: at(10, 0), Duration: time.Hour},
				{StartsAt: at(13, 0), Duration: 30 * time.Minute},
			},
			want: []string{
				"09:00 AM - 10:00 AM",
				"11:00 AM - 01:00 PM",
				"01:30 PM - 05:00 PM",
			},
		},
		{
			name: "back to back appointments leave no middle gap",
			appts: []Appointment{
				{StartsAt: at(9, 0), Duration: 2 * time.Hour},
				{StartsAt: at(11, 0), Duration: 2 * time.Hour},
			},
			want: []string{"01:00 PM - 05:00 PM"},
		},
		{
			name: "appointment running past closing",
			appts: []Appointment{
				{StartsAt: at(16, 0), Duration: 2 * time.Hour},
			},
			want: []string{"09:00 AM - 04:00 PM"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := OpenSlots(tt.appts, day)
			if len(got) != len(tt.want) {
				t.Fatalf("OpenSlots returned %d slots %v, want %d", len(got), got, len(tt.want))
			}
			for i, slot := range got {
				if slot.String() != tt.want[i] {
					t.Errorf("slot[%d] = %q, want %q", i, slot.String(), tt.want[i])
				}
			}
		})
	}
}

func TestDayOf(t *testing.T) {
	t.Parallel()

	appts := []Appointment{
		{Title: "today early", StartsAt: at(9, 0), Duration: time.Hour},
		{Title: "tomorrow", StartsAt: at(9, 0).Add(24 * time.Hour), Duration: time.Hour},
		{Title: "today late", StartsAt: at(16, 0), Duration: time.Hour},
	}

	got := DayOf(appts, at(12, 0))
	if len(got) != 2 || got[0].Title != "today early" || got[1].Title != "today late" {
		t.Errorf("DayOf = %+v, want the two same-day appointments in order", got)
	}
}
