package calendartool

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ringline/ringline/internal/calendar"
	"github.com/ringline/ringline/internal/tools"
)

// testNow pins the clock; all test appointments sit in its future.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newDeps() (Deps, *calendar.MemoryStore) {
	store := calendar.NewMemoryStore(calendar.WithClock(func() time.Time { return testNow }))
	return Deps{Store: store, Now: func() time.Time { return testNow }}, store
}

func toolByName(t *testing.T, ts []tools.Tool, name string) tools.Tool {
	t.Helper()
	for _, tool := range ts {
		if tool.Definition.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %q not found", name)
	return tools.Tool{}
}

func run(t *testing.T, tool tools.Tool, args string) string {
	t.Helper()
	out, err := tool.Handler(context.Background(), args)
	if err != nil {
		t.Fatalf("%s: %v", tool.Definition.Name, err)
	}
	return out
}

func seed(t *testing.T, store *calendar.MemoryStore, title string, startsAt time.Time, duration time.Duration) {
	t.Helper()
	appt := calendar.Appointment{Title: title, StartsAt: startsAt, Duration: duration}
	if err := store.Create(context.Background(), &appt); err != nil {
		t.Fatalf("seed %s: %v", title, err)
	}
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	t.Run("creates an appointment", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps()
		schedule := toolByName(t, Tools(deps), "schedule")

		out := run(t, schedule, `{"title":"Dentist","date":"2026-03-02","time":"14:30","duration_minutes":30,"location":"Main St"}`)
		for _, want := range []string{"Dentist", "March 02, 2026", "02:30 PM", "30 minutes", "Main St"} {
			if !strings.Contains(out, want) {
				t.Errorf("schedule = %q, missing %q", out, want)
			}
		}

		appts, err := store.List(context.Background(), testNow, time.Time{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(appts) != 1 {
			t.Errorf("store holds %d appointments, want 1", len(appts))
		}
	})

	t.Run("tomorrow resolves relative to now", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps()
		schedule := toolByName(t, Tools(deps), "schedule")

		run(t, schedule, `{"title":"Checkup","date":"tomorrow","time":"09:00"}`)

		appts, _ := store.List(context.Background(), testNow, time.Time{})
		if len(appts) != 1 {
			t.Fatalf("store holds %d appointments, want 1", len(appts))
		}
		want := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
		if !appts[0].StartsAt.Equal(want) {
			t.Errorf("StartsAt = %v, want %v", appts[0].StartsAt, want)
		}
	})

	t.Run("reports conflicts as spoken outcome", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps()
		seed(t, store, "Standup", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), time.Hour)
		schedule := toolByName(t, Tools(deps), "schedule")

		out := run(t, schedule, `{"title":"Overlap","date":"2026-03-02","time":"10:30"}`)
		if !strings.Contains(out, "scheduling conflict") || !strings.Contains(out, "Standup") {
			t.Errorf("schedule = %q, want conflict wording naming Standup", out)
		}
	})

	t.Run("refuses the past", func(t *testing.T) {
		t.Parallel()

		deps, _ := newDeps()
		schedule := toolByName(t, Tools(deps), "schedule")

		out := run(t, schedule, `{"title":"Too late","date":"2026-03-01","time":"10:00"}`)
		if !strings.Contains(out, "cannot create appointments in the past") {
			t.Errorf("schedule = %q, want past-date refusal", out)
		}
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		t.Parallel()

		deps, _ := newDeps()
		schedule := toolByName(t, Tools(deps), "schedule")

		_, err := schedule.Handler(context.Background(), `{"title":"x","date":"next tuesday","time":"10:00"}`)
		if err == nil {
			t.Error("schedule accepted an unparseable date")
		}
	})
}

func TestCheckAvailability(t *testing.T) {
	t.Parallel()

	deps, store := newDeps()
	seed(t, store, "Standup", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), time.Hour)
	check := toolByName(t, Tools(deps), "check_availability")

	t.Run("free day", func(t *testing.T) {
		out := run(t, check, `{"date":"2026-03-05"}`)
		if !strings.Contains(out, "entire day is available") {
			t.Errorf("check_availability = %q, want free-day wording", out)
		}
	})

	t.Run("busy time names the blocker", func(t *testing.T) {
		out := run(t, check, `{"date":"2026-03-02","time":"10:30"}`)
		for _, want := range []string{"not available", "Standup", "10:00 AM", "11:00 AM"} {
			if !strings.Contains(out, want) {
				t.Errorf("check_availability = %q, missing %q", out, want)
			}
		}
	})

	t.Run("free time", func(t *testing.T) {
		out := run(t, check, `{"date":"2026-03-02","time":"13:00"}`)
		if !strings.Contains(out, "You are available at 13:00") {
			t.Errorf("check_availability = %q, want available wording", out)
		}
	})

	t.Run("day summary includes open slots", func(t *testing.T) {
		out := run(t, check, `{"date":"2026-03-02"}`)
		for _, want := range []string{"Standup", "Available time slots", "11:00 AM - 05:00 PM"} {
			if !strings.Contains(out, want) {
				t.Errorf("check_availability = %q, missing %q", out, want)
			}
		}
	})
}

func TestListAppointments(t *testing.T) {
	t.Parallel()

	deps, store := newDeps()
	seed(t, store, "Soon", time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), time.Hour)
	seed(t, store, "Far away", time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC), time.Hour)
	list := toolByName(t, Tools(deps), "list_appointments")

	out := run(t, list, `{}`)
	if !strings.Contains(out, "Soon") {
		t.Errorf("list = %q, missing appointment inside the window", out)
	}
	if strings.Contains(out, "Far away") {
		t.Errorf("list = %q, contains appointment outside the default 7 days", out)
	}

	out = run(t, list, `{"days_ahead":60}`)
	if !strings.Contains(out, "Far away") {
		t.Errorf("list = %q, missing appointment inside the widened window", out)
	}
}

func TestCancelAppointment(t *testing.T) {
	t.Parallel()

	t.Run("single match is deleted", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps()
		seed(t, store, "Dentist", time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), time.Hour)
		cancel := toolByName(t, Tools(deps), "cancel_appointment")

		out := run(t, cancel, `{"title":"dentist"}`)
		if !strings.Contains(out, "cancelled 'Dentist'") {
			t.Errorf("cancel = %q, want confirmation", out)
		}
		appts, _ := store.List(context.Background(), testNow, time.Time{})
		if len(appts) != 0 {
			t.Errorf("store holds %d appointments after cancel, want 0", len(appts))
		}
	})

	t.Run("ambiguous match asks for detail", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps()
		seed(t, store, "Review A", time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), time.Hour)
		seed(t, store, "Review B", time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC), time.Hour)
		cancel := toolByName(t, Tools(deps), "cancel_appointment")

		out := run(t, cancel, `{"title":"review"}`)
		if !strings.Contains(out, "2 appointments") || !strings.Contains(out, "more specific") {
			t.Errorf("cancel = %q, want disambiguation prompt", out)
		}
	})

	t.Run("date narrows the match", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps()
		seed(t, store, "Review A", time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), time.Hour)
		seed(t, store, "Review B", time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC), time.Hour)
		cancel := toolByName(t, Tools(deps), "cancel_appointment")

		out := run(t, cancel, `{"title":"review","date":"2026-03-03"}`)
		if !strings.Contains(out, "cancelled 'Review B'") {
			t.Errorf("cancel = %q, want Review B cancelled", out)
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()

		deps, _ := newDeps()
		cancel := toolByName(t, Tools(deps), "cancel_appointment")

		out := run(t, cancel, `{"title":"ghost"}`)
		if !strings.Contains(out, "couldn't find an appointment") {
			t.Errorf("cancel = %q, want not-found wording", out)
		}
	})
}

func TestRescheduleAppointment(t *testing.T) {
	t.Parallel()

	t.Run("moves the appointment", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps()
		seed(t, store, "Dentist", time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), time.Hour)
		reschedule := toolByName(t, Tools(deps), "reschedule_appointment")

		out := run(t, reschedule, `{"title":"dentist","new_date":"2026-03-04","new_time":"09:00"}`)
		if !strings.Contains(out, "rescheduled 'Dentist'") {
			t.Errorf("reschedule = %q, want confirmation", out)
		}

		appts, _ := store.FindByTitle(context.Background(), "dentist")
		if len(appts) != 1 {
			t.Fatalf("FindByTitle matched %d, want 1", len(appts))
		}
		want := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
		if !appts[0].StartsAt.Equal(want) {
			t.Errorf("StartsAt = %v, want %v", appts[0].StartsAt, want)
		}
	})

	t.Run("reports conflicts at the new slot", func(t *testing.T) {
		t.Parallel()

		deps, store := newDeps()
		seed(t, store, "Dentist", time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), time.Hour)
		seed(t, store, "Standup", time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), time.Hour)
		reschedule := toolByName(t, Tools(deps), "reschedule_appointment")

		out := run(t, reschedule, `{"title":"dentist","new_date":"2026-03-04","new_time":"09:30"}`)
		if !strings.Contains(out, "conflict at the new time") || !strings.Contains(out, "Standup") {
			t.Errorf("reschedule = %q, want conflict wording naming Standup", out)
		}
	})
}
