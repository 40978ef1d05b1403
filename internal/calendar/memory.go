package calendar

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process [Store]. All state is guarded by a mutex;
// returned appointments are copies, so callers can never mutate stored state
// through them.
type MemoryStore struct {
	mu    sync.RWMutex
	appts map[string]Appointment

	now func() time.Time
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryOption configures a [MemoryStore].
type MemoryOption func(*MemoryStore)

// WithClock replaces the time source used for past-start validation.
// Intended for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty in-memory appointment store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		appts: make(map[string]Appointment),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create inserts a new appointment, assigning an ID when empty.
func (s *MemoryStore) Create(_ context.Context, appt *Appointment) error {
	if err := appt.Validate(); err != nil {
		return err
	}
	if appt.StartsAt.Before(s.now()) {
		return ErrPastStart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conflict := s.findConflictLocked(*appt, ""); conflict != nil {
		return &ConflictError{Existing: *conflict}
	}

	if appt.ID == "" {
		appt.ID = "apt_" + uuid.NewString()
	}
	appt.CreatedAt = s.now().UTC()
	s.appts[appt.ID] = *appt
	return nil
}

// Get retrieves an appointment by ID. Returns (nil, nil) if not found.
func (s *MemoryStore) Get(_ context.Context, id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appt, ok := s.appts[id]
	if !ok {
		return nil, nil
	}
	return &appt, nil
}

// Update replaces an existing appointment after conflict checks.
func (s *MemoryStore) Update(_ context.Context, appt *Appointment) error {
	if err := appt.Validate(); err != nil {
		return err
	}
	if appt.StartsAt.Before(s.now()) {
		return ErrPastStart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appts[appt.ID]
	if !ok {
		return ErrNotFound
	}
	if conflict := s.findConflictLocked(*appt, appt.ID); conflict != nil {
		return &ConflictError{Existing: *conflict}
	}

	appt.CreatedAt = existing.CreatedAt
	s.appts[appt.ID] = *appt
	return nil
}

// Delete removes an appointment. Deleting a missing ID is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.appts, id)
	return nil
}

// List returns appointments with StartsAt in [from, to), sorted ascending.
func (s *MemoryStore) List(_ context.Context, from, to time.Time) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Appointment
	for _, appt := range s.appts {
		if appt.StartsAt.Before(from) {
			continue
		}
		if !to.IsZero() && !appt.StartsAt.Before(to) {
			continue
		}
		out = append(out, appt)
	}
	sortByStart(out)
	return out, nil
}

// FindByTitle returns appointments whose title contains the text,
// case-insensitively, sorted ascending.
func (s *MemoryStore) FindByTitle(_ context.Context, title string) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(title)
	var out []Appointment
	for _, appt := range s.appts {
		if strings.Contains(strings.ToLower(appt.Title), needle) {
			out = append(out, appt)
		}
	}
	sortByStart(out)
	return out, nil
}

// findConflictLocked scans for an overlapping appointment, skipping
// excludeID. Must be called with s.mu held.
func (s *MemoryStore) findConflictLocked(appt Appointment, excludeID string) *Appointment {
	for id, other := range s.appts {
		if id == excludeID {
			continue
		}
		if appt.Overlaps(other) {
			return &other
		}
	}
	return nil
}

func sortByStart(appts []Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		return appts[i].StartsAt.Before(appts[j].StartsAt)
	})
}
