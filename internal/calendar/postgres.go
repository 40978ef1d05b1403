package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the appointments table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS appointments (
    id               TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    starts_at        TIMESTAMPTZ NOT NULL,
    duration_minutes INT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    location         TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_appointments_starts_at ON appointments(starts_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// PostgresOption configures a [PostgresStore].
type PostgresOption func(*PostgresStore)

// WithPostgresClock replaces the time source used for past-start validation.
// Intended for tests.
func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(s *PostgresStore) { s.now = now }
}

// NewPostgresStore creates a [PostgresStore] using the given connection or
// pool. Call [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Migrate executes the [Schema] DDL, creating the appointments table and
// index if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("calendar: migrate: %w", err)
	}
	return nil
}

// Create inserts a new appointment, assigning an ID when empty.
func (s *PostgresStore) Create(ctx context.Context, appt *Appointment) error {
	if err := appt.Validate(); err != nil {
		return err
	}
	if appt.StartsAt.Before(s.now()) {
		return ErrPastStart
	}

	conflict, err := s.findConflict(ctx, appt.StartsAt, appt.Duration, "")
	if err != nil {
		return err
	}
	if conflict != nil {
		return &ConflictError{Existing: *conflict}
	}

	if appt.ID == "" {
		appt.ID = "apt_" + uuid.NewString()
	}

	const query = `
		INSERT INTO appointments (id, title, starts_at, duration_minutes, description, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err = s.db.QueryRow(ctx, query,
		appt.ID, appt.Title, appt.StartsAt, int(appt.Duration.Minutes()),
		appt.Description, appt.Location,
	).Scan(&appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("calendar: create: %w", err)
	}
	return nil
}

// Get retrieves an appointment by ID. Returns (nil, nil) if not found.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Appointment, error) {
	const query = `
		SELECT id, title, starts_at, duration_minutes, description, location, created_at
		FROM appointments
		WHERE id = $1`

	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("calendar: get: %w", err)
	}
	return appt, nil
}

// Update replaces an existing appointment after conflict checks.
func (s *PostgresStore) Update(ctx context.Context, appt *Appointment) error {
	if err := appt.Validate(); err != nil {
		return err
	}
	if appt.StartsAt.Before(s.now()) {
		return ErrPastStart
	}

	conflict, err := s.findConflict(ctx, appt.StartsAt, appt.Duration, appt.ID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &ConflictError{Existing: *conflict}
	}

	const query = `
		UPDATE appointments
		SET title = $2, starts_at = $3, duration_minutes = $4, description = $5, location = $6
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query,
		appt.ID, appt.Title, appt.StartsAt, int(appt.Duration.Minutes()),
		appt.Description, appt.Location,
	)
	if err != nil {
		return fmt.Errorf("calendar: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an appointment. Deleting a missing ID is not an error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("calendar: delete: %w", err)
	}
	return nil
}

// List returns appointments with StartsAt in [from, to), sorted ascending.
func (s *PostgresStore) List(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	query := `
		SELECT id, title, starts_at, duration_minutes, description, location, created_at
		FROM appointments
		WHERE starts_at >= $1`
	args := []any{from}
	if !to.IsZero() {
		query += ` AND starts_at < $2`
		args = append(args, to)
	}
	query += ` ORDER BY starts_at ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("calendar: list: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// FindByTitle returns appointments whose title contains the text,
// case-insensitively, sorted ascending.
func (s *PostgresStore) FindByTitle(ctx context.Context, title string) ([]Appointment, error) {
	const query = `
		SELECT id, title, starts_at, duration_minutes, description, location, created_at
		FROM appointments
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY starts_at ASC`

	rows, err := s.db.Query(ctx, query, escapeLike(title))
	if err != nil {
		return nil, fmt.Errorf("calendar: find by title: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// findConflict returns the first stored appointment overlapping the window,
// skipping excludeID.
func (s *PostgresStore) findConflict(ctx context.Context, startsAt time.Time, duration time.Duration, excludeID string) (*Appointment, error) {
	const query = `
		SELECT id, title, starts_at, duration_minutes, description, location, created_at
		FROM appointments
		WHERE id <> $3
		  AND starts_at < $2
		  AND starts_at + make_interval(mins => duration_minutes) > $1
		ORDER BY starts_at ASC
		LIMIT 1`

	appt, err := scanAppointment(s.db.QueryRow(ctx, query, startsAt, startsAt.Add(duration), excludeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("calendar: conflict scan: %w", err)
	}
	return appt, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var appt Appointment
	var durationMinutes int
	err := row.Scan(
		&appt.ID, &appt.Title, &appt.StartsAt, &durationMinutes,
		&appt.Description, &appt.Location, &appt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	appt.Duration = time.Duration(durationMinutes) * time.Minute
	return &appt, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("calendar: scan row: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calendar: iterate rows: %w", err)
	}
	return out, nil
}

// escapeLike neutralises LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
