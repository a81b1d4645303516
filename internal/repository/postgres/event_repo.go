package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventbooking/internal/domain"
)

const eventColumns = `id, title, description, date, time_slot, duration, venue_id, category, price,
		max_registrations, current_registrations, created_by_id, artist, organization, status,
		is_deleted, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.TimeSlot, &e.Duration, &e.VenueID, &e.Category, &e.Price,
		&e.MaxRegistrations, &e.CurrentRegistrations, &e.CreatedByID, &e.Artist, &e.Organization, &status,
		&e.IsDeleted, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (id, title, description, date, time_slot, duration, venue_id, category, price,
			max_registrations, current_registrations, created_by_id, artist, organization, status,
			is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Date, e.TimeSlot, e.Duration, e.VenueID, e.Category, e.Price,
		e.MaxRegistrations, e.CurrentRegistrations, e.CreatedByID, e.Artist, e.Organization, string(e.Status),
		e.IsDeleted, e.CreatedAt, e.UpdatedAt,
	)
	if isForeignKeyViolation(err) || isInvalidUUID(err) {
		return fmt.Errorf("%w: venue does not exist", domain.ErrValidation)
	}
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND NOT is_deleted
	`
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r *eventRepository) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND NOT is_deleted
		FOR UPDATE
	`
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// eventWhere builds the WHERE clause of a filtered list. Placeholders start at $1.
func eventWhere(filter domain.EventFilter) (string, []any) {
	clauses := []string{"NOT is_deleted"}
	args := []any{}
	n := 1
	if filter.OrganizerID != "" {
		clauses = append(clauses, fmt.Sprintf("created_by_id = $%d", n))
		args = append(args, filter.OrganizerID)
		n++
	}
	if filter.Status != "" {
		switch {
		case filter.Now.IsZero():
			clauses = append(clauses, fmt.Sprintf("status = $%d", n))
			args = append(args, string(filter.Status))
		case filter.Status == domain.EventStatusExpired:
			clauses = append(clauses, fmt.Sprintf("(status = 'Expired' OR (status IN ('Pending', 'Approved') AND date < $%d))", n))
			args = append(args, filter.Now)
		case domain.CanExpire(filter.Status):
			clauses = append(clauses, fmt.Sprintf("status = $%d AND date >= $%d", n, n+1))
			args = append(args, string(filter.Status), filter.Now)
		default:
			clauses = append(clauses, fmt.Sprintf("status = $%d", n))
			args = append(args, string(filter.Status))
		}
	}
	return strings.Join(clauses, " AND "), args
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	where, args := eventWhere(filter)
	q := conn(ctx, r.DB)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.Event{}, 0, nil
	}

	n := len(args) + 1
	query := fmt.Sprintf(`SELECT %s
		FROM events
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, eventColumns, where, n, n+1)
	rows, err := q.QueryContext(ctx, query, append(args, params.PageSize, params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListAll(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	where, args := eventWhere(domain.EventFilter{OrganizerID: organizerID})
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE ` + where + `
		ORDER BY date
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *eventRepository) UpdateFields(ctx context.Context, id string, f domain.EventFields, updatedAt time.Time) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, date = $3, time_slot = $4, duration = $5, venue_id = $6,
			category = $7, price = $8, max_registrations = $9, artist = $10, organization = $11, updated_at = $12
		WHERE id = $13 AND NOT is_deleted
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		f.Title, f.Description, f.Date, f.TimeSlot, f.Duration, f.VenueID,
		f.Category, f.Price, f.MaxRegistrations, f.Artist, f.Organization, updatedAt, id,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: venue does not exist", domain.ErrValidation)
	}
	return requireAffected(res, err)
}

func (r *eventRepository) CompareAndSetStatus(ctx context.Context, id string, current, next domain.EventStatus, updatedAt time.Time) error {
	query := `
		UPDATE events SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND NOT is_deleted
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, string(next), updatedAt, id, string(current))
	if err := requireAffected(res, err); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: status of event %s is no longer %s", domain.ErrNotModified, id, current)
		}
		return err
	}
	return nil
}

func (r *eventRepository) SoftDelete(ctx context.Context, id string, updatedAt time.Time) error {
	query := `UPDATE events SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND NOT is_deleted`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, updatedAt, id)
	return requireAffected(res, err)
}

func (r *eventRepository) MarkExpired(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE events SET status = 'Expired', updated_at = $1
		WHERE date < $1 AND status IN ('Pending', 'Approved') AND NOT is_deleted
		RETURNING id
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *eventRepository) IncrementRegistrations(ctx context.Context, id string) error {
	query := `
		UPDATE events SET current_registrations = current_registrations + 1
		WHERE id = $1 AND NOT is_deleted AND current_registrations < max_registrations
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id)
	if err := requireAffected(res, err); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCapacityExceeded
		}
		return err
	}
	return nil
}

func (r *eventRepository) DecrementRegistrations(ctx context.Context, id string) error {
	query := `
		UPDATE events SET current_registrations = current_registrations - 1
		WHERE id = $1 AND current_registrations > 0
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id)
	return requireAffected(res, err)
}

func (r *eventRepository) CountByVenue(ctx context.Context, venueID string) (int, error) {
	var n int
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE venue_id = $1 AND NOT is_deleted`, venueID).Scan(&n)
	return n, err
}
