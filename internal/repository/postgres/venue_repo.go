package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventbooking/internal/domain"

	"github.com/lib/pq"
)

const venueColumns = `id, state, city, place_name, address, max_seating_capacity, amenities, created_at`

const bookingColumns = `id, venue_id, event_id, date, time_slot, start_minute, end_minute, created_at`

type venueRepository struct {
	DB *sql.DB
}

func NewVenueRepository(db *sql.DB) domain.VenueRepository {
	return &venueRepository{DB: db}
}

func scanVenue(row rowScanner) (*domain.Venue, error) {
	v := &domain.Venue{}
	var amenities []string
	err := row.Scan(&v.ID, &v.State, &v.City, &v.PlaceName, &v.Address, &v.MaxSeatingCapacity,
		pq.Array(&amenities), &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	if amenities == nil {
		amenities = []string{}
	}
	v.Amenities = amenities
	v.Bookings = []*domain.Booking{}
	return v, nil
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(&b.ID, &b.VenueID, &b.EventID, &b.Date, &b.TimeSlot, &b.Slot.Start, &b.Slot.End, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	defer rows.Close()
	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *venueRepository) Create(ctx context.Context, v *domain.Venue) error {
	query := `
		INSERT INTO venues (id, state, city, place_name, address, max_seating_capacity, amenities, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		v.ID, v.State, v.City, v.PlaceName, v.Address, v.MaxSeatingCapacity, pq.Array(v.Amenities), v.CreatedAt)
	return err
}

func (r *venueRepository) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1`
	v, err := scanVenue(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.attachBookings(ctx, []*domain.Venue{v}); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *venueRepository) List(ctx context.Context, city string) ([]*domain.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues ORDER BY city, place_name`
	args := []any{}
	if city != "" {
		query = `SELECT ` + venueColumns + ` FROM venues WHERE lower(city) = lower($1) ORDER BY city, place_name`
		args = append(args, city)
	}
	return r.list(ctx, query, args...)
}

func (r *venueRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Venue, error) {
	if len(ids) == 0 {
		return []*domain.Venue{}, nil
	}
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = ANY($1)`
	return r.list(ctx, query, pq.Array(ids))
}

func (r *venueRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Venue, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	venues := make([]*domain.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachBookings(ctx, venues); err != nil {
		return nil, err
	}
	return venues, nil
}

// attachBookings loads the bookings of all venues with one query.
func (r *venueRepository) attachBookings(ctx context.Context, venues []*domain.Venue) error {
	if len(venues) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Venue, len(venues))
	ids := make([]string, 0, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
		ids = append(ids, v.ID)
	}
	query := `SELECT ` + bookingColumns + ` FROM venue_bookings WHERE venue_id = ANY($1) ORDER BY date, start_minute`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	bookings, err := scanBookings(rows)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if v, ok := byID[b.VenueID]; ok {
			v.Bookings = append(v.Bookings, b)
		}
	}
	return nil
}

func (r *venueRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: venue %s is still referenced by events", domain.ErrConflict, id)
	}
	return requireAffected(res, err)
}

func (r *venueRepository) LockByID(ctx context.Context, id string) error {
	var locked string
	err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT id FROM venues WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return notFound(err)
}

func (r *venueRepository) ListBookings(ctx context.Context, venueID string, date time.Time) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM venue_bookings
		WHERE venue_id = $1 AND date = $2
		ORDER BY start_minute
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, venueID, domain.DateOnly(date))
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *venueRepository) CreateBooking(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO venue_bookings (id, venue_id, event_id, date, time_slot, start_minute, end_minute, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		b.ID, b.VenueID, b.EventID, domain.DateOnly(b.Date), b.TimeSlot, b.Slot.Start, b.Slot.End, b.CreatedAt)
	if isForeignKeyViolation(err) {
		return domain.ErrNotFound
	}
	return err
}

func (r *venueRepository) DeleteBooking(ctx context.Context, venueID, bookingID string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM venue_bookings WHERE id = $1 AND venue_id = $2`, bookingID, venueID)
	return requireAffected(res, err)
}

func (r *venueRepository) DeleteBookingsForEvent(ctx context.Context, eventID string) (int, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM venue_bookings WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *venueRepository) CountBookings(ctx context.Context, venueID string) (int, error) {
	var n int
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM venue_bookings WHERE venue_id = $1`, venueID).Scan(&n)
	return n, err
}
