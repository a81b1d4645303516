package postgres

import (
	"context"
	"database/sql"
	"time"

	"eventbooking/internal/domain"

	"github.com/lib/pq"
)

type eventRegistrationRepository struct {
	DB *sql.DB
}

func NewEventRegistrationRepository(db *sql.DB) domain.EventRegistrationRepository {
	return &eventRegistrationRepository{
		DB: db,
	}
}

func (r *eventRegistrationRepository) Create(ctx context.Context, reg *domain.EventRegistration) error {
	query := `
		INSERT INTO event_registrations (id, event_id, user_id, registered_at, is_deleted)
		VALUES ($1, $2, $3, $4, FALSE)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, reg.ID, reg.EventID, reg.UserID, reg.RegisteredAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyRegistered
	}
	return err
}

func (r *eventRegistrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventRegistration, error) {
	query := `
		SELECT id, event_id, user_id, registered_at, is_deleted
		FROM event_registrations
		WHERE event_id = $1 AND user_id = $2
	`
	reg := &domain.EventRegistration{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID).
		Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt, &reg.IsDeleted)
	if err != nil {
		return nil, notFound(err)
	}
	return reg, nil
}

func (r *eventRegistrationRepository) Revive(ctx context.Context, id string, registeredAt time.Time) error {
	query := `
		UPDATE event_registrations SET is_deleted = FALSE, registered_at = $1
		WHERE id = $2 AND is_deleted
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, registeredAt, id)
	return requireAffected(res, err)
}

func (r *eventRegistrationRepository) SoftDeleteActive(ctx context.Context, eventID, userID string) error {
	query := `
		UPDATE event_registrations SET is_deleted = TRUE
		WHERE event_id = $1 AND user_id = $2 AND NOT is_deleted
	`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, userID)
	return requireAffected(res, err)
}

func (r *eventRegistrationRepository) Delete(ctx context.Context, eventID, userID string) (*domain.EventRegistration, error) {
	query := `
		DELETE FROM event_registrations
		WHERE event_id = $1 AND user_id = $2
		RETURNING id, event_id, user_id, registered_at, is_deleted
	`
	reg := &domain.EventRegistration{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, userID).
		Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt, &reg.IsDeleted)
	if err != nil {
		return nil, notFound(err)
	}
	return reg, nil
}

func (r *eventRegistrationRepository) ListActiveByEventID(ctx context.Context, eventID string) ([]*domain.EventRegistration, error) {
	query := `
		SELECT id, event_id, user_id, registered_at, is_deleted
		FROM event_registrations
		WHERE event_id = $1 AND NOT is_deleted
		ORDER BY registered_at
	`
	return r.list(ctx, query, eventID)
}

func (r *eventRegistrationRepository) ListActiveByUserID(ctx context.Context, userID string) ([]*domain.EventRegistration, error) {
	query := `
		SELECT id, event_id, user_id, registered_at, is_deleted
		FROM event_registrations
		WHERE user_id = $1 AND NOT is_deleted
		ORDER BY registered_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *eventRegistrationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.EventRegistration, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return []*domain.EventRegistration{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.EventRegistration
	for rows.Next() {
		reg := &domain.EventRegistration{}
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt, &reg.IsDeleted); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.EventRegistration{}
	}
	return regs, nil
}

func (r *eventRegistrationRepository) CountByEventIDs(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	query := `
		SELECT event_id, COUNT(*)
		FROM event_registrations
		WHERE event_id = ANY($1) AND NOT is_deleted
		GROUP BY event_id
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
