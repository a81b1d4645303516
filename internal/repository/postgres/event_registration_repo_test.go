package postgres

import (
	"context"
	"database/sql"
	"testing"

	"eventbooking/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var registrationRowColumns = []string{"id", "event_id", "user_id", "registered_at", "is_deleted"}

func TestEventRegistrationRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO event_registrations \(id, event_id, user_id, registered_at, is_deleted\)`).
					WithArgs("reg-1", "ev-1", "user-1", t0).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "unique violation",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO event_registrations`).WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrAlreadyRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			reg := domain.NewEventRegistration("ev-1", "user-1", t0)
			reg.ID = "reg-1"
			err = NewEventRegistrationRepository(db).Create(ctx, reg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRegistrationRepository_GetByEventAndUser(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM event_registrations WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs("ev-1", "user-1").
		WillReturnRows(sqlmock.NewRows(registrationRowColumns).AddRow("reg-1", "ev-1", "user-1", t0, true))
	mock.ExpectQuery(`FROM event_registrations WHERE event_id = \$1 AND user_id = \$2`).
		WithArgs("ev-1", "user-2").
		WillReturnError(sql.ErrNoRows)

	repo := NewEventRegistrationRepository(db)
	got, err := repo.GetByEventAndUser(ctx, "ev-1", "user-1")
	require.NoError(t, err)
	require.True(t, got.IsDeleted)

	_, err = repo.GetByEventAndUser(ctx, "ev-1", "user-2")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRegistrationRepository_SoftDeleteAndRevive(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEventRegistrationRepository(db)

	mock.ExpectExec(`UPDATE event_registrations SET is_deleted = TRUE WHERE event_id = \$1 AND user_id = \$2 AND NOT is_deleted`).
		WithArgs("ev-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.SoftDeleteActive(ctx, "ev-1", "user-1"), domain.ErrNotFound)

	mock.ExpectExec(`UPDATE event_registrations SET is_deleted = FALSE, registered_at = \$1 WHERE id = \$2 AND is_deleted`).
		WithArgs(t0, "reg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Revive(ctx, "reg-1", t0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRegistrationRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`DELETE FROM event_registrations WHERE event_id = \$1 AND user_id = \$2 RETURNING`).
		WithArgs("ev-1", "user-1").
		WillReturnRows(sqlmock.NewRows(registrationRowColumns).AddRow("reg-1", "ev-1", "user-1", t0, false))

	got, err := NewEventRegistrationRepository(db).Delete(ctx, "ev-1", "user-1")
	require.NoError(t, err)
	require.False(t, got.IsDeleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRegistrationRepository_CountByEventIDs(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE event_id = ANY\(\$1\) AND NOT is_deleted GROUP BY event_id`).
		WithArgs(pq.Array([]string{"ev-1", "ev-2"})).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "count"}).AddRow("ev-1", 2))

	got, err := NewEventRegistrationRepository(db).CountByEventIDs(ctx, []string{"ev-1", "ev-2"})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"ev-1": 2}, got)
	require.NoError(t, mock.ExpectationsWereMet())

	empty, err := NewEventRegistrationRepository(db).CountByEventIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
