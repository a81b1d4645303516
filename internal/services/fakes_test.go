package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"eventbooking/internal/domain"
)

var (
	testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	testNow    = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

const testTimeout = 5 * time.Second

// snapshotter lets fakeTx roll a fake store back when a transaction fails.
type snapshotter interface {
	snapshot() (restore func())
}

type txCtxKey struct{}

// fakeTx serializes transactions the way row locks would and restores the
// registered stores when fn fails.
type fakeTx struct {
	mu     sync.Mutex
	stores []snapshotter
}

func newFakeTx(stores ...snapshotter) *fakeTx {
	return &fakeTx{stores: stores}
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txCtxKey{}) != nil {
		return fn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	restores := make([]func(), 0, len(f.stores))
	for _, s := range f.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(context.WithValue(ctx, txCtxKey{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Event
	err  error // if set, Create returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event)}
}

func copyEvent(e *domain.Event) *domain.Event {
	cp := *e
	cp.Venue = nil
	return &cp
}

func (f *fakeEventRepo) put(e *domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[e.ID] = copyEvent(e)
}

func (f *fakeEventRepo) raw(id string) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[id]; ok {
		return copyEvent(e)
	}
	return nil
}

func (f *fakeEventRepo) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := make(map[string]*domain.Event, len(f.byID))
	for id, e := range f.byID {
		saved[id] = copyEvent(e)
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.byID = saved
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.put(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[id]; ok && !e.IsDeleted {
		return copyEvent(e), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return f.GetByID(ctx, id)
}

func matchesFilter(e *domain.Event, filter domain.EventFilter) bool {
	if e.IsDeleted {
		return false
	}
	if filter.OrganizerID != "" && e.CreatedByID != filter.OrganizerID {
		return false
	}
	if filter.Status == "" {
		return true
	}
	if filter.Now.IsZero() {
		return e.Status == filter.Status
	}
	return e.EffectiveStatus(filter.Now) == filter.Status
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*domain.Event
	for _, e := range f.byID {
		if matchesFilter(e, filter) {
			all = append(all, copyEvent(e))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeEventRepo) ListAll(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Event, 0)
	for _, e := range f.byID {
		if matchesFilter(e, domain.EventFilter{OrganizerID: organizerID}) {
			out = append(out, copyEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeEventRepo) UpdateFields(ctx context.Context, id string, fields domain.EventFields, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok || e.IsDeleted {
		return domain.ErrNotFound
	}
	e.Apply(fields)
	e.UpdatedAt = updatedAt
	return nil
}

func (f *fakeEventRepo) CompareAndSetStatus(ctx context.Context, id string, current, next domain.EventStatus, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok || e.IsDeleted || e.Status != current {
		return domain.ErrNotModified
	}
	e.Status = next
	e.UpdatedAt = updatedAt
	return nil
}

func (f *fakeEventRepo) SoftDelete(ctx context.Context, id string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok || e.IsDeleted {
		return domain.ErrNotFound
	}
	e.IsDeleted = true
	e.UpdatedAt = updatedAt
	return nil
}

func (f *fakeEventRepo) MarkExpired(ctx context.Context, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0)
	for id, e := range f.byID {
		if !e.IsDeleted && domain.CanExpire(e.Status) && e.Date.Before(now) {
			e.Status = domain.EventStatusExpired
			e.UpdatedAt = now
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeEventRepo) IncrementRegistrations(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok || e.IsDeleted || e.CurrentRegistrations >= e.MaxRegistrations {
		return domain.ErrCapacityExceeded
	}
	e.CurrentRegistrations++
	return nil
}

func (f *fakeEventRepo) DecrementRegistrations(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok || e.CurrentRegistrations == 0 {
		return domain.ErrNotFound
	}
	e.CurrentRegistrations--
	return nil
}

func (f *fakeEventRepo) CountByVenue(ctx context.Context, venueID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.byID {
		if !e.IsDeleted && e.VenueID == venueID {
			n++
		}
	}
	return n, nil
}

// fakeVenueRepo is an in-memory VenueRepository for tests.
type fakeVenueRepo struct {
	mu       sync.Mutex
	venues   map[string]*domain.Venue
	bookings []*domain.Booking
	nextID   int
}

func newFakeVenueRepo(venues ...*domain.Venue) *fakeVenueRepo {
	f := &fakeVenueRepo{venues: make(map[string]*domain.Venue)}
	for _, v := range venues {
		f.venues[v.ID] = v
	}
	return f
}

func (f *fakeVenueRepo) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	venues := make(map[string]*domain.Venue, len(f.venues))
	for id, v := range f.venues {
		venues[id] = v
	}
	bookings := append([]*domain.Booking(nil), f.bookings...)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.venues = venues
		f.bookings = bookings
	}
}

func (f *fakeVenueRepo) withBookings(v *domain.Venue) *domain.Venue {
	cp := *v
	cp.Bookings = []*domain.Booking{}
	for _, b := range f.bookings {
		if b.VenueID == v.ID {
			cp.Bookings = append(cp.Bookings, b)
		}
	}
	return &cp
}

func (f *fakeVenueRepo) bookingsFor(eventID string) []*domain.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeVenueRepo) Create(ctx context.Context, v *domain.Venue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.venues[v.ID] = v
	return nil
}

func (f *fakeVenueRepo) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.venues[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f.withBookings(v), nil
}

func (f *fakeVenueRepo) List(ctx context.Context, city string) ([]*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Venue, 0)
	for _, v := range f.venues {
		if city == "" || strings.EqualFold(v.City, city) {
			out = append(out, f.withBookings(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVenueRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Venue, 0, len(ids))
	for _, id := range ids {
		if v, ok := f.venues[id]; ok {
			out = append(out, f.withBookings(v))
		}
	}
	return out, nil
}

func (f *fakeVenueRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.venues[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.venues, id)
	return nil
}

func (f *fakeVenueRepo) LockByID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.venues[id]; !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (f *fakeVenueRepo) ListBookings(ctx context.Context, venueID string, date time.Time) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Booking, 0)
	for _, b := range f.bookings {
		if b.VenueID == venueID && domain.DateOnly(b.Date).Equal(domain.DateOnly(date)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeVenueRepo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.venues[b.VenueID]; !ok {
		return domain.ErrNotFound
	}
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeVenueRepo) DeleteBooking(ctx context.Context, venueID, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.bookings {
		if b.ID == bookingID && b.VenueID == venueID {
			f.bookings = append(f.bookings[:i:i], f.bookings[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeVenueRepo) DeleteBookingsForEvent(ctx context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make([]*domain.Booking, 0, len(f.bookings))
	for _, b := range f.bookings {
		if b.EventID != eventID {
			kept = append(kept, b)
		}
	}
	n := len(f.bookings) - len(kept)
	f.bookings = kept
	return n, nil
}

func (f *fakeVenueRepo) CountBookings(ctx context.Context, venueID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.bookings {
		if b.VenueID == venueID {
			n++
		}
	}
	return n, nil
}

// fakeRegistrationRepo is an in-memory EventRegistrationRepository for tests.
type fakeRegistrationRepo struct {
	mu   sync.Mutex
	rows []*domain.EventRegistration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{}
}

func (f *fakeRegistrationRepo) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := make([]*domain.EventRegistration, 0, len(f.rows))
	for _, r := range f.rows {
		cp := *r
		saved = append(saved, &cp)
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.rows = saved
	}
}

// rowsFor returns every row for the pair, active or not.
func (f *fakeRegistrationRepo) rowsFor(eventID, userID string) []*domain.EventRegistration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EventRegistration
	for _, r := range f.rows {
		if r.EventID == eventID && r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeRegistrationRepo) activeCount(eventID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.EventID == eventID && !r.IsDeleted {
			n++
		}
	}
	return n
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, reg *domain.EventRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.EventID == reg.EventID && r.UserID == reg.UserID {
			return domain.ErrAlreadyRegistered
		}
	}
	cp := *reg
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeRegistrationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.EventID == eventID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) Revive(ctx context.Context, id string, registeredAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id && r.IsDeleted {
			r.IsDeleted = false
			r.RegisteredAt = registeredAt
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeRegistrationRepo) SoftDeleteActive(ctx context.Context, eventID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.EventID == eventID && r.UserID == userID && !r.IsDeleted {
			r.IsDeleted = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeRegistrationRepo) Delete(ctx context.Context, eventID, userID string) (*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.EventID == eventID && r.UserID == userID {
			f.rows = append(f.rows[:i:i], f.rows[i+1:]...)
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) list(match func(r *domain.EventRegistration) bool) []*domain.EventRegistration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.EventRegistration, 0)
	for _, r := range f.rows {
		if !r.IsDeleted && match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeRegistrationRepo) ListActiveByEventID(ctx context.Context, eventID string) ([]*domain.EventRegistration, error) {
	return f.list(func(r *domain.EventRegistration) bool { return r.EventID == eventID }), nil
}

func (f *fakeRegistrationRepo) ListActiveByUserID(ctx context.Context, userID string) ([]*domain.EventRegistration, error) {
	return f.list(func(r *domain.EventRegistration) bool { return r.UserID == userID }), nil
}

func (f *fakeRegistrationRepo) CountByEventIDs(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, id := range eventIDs {
		if n := f.activeCount(id); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []domain.EventStatusChanged
	err  error
}

func (f *fakeNotifier) PublishStatusChanged(ctx context.Context, msg domain.EventStatusChanged) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.TicketEmailData
	err  error
}

func (f *fakeEmailService) SendTicket(ctx context.Context, data *domain.TicketEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

func testVenue(id string) *domain.Venue {
	v := domain.NewVenue("CA", "Oakland", "Fox Theater", "1807 Telegraph Ave", 500, []string{"wifi"}, testNow)
	v.ID = id
	return v
}

func testEvent(id string, status domain.EventStatus, date time.Time) *domain.Event {
	e := domain.NewEvent(domain.EventFields{
		Title:            "Event " + id,
		Date:             date,
		TimeSlot:         "10:00",
		Duration:         60,
		VenueID:          "venue-1",
		Category:         "Music",
		Price:            100,
		MaxRegistrations: 10,
	}, "org-1", testNow, testNow)
	e.ID = id
	e.Status = status
	return e
}
