// Package memstore is an in-memory stand-in for the Mongo event and booking
// repositories. It keeps the same error contract (sentinel errors, status
// compare-and-set) so services can be exercised without a database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "gather/internal/bookings/errors"
	eventserrors "gather/internal/events/errors"
	mongotx "gather/pkg/db/mongo"
	"gather/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu       sync.Mutex
	events   map[string]*model.Event
	bookings map[string]*model.Booking

	// Fail, when set, is returned by every call before it touches state.
	Fail error
	// BeforeTx runs inside ExecuteTransaction before fn.
	BeforeTx func(ctx context.Context)
}

func New() *Store {
	return &Store{
		events:   make(map[string]*model.Event),
		bookings: make(map[string]*model.Booking),
	}
}

func (s *Store) Events() *Events {
	return &Events{s: s}
}

func (s *Store) Bookings() *Bookings {
	return &Bookings{s: s}
}

// SeedEvent stores a copy of e, assigning an ID when it has none.
func (s *Store) SeedEvent(e model.Event) *model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = primitive.NewObjectID().Hex()
	}
	stored := e
	s.events[e.ID] = &stored
	out := stored
	return &out
}

func (s *Store) SeedBooking(b model.Booking) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = primitive.NewObjectID().Hex()
	}
	stored := b
	s.bookings[b.ID] = &stored
	out := stored
	return &out
}

// Committed sums seat-holding bookings for an event, independent of the
// code under test.
func (s *Store) Committed(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, b := range s.bookings {
		if b.EventID == eventID && b.Status != model.BookingCancelled {
			total += b.Seats
		}
	}
	return total
}

func (s *Store) BookingCount(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.EventID == eventID {
			n++
		}
	}
	return n
}

func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if s.BeforeTx != nil {
		s.BeforeTx(ctx)
	}
	return fn(ctx)
}

// Events implements the event repository contract.
type Events struct {
	s *Store
}

func (r *Events) Create(ctx context.Context, event *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	event.ID = primitive.NewObjectID().Hex()
	event.CreatedAt = now
	event.UpdatedAt = now
	stored := *event
	r.s.events[event.ID] = &stored
	return nil
}

func (r *Events) FindByID(ctx context.Context, id string) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	e, ok := r.s.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrNotFound, id)
	}
	out := *e
	return &out, nil
}

func (r *Events) FindAll(ctx context.Context, status model.EventStatus, limit int, offset int64) ([]*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	var all []*model.Event
	for _, e := range r.s.events {
		if status == "" || e.Status == status {
			out := *e
			all = append(all, &out)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].StartTime.Equal(all[j].StartTime) {
			return all[i].ID < all[j].ID
		}
		return all[i].StartTime.Before(all[j].StartTime)
	})
	return page(all, limit, offset), nil
}

func (r *Events) Count(ctx context.Context, status model.EventStatus) (int64, error) {
	all, err := r.FindAll(ctx, status, 0, 0)
	return int64(len(all)), err
}

func (r *Events) Update(ctx context.Context, event *model.Event) error {
	return r.mutate(event.ID, func(e *model.Event) error {
		e.Title = event.Title
		e.Slug = event.Slug
		e.Description = event.Description
		e.StartTime = event.StartTime
		e.EndTime = event.EndTime
		e.Location = event.Location
		e.Price = event.Price
		return nil
	})
}

func (r *Events) UpdateStatus(ctx context.Context, id string, from, to model.EventStatus) error {
	return r.mutate(id, func(e *model.Event) error {
		if e.Status != from {
			return fmt.Errorf("%w: %s is %s", eventserrors.ErrInvalidTransition, id, e.Status)
		}
		e.Status = to
		return nil
	})
}

func (r *Events) SetCapacity(ctx context.Context, id string, capacity *int) error {
	return r.mutate(id, func(e *model.Event) error {
		if capacity == nil {
			e.Capacity = nil
			return nil
		}
		c := *capacity
		e.Capacity = &c
		return nil
	})
}

func (r *Events) Touch(ctx context.Context, id string) (*model.Event, error) {
	var out model.Event
	err := r.mutate(id, func(e *model.Event) error {
		e.BookingSeq++
		out = *e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Events) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.s.ExecuteTransaction(ctx, fn)
}

func (r *Events) mutate(id string, fn func(e *model.Event) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	e, ok := r.s.events[id]
	if !ok {
		return fmt.Errorf("%w: %s", eventserrors.ErrNotFound, id)
	}
	if err := fn(e); err != nil {
		return err
	}
	e.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return nil
}

// Bookings implements the booking repository contract.
type Bookings struct {
	s *Store
}

func (r *Bookings) Create(ctx context.Context, booking *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	booking.ID = primitive.NewObjectID().Hex()
	stored := *booking
	r.s.bookings[booking.ID] = &stored
	return nil
}

func (r *Bookings) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	out := *b
	return &out, nil
}

func (r *Bookings) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	if b.Status != from {
		return fmt.Errorf("%w: %s is %s", bookingserrors.ErrStatusConflict, id, b.Status)
	}
	b.Status = to
	b.UpdatedAt = at
	return nil
}

func (r *Bookings) FindByEvent(ctx context.Context, eventID string, statuses []model.BookingStatus, limit int, offset int64) ([]*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	all := r.matching(eventID, statuses)
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return page(all, limit, offset), nil
}

func (r *Bookings) CountByEvent(ctx context.Context, eventID string, statuses []model.BookingStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return 0, r.s.Fail
	}
	return int64(len(r.matching(eventID, statuses))), nil
}

func (r *Bookings) SumSeats(ctx context.Context, eventID string, statuses []model.BookingStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return 0, r.s.Fail
	}
	total := 0
	for _, b := range r.matching(eventID, statuses) {
		total += b.Seats
	}
	return total, nil
}

func (r *Bookings) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.s.ExecuteTransaction(ctx, fn)
}

// matching must be called with the store lock held.
func (r *Bookings) matching(eventID string, statuses []model.BookingStatus) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.s.bookings {
		if b.EventID != eventID {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, b.Status) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out
}

func contains(statuses []model.BookingStatus, s model.BookingStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
