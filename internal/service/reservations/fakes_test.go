package reservations

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	holdRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/hold"
	slotRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type holdKey struct {
	ref       domain.SlotRef
	bookingID int64
}

// memDB общее состояние фейковых репозиториев; fakeTx откатывает его при ошибке
type memDB struct {
	slots  map[domain.SlotRef]domain.CapacitySlot
	holds  map[holdKey]domain.ReservationHold
	nextID int64
	seq    int
}

func newMemDB() *memDB {
	return &memDB{
		slots: make(map[domain.SlotRef]domain.CapacitySlot),
		holds: make(map[holdKey]domain.ReservationHold),
	}
}

func (db *memDB) clone() *memDB {
	c := &memDB{
		slots:  make(map[domain.SlotRef]domain.CapacitySlot, len(db.slots)),
		holds:  make(map[holdKey]domain.ReservationHold, len(db.holds)),
		nextID: db.nextID,
		seq:    db.seq,
	}
	for k, v := range db.slots {
		c.slots[k] = v
	}
	for k, v := range db.holds {
		c.holds[k] = v
	}
	return c
}

// slot возвращает копию слота; у отсутствующего слота все поля нулевые
func (db *memDB) slot(key domain.ResourceKey, date types.Date) *domain.CapacitySlot {
	s := db.slots[domain.SlotRef{Resource: key, Date: date}]
	return &s
}

func (db *memDB) hold(key domain.ResourceKey, date types.Date, bookingID int64) (domain.ReservationHold, bool) {
	h, ok := db.holds[holdKey{ref: domain.SlotRef{Resource: key, Date: date}, bookingID: bookingID}]
	return h, ok
}

func (db *memDB) putSlot(s domain.CapacitySlot) {
	db.nextID++
	s.ID = db.nextID
	if s.Version == 0 {
		s.Version = 1
	}
	db.slots[domain.SlotRef{Resource: s.Resource, Date: s.Date}] = s
}

func (db *memDB) putHold(h domain.ReservationHold) {
	db.seq++
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Date(2026, 1, 1, 0, 0, db.seq, 0, time.UTC)
	}
	db.holds[holdKey{ref: h.Ref(), bookingID: h.BookingID}] = h
}

type fakeTx struct {
	db    *memDB
	err   error
	calls int
}

func (f *fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	snapshot := f.db.clone()
	if err := fn(ctx); err != nil {
		*f.db = *snapshot
		return err
	}
	return nil
}

type memSlots struct{ db *memDB }

func (m *memSlots) GetOrCreate(ctx context.Context, key domain.ResourceKey, date types.Date, defaultCapacity int) (*domain.CapacitySlot, error) {
	ref := domain.SlotRef{Resource: key, Date: date}
	if _, ok := m.db.slots[ref]; !ok {
		m.db.putSlot(domain.CapacitySlot{Resource: key, Date: date, TotalCapacity: defaultCapacity})
	}
	s := m.db.slots[ref]
	return &s, nil
}

func (m *memSlots) Get(ctx context.Context, key domain.ResourceKey, date types.Date) (*domain.CapacitySlot, error) {
	s, ok := m.db.slots[domain.SlotRef{Resource: key, Date: date}]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	return &s, nil
}

func (m *memSlots) Update(ctx context.Context, slot *domain.CapacitySlot) error {
	ref := domain.SlotRef{Resource: slot.Resource, Date: slot.Date}
	stored, ok := m.db.slots[ref]
	if !ok || stored.Version != slot.Version {
		return slotRepo.ErrVersionConflict
	}
	if err := slot.CheckInvariant(); err != nil {
		return err
	}
	slot.Version++
	m.db.slots[ref] = *slot
	return nil
}

type memHolds struct{ db *memDB }

func (m *memHolds) Get(ctx context.Context, key domain.ResourceKey, date types.Date, bookingID int64) (*domain.ReservationHold, error) {
	h, ok := m.db.hold(key, date, bookingID)
	if !ok {
		return nil, holdRepo.ErrHoldNotFound
	}
	return &h, nil
}

func (m *memHolds) Upsert(ctx context.Context, hold *domain.ReservationHold) error {
	if existing, ok := m.db.hold(hold.Resource, hold.Date, hold.BookingID); ok {
		hold.CreatedAt = existing.CreatedAt
	}
	m.db.putHold(*hold)
	stored, _ := m.db.hold(hold.Resource, hold.Date, hold.BookingID)
	hold.CreatedAt = stored.CreatedAt
	return nil
}

func (m *memHolds) filter(keep func(h domain.ReservationHold) bool) []*domain.ReservationHold {
	out := make([]*domain.ReservationHold, 0)
	for _, h := range m.db.holds {
		if keep(h) {
			h := h
			out = append(out, &h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref().Less(out[j].Ref()) })
	return out
}

func (m *memHolds) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.ReservationHold, error) {
	return m.filter(func(h domain.ReservationHold) bool { return h.BookingID == bookingID }), nil
}

func (m *memHolds) ListBySlot(ctx context.Context, key domain.ResourceKey, date types.Date) ([]*domain.ReservationHold, error) {
	out := m.filter(func(h domain.ReservationHold) bool { return h.Resource == key && h.Date.Equal(date) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memHolds) Confirm(ctx context.Context, bookingID int64) (int64, error) {
	var n int64
	for k, h := range m.db.holds {
		if h.BookingID == bookingID && h.IsPending() {
			h.Status = domain.HoldStatusConfirmed
			h.ExpiresAt = nil
			m.db.holds[k] = h
			n++
		}
	}
	return n, nil
}

func (m *memHolds) Delete(ctx context.Context, key domain.ResourceKey, date types.Date, bookingID int64) error {
	k := holdKey{ref: domain.SlotRef{Resource: key, Date: date}, bookingID: bookingID}
	if _, ok := m.db.holds[k]; !ok {
		return holdRepo.ErrHoldNotFound
	}
	delete(m.db.holds, k)
	return nil
}

type fakeMetrics struct {
	reservations map[string]int
	released     map[string]int
	warnings     int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{reservations: map[string]int{}, released: map[string]int{}}
}

func (f *fakeMetrics) IncReservation(resourceType, result string) { f.reservations[result]++ }
func (f *fakeMetrics) AddReleased(reason string, units int)        { f.released[reason] += units }
func (f *fakeMetrics) IncReleaseWarning(resourceType string)       { f.warnings++ }

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }
