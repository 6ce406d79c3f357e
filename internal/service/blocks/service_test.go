package blocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type memSlots struct {
	slots        map[string]*domain.CapacitySlot
	upsertCalls  int
	lastCapacity int
}

func newMemSlots() *memSlots {
	return &memSlots{slots: make(map[string]*domain.CapacitySlot)}
}

func slotKey(key domain.ResourceKey, d types.Date) string {
	return key.String() + "@" + d.String()
}

func (m *memSlots) UpsertBlocked(ctx context.Context, key domain.ResourceKey, dates []types.Date, defaultCapacity int, reason *string) ([]*domain.CapacitySlot, error) {
	m.upsertCalls++
	m.lastCapacity = defaultCapacity
	out := make([]*domain.CapacitySlot, 0, len(dates))
	for _, d := range dates {
		s, ok := m.slots[slotKey(key, d)]
		if !ok {
			s = &domain.CapacitySlot{Resource: key, Date: d, TotalCapacity: defaultCapacity}
			m.slots[slotKey(key, d)] = s
		}
		s.IsBlocked = true
		s.BlockReason = reason
		out = append(out, s)
	}
	return out, nil
}

func (m *memSlots) ClearBlocked(ctx context.Context, key domain.ResourceKey, start, end types.Date) (int64, error) {
	var n int64
	for _, s := range m.slots {
		if s.Resource == key && s.IsBlocked && !s.Date.Before(start) && !s.Date.After(end) {
			s.IsBlocked = false
			s.BlockReason = nil
			n++
		}
	}
	return n, nil
}

func (m *memSlots) ListByResource(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error) {
	out := make([]*domain.CapacitySlot, 0)
	for _, d := range types.DatesInRange(start, end) {
		if s, ok := m.slots[slotKey(key, d)]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type passTx struct{ err error }

func (p *passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.err != nil {
		return p.err
	}
	return fn(ctx)
}

var (
	bus = domain.ResourceKey{Type: domain.ResourceVehicle, ID: 3}
	d1  = types.NewDate(2026, time.July, 1)
	d3  = types.NewDate(2026, time.July, 3)
)

func newTestService(repo *memSlots, tx *passTx) *Service {
	return NewService(repo, tx, Config{
		MaxRangeDays:    30,
		DefaultCapacity: map[domain.ResourceType]int{domain.ResourceVehicle: 45},
	}, logger.NewNop())
}

func TestBlock_CreatesAndBlocksEveryDate(t *testing.T) {
	repo := newMemSlots()
	repo.slots[slotKey(bus, d1)] = &domain.CapacitySlot{Resource: bus, Date: d1, TotalCapacity: 45, ReservedCapacity: 10}
	svc := newTestService(repo, &passTx{})

	slots, err := svc.Block(context.Background(), bus, d1, d3, "  Maintenance ")
	require.NoError(t, err)

	require.Len(t, slots, 3)
	assert.Equal(t, 1, repo.upsertCalls, "the whole range is one statement")
	assert.Equal(t, 45, repo.lastCapacity)
	for _, s := range slots {
		assert.True(t, s.IsBlocked)
		assert.Equal(t, "Maintenance", ptr.Value(s.BlockReason, ""))
		assert.Equal(t, 0, s.AvailableCapacity())
	}
	assert.Equal(t, 10, slots[0].ReservedCapacity, "existing reservations stay")
}

func TestBlock_EmptyReasonStoredAsNull(t *testing.T) {
	repo := newMemSlots()
	svc := newTestService(repo, &passTx{})

	slots, err := svc.Block(context.Background(), bus, d1, d1, "")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Nil(t, slots[0].BlockReason)
}

func TestUnblock_KeepsReservedCapacity(t *testing.T) {
	repo := newMemSlots()
	svc := newTestService(repo, &passTx{})

	_, err := svc.Block(context.Background(), bus, d1, d3, "Maintenance")
	require.NoError(t, err)
	repo.slots[slotKey(bus, d1)].ReservedCapacity = 5

	slots, err := svc.Unblock(context.Background(), bus, d1, d3)
	require.NoError(t, err)

	require.Len(t, slots, 3)
	for _, s := range slots {
		assert.False(t, s.IsBlocked)
		assert.Nil(t, s.BlockReason)
	}
	assert.Equal(t, 5, slots[0].ReservedCapacity)
	assert.Equal(t, 40, slots[0].AvailableCapacity())
}

func TestBlock_Validation(t *testing.T) {
	svc := newTestService(newMemSlots(), &passTx{})

	_, err := svc.Block(context.Background(), bus, d3, d1, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Block(context.Background(), bus, d1, d1.AddDays(30), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "31 days exceed the configured maximum")

	_, err = svc.Unblock(context.Background(), domain.ResourceKey{Type: domain.ResourceGuide}, d1, d3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBlock_StorageErrors(t *testing.T) {
	svc := newTestService(newMemSlots(), &passTx{err: txmanager.ErrTemporarilyUnavailable})
	_, err := svc.Block(context.Background(), bus, d1, d3, "x")
	assert.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)

	svc = newTestService(newMemSlots(), &passTx{err: errors.New("boom")})
	_, err = svc.Unblock(context.Background(), bus, d1, d3)
	assert.ErrorIs(t, err, ErrInternal)
}
