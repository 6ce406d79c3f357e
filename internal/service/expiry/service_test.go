package expiry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/lease"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// memHolds хранит холды и освобождает их так же, как координатор резервирования:
// истёкшее бронирование снимается целиком вместе с возвратом емкости
type memHolds struct {
	mu       sync.Mutex
	holds    map[int64][]domain.ReservationHold
	reserved map[domain.SlotRef]int
	failFor  map[int64]error
	listErr  error
	listed   int
}

func newMemHolds() *memHolds {
	return &memHolds{
		holds:    make(map[int64][]domain.ReservationHold),
		reserved: make(map[domain.SlotRef]int),
		failFor:  make(map[int64]error),
	}
}

func (m *memHolds) add(h domain.ReservationHold) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holds[h.BookingID] = append(m.holds[h.BookingID], h)
	m.reserved[h.Ref()] += h.Quantity
}

func (m *memHolds) ListExpiredBookingIDs(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed++
	if m.listErr != nil {
		return nil, m.listErr
	}

	ids := make([]int64, 0)
	for id, holds := range m.holds {
		if bookingExpired(holds, now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memHolds) ReleaseExpired(ctx context.Context, bookingID int64, now time.Time) (*reservations.BookingReleaseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[bookingID]; err != nil {
		return nil, err
	}

	res := &reservations.BookingReleaseResult{BookingID: bookingID, Released: []reservations.ReleasedHold{}}
	if !bookingExpired(m.holds[bookingID], now) {
		return res, nil
	}
	for _, h := range m.holds[bookingID] {
		m.reserved[h.Ref()] -= h.Quantity
		res.Released = append(res.Released, reservations.ReleasedHold{Resource: h.Resource, Date: h.Date, Quantity: h.Quantity})
	}
	delete(m.holds, bookingID)
	return res, nil
}

func bookingExpired(holds []domain.ReservationHold, now time.Time) bool {
	expired := false
	for _, h := range holds {
		if !h.IsPending() {
			return false
		}
		if h.IsExpired(now) {
			expired = true
		}
	}
	return expired
}

type countMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countMetrics) IncHoldsExpired(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[result]++
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

var (
	now   = time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	coach = domain.ResourceKey{Type: domain.ResourceVehicle, ID: 1}
	may5  = types.NewDate(2026, time.May, 5)
)

func heldHold(bookingID int64, quantity int, expiresAt time.Time) domain.ReservationHold {
	return domain.ReservationHold{
		Resource:  coach,
		Date:      may5,
		BookingID: bookingID,
		Quantity:  quantity,
		Status:    domain.HoldStatusHeld,
		ExpiresAt: &expiresAt,
	}
}

func newTestService(repo *memHolds, l Lease) (*Service, *countMetrics) {
	m := &countMetrics{}
	svc := NewService(repo, repo, l, m, Config{Interval: 5 * time.Millisecond, BatchSize: 10}, logger.NewNop())
	svc.timeProvider = fixedTime{now: now}
	return svc, m
}

func TestSweep_ReleasesOnceAndOnlyExpired(t *testing.T) {
	repo := newMemHolds()
	repo.add(heldHold(10, 3, now.Add(-time.Second)))
	repo.add(heldHold(20, 2, now.Add(time.Minute)))
	svc, m := newTestService(repo, nil)

	expired, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, expired)
	assert.Equal(t, 2, repo.reserved[domain.SlotRef{Resource: coach, Date: may5}])

	again, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, again, "second sweep finds nothing to release")
	assert.Equal(t, 2, repo.reserved[domain.SlotRef{Resource: coach, Date: may5}])
	assert.Equal(t, 1, m.counts[resultExpired])
}

func TestSweep_ConfirmedHoldsNeverExpire(t *testing.T) {
	repo := newMemHolds()
	confirmed := heldHold(10, 3, now.Add(-time.Hour))
	confirmed.Status = domain.HoldStatusConfirmed
	confirmed.ExpiresAt = nil
	repo.add(confirmed)
	svc, _ := newTestService(repo, nil)

	expired, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestSweep_ReleasesWholeBookingOnFirstExpiredHold(t *testing.T) {
	repo := newMemHolds()
	repo.add(heldHold(10, 3, now.Add(-time.Minute)))
	later := heldHold(10, 2, now.Add(9*time.Minute))
	later.Date = may5.AddDays(1)
	repo.add(later)
	svc, _ := newTestService(repo, nil)

	expired, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, expired)
	assert.Zero(t, repo.reserved[domain.SlotRef{Resource: coach, Date: may5}])
	assert.Zero(t, repo.reserved[domain.SlotRef{Resource: coach, Date: may5.AddDays(1)}])
}

func TestSweep_SkipsConfirmedBookingWithExpiredExtraDate(t *testing.T) {
	repo := newMemHolds()
	confirmed := heldHold(10, 3, now)
	confirmed.Status = domain.HoldStatusConfirmed
	confirmed.ExpiresAt = nil
	repo.add(confirmed)
	extra := heldHold(10, 1, now.Add(-time.Minute))
	extra.Date = may5.AddDays(1)
	repo.add(extra)
	svc, m := newTestService(repo, nil)

	expired, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, expired)
	assert.Equal(t, 1, repo.reserved[domain.SlotRef{Resource: coach, Date: may5.AddDays(1)}])
	assert.Zero(t, m.counts[resultExpired])
}

func TestSweep_OneFailureDoesNotStopOthers(t *testing.T) {
	repo := newMemHolds()
	repo.add(heldHold(10, 1, now.Add(-time.Second)))
	repo.add(heldHold(20, 1, now.Add(-time.Second)))
	repo.failFor[10] = domain.ErrTemporarilyUnavailable
	svc, m := newTestService(repo, nil)

	expired, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, expired)
	assert.Equal(t, 1, m.counts[resultError])
}

func TestSweep_ListError(t *testing.T) {
	repo := newMemHolds()
	repo.listErr = txmanager.ErrTemporarilyUnavailable
	svc, _ := newTestService(repo, nil)

	_, err := svc.Sweep(context.Background(), now)
	assert.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)

	repo.listErr = errors.New("syntax error")
	_, err = svc.Sweep(context.Background(), now)
	assert.ErrorIs(t, err, ErrInternal)
}

func newLease(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTick_SkipsWhileAnotherInstanceHoldsLease(t *testing.T) {
	mr, client := newLease(t)
	repo := newMemHolds()
	repo.add(heldHold(10, 1, now.Add(-time.Second)))

	other := lease.New(client, "availability:sweep", time.Minute)
	_, ok, err := other.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	svc, _ := newTestService(repo, lease.New(client, "availability:sweep", time.Minute))

	require.NoError(t, svc.tick(context.Background()))
	assert.Equal(t, 0, repo.listed)

	mr.FastForward(2 * time.Minute)

	require.NoError(t, svc.tick(context.Background()))
	assert.Equal(t, 1, repo.listed)
	assert.False(t, mr.Exists("availability:sweep"), "lease is released after the sweep")
}

func TestTick_SweepsWhenRedisIsDown(t *testing.T) {
	mr, client := newLease(t)
	repo := newMemHolds()
	svc, _ := newTestService(repo, lease.New(client, "availability:sweep", time.Minute))
	mr.Close()

	require.NoError(t, svc.tick(context.Background()))
	assert.Equal(t, 1, repo.listed)
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := newMemHolds()
	repo.add(heldHold(10, 1, now.Add(-time.Second)))
	svc, _ := newTestService(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.listed >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.holds[10])
}
