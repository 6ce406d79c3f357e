package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
)

const (
	resultExpired = "expired"
	resultError   = "error"
)

// Config параметры периодического sweep
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Service освобождает холды, не подтверждённые до истечения TTL.
// Параллельные sweep безопасны: холд удаляется в той же транзакции, что и освобождение емкости.
type Service struct {
	holdRepo     HoldRepository
	releaser     Releaser
	lease        Lease
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
	cfg          Config
}

// NewService создает новый экземпляр sweep. lease может быть nil.
func NewService(holdRepo HoldRepository, releaser Releaser, lease Lease, metrics Metrics, cfg Config, logger Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = domain.DefaultSweepIntervalSecond * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultSweepBatchSize
	}
	return &Service{
		holdRepo:     holdRepo,
		releaser:     releaser,
		lease:        lease,
		metrics:      metrics,
		timeProvider: &reservations.RealTimeProvider{},
		logger:       logger,
		cfg:          cfg,
	}
}

// Sweep снимает истёкшие бронирования (все холды ожидающие, хотя бы один истёк к now) и возвращает их ID.
// Бронирования с подтверждённым холдом не трогаются.
// Ошибка по одному бронированию не останавливает остальные: оно будет повторено на следующем тике.
func (s *Service) Sweep(ctx context.Context, now time.Time) ([]int64, error) {
	bookingIDs, err := s.holdRepo.ListExpiredBookingIDs(ctx, now, s.cfg.BatchSize)
	if err != nil {
		if txmanager.IsTransient(err) {
			s.logger.Warn("Sweep: storage temporarily unavailable: %v", err)
			return nil, fmt.Errorf("%w: Sweep: %v", domain.ErrTemporarilyUnavailable, err)
		}
		s.logger.Error("Sweep: failed to list expired holds: %v", err)
		return nil, fmt.Errorf("%w: Sweep: %v", ErrInternal, err)
	}

	expired := make([]int64, 0, len(bookingIDs))
	for _, bookingID := range bookingIDs {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}

		res, err := s.releaser.ReleaseExpired(ctx, bookingID, now)
		if err != nil {
			s.metrics.IncHoldsExpired(resultError)
			s.logger.Error("Sweep: booking=%d release failed: %v", bookingID, err)
			continue
		}
		// холды успел подтвердить или отменить другой запрос
		if len(res.Released) == 0 {
			continue
		}

		s.metrics.IncHoldsExpired(resultExpired)
		expired = append(expired, bookingID)
	}

	if len(expired) > 0 {
		s.logger.Info("Sweep: expired %d bookings: %v", len(expired), expired)
	}
	return expired, nil
}

// Run запускает sweep по таймеру до отмены ctx
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("Run: expiry sweep every %s, batch=%d", s.cfg.Interval, s.cfg.BatchSize)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		if err := s.tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Run: sweep failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) tick(ctx context.Context) error {
	if s.lease != nil {
		token, ok, err := s.lease.TryAcquire(ctx)
		if err != nil {
			// без Redis sweep всё равно корректен, аренда только экономит работу
			s.logger.Warn("tick: lease unavailable, sweeping anyway: %v", err)
		} else if !ok {
			return nil
		} else {
			defer func() {
				if err := s.lease.Release(context.WithoutCancel(ctx), token); err != nil {
					s.logger.Warn("tick: release lease: %v", err)
				}
			}()
		}
	}

	_, err := s.Sweep(ctx, s.timeProvider.Now())
	return err
}
