package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	holdRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/hold"
	slotRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

const (
	resultOK           = "ok"
	resultIdempotent   = "idempotent"
	resultInsufficient = "insufficient_capacity"
	resultBlocked      = "blocked"
	resultError        = "error"

	reasonRelease = "release"
	reasonBooking = "booking_release"
	reasonExpired = "expired"
)

// Service координатор резервирования общей емкости слотов.
// Каждая операция выполняется в одной транзакции: слот блокируется (FOR UPDATE)
// и сохраняется с проверкой версии.
type Service struct {
	slotRepo     SlotRepository
	holdRepo     HoldRepository
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
	cfg          Config
}

// NewService создает новый экземпляр координатора резервирования
func NewService(
	slotRepo SlotRepository,
	holdRepo HoldRepository,
	txManager TransactionManager,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *Service {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = domain.DefaultHoldTTLSeconds * time.Second
	}
	if cfg.FallbackCapacity <= 0 {
		cfg.FallbackCapacity = 1
	}
	return &Service{
		slotRepo:     slotRepo,
		holdRepo:     holdRepo,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		cfg:          cfg,
	}
}

// Reserve резервирует quantity единиц слота под бронирование.
// Повторный вызов с тем же количеством ничего не меняет; с другим - меняет холд на разницу.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	s.logger.Info("Reserve: resource=%s, date=%s, quantity=%d, booking=%d",
		req.Resource, req.Date, req.Quantity, req.BookingID)

	if err := validateReserve(req); err != nil {
		s.logger.Warn("Reserve: validation failed: %v", err)
		return nil, err
	}

	defaultCapacity := s.defaultCapacity(req.Resource.Type, req.DefaultCapacity)
	now := s.timeProvider.Now()

	var result *ReserveResult
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		result = nil

		slot, err := s.slotRepo.GetOrCreate(txCtx, req.Resource, req.Date, defaultCapacity)
		if err != nil {
			return err
		}

		hold, err := s.holdRepo.Get(txCtx, req.Resource, req.Date, req.BookingID)
		if err != nil && !errors.Is(err, holdRepo.ErrHoldNotFound) {
			return err
		}

		held := 0
		if hold != nil {
			held = hold.Quantity
			if held == req.Quantity {
				result = &ReserveResult{Slot: slot, Hold: hold, Idempotent: true}
				return nil
			}
		}

		delta := req.Quantity - held
		if delta > 0 {
			if slot.IsBlocked {
				return &domain.ResourceBlockedError{
					Resource: req.Resource,
					Date:     req.Date,
					Reason:   ptr.Value(slot.BlockReason, ""),
				}
			}
			if available := slot.AvailableCapacity(); available < delta {
				return &domain.InsufficientCapacityError{
					Resource:  req.Resource,
					Date:      req.Date,
					Requested: delta,
					Available: available,
				}
			}
		}

		slot.ReservedCapacity += delta
		if req.Quantity == slot.TotalCapacity {
			bookingID := req.BookingID
			slot.HolderBookingID = &bookingID
		} else if slot.ReservedCapacity < slot.TotalCapacity {
			slot.HolderBookingID = nil
		}

		if err := s.slotRepo.Update(txCtx, slot); err != nil {
			return err
		}

		if hold == nil {
			hold = &domain.ReservationHold{
				Resource:  req.Resource,
				Date:      req.Date,
				BookingID: req.BookingID,
				Status:    domain.HoldStatusHeld,
			}
		}
		hold.Quantity = req.Quantity
		if hold.IsPending() {
			expiresAt := now.Add(s.cfg.HoldTTL)
			hold.ExpiresAt = &expiresAt
		}

		if err := s.holdRepo.Upsert(txCtx, hold); err != nil {
			return err
		}

		result = &ReserveResult{Slot: slot, Hold: hold}
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientCapacity):
			s.metrics.IncReservation(string(req.Resource.Type), resultInsufficient)
			s.logger.Warn("Reserve: insufficient capacity: %v", err)
			return nil, err
		case errors.Is(err, domain.ErrResourceBlocked):
			s.metrics.IncReservation(string(req.Resource.Type), resultBlocked)
			s.logger.Warn("Reserve: resource blocked: %v", err)
			return nil, err
		}
		s.metrics.IncReservation(string(req.Resource.Type), resultError)
		return nil, s.fail("Reserve", err)
	}

	if result.Idempotent {
		s.metrics.IncReservation(string(req.Resource.Type), resultIdempotent)
		s.logger.Info("Reserve: booking=%d already holds %d on %s %s, nothing to do",
			req.BookingID, req.Quantity, req.Resource, req.Date)
		return result, nil
	}

	s.metrics.IncReservation(string(req.Resource.Type), resultOK)
	s.logger.Info("Reserve: booking=%d holds %d on %s %s, reserved=%d/%d",
		req.BookingID, req.Quantity, req.Resource, req.Date, result.Slot.ReservedCapacity, result.Slot.TotalCapacity)
	return result, nil
}

// Release уменьшает резерв слота на min(quantity, reserved).
// Если запрошено больше, чем зарезервировано, результат содержит предупреждение, а не ошибку.
// Холды слота урезаются (новые первыми), чтобы их сумма не превышала резерв.
func (s *Service) Release(ctx context.Context, key domain.ResourceKey, date types.Date, quantity int) (*ReleaseResult, error) {
	s.logger.Info("Release: resource=%s, date=%s, quantity=%d", key, date, quantity)

	if err := key.Validate(); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}

	var result *ReleaseResult
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		result = &ReleaseResult{Requested: quantity}

		slot, err := s.slotRepo.Get(txCtx, key, date)
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		released := quantity
		if released > slot.ReservedCapacity {
			released = slot.ReservedCapacity
		}

		if released > 0 {
			slot.ReservedCapacity -= released
			if slot.ReservedCapacity < slot.TotalCapacity {
				slot.HolderBookingID = nil
			}
			if err := s.slotRepo.Update(txCtx, slot); err != nil {
				return err
			}
		}

		trimmed, err := s.trimHolds(txCtx, slot)
		if err != nil {
			return err
		}

		result.Slot = slot
		result.Released = released
		result.TrimmedHolds = trimmed
		return nil
	})
	if err != nil {
		return nil, s.fail("Release", err)
	}

	if result.Released < quantity {
		result.Warning = &domain.ReleaseExceedsReservedError{
			Resource:  key,
			Date:      date,
			Requested: quantity,
			Released:  result.Released,
		}
		s.metrics.IncReleaseWarning(string(key.Type))
		s.logger.Warn("Release: %v", result.Warning)
	}

	s.metrics.AddReleased(reasonRelease, result.Released)
	s.logger.Info("Release: released %d on %s %s, trimmed holds=%d", result.Released, key, date, result.TrimmedHolds)
	return result, nil
}

// ReleaseForBooking возвращает ровно ту емкость, что записана в холдах бронирования, и удаляет холды.
// Слоты блокируются в порядке (type, id, date). Бронирование без холдов - не ошибка.
func (s *Service) ReleaseForBooking(ctx context.Context, bookingID int64) (*BookingReleaseResult, error) {
	s.logger.Info("ReleaseForBooking: booking=%d", bookingID)

	if bookingID <= 0 {
		return nil, fmt.Errorf("%w: booking id must be positive", domain.ErrInvalidInput)
	}

	var result *BookingReleaseResult
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		result = &BookingReleaseResult{BookingID: bookingID, Released: []ReleasedHold{}}

		holds, err := s.holdRepo.ListByBooking(txCtx, bookingID)
		if err != nil {
			return err
		}

		for _, listed := range holds {
			released, err := s.releaseHold(txCtx, listed.Ref(), bookingID)
			if err != nil {
				return err
			}
			if released != nil {
				result.Released = append(result.Released, *released)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("ReleaseForBooking", err)
	}

	s.metrics.AddReleased(reasonBooking, result.Units())
	s.logger.Info("ReleaseForBooking: booking=%d released %d units over %d slots",
		bookingID, result.Units(), len(result.Released))
	return result, nil
}

// ConfirmBooking переводит ожидающие холды бронирования в подтверждённые: они больше не истекают.
// Повторное подтверждение ничего не меняет.
func (s *Service) ConfirmBooking(ctx context.Context, bookingID int64) (int, error) {
	s.logger.Info("ConfirmBooking: booking=%d", bookingID)

	if bookingID <= 0 {
		return 0, fmt.Errorf("%w: booking id must be positive", domain.ErrInvalidInput)
	}

	now := s.timeProvider.Now()

	var confirmed int
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		confirmed = 0

		listed, err := s.holdRepo.ListByBooking(txCtx, bookingID)
		if err != nil {
			return err
		}

		// холды блокируются по одному в порядке слотов, как их берёт sweep
		holds := make([]*domain.ReservationHold, 0, len(listed))
		for _, l := range listed {
			h, err := s.holdRepo.Get(txCtx, l.Resource, l.Date, bookingID)
			if errors.Is(err, holdRepo.ErrHoldNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			holds = append(holds, h)
		}
		if len(holds) == 0 {
			return fmt.Errorf("%w: booking %d", domain.ErrHoldNotFound, bookingID)
		}

		pending := 0
		for _, h := range holds {
			if !h.IsPending() {
				continue
			}
			if h.IsExpired(now) {
				return fmt.Errorf("%w: booking %d hold on %s %s expired at %s",
					domain.ErrHoldExpired, bookingID, h.Resource, h.Date, h.ExpiresAt.Format("15:04:05"))
			}
			pending++
		}
		if pending == 0 {
			return nil
		}

		n, err := s.holdRepo.Confirm(txCtx, bookingID)
		if err != nil {
			return err
		}
		// холды успел забрать sweep между чтением и обновлением
		if n == 0 {
			return fmt.Errorf("%w: booking %d", domain.ErrHoldExpired, bookingID)
		}

		confirmed = int(n)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) || errors.Is(err, domain.ErrHoldExpired) {
			s.logger.Warn("ConfirmBooking: %v", err)
			return 0, err
		}
		return 0, s.fail("ConfirmBooking", err)
	}

	s.logger.Info("ConfirmBooking: booking=%d confirmed %d holds", bookingID, confirmed)
	return confirmed, nil
}

// ReleaseExpired снимает истёкшее бронирование целиком, как ReleaseForBooking.
// Истёкшим считается бронирование, все холды которого ожидающие и хотя бы один истёк.
// Бронирование с подтверждённым холдом не трогается: результат пустой.
func (s *Service) ReleaseExpired(ctx context.Context, bookingID int64, now time.Time) (*BookingReleaseResult, error) {
	var result *BookingReleaseResult
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		result = &BookingReleaseResult{BookingID: bookingID, Released: []ReleasedHold{}}

		holds, err := s.holdRepo.ListByBooking(txCtx, bookingID)
		if err != nil {
			return err
		}
		if !bookingExpired(holds, now) {
			return nil
		}

		// слот блокируется раньше холда, повторная проверка идёт под блокировкой
		locked := make([]*domain.ReservationHold, 0, len(holds))
		for _, listed := range holds {
			released, hold, err := s.releaseLocked(txCtx, listed.Ref(), bookingID, func(h *domain.ReservationHold) error {
				if !h.IsPending() {
					return errBookingConfirmed
				}
				return nil
			})
			if err != nil {
				return err
			}
			if released != nil {
				locked = append(locked, hold)
				result.Released = append(result.Released, *released)
			}
		}
		if !bookingExpired(locked, now) {
			return errBookingConfirmed
		}
		return nil
	})
	if errors.Is(err, errBookingConfirmed) {
		s.logger.Info("ReleaseExpired: booking=%d changed concurrently, skipped", bookingID)
		return &BookingReleaseResult{BookingID: bookingID, Released: []ReleasedHold{}}, nil
	}
	if err != nil {
		return nil, s.fail("ReleaseExpired", err)
	}

	if len(result.Released) > 0 {
		s.metrics.AddReleased(reasonExpired, result.Units())
		s.logger.Info("ReleaseExpired: booking=%d released %d units over %d slots",
			bookingID, result.Units(), len(result.Released))
	}
	return result, nil
}

// bookingExpired: холды есть, все ожидающие и хотя бы один истёк к now
func bookingExpired(holds []*domain.ReservationHold, now time.Time) bool {
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

// releaseHold блокирует слот, перечитывает холд под блокировкой и возвращает его емкость.
// Если холд уже удалён параллельной транзакцией, возвращает nil.
func (s *Service) releaseHold(ctx context.Context, ref domain.SlotRef, bookingID int64) (*ReleasedHold, error) {
	released, _, err := s.releaseLocked(ctx, ref, bookingID, nil)
	return released, err
}

// releaseLocked то же, что releaseHold, но перед снятием отдаёт перечитанный холд в check
func (s *Service) releaseLocked(
	ctx context.Context,
	ref domain.SlotRef,
	bookingID int64,
	check func(*domain.ReservationHold) error,
) (*ReleasedHold, *domain.ReservationHold, error) {
	slot, err := s.slotRepo.Get(ctx, ref.Resource, ref.Date)
	if err != nil {
		return nil, nil, err
	}

	hold, err := s.holdRepo.Get(ctx, ref.Resource, ref.Date, bookingID)
	if errors.Is(err, holdRepo.ErrHoldNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if check != nil {
		if err := check(hold); err != nil {
			return nil, nil, err
		}
	}

	released := s.decrement(slot, hold)
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		return nil, nil, err
	}
	if err := s.holdRepo.Delete(ctx, ref.Resource, ref.Date, bookingID); err != nil {
		return nil, nil, err
	}

	return &ReleasedHold{Resource: ref.Resource, Date: ref.Date, Quantity: released}, hold, nil
}

// decrement снимает с резерва слота количество холда (не уходя ниже нуля)
func (s *Service) decrement(slot *domain.CapacitySlot, hold *domain.ReservationHold) int {
	released := hold.Quantity
	if released > slot.ReservedCapacity {
		s.logger.Error("decrement: hold of booking=%d (%d) exceeds reserved=%d on %s %s",
			hold.BookingID, hold.Quantity, slot.ReservedCapacity, slot.Resource, slot.Date)
		released = slot.ReservedCapacity
	}

	slot.ReservedCapacity -= released
	if slot.ReservedCapacity < slot.TotalCapacity {
		slot.HolderBookingID = nil
	}
	return released
}

// trimHolds урезает холды слота (новые первыми), пока их сумма превышает резерв
func (s *Service) trimHolds(ctx context.Context, slot *domain.CapacitySlot) (int, error) {
	holds, err := s.holdRepo.ListBySlot(ctx, slot.Resource, slot.Date)
	if err != nil {
		return 0, err
	}

	sum := 0
	for _, h := range holds {
		sum += h.Quantity
	}

	excess := sum - slot.ReservedCapacity
	trimmed := 0
	for _, h := range holds {
		if excess <= 0 {
			break
		}

		cut := h.Quantity
		if cut > excess {
			cut = excess
		}
		excess -= cut
		trimmed++

		if cut == h.Quantity {
			if err := s.holdRepo.Delete(ctx, h.Resource, h.Date, h.BookingID); err != nil {
				return 0, err
			}
			continue
		}

		h.Quantity -= cut
		if err := s.holdRepo.Upsert(ctx, h); err != nil {
			return 0, err
		}
	}

	if trimmed > 0 {
		s.logger.Warn("trimHolds: trimmed %d holds on %s %s to match reserved=%d",
			trimmed, slot.Resource, slot.Date, slot.ReservedCapacity)
	}
	return trimmed, nil
}

func (s *Service) defaultCapacity(t domain.ResourceType, override *int) int {
	if override != nil {
		return *override
	}
	if c, ok := s.cfg.DefaultCapacity[t]; ok && c > 0 {
		return c
	}
	return s.cfg.FallbackCapacity
}

// fail переводит ошибку хранилища в ошибку сервиса
func (s *Service) fail(op string, err error) error {
	if domain.IsBusinessError(err) {
		return err
	}
	if txmanager.IsTransient(err) {
		s.logger.Warn("%s: storage temporarily unavailable: %v", op, err)
		return fmt.Errorf("%w: %s: %v", domain.ErrTemporarilyUnavailable, op, err)
	}
	s.logger.Error("%s: storage error: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

func validateReserve(req ReserveRequest) error {
	if err := req.Resource.Validate(); err != nil {
		return err
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	if req.Quantity > domain.MaxQuantity {
		return fmt.Errorf("%w: quantity exceeds %d", domain.ErrInvalidInput, domain.MaxQuantity)
	}
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: booking id must be positive", domain.ErrInvalidInput)
	}
	if req.DefaultCapacity != nil && *req.DefaultCapacity < 0 {
		return fmt.Errorf("%w: default capacity must not be negative", domain.ErrInvalidInput)
	}
	return nil
}
