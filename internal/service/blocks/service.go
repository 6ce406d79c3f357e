package blocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Config параметры менеджера блокировок
type Config struct {
	MaxRangeDays     int
	DefaultCapacity  map[domain.ResourceType]int
	FallbackCapacity int
}

// Service блокирует ресурс на диапазон дат (обслуживание, blackout).
// Блокировка не трогает уже зарезервированную емкость: отклоняются только новые резервы и назначения.
type Service struct {
	slotRepo  SlotRepository
	txManager TransactionManager
	logger    Logger
	cfg       Config
}

// NewService создает новый экземпляр менеджера блокировок
func NewService(slotRepo SlotRepository, txManager TransactionManager, cfg Config, logger Logger) *Service {
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = domain.DefaultMaxRangeDays
	}
	if cfg.FallbackCapacity <= 0 {
		cfg.FallbackCapacity = 1
	}
	return &Service{
		slotRepo:  slotRepo,
		txManager: txManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Block помечает заблокированными все даты [start, end]; отсутствующие слоты создаются
func (s *Service) Block(ctx context.Context, key domain.ResourceKey, start, end types.Date, reason string) ([]*domain.CapacitySlot, error) {
	s.logger.Info("Block: resource=%s, range=[%s..%s], reason=%q", key, start, end, reason)

	r, err := s.validate(key, start, end)
	if err != nil {
		s.logger.Warn("Block: validation failed: %v", err)
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if len(reason) > domain.MaxBlockReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", domain.ErrInvalidInput, domain.MaxBlockReasonLength)
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	var slots []*domain.CapacitySlot
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		slots, err = s.slotRepo.UpsertBlocked(txCtx, key, r.Dates(), s.defaultCapacity(key.Type), reasonPtr)
		return err
	})
	if err != nil {
		return nil, s.fail("Block", err)
	}

	s.logger.Info("Block: %s blocked on %d dates", key, len(slots))
	return slots, nil
}

// Unblock снимает блокировку с существующих слотов диапазона и возвращает слоты диапазона.
// Зарезервированная емкость не меняется.
func (s *Service) Unblock(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error) {
	s.logger.Info("Unblock: resource=%s, range=[%s..%s]", key, start, end)

	if _, err := s.validate(key, start, end); err != nil {
		s.logger.Warn("Unblock: validation failed: %v", err)
		return nil, err
	}

	var (
		slots   []*domain.CapacitySlot
		cleared int64
	)
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		cleared, err = s.slotRepo.ClearBlocked(txCtx, key, start, end)
		if err != nil {
			return err
		}
		slots, err = s.slotRepo.ListByResource(txCtx, key, start, end)
		return err
	})
	if err != nil {
		return nil, s.fail("Unblock", err)
	}

	s.logger.Info("Unblock: %s unblocked on %d dates", key, cleared)
	return slots, nil
}

func (s *Service) validate(key domain.ResourceKey, start, end types.Date) (domain.DateRange, error) {
	if err := key.Validate(); err != nil {
		return domain.DateRange{}, err
	}
	r, err := domain.NewDateRange(start, end)
	if err != nil {
		return domain.DateRange{}, err
	}
	if r.Days() > s.cfg.MaxRangeDays {
		return domain.DateRange{}, fmt.Errorf("%w: range of %d days exceeds %d", domain.ErrInvalidInput, r.Days(), s.cfg.MaxRangeDays)
	}
	return r, nil
}

func (s *Service) defaultCapacity(t domain.ResourceType) int {
	if c, ok := s.cfg.DefaultCapacity[t]; ok && c > 0 {
		return c
	}
	return s.cfg.FallbackCapacity
}

// fail переводит ошибку хранилища в ошибку сервиса
func (s *Service) fail(op string, err error) error {
	if txmanager.IsTransient(err) {
		s.logger.Warn("%s: storage temporarily unavailable: %v", op, err)
		return fmt.Errorf("%w: %s: %v", domain.ErrTemporarilyUnavailable, op, err)
	}
	s.logger.Error("%s: storage error: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
