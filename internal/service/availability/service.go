package availability

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Service чтение доступности; слоты не создаются и не меняются
type Service struct {
	slotRepo     SlotRepository
	logger       Logger
	maxRangeDays int
}

// NewService создает новый экземпляр сервиса доступности
func NewService(slotRepo SlotRepository, maxRangeDays int, logger Logger) *Service {
	if maxRangeDays <= 0 {
		maxRangeDays = domain.DefaultMaxRangeDays
	}
	return &Service{
		slotRepo:     slotRepo,
		logger:       logger,
		maxRangeDays: maxRangeDays,
	}
}

// CheckAvailability ищет незаблокированные ресурсы типа, у которых на дату свободно не меньше required
func (s *Service) CheckAvailability(ctx context.Context, resourceType domain.ResourceType, date types.Date, required int) (*domain.AvailabilityResult, error) {
	if !resourceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown resource type %q", domain.ErrInvalidInput, resourceType)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}
	if required <= 0 || required > domain.MaxQuantity {
		return nil, fmt.Errorf("%w: required capacity must be between 1 and %d", domain.ErrInvalidInput, domain.MaxQuantity)
	}

	slots, err := s.slotRepo.ListAvailable(ctx, resourceType, date, required)
	if err != nil {
		return nil, s.fail("CheckAvailability", err)
	}

	candidates := make([]domain.AvailabilityCandidate, 0, len(slots))
	for _, slot := range slots {
		candidates = append(candidates, domain.AvailabilityCandidate{
			Resource:          slot.Resource,
			AvailableCapacity: slot.AvailableCapacity(),
		})
	}

	return &domain.AvailabilityResult{
		ResourceType:     resourceType,
		Date:             date,
		RequiredCapacity: required,
		HasAvailability:  len(candidates) > 0,
		Candidates:       candidates,
	}, nil
}

// Schedule возвращает сохранённые слоты ресурса по датам.
// Даты без слота не возвращаются: на них ресурс свободен с емкостью по умолчанию.
func (s *Service) Schedule(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	slots, err := s.slotRepo.ListByResource(ctx, key, start, end)
	if err != nil {
		return nil, s.fail("Schedule", err)
	}
	return slots, nil
}

// Summary агрегирует слоты диапазона: всего, по типам ресурсов
func (s *Service) Summary(ctx context.Context, start, end types.Date, resourceType *domain.ResourceType) (*domain.AvailabilitySummary, error) {
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}
	if resourceType != nil && !resourceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown resource type %q", domain.ErrInvalidInput, *resourceType)
	}

	byType, err := s.slotRepo.Summarize(ctx, start, end, resourceType)
	if err != nil {
		return nil, s.fail("Summary", err)
	}

	summary := &domain.AvailabilitySummary{
		StartDate:    start,
		EndDate:      end,
		ResourceType: resourceType,
		ByType:       byType,
	}
	for _, totals := range byType {
		summary.Totals.Add(totals)
	}
	return summary, nil
}

func (s *Service) validateRange(start, end types.Date) error {
	r, err := domain.NewDateRange(start, end)
	if err != nil {
		return err
	}
	if r.Days() > s.maxRangeDays {
		return fmt.Errorf("%w: range of %d days exceeds %d", domain.ErrInvalidInput, r.Days(), s.maxRangeDays)
	}
	return nil
}

func (s *Service) fail(op string, err error) error {
	if txmanager.IsTransient(err) {
		s.logger.Warn("%s: storage temporarily unavailable: %v", op, err)
		return fmt.Errorf("%w: %s: %v", domain.ErrTemporarilyUnavailable, op, err)
	}
	s.logger.Error("%s: storage error: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
