package assignments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	assignmentRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/assignment"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

const (
	resultOK       = "ok"
	resultConflict = "overlap"
	resultBlocked  = "blocked"
	resultError    = "error"
)

// Service детектор конфликтов эксклюзивных назначений (машина, водитель на диапазон дат).
// Проверка и вставка выполняются в одной транзакции под advisory-блокировкой ресурса.
type Service struct {
	assignmentRepo AssignmentRepository
	slotRepo       SlotRepository
	txManager      TransactionManager
	metrics        Metrics
	logger         Logger
	cfg            Config
	newID          func() uuid.UUID
}

// NewService создает новый экземпляр сервиса назначений
func NewService(
	assignmentRepo AssignmentRepository,
	slotRepo SlotRepository,
	txManager TransactionManager,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *Service {
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = domain.DefaultMaxRangeDays
	}
	return &Service{
		assignmentRepo: assignmentRepo,
		slotRepo:       slotRepo,
		txManager:      txManager,
		metrics:        metrics,
		logger:         logger,
		cfg:            cfg,
		newID:          uuid.New,
	}
}

// FindOverlaps возвращает назначения ресурса в статусах scheduled/active, пересекающие [start, end]
func (s *Service) FindOverlaps(ctx context.Context, key domain.ResourceKey, start, end types.Date, excludeID *uuid.UUID) ([]*domain.ExclusiveAssignment, error) {
	if _, err := s.validateRange(key, start, end); err != nil {
		return nil, err
	}

	overlaps, err := s.assignmentRepo.FindOverlaps(ctx, key, start, end, excludeID)
	if err != nil {
		return nil, s.fail("FindOverlaps", err)
	}
	return overlaps, nil
}

// AssertNoOverlap возвращает *domain.OverlapConflictError, если диапазон занят
func (s *Service) AssertNoOverlap(ctx context.Context, key domain.ResourceKey, start, end types.Date, excludeID *uuid.UUID) error {
	overlaps, err := s.FindOverlaps(ctx, key, start, end, excludeID)
	if err != nil {
		return err
	}
	return conflictOf(key, overlaps)
}

// Create создаёт назначение в статусе scheduled.
// Заблокированные даты и пересечения с действующими назначениями отклоняются.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.ExclusiveAssignment, error) {
	s.logger.Info("Create: resource=%s, range=[%s..%s]", req.Resource, req.StartDate, req.EndDate)

	if _, err := s.validateRange(req.Resource, req.StartDate, req.EndDate); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}
	if req.BookingID != nil && *req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: booking id must be positive", domain.ErrInvalidInput)
	}
	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return nil, fmt.Errorf("%w: notes exceed %d characters", domain.ErrInvalidInput, domain.MaxNotesLength)
	}

	var created *domain.ExclusiveAssignment
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.checkFree(txCtx, req.Resource, req.StartDate, req.EndDate, nil); err != nil {
			return err
		}

		a, err := s.assignmentRepo.Create(txCtx, &domain.ExclusiveAssignment{
			ID:        s.newID(),
			Resource:  req.Resource,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Status:    domain.AssignmentScheduled,
			BookingID: req.BookingID,
			Notes:     req.Notes,
		})
		if err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, s.failWrite("Create", req.Resource, err)
	}

	s.metrics.IncAssignment(string(req.Resource.Type), resultOK)
	s.logger.Info("Create: assignment=%s created for %s %s", created.ID, created.Resource, created.Range())
	return created, nil
}

// Reschedule переносит действующее назначение; само назначение в проверке пересечений не участвует
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req RescheduleRequest) (*domain.ExclusiveAssignment, error) {
	s.logger.Info("Reschedule: assignment=%s, range=[%s..%s]", id, req.StartDate, req.EndDate)

	var (
		updated *domain.ExclusiveAssignment
		key     domain.ResourceKey
	)
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		a, err := s.assignmentRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		key = a.Resource
		if !a.IsBlocking() {
			return fmt.Errorf("%w: assignment %s is %s", domain.ErrInvalidTransition, id, a.Status)
		}
		if _, err := s.validateRange(a.Resource, req.StartDate, req.EndDate); err != nil {
			return err
		}

		if err := s.checkFree(txCtx, a.Resource, req.StartDate, req.EndDate, &id); err != nil {
			return err
		}
		if err := s.assignmentRepo.UpdateDates(txCtx, id, req.StartDate, req.EndDate); err != nil {
			return err
		}

		a.StartDate = req.StartDate
		a.EndDate = req.EndDate
		updated = a
		return nil
	})
	if err != nil {
		return nil, s.failWrite("Reschedule", key, err)
	}

	s.logger.Info("Reschedule: assignment=%s moved to %s", id, updated.Range())
	return updated, nil
}

// Cancel отменяет назначение. Повторная отмена ничего не меняет.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason *string) (*domain.ExclusiveAssignment, error) {
	if reason != nil && len(*reason) > domain.MaxNotesLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", domain.ErrInvalidInput, domain.MaxNotesLength)
	}
	return s.transition(ctx, "Cancel", id, domain.AssignmentCancelled, reason)
}

// Start переводит назначение scheduled -> active
func (s *Service) Start(ctx context.Context, id uuid.UUID) (*domain.ExclusiveAssignment, error) {
	return s.transition(ctx, "Start", id, domain.AssignmentActive, nil)
}

// Complete завершает назначение; после этого оно не занимает ресурс
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*domain.ExclusiveAssignment, error) {
	return s.transition(ctx, "Complete", id, domain.AssignmentCompleted, nil)
}

// Get возвращает назначение по ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.ExclusiveAssignment, error) {
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("Get", err)
	}
	return a, nil
}

func (s *Service) transition(ctx context.Context, op string, id uuid.UUID, next domain.AssignmentStatus, reason *string) (*domain.ExclusiveAssignment, error) {
	s.logger.Info("%s: assignment=%s", op, id)

	var result *domain.ExclusiveAssignment
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		a, err := s.assignmentRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		result = a

		if a.Status == next {
			return nil
		}
		if !a.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, a.Status, next)
		}

		if err := s.assignmentRepo.UpdateStatus(txCtx, id, next, reason); err != nil {
			return err
		}
		a.Status = next
		if reason != nil {
			a.CancellationReason = reason
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.logger.Info("%s: assignment=%s is %s (reason=%s)", op, id, result.Status, ptr.Value(reason, "-"))
	return result, nil
}

// checkFree берёт блокировку ресурса и проверяет блокировки дат и пересечения.
// Вызывается внутри транзакции.
func (s *Service) checkFree(ctx context.Context, key domain.ResourceKey, start, end types.Date, excludeID *uuid.UUID) error {
	if err := s.assignmentRepo.LockResource(ctx, key); err != nil {
		return err
	}

	blocked, err := s.slotRepo.ListBlocked(ctx, key, start, end)
	if err != nil {
		return err
	}
	if len(blocked) > 0 {
		return &domain.ResourceBlockedError{
			Resource: key,
			Date:     blocked[0].Date,
			Reason:   ptr.Value(blocked[0].BlockReason, ""),
		}
	}

	overlaps, err := s.assignmentRepo.FindOverlaps(ctx, key, start, end, excludeID)
	if err != nil {
		return err
	}
	return conflictOf(key, overlaps)
}

func (s *Service) validateRange(key domain.ResourceKey, start, end types.Date) (domain.DateRange, error) {
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

// failWrite дополнительно считает метрики и переводит срабатывание exclusion constraint в конфликт
func (s *Service) failWrite(op string, key domain.ResourceKey, err error) error {
	if errors.Is(err, assignmentRepo.ErrOverlap) {
		err = &domain.OverlapConflictError{Resource: key}
	}

	resourceType := string(key.Type)
	switch {
	case errors.Is(err, domain.ErrOverlapConflict):
		s.metrics.IncAssignment(resourceType, resultConflict)
		s.logger.Warn("%s: %v", op, err)
		return err
	case errors.Is(err, domain.ErrResourceBlocked):
		s.metrics.IncAssignment(resourceType, resultBlocked)
		s.logger.Warn("%s: %v", op, err)
		return err
	}

	if !domain.IsBusinessError(err) && !errors.Is(err, assignmentRepo.ErrAssignmentNotFound) {
		s.metrics.IncAssignment(resourceType, resultError)
	}
	return s.fail(op, err)
}

// fail переводит ошибку хранилища в ошибку сервиса
func (s *Service) fail(op string, err error) error {
	if errors.Is(err, assignmentRepo.ErrAssignmentNotFound) {
		s.logger.Warn("%s: %v", op, err)
		return fmt.Errorf("%w: %v", domain.ErrAssignmentNotFound, err)
	}
	if domain.IsBusinessError(err) {
		s.logger.Warn("%s: %v", op, err)
		return err
	}
	if txmanager.IsTransient(err) {
		s.logger.Warn("%s: storage temporarily unavailable: %v", op, err)
		return fmt.Errorf("%w: %s: %v", domain.ErrTemporarilyUnavailable, op, err)
	}
	s.logger.Error("%s: storage error: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

func conflictOf(key domain.ResourceKey, overlaps []*domain.ExclusiveAssignment) error {
	if len(overlaps) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(overlaps))
	for _, a := range overlaps {
		ids = append(ids, a.ID)
	}
	return &domain.OverlapConflictError{Resource: key, ConflictingIDs: ids}
}
