package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

const table = "exclusive_assignments"

// SQLSTATE exclusion_violation
const codeExclusionViolation = "23P01"

var columns = []string{
	"id",
	"resource_type",
	"resource_id",
	"start_date",
	"end_date",
	"status",
	"booking_id",
	"notes",
	"cancellation_reason",
	"created_at",
	"updated_at",
}

// Repository хранилище эксклюзивных назначений ресурсов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория назначений
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// LockResource берёт транзакционную advisory-блокировку на ресурс.
// Проверка пересечений и вставка для одного ресурса выполняются строго по очереди.
// Вызывать только внутри транзакции: блокировка снимается при её завершении.
func (r *Repository) LockResource(ctx context.Context, key domain.ResourceKey) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key.String()); err != nil {
		return fmt.Errorf("%w: LockResource - execute lock: %w", ErrExecQuery, err)
	}
	return nil
}

// FindOverlaps возвращает активные назначения ресурса, пересекающие [start, end].
// Границы включительные: start_date <= end AND end_date >= start.
func (r *Repository) FindOverlaps(ctx context.Context, key domain.ResourceKey, start, end types.Date, excludeID *uuid.UUID) ([]*domain.ExclusiveAssignment, error) {
	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{
			"resource_type": key.Type,
			"resource_id":   key.ID,
			"status":        domain.BlockingAssignmentStatuses,
		}).
		Where(squirrel.LtOrEq{"start_date": end}).
		Where(squirrel.GtOrEq{"end_date": start}).
		OrderBy("start_date ASC")

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlaps - build select query: %v", ErrBuildQuery, err)
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlaps - execute select: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.ExclusiveAssignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: FindOverlaps - scan assignment: %w", ErrScanRow, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindOverlaps - rows iteration: %w", ErrScanRow, err)
	}

	return result, nil
}

// Create сохраняет новое назначение
func (r *Repository) Create(ctx context.Context, a *domain.ExclusiveAssignment) (*domain.ExclusiveAssignment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"id",
			"resource_type",
			"resource_id",
			"start_date",
			"end_date",
			"status",
			"booking_id",
			"notes",
		).
		Values(
			a.ID,
			a.Resource.Type,
			a.Resource.ID,
			a.StartDate,
			a.EndDate,
			a.Status,
			a.BookingID,
			a.Notes,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if isExclusionViolation(err) {
		return nil, fmt.Errorf("%w: Create - %s %s", ErrOverlap, a.Resource, a.Range())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	return a, nil
}

// GetByID получает назначение по ID; в транзакции строка блокируется
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExclusiveAssignment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAssignment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan assignment: %w", ErrScanRow, err)
	}

	return a, nil
}

// UpdateStatus меняет статус назначения (и причину отмены, если задана)
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssignmentStatus, reason *string) error {
	updateBuilder := psqlbuilder.Update(table).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if reason != nil {
		updateBuilder = updateBuilder.Set("cancellation_reason", *reason)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execOne(ctx, "UpdateStatus", query, args)
}

// UpdateDates переносит назначение на новый диапазон дат
func (r *Repository) UpdateDates(ctx context.Context, id uuid.UUID, start, end types.Date) error {
	query, args, err := psqlbuilder.Update(table).
		Set("start_date", start).
		Set("end_date", end).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateDates - build update query: %v", ErrBuildQuery, err)
	}

	return r.execOne(ctx, "UpdateDates", query, args)
}

func (r *Repository) execOne(ctx context.Context, op, query string, args []interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	result, err := executor.ExecContext(ctx, query, args...)
	if isExclusionViolation(err) {
		return fmt.Errorf("%w: %s", ErrOverlap, op)
	}
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - rows affected: %v", ErrExecQuery, op, err)
	}
	if affected == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == codeExclusionViolation
}

func scanAssignment(row rowScanner) (*domain.ExclusiveAssignment, error) {
	var a domain.ExclusiveAssignment
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.Resource.Type,
		&a.Resource.ID,
		&a.StartDate,
		&a.EndDate,
		&a.Status,
		&a.BookingID,
		&a.Notes,
		&a.CancellationReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	return &a, nil
}
