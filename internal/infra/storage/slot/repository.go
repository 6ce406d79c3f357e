package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

const table = "capacity_slots"

const conflictTarget = "ON CONFLICT (resource_type, resource_id, slot_date)"

var columns = []string{
	"id",
	"resource_type",
	"resource_id",
	"slot_date",
	"total_capacity",
	"reserved_capacity",
	"is_blocked",
	"block_reason",
	"holder_booking_id",
	"version",
	"created_at",
	"updated_at",
}

// Repository хранилище слотов емкости (resource, date)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetOrCreate возвращает слот, создавая его с defaultCapacity, если его ещё нет.
// Гонка создания безопасна: INSERT ... ON CONFLICT DO NOTHING, затем SELECT читает строку победителя.
// Внутри транзакции строка блокируется (FOR UPDATE).
func (r *Repository) GetOrCreate(ctx context.Context, key domain.ResourceKey, date types.Date, defaultCapacity int) (*domain.CapacitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("resource_type", "resource_id", "slot_date", "total_capacity").
		Values(key.Type, key.ID, date, defaultCapacity).
		Suffix(conflictTarget + " DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOrCreate - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: GetOrCreate - execute insert: %w", ErrExecQuery, err)
	}

	return r.Get(ctx, key, date)
}

// Get получает слот без побочных эффектов.
// Если в контексте есть транзакция, строка блокируется до её завершения.
func (r *Repository) Get(ctx context.Context, key domain.ResourceKey, date types.Date) (*domain.CapacitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{
			"resource_type": key.Type,
			"resource_id":   key.ID,
			"slot_date":     date,
		})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan slot: %w", ErrScanRow, err)
	}

	return slot, nil
}

// Update сохраняет изменяемые поля слота с проверкой версии.
// При успехе slot.Version увеличивается; если версия не совпала - ErrVersionConflict.
func (r *Repository) Update(ctx context.Context, slot *domain.CapacitySlot) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if err := slot.CheckInvariant(); err != nil {
		return fmt.Errorf("%w: slot %s on %s total=%d reserved=%d",
			err, slot.Resource, slot.Date, slot.TotalCapacity, slot.ReservedCapacity)
	}

	query, args, err := psqlbuilder.Update(table).
		Set("total_capacity", slot.TotalCapacity).
		Set("reserved_capacity", slot.ReservedCapacity).
		Set("is_blocked", slot.IsBlocked).
		Set("block_reason", slot.BlockReason).
		Set("holder_booking_id", slot.HolderBookingID).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slot.ID, "version": slot.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&slot.Version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	slot.UpdatedAt = updatedAt.Time
	return nil
}

// ListByResource возвращает сохранённые слоты ресурса в диапазоне [start, end], по дате
func (r *Repository) ListByResource(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"resource_type": key.Type, "resource_id": key.ID}).
		Where(squirrel.GtOrEq{"slot_date": start}).
		Where(squirrel.LtOrEq{"slot_date": end}).
		OrderBy("slot_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByResource - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListByResource", query, args)
}

// ListBlocked возвращает заблокированные слоты ресурса в диапазоне [start, end]
func (r *Repository) ListBlocked(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"resource_type": key.Type, "resource_id": key.ID, "is_blocked": true}).
		Where(squirrel.GtOrEq{"slot_date": start}).
		Where(squirrel.LtOrEq{"slot_date": end}).
		OrderBy("slot_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlocked - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListBlocked", query, args)
}

// ListAvailable возвращает незаблокированные слоты типа ресурса на дату,
// у которых свободно не меньше required
func (r *Repository) ListAvailable(ctx context.Context, resourceType domain.ResourceType, date types.Date, required int) ([]*domain.CapacitySlot, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"resource_type": resourceType, "slot_date": date, "is_blocked": false}).
		Where(squirrel.Expr("total_capacity - reserved_capacity >= ?", required)).
		OrderBy("resource_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListAvailable - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListAvailable", query, args)
}

// UpsertBlocked блокирует все переданные даты ресурса одним запросом.
// Отсутствующие слоты создаются с defaultCapacity; резервы существующих не меняются.
func (r *Repository) UpsertBlocked(ctx context.Context, key domain.ResourceKey, dates []types.Date, defaultCapacity int, reason *string) ([]*domain.CapacitySlot, error) {
	if len(dates) == 0 {
		return []*domain.CapacitySlot{}, nil
	}

	insertBuilder := psqlbuilder.Insert(table).
		Columns("resource_type", "resource_id", "slot_date", "total_capacity", "is_blocked", "block_reason")
	for _, d := range dates {
		insertBuilder = insertBuilder.Values(key.Type, key.ID, d, defaultCapacity, true, reason)
	}

	query, args, err := insertBuilder.
		Suffix(conflictTarget + " DO UPDATE SET " +
			"is_blocked = TRUE, " +
			"block_reason = EXCLUDED.block_reason, " +
			"version = " + table + ".version + 1, " +
			"updated_at = NOW() " +
			"RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: UpsertBlocked - build upsert query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "UpsertBlocked", query, args)
}

// ClearBlocked снимает блокировку с существующих слотов диапазона.
// Возвращает количество изменённых слотов.
func (r *Repository) ClearBlocked(ctx context.Context, key domain.ResourceKey, start, end types.Date) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("is_blocked", false).
		Set("block_reason", nil).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"resource_type": key.Type, "resource_id": key.ID, "is_blocked": true}).
		Where(squirrel.GtOrEq{"slot_date": start}).
		Where(squirrel.LtOrEq{"slot_date": end}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ClearBlocked - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ClearBlocked - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ClearBlocked - rows affected: %v", ErrExecQuery, err)
	}
	return affected, nil
}

// Summarize агрегирует слоты диапазона по типам ресурсов одним GROUP BY запросом.
// Заблокированные слоты дают 0 свободной емкости.
func (r *Repository) Summarize(ctx context.Context, start, end types.Date, resourceType *domain.ResourceType) (map[domain.ResourceType]domain.CapacityTotals, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"resource_type",
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE is_blocked)",
		"COALESCE(SUM(total_capacity), 0)",
		"COALESCE(SUM(reserved_capacity), 0)",
		"COALESCE(SUM(CASE WHEN is_blocked THEN 0 ELSE GREATEST(total_capacity - reserved_capacity, 0) END), 0)",
	).
		From(table).
		Where(squirrel.GtOrEq{"slot_date": start}).
		Where(squirrel.LtOrEq{"slot_date": end}).
		GroupBy("resource_type").
		OrderBy("resource_type ASC")

	if resourceType != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"resource_type": *resourceType})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Summarize - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Summarize - execute select: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	totals := make(map[domain.ResourceType]domain.CapacityTotals)
	for rows.Next() {
		var rt domain.ResourceType
		var t domain.CapacityTotals
		if err := rows.Scan(&rt, &t.TotalSlots, &t.BlockedSlots, &t.TotalCapacity, &t.ReservedCapacity, &t.AvailableCapacity); err != nil {
			return nil, fmt.Errorf("%w: Summarize - scan totals: %w", ErrScanRow, err)
		}
		totals[rt] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: Summarize - rows iteration: %w", ErrScanRow, err)
	}

	return totals, nil
}

func (r *Repository) query(ctx context.Context, op, query string, args []interface{}) ([]*domain.CapacitySlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute select: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	slots := make([]*domain.CapacitySlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan slot: %w", ErrScanRow, op, err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows iteration: %w", ErrScanRow, op, err)
	}

	return slots, nil
}

func scanSlot(row rowScanner) (*domain.CapacitySlot, error) {
	var slot domain.CapacitySlot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&slot.ID,
		&slot.Resource.Type,
		&slot.Resource.ID,
		&slot.Date,
		&slot.TotalCapacity,
		&slot.ReservedCapacity,
		&slot.IsBlocked,
		&slot.BlockReason,
		&slot.HolderBookingID,
		&slot.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time
	return &slot, nil
}
