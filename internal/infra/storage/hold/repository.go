package hold

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

const table = "reservation_holds"

var columns = []string{
	"resource_type",
	"resource_id",
	"slot_date",
	"booking_id",
	"quantity",
	"status",
	"created_at",
	"expires_at",
}

// Порядок блокировки строк: (type, id, date), как и для слотов
const lockOrder = "resource_type ASC, resource_id ASC, slot_date ASC"

// Repository хранилище холдов: сколько емкости слота держит бронирование
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория холдов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get возвращает холд бронирования на слот; в транзакции строка блокируется
func (r *Repository) Get(ctx context.Context, key domain.ResourceKey, date types.Date, bookingID int64) (*domain.ReservationHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{
			"resource_type": key.Type,
			"resource_id":   key.ID,
			"slot_date":     date,
			"booking_id":    bookingID,
		})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	hold, err := scanHold(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan hold: %w", ErrScanRow, err)
	}

	return hold, nil
}

// Upsert создает холд или перезаписывает количество, статус и срок существующего
func (r *Repository) Upsert(ctx context.Context, hold *domain.ReservationHold) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("resource_type", "resource_id", "slot_date", "booking_id", "quantity", "status", "expires_at").
		Values(hold.Resource.Type, hold.Resource.ID, hold.Date, hold.BookingID, hold.Quantity, hold.Status, hold.ExpiresAt).
		Suffix("ON CONFLICT (resource_type, resource_id, slot_date, booking_id) DO UPDATE SET " +
			"quantity = EXCLUDED.quantity, " +
			"status = EXCLUDED.status, " +
			"expires_at = EXCLUDED.expires_at " +
			"RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Upsert - build upsert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt); err != nil {
		return fmt.Errorf("%w: Upsert - execute upsert: %w", ErrExecQuery, err)
	}

	hold.CreatedAt = createdAt.Time
	return nil
}

// ListByBooking возвращает все холды бронирования в порядке блокировки слотов.
// Строки не блокируются: вызывающий сначала блокирует слот, затем перечитывает холд через Get.
func (r *Repository) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.ReservationHold, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy(lockOrder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBooking - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListByBooking", query, args)
}

// ListBySlot возвращает холды слота, новые первыми
func (r *Repository) ListBySlot(ctx context.Context, key domain.ResourceKey, date types.Date) ([]*domain.ReservationHold, error) {
	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"resource_type": key.Type, "resource_id": key.ID, "slot_date": date}).
		OrderBy("created_at DESC", "booking_id DESC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBySlot - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListBySlot", query, args)
}

// ListExpiredBookingIDs возвращает истёкшие бронирования: все холды ожидающие и хотя бы один истёк.
// Бронирования с подтверждённым холдом не попадают в выборку. Строки не блокируются.
func (r *Repository) ListExpiredBookingIDs(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("booking_id").
		From(table).
		GroupBy("booking_id").
		Having("bool_and(status = ?) AND bool_or(expires_at < ?)", domain.HoldStatusHeld, now).
		OrderBy("booking_id ASC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(limit))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredBookingIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredBookingIDs - execute select: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListExpiredBookingIDs - scan id: %w", ErrScanRow, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListExpiredBookingIDs - rows iteration: %w", ErrScanRow, err)
	}

	return ids, nil
}

// Confirm переводит ожидающие холды бронирования в confirmed и снимает срок истечения
func (r *Repository) Confirm(ctx context.Context, bookingID int64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("status", domain.HoldStatusConfirmed).
		Set("expires_at", nil).
		Where(squirrel.Eq{"booking_id": bookingID, "status": domain.HoldStatusHeld}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Confirm - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: Confirm - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: Confirm - rows affected: %v", ErrExecQuery, err)
	}
	return affected, nil
}

// Delete удаляет холд бронирования на слот
func (r *Repository) Delete(ctx context.Context, key domain.ResourceKey, date types.Date, bookingID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{
			"resource_type": key.Type,
			"resource_id":   key.ID,
			"slot_date":     date,
			"booking_id":    bookingID,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrHoldNotFound
	}
	return nil
}

func (r *Repository) query(ctx context.Context, op, query string, args []interface{}) ([]*domain.ReservationHold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute select: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	holds := make([]*domain.ReservationHold, 0)
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan hold: %w", ErrScanRow, op, err)
		}
		holds = append(holds, hold)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows iteration: %w", ErrScanRow, op, err)
	}

	return holds, nil
}

func scanHold(row rowScanner) (*domain.ReservationHold, error) {
	var hold domain.ReservationHold
	var createdAt, expiresAt sql.NullTime

	err := row.Scan(
		&hold.Resource.Type,
		&hold.Resource.ID,
		&hold.Date,
		&hold.BookingID,
		&hold.Quantity,
		&hold.Status,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	hold.CreatedAt = createdAt.Time
	if expiresAt.Valid {
		t := expiresAt.Time
		hold.ExpiresAt = &t
	}
	return &hold, nil
}
