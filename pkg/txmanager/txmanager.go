package txmanager

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
)

var (
	// ErrConflict оборачивается репозиториями при конкурентном изменении строки
	// (например, не совпала версия). Такая транзакция повторяется.
	ErrConflict = errors.New("txmanager: concurrent modification")

	// ErrTemporarilyUnavailable хранилище недоступно или истекло ожидание блокировки.
	// Вызывающий может повторить запрос позже.
	ErrTemporarilyUnavailable = errors.New("txmanager: storage temporarily unavailable")

	// ErrBeginTx ошибка открытия транзакции
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommit ошибка фиксации транзакции
	ErrCommit = errors.New("txmanager: failed to commit transaction")
)

// PostgreSQL SQLSTATE коды, которые считаются временными
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	classConnectionException = "08"
)

// Config параметры менеджера транзакций
type Config struct {
	Timeout      time.Duration // общий таймаут одной попытки
	LockTimeout  time.Duration // SET LOCAL lock_timeout, 0 - не задавать
	MaxRetries   int           // количество повторов при конфликте
	RetryBackoff time.Duration // базовая пауза между повторами
}

// Metrics интерфейс для метрик повторов
type Metrics interface {
	IncTxRetry(reason string)
}

// TransactionManager выполняет функции в транзакции, передавая её через context.
// Вложенные вызовы переиспользуют внешнюю транзакцию.
type TransactionManager struct {
	db      dbmetrics.TxBeginner
	cfg     Config
	metrics Metrics
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db dbmetrics.TxBeginner, cfg Config, m Metrics) *TransactionManager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 20 * time.Millisecond
	}
	return &TransactionManager{db: db, cfg: cfg, metrics: m}
}

// Do выполняет fn в транзакции READ COMMITTED
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// DoSerializable выполняет fn в транзакции SERIALIZABLE
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// DoReadOnly выполняет fn в read-only транзакции
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, m.cfg.RetryBackoff*time.Duration(attempt)); err != nil {
				return fmt.Errorf("%w: %v", ErrTemporarilyUnavailable, err)
			}
		}

		lastErr = m.attempt(ctx, opts, fn)
		if lastErr == nil {
			return nil
		}

		reason, retryable := retryReason(lastErr)
		if !retryable {
			break
		}
		if m.metrics != nil {
			m.metrics.IncTxRetry(reason)
		}
	}

	if errors.Is(lastErr, ErrTemporarilyUnavailable) {
		return lastErr
	}
	if _, retryable := retryReason(lastErr); retryable || IsTransient(lastErr) {
		return fmt.Errorf("%w: %w", ErrTemporarilyUnavailable, lastErr)
	}
	return lastErr
}

func (m *TransactionManager) attempt(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	tx, err := m.db.BeginTx(attemptCtx, opts)
	if err != nil {
		if IsTransient(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrBeginTx, err)
	}

	if m.cfg.LockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.cfg.LockTimeout.Milliseconds())
		if _, err := tx.ExecContext(attemptCtx, stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := fn(dbmetrics.WithTx(attemptCtx, tx)); err != nil {
		_ = tx.Rollback()
		// Истёк таймаут попытки: ошибку запроса отдаём как временную
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %w", ErrTemporarilyUnavailable, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if IsTransient(err) {
			return err
		}
		if _, retryable := retryReason(err); retryable {
			return err
		}
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}
	return nil
}

// retryReason возвращает причину, если ошибку имеет смысл повторить
func retryReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, ErrConflict) {
		return "version_conflict", true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeSerializationFailure:
			return "serialization_failure", true
		case codeDeadlockDetected:
			return "deadlock", true
		}
	}
	return "", false
}

// IsTransient возвращает true для ошибок недоступности хранилища и таймаутов
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTemporarilyUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == codeLockNotAvailable ||
			code == codeQueryCanceled ||
			strings.HasPrefix(code, classConnectionException)
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
