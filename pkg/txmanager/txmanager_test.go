package txmanager

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
)

type retryCounter struct {
	reasons []string
}

func (r *retryCounter) IncTxRetry(reason string) {
	r.reasons = append(r.reasons, reason)
}

func newManager(t *testing.T, cfg Config) (*TransactionManager, sqlmock.Sqlmock, *retryCounter) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	counter := &retryCounter{}
	return NewTransactionManager(dbmetrics.Wrap(db, nil, "test"), cfg, counter), mock, counter
}

func TestDoCommitsWithLockTimeout(t *testing.T) {
	mgr, mock, _ := newManager(t, Config{LockTimeout: 1500 * time.Millisecond})

	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL lock_timeout = '1500ms'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	called := false
	err := mgr.Do(context.Background(), func(ctx context.Context) error {
		called = true
		assert.True(t, dbmetrics.IsInTransaction(ctx))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoRollsBackOnBusinessError(t *testing.T) {
	mgr, mock, counter := newManager(t, Config{MaxRetries: 3})
	businessErr := errors.New("insufficient capacity")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := mgr.Do(context.Background(), func(ctx context.Context) error {
		return businessErr
	})

	assert.ErrorIs(t, err, businessErr)
	assert.Empty(t, counter.reasons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoRetriesOnConflict(t *testing.T) {
	mgr, mock, counter := newManager(t, Config{MaxRetries: 2, RetryBackoff: time.Millisecond})

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := mgr.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("update slot: %w", ErrConflict)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"version_conflict"}, counter.reasons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoSurfacesTemporarilyUnavailableAfterRetries(t *testing.T) {
	mgr, mock, _ := newManager(t, Config{MaxRetries: 1, RetryBackoff: time.Millisecond})

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	err := mgr.DoSerializable(context.Background(), func(ctx context.Context) error {
		return &pq.Error{Code: "40001"}
	})

	assert.ErrorIs(t, err, ErrTemporarilyUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoLockTimeoutIsNotRetried(t *testing.T) {
	mgr, mock, counter := newManager(t, Config{MaxRetries: 3})

	mock.ExpectBegin()
	mock.ExpectRollback()

	calls := 0
	err := mgr.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("lock slot: %w", &pq.Error{Code: "55P03"})
	})

	assert.ErrorIs(t, err, ErrTemporarilyUnavailable)
	assert.Equal(t, 1, calls)
	assert.Empty(t, counter.reasons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNestedDoReusesTransaction(t *testing.T) {
	mgr, mock, _ := newManager(t, Config{})

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := mgr.Do(context.Background(), func(ctx context.Context) error {
		outer := dbmetrics.TxFromContext(ctx)
		return mgr.Do(ctx, func(inner context.Context) error {
			assert.Same(t, outer, dbmetrics.TxFromContext(inner))
			return nil
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
