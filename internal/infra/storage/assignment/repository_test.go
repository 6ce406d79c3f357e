package assignment

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

var (
	driver5 = domain.ResourceKey{Type: domain.ResourceDriver, ID: 5}
	march1  = types.NewDate(2026, time.March, 1)
	march3  = types.NewDate(2026, time.March, 3)
	march5  = types.NewDate(2026, time.March, 5)
)

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestRepository_LockResource(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`)).
		WithArgs("driver:5").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.LockResource(context.Background(), driver5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindOverlaps_InclusiveRangeFilter(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM exclusive_assignments WHERE resource_id = $1 AND resource_type = $2 AND status IN ($3,$4) AND start_date <= $5 AND end_date >= $6 ORDER BY start_date ASC`)).
		WithArgs(int64(5), "driver", "scheduled", "active", march5, march3).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), "driver", 5, march1.Time(), march3.Time(), "scheduled", nil, nil, nil, now, now))

	found, err := repo.FindOverlaps(context.Background(), driver5, march3, march5, nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)
	assert.Equal(t, march3, found[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindOverlaps_ExcludesEditedAssignment(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`AND id <> $7`)).
		WillReturnRows(sqlmock.NewRows(columns))

	found, err := repo.FindOverlaps(context.Background(), driver5, march3, march5, &id)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRepository_Create_ExclusionViolation(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`INSERT INTO exclusive_assignments`).
		WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})

	a := &domain.ExclusiveAssignment{
		ID:        uuid.New(),
		Resource:  driver5,
		StartDate: march3,
		EndDate:   march5,
		Status:    domain.AssignmentScheduled,
		BookingID: ptr.Ptr(int64(77)),
	}
	_, err := repo.Create(context.Background(), a)
	assert.ErrorIs(t, err, ErrOverlap)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO exclusive_assignments (id,resource_type,resource_id,start_date,end_date,status,booking_id,notes) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING created_at, updated_at`)).
		WithArgs(id.String(), "driver", int64(5), march1, march3, "scheduled", int64(77), nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	a := &domain.ExclusiveAssignment{
		ID:        id,
		Resource:  driver5,
		StartDate: march1,
		EndDate:   march3,
		Status:    domain.AssignmentScheduled,
		BookingID: ptr.Ptr(int64(77)),
	}
	created, err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, now, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT .* FROM exclusive_assignments WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := newTestRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE exclusive_assignments SET status = $1, updated_at = NOW(), cancellation_reason = $2 WHERE id = $3`)).
		WithArgs("cancelled", "customer request", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), id, domain.AssignmentCancelled, ptr.Ptr("customer request")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateDates_Overlap(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE exclusive_assignments SET start_date`).
		WillReturnError(&pq.Error{Code: "23P01"})

	err := repo.UpdateDates(context.Background(), uuid.New(), march1, march5)
	assert.ErrorIs(t, err, ErrOverlap)
}
