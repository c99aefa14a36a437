package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"filesmanager/internal/queue"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockQueue(t *testing.T) (*Queue, sqlmock.Sqlmock, time.Time) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := New(db)
	q.now = func() time.Time { return now }
	return q, mock, now
}

func TestQueue_Enqueue(t *testing.T) {
	q, mock, now := newMockQueue(t)

	mock.ExpectExec(`INSERT INTO thumbnail_jobs`).
		WithArgs("f1", "u1", "enqueued", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, q.Enqueue(context.Background(), "f1", "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueue_Dequeue_ClaimsWithSkipLocked(t *testing.T) {
	q, mock, now := newMockQueue(t)

	mock.ExpectQuery(`(?s)UPDATE thumbnail_jobs.*attempts = attempts \+ 1.*FOR UPDATE SKIP LOCKED.*RETURNING id, file_id, owner_id, attempts`).
		WithArgs("processing", now.Add(5*time.Minute), now, "enqueued").
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_id", "owner_id", "attempts"}).
			AddRow(int64(42), "f1", "u1", 1))

	job, err := q.Dequeue(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, queue.Job{ID: 42, FileID: "f1", OwnerID: "u1", Attempts: 1}, job)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueue_Dequeue_Empty(t *testing.T) {
	q, mock, _ := newMockQueue(t)

	mock.ExpectQuery(`UPDATE thumbnail_jobs`).
		WillReturnError(sql.ErrNoRows)

	_, err := q.Dequeue(context.Background(), time.Minute)
	assert.ErrorIs(t, err, queue.ErrEmpty)
}

func TestQueue_Retry(t *testing.T) {
	q, mock, now := newMockQueue(t)

	mock.ExpectExec(`(?s)UPDATE thumbnail_jobs\s+SET status = \$1, visible_at = \$2.*WHERE id = \$5 AND attempts = \$6 AND status = \$7`).
		WithArgs("enqueued", now.Add(20*time.Second), "decode: bad data", now, int64(7), 2, "processing").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, q.Retry(context.Background(), queue.Job{ID: 7, Attempts: 2}, 20*time.Second, "decode: bad data"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueue_AckUnknownJob(t *testing.T) {
	q, mock, now := newMockQueue(t)

	mock.ExpectExec(`UPDATE thumbnail_jobs`).
		WithArgs("done", now, nil, now, int64(9), 1, "processing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	assert.ErrorIs(t, q.Ack(context.Background(), queue.Job{ID: 9, Attempts: 1}), queue.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueue_AckAfterRedeliveryIsStale(t *testing.T) {
	q, mock, now := newMockQueue(t)

	mock.ExpectExec(`UPDATE thumbnail_jobs`).
		WithArgs("done", now, nil, now, int64(4), 1, "processing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	assert.ErrorIs(t, q.Ack(context.Background(), queue.Job{ID: 4, Attempts: 1}), queue.ErrStale)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueue_Fail(t *testing.T) {
	q, mock, now := newMockQueue(t)

	mock.ExpectExec(`UPDATE thumbnail_jobs`).
		WithArgs("failed", now, "file not found", now, int64(3), 1, "processing").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, q.Fail(context.Background(), queue.Job{ID: 3, Attempts: 1}, "file not found"))
	require.NoError(t, mock.ExpectationsWereMet())
}
