package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postline/internal/models"
)

func newMockOutbox(t *testing.T) (*Outbox, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewOutbox(mock), mock
}

func jobRows(ids ...int64) *pgxmock.Rows {
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "to_email", "subject", "body", "status", "post_id", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "user@example.com", "subject", "body", models.StatusProcessing, nil, now, now)
	}
	return rows
}

func TestOutbox_ListPending_ClaimsAndOrdersByID(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	mock.ExpectQuery("UPDATE email_queue").
		WithArgs(models.StatusProcessing, models.StatusPending).
		WillReturnRows(jobRows(3, 1, 2))

	jobs, err := outbox.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, int64(1), jobs[0].ID)
	assert.Equal(t, int64(2), jobs[1].ID)
	assert.Equal(t, int64(3), jobs[2].ID)
	assert.Nil(t, jobs[0].PostID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_ListPending_Empty(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	mock.ExpectQuery("UPDATE email_queue").
		WithArgs(models.StatusProcessing, models.StatusPending).
		WillReturnRows(jobRows())

	jobs, err := outbox.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestOutbox_ListPending_QueryError(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	mock.ExpectQuery("UPDATE email_queue").
		WithArgs(models.StatusProcessing, models.StatusPending).
		WillReturnError(errors.New("connection lost"))

	_, err := outbox.ListPending(context.Background())
	assert.ErrorContains(t, err, "connection lost")
}

func TestOutbox_Mark_Commits(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE email_queue SET status").
		WithArgs(models.StatusSent, int64(7), models.StatusProcessing).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, outbox.Mark(context.Background(), 7, models.StatusSent))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_Mark_CommitFailureRollsBack(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE email_queue SET status").
		WithArgs(models.StatusFailed, int64(8), models.StatusProcessing).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
	mock.ExpectRollback()

	err := outbox.Mark(context.Background(), 8, models.StatusFailed)
	assert.ErrorContains(t, err, "commit email 8")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_Mark_OnlyTouchesClaimedRow(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	// the row was released by recovery and is PENDING again
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE email_queue SET status = \$1, updated_at = NOW\(\) WHERE id = \$2 AND status = \$3`).
		WithArgs(models.StatusSent, int64(9), models.StatusProcessing).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := outbox.Mark(context.Background(), 9, models.StatusSent)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_ReleaseStale(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	mock.ExpectExec(`updated_at < NOW\(\) - \$3 \* INTERVAL '1 second'`).
		WithArgs(models.StatusPending, models.StatusProcessing, float64(600)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := outbox.ReleaseStale(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_Renew(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	mock.ExpectExec(`UPDATE email_queue SET updated_at = NOW\(\) WHERE id = \$1 AND status = \$2`).
		WithArgs(int64(4), models.StatusProcessing).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, outbox.Renew(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutbox_Renew_ClaimLost(t *testing.T) {
	outbox, mock := newMockOutbox(t)

	mock.ExpectExec("UPDATE email_queue SET updated_at").
		WithArgs(int64(4), models.StatusProcessing).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := outbox.Renew(context.Background(), 4)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
