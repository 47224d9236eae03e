package db

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"Postline/internal/models"
)

// Outbox is the email_queue store bound to a single connection for the
// duration of one delivery pass.
type Outbox struct {
	db querier
}

func NewOutbox(q querier) *Outbox {
	return &Outbox{db: q}
}

// OutboxSession acquires one pooled connection. The caller must invoke
// release when the pass is over.
func (s *Store) OutboxSession(ctx context.Context) (*Outbox, func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}
	return NewOutbox(conn), conn.Release, nil
}

const claimPendingQuery = `
UPDATE email_queue
SET status = $1, updated_at = NOW()
WHERE id IN (
	SELECT id FROM email_queue
	WHERE status = $2
	ORDER BY id
	FOR UPDATE SKIP LOCKED
)
RETURNING id, to_email, subject, body, status, post_id, created_at, updated_at`

// ListPending claims every pending job and returns them ordered by id.
// Rows locked by a concurrent pass are skipped.
func (o *Outbox) ListPending(ctx context.Context) ([]models.EmailJob, error) {
	rows, err := o.db.Query(ctx, claimPendingQuery, models.StatusProcessing, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("claim pending emails: %w", err)
	}
	defer rows.Close()

	var jobs []models.EmailJob
	for rows.Next() {
		var j models.EmailJob
		if err := rows.Scan(&j.ID, &j.To, &j.Subject, &j.Body, &j.Status, &j.PostID, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan email job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim pending emails: %w", err)
	}

	// RETURNING does not preserve the subquery order.
	slices.SortFunc(jobs, func(a, b models.EmailJob) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return jobs, nil
}

// Renew refreshes the claim on one job so stale recovery leaves it alone
// while this pass still holds it. ErrNotFound means the claim was lost.
func (o *Outbox) Renew(ctx context.Context, id int64) error {
	tag, err := o.db.Exec(ctx,
		`UPDATE email_queue SET updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, models.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("renew claim on email %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("renew claim on email %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// Mark sets the final status of a claimed job and commits it on its own.
// A job that is no longer PROCESSING is left untouched.
func (o *Outbox) Mark(ctx context.Context, id int64, status models.EmailStatus) error {
	tx, err := o.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx for email %d: %w", id, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE email_queue SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		status, id, models.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("update email %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update email %d: %w", id, models.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit email %d: %w", id, err)
	}
	return nil
}

// ReleaseStale hands claims older than olderThan back to PENDING.
func (o *Outbox) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	// The cutoff uses the database clock, the same one that stamped the claim.
	tag, err := o.db.Exec(ctx,
		`UPDATE email_queue SET status = $1, updated_at = NOW()
		 WHERE status = $2 AND updated_at < NOW() - $3 * INTERVAL '1 second'`,
		models.StatusPending, models.StatusProcessing, olderThan.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReleaseStale runs recovery on the shared pool.
func (s *Store) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return NewOutbox(s.db).ReleaseStale(ctx, olderThan)
}

// EnqueueEmails inserts standalone pending jobs in one transaction.
func (s *Store) EnqueueEmails(ctx context.Context, jobs []*models.EmailJob) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, job := range jobs {
		if err := insertEmail(ctx, tx, job); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit emails: %w", err)
	}
	return nil
}

func insertEmail(ctx context.Context, q querier, job *models.EmailJob) error {
	job.Status = models.StatusPending
	err := q.QueryRow(ctx,
		`INSERT INTO email_queue (to_email, subject, body, status, post_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		job.To, job.Subject, job.Body, job.Status, job.PostID,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert email: %w", err)
	}
	return nil
}
