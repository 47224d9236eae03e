package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Postline/internal/email"
	"Postline/internal/metrics"
	"Postline/internal/models"
)

// Store is the outbox as seen by one delivery pass. Renew keeps a claimed job
// from being released while the pass is still working through the snapshot.
type Store interface {
	ListPending(ctx context.Context) ([]models.EmailJob, error)
	Renew(ctx context.Context, id int64) error
	Mark(ctx context.Context, id int64, status models.EmailStatus) error
}

type Transport interface {
	Send(ctx context.Context, msg email.Message) bool
}

// AttachmentResolver returns the file attached to a job's post, or nil.
type AttachmentResolver interface {
	Resolve(ctx context.Context, postID int64) (*email.Attachment, error)
}

type Result struct {
	Processed    int
	Sent         int
	Failed       int
	CommitFailed int
	Skipped      int
}

// RunOnce delivers every job returned by a single ListPending call, one at a
// time, committing each status on its own. It never returns an error: every
// failure is logged and the pass moves on.
func RunOnce(
	ctx context.Context,
	store Store,
	transport Transport,
	attachments AttachmentResolver,
	logger *zap.Logger,
) Result {
	var res Result
	start := time.Now()
	defer func() {
		metrics.OutboxPassDuration.Observe(time.Since(start).Seconds())
	}()

	jobs, err := store.ListPending(ctx)
	if err != nil {
		logger.Error("failed to list pending emails", zap.Error(err))
		return res
	}
	metrics.OutboxLastBatch.Set(float64(len(jobs)))

	if len(jobs) == 0 {
		logger.Info("no pending emails")
		return res
	}

	logger.Info("processing pending emails", zap.Int("count", len(jobs)))

	for _, job := range jobs {
		res.Processed++

		// A job whose claim cannot be renewed may belong to another pass now.
		if err := store.Renew(ctx, job.ID); err != nil {
			res.Skipped++
			logger.Warn("skipping email, claim not renewed",
				zap.Int64("job_id", job.ID),
				zap.Error(err),
			)
			continue
		}

		msg := email.Message{
			To:      job.To,
			Subject: job.Subject,
			Body:    job.Body,
		}
		if job.PostID != nil && attachments != nil {
			msg.Attachment = resolve(ctx, attachments, job, logger)
		}

		// ----------------------------
		// Send Email
		// ----------------------------
		status := models.StatusFailed
		if safeSend(ctx, transport, msg, job.ID, logger) {
			status = models.StatusSent
			res.Sent++
			metrics.EmailsSent.Inc()
		} else {
			res.Failed++
			metrics.EmailFailures.Inc()
		}

		// ----------------------------
		// Commit Status
		// ----------------------------
		if err := store.Mark(ctx, job.ID, status); err != nil {
			res.CommitFailed++
			metrics.EmailCommitFailures.Inc()
			logger.Error("failed to commit email status",
				zap.Int64("job_id", job.ID),
				zap.String("status", string(status)),
				zap.Error(err),
			)
			continue
		}

		logger.Debug("email processed",
			zap.Int64("job_id", job.ID),
			zap.String("status", string(status)),
		)
	}

	logger.Info("outbox pass finished",
		zap.Int("processed", res.Processed),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int("commit_failed", res.CommitFailed),
		zap.Int("skipped", res.Skipped),
	)
	return res
}

func resolve(ctx context.Context, attachments AttachmentResolver, job models.EmailJob, logger *zap.Logger) *email.Attachment {
	a, err := attachments.Resolve(ctx, *job.PostID)
	if err != nil {
		logger.Warn("sending without attachment",
			zap.Int64("job_id", job.ID),
			zap.Int64("post_id", *job.PostID),
			zap.Error(err),
		)
		return nil
	}
	return a
}

// safeSend treats a panicking transport as a failed send.
func safeSend(ctx context.Context, t Transport, msg email.Message, jobID int64, logger *zap.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("transport panicked",
				zap.Int64("job_id", jobID),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()
	return t.Send(ctx, msg)
}
