package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"Postline/internal/csvparser"
	"Postline/internal/models"
)

type EmailQueue interface {
	EnqueueEmails(ctx context.Context, jobs []*models.EmailJob) error
}

// BroadcastInput is a subject and body template. {{Column}} placeholders are
// filled from each recipient's CSV row.
type BroadcastInput struct {
	Subject string
	Body    string
}

type BroadcastResult struct {
	Queued int `json:"queued"`
}

type Broadcasts struct {
	queue   EmailQueue
	maxRows int
	log     *zap.Logger
}

func NewBroadcasts(queue EmailQueue, maxRows int, logger *zap.Logger) *Broadcasts {
	return &Broadcasts{queue: queue, maxRows: maxRows, log: logger}
}

// Enqueue queues one email per recipient in the CSV. The outbox worker
// delivers them on its next pass.
func (s *Broadcasts) Enqueue(ctx context.Context, in BroadcastInput, recipients io.Reader) (*BroadcastResult, error) {
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Body) == "" {
		return nil, invalid("subject and body are required")
	}

	rows, err := csvparser.ParseRecipients(recipients, s.maxRows)
	if err != nil {
		if errors.Is(err, csvparser.ErrNoEmailColumn) || errors.Is(err, csvparser.ErrNoRows) {
			return nil, invalid("%s", err.Error())
		}
		return nil, invalid("invalid recipients csv")
	}

	jobs := make([]*models.EmailJob, 0, len(rows))
	for _, r := range rows {
		jobs = append(jobs, &models.EmailJob{
			To:      r.Email,
			Subject: csvparser.Render(in.Subject, r),
			Body:    csvparser.Render(in.Body, r),
		})
	}

	if err := s.queue.EnqueueEmails(ctx, jobs); err != nil {
		return nil, err
	}

	s.log.Info("broadcast queued", zap.Int("recipients", len(jobs)))
	return &BroadcastResult{Queued: len(jobs)}, nil
}
