package worker

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"Postline/internal/email"
	"Postline/internal/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListPending(ctx context.Context) ([]models.EmailJob, error) {
	args := m.Called(ctx)
	jobs, _ := args.Get(0).([]models.EmailJob)
	return jobs, args.Error(1)
}

func (m *mockStore) Renew(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStore) Mark(ctx context.Context, id int64, status models.EmailStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockStore) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) renewAll() {
	m.On("Renew", mock.Anything, mock.Anything).Return(nil)
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(ctx context.Context, msg email.Message) bool {
	args := m.Called(ctx, msg)
	return args.Bool(0)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, postID int64) (*email.Attachment, error) {
	args := m.Called(ctx, postID)
	a, _ := args.Get(0).(*email.Attachment)
	return a, args.Error(1)
}

type panickingTransport struct {
	sent []string
}

func (p *panickingTransport) Send(_ context.Context, msg email.Message) bool {
	if msg.To == "boom@example.com" {
		panic("smtp client crashed")
	}
	p.sent = append(p.sent, msg.To)
	return true
}

func ptr[T any](v T) *T {
	return &v
}

func job(id int64, to string, postID *int64) models.EmailJob {
	return models.EmailJob{
		ID:      id,
		To:      to,
		Subject: "Your post has been created",
		Body:    "Hello",
		Status:  models.StatusProcessing,
		PostID:  postID,
	}
}
