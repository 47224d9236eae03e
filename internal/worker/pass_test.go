package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"Postline/internal/email"
	"Postline/internal/models"
)

func TestRunOnce_EmptyQueue(t *testing.T) {
	store := new(mockStore)
	transport := new(mockTransport)
	store.On("ListPending", mock.Anything).Return([]models.EmailJob{}, nil).Once()

	res := RunOnce(context.Background(), store, transport, nil, zap.NewNop())

	assert.Equal(t, Result{}, res)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Mark", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRunOnce_ListErrorSendsNothing(t *testing.T) {
	store := new(mockStore)
	transport := new(mockTransport)
	store.On("ListPending", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	res := RunOnce(context.Background(), store, transport, nil, zap.NewNop())

	assert.Equal(t, Result{}, res)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRunOnce_MixedOutcomesInOrder(t *testing.T) {
	store := new(mockStore)
	transport := new(mockTransport)
	resolver := new(mockResolver)
	attachment := &email.Attachment{Filename: "3_photo.jpg", Data: []byte("img")}

	store.On("ListPending", mock.Anything).Return([]models.EmailJob{
		job(1, "a@example.com", nil),
		job(2, "b@example.com", nil),
		job(3, "c@example.com", ptr(int64(5))),
	}, nil).Once()
	store.renewAll()
	resolver.On("Resolve", mock.Anything, int64(5)).Return(attachment, nil).Once()

	transport.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "a@example.com" && m.Attachment == nil
	})).Return(true).Once()
	transport.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "b@example.com"
	})).Return(false).Once()
	transport.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "c@example.com" && m.Attachment == attachment
	})).Return(true).Once()

	store.On("Mark", mock.Anything, int64(1), models.StatusSent).Return(nil).Once()
	store.On("Mark", mock.Anything, int64(2), models.StatusFailed).Return(nil).Once()
	store.On("Mark", mock.Anything, int64(3), models.StatusSent).Return(nil).Once()

	res := RunOnce(context.Background(), store, transport, resolver, zap.NewNop())

	assert.Equal(t, Result{Processed: 3, Sent: 2, Failed: 1}, res)
	store.AssertExpectations(t)
	transport.AssertExpectations(t)
	resolver.AssertExpectations(t)

	var order []int64
	for _, c := range store.Calls {
		if c.Method == "Mark" {
			order = append(order, c.Arguments.Get(1).(int64))
		}
	}
	assert.Equal(t, []int64{1, 2, 3}, order)
}

func TestRunOnce_CommitFailureDoesNotStopPass(t *testing.T) {
	store := new(mockStore)
	transport := new(mockTransport)

	store.On("ListPending", mock.Anything).Return([]models.EmailJob{
		job(1, "a@example.com", nil),
		job(2, "b@example.com", nil),
	}, nil).Once()
	store.renewAll()
	transport.On("Send", mock.Anything, mock.Anything).Return(true).Twice()
	store.On("Mark", mock.Anything, int64(1), models.StatusSent).Return(errors.New("commit failed")).Once()
	store.On("Mark", mock.Anything, int64(2), models.StatusSent).Return(nil).Once()

	res := RunOnce(context.Background(), store, transport, nil, zap.NewNop())

	assert.Equal(t, Result{Processed: 2, Sent: 2, CommitFailed: 1}, res)
	store.AssertExpectations(t)
}

func TestRunOnce_TransportPanicMarksFailed(t *testing.T) {
	store := new(mockStore)
	transport := &panickingTransport{}

	store.On("ListPending", mock.Anything).Return([]models.EmailJob{
		job(1, "boom@example.com", nil),
		job(2, "ok@example.com", nil),
	}, nil).Once()
	store.renewAll()
	store.On("Mark", mock.Anything, int64(1), models.StatusFailed).Return(nil).Once()
	store.On("Mark", mock.Anything, int64(2), models.StatusSent).Return(nil).Once()

	res := RunOnce(context.Background(), store, transport, nil, zap.NewNop())

	assert.Equal(t, Result{Processed: 2, Sent: 1, Failed: 1}, res)
	assert.Equal(t, []string{"ok@example.com"}, transport.sent)
	store.AssertExpectations(t)
}

func TestRunOnce_AttachmentErrorSendsWithout(t *testing.T) {
	store := new(mockStore)
	transport := new(mockTransport)
	resolver := new(mockResolver)

	store.On("ListPending", mock.Anything).Return([]models.EmailJob{
		job(1, "a@example.com", ptr(int64(9))),
	}, nil).Once()
	store.renewAll()
	resolver.On("Resolve", mock.Anything, int64(9)).Return(nil, errors.New("disk read error")).Once()
	transport.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.Attachment == nil
	})).Return(true).Once()
	store.On("Mark", mock.Anything, int64(1), models.StatusSent).Return(nil).Once()

	res := RunOnce(context.Background(), store, transport, resolver, zap.NewNop())

	assert.Equal(t, 1, res.Sent)
	transport.AssertExpectations(t)
}

func TestRunOnce_NoPostSkipsResolver(t *testing.T) {
	store := new(mockStore)
	transport := new(mockTransport)
	resolver := new(mockResolver)

	store.On("ListPending", mock.Anything).Return([]models.EmailJob{job(1, "a@example.com", nil)}, nil).Once()
	store.renewAll()
	transport.On("Send", mock.Anything, mock.Anything).Return(true).Once()
	store.On("Mark", mock.Anything, int64(1), models.StatusSent).Return(nil).Once()

	RunOnce(context.Background(), store, transport, resolver, zap.NewNop())

	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestRunOnce_LostClaimIsNotSent(t *testing.T) {
	store := new(mockStore)
	transport := new(mockTransport)

	store.On("ListPending", mock.Anything).Return([]models.EmailJob{
		job(1, "a@example.com", nil),
		job(2, "b@example.com", nil),
	}, nil).Once()
	store.On("Renew", mock.Anything, int64(1)).Return(fmt.Errorf("renew claim on email 1: %w", models.ErrNotFound)).Once()
	store.On("Renew", mock.Anything, int64(2)).Return(nil).Once()
	transport.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "b@example.com"
	})).Return(true).Once()
	store.On("Mark", mock.Anything, int64(2), models.StatusSent).Return(nil).Once()

	res := RunOnce(context.Background(), store, transport, nil, zap.NewNop())

	assert.Equal(t, Result{Processed: 2, Sent: 1, Skipped: 1}, res)
	store.AssertNotCalled(t, "Mark", mock.Anything, int64(1), mock.Anything)
	transport.AssertExpectations(t)
	store.AssertExpectations(t)
}
