package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"Postline/internal/models"
	"Postline/internal/taskapi"
)

type MessageProvider interface {
	FetchMessages(ctx context.Context, taskID int64) ([]json.RawMessage, error)
}

type TaskMessagesRepository interface {
	UpsertTaskMessages(ctx context.Context, tm *models.TaskMessages) error
}

type TaskMessagesInput struct {
	TaskID int64 `json:"task_id"`
}

type TaskMessages struct {
	provider MessageProvider
	repo     TaskMessagesRepository
	log      *zap.Logger
}

func NewTaskMessages(provider MessageProvider, repo TaskMessagesRepository, logger *zap.Logger) *TaskMessages {
	return &TaskMessages{provider: provider, repo: repo, log: logger}
}

// Fetch pulls the task's messages and stores the ones that have replies.
func (s *TaskMessages) Fetch(ctx context.Context, taskID int64) (*models.TaskMessages, error) {
	messages, err := s.provider.FetchMessages(ctx, taskID)
	if errors.Is(err, taskapi.ErrNoToken) {
		return nil, unauthorized("Failed to get JWT token")
	}
	if err != nil {
		s.log.Error("failed to fetch task messages", zap.Int64("task_id", taskID), zap.Error(err))
		return nil, upstream("Failed to fetch messages")
	}

	replied := make([]json.RawMessage, 0, len(messages))
	for _, m := range messages {
		if hasReplies(m) {
			replied = append(replied, m)
		}
	}
	if len(replied) == 0 {
		s.log.Info("no messages with replies", zap.Int64("task_id", taskID))
		return nil, notFound("No messages with replies to save")
	}

	blob, err := json.Marshal(replied)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}

	tm := &models.TaskMessages{TaskID: taskID, MessagesBlob: string(blob)}
	if err := s.repo.UpsertTaskMessages(ctx, tm); err != nil {
		return nil, err
	}

	s.log.Info("saved task messages", zap.Int64("task_id", taskID), zap.Int("count", len(replied)))
	return tm, nil
}

// hasReplies reports whether the message's "replies" field is present and
// non-empty. null, false, zero, "" and empty collections count as empty.
func hasReplies(msg json.RawMessage) bool {
	var m struct {
		Replies json.RawMessage `json:"replies"`
	}
	if err := json.Unmarshal(msg, &m); err != nil {
		return false
	}

	v := bytes.TrimSpace(m.Replies)
	switch string(v) {
	case "", "null", "false", `""`:
		return false
	}
	switch v[0] {
	case '[':
		var items []json.RawMessage
		return json.Unmarshal(v, &items) == nil && len(items) > 0
	case '{':
		var fields map[string]json.RawMessage
		return json.Unmarshal(v, &fields) == nil && len(fields) > 0
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil {
		return f != 0
	}
	return true
}
