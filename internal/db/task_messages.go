package db

import (
	"context"
	"fmt"

	"Postline/internal/models"
)

func (s *Store) UpsertTaskMessages(ctx context.Context, tm *models.TaskMessages) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO task_messages (task_id, messages_blob) VALUES ($1, $2)
		ON CONFLICT (task_id) DO UPDATE SET messages_blob = EXCLUDED.messages_blob
		RETURNING id`,
		tm.TaskID, tm.MessagesBlob,
	).Scan(&tm.ID)
	if err != nil {
		return fmt.Errorf("upsert messages for task %d: %w", tm.TaskID, err)
	}
	return nil
}
