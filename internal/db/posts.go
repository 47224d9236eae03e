package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"Postline/internal/models"
)

const postColumns = `id, title, content, image_filename, user_id`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.ImageFilename, &p.UserID); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePost inserts the post and its notification email in one transaction.
// notify.PostID is set to the new post id.
func (s *Store) CreatePost(ctx context.Context, p *models.Post, notify *models.EmailJob) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO posts (title, content, image_filename, user_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Title, p.Content, p.ImageFilename, p.UserID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert post: %w", translate(err))
	}

	if notify != nil {
		postID := p.ID
		notify.PostID = &postID
		if err := insertEmail(ctx, tx, notify); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, translate(err))
	}
	return p, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE posts SET title = $1, content = $2, image_filename = $3 WHERE id = $4`,
		p.Title, p.Content, p.ImageFilename, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update post %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update post %d: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

// DeletePost removes the post and returns it so the caller can clean up its image.
func (s *Store) DeletePost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `DELETE FROM posts WHERE id = $1 RETURNING `+postColumns, id))
	if err != nil {
		return nil, fmt.Errorf("delete post %d: %w", id, translate(err))
	}
	return p, nil
}
