package db

import (
	"context"
	"fmt"

	"Postline/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id`,
		u.Username, u.Email, u.Password,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert user %q: %w", u.Username, translate(err))
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password FROM users WHERE username = $1`, username)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	if err := s.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.Password); err != nil {
		return nil, fmt.Errorf("get user %v: %w", arg, translate(err))
	}
	return &u, nil
}
