package db

import (
	"context"
	"fmt"

	"Postline/internal/models"
)

const profileColumns = `id, user_id, bio, location, phone`

func (s *Store) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO user_profiles (user_id, bio, location, phone) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.UserID, p.Bio, p.Location, p.Phone,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert profile for user %d: %w", p.UserID, translate(err))
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.ID, &p.UserID, &p.Bio, &p.Location, &p.Phone)
	if err != nil {
		return nil, fmt.Errorf("get profile for user %d: %w", userID, translate(err))
	}
	return &p, nil
}

// UpdateProfile writes every column of p.
func (s *Store) UpdateProfile(ctx context.Context, p *models.UserProfile) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE user_profiles SET bio = $1, location = $2, phone = $3 WHERE user_id = $4`,
		p.Bio, p.Location, p.Phone, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("update profile for user %d: %w", p.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update profile for user %d: %w", p.UserID, models.ErrNotFound)
	}
	return nil
}

// DeleteProfile removes the profile and returns what was deleted.
func (s *Store) DeleteProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.QueryRow(ctx,
		`DELETE FROM user_profiles WHERE user_id = $1 RETURNING `+profileColumns, userID,
	).Scan(&p.ID, &p.UserID, &p.Bio, &p.Location, &p.Phone)
	if err != nil {
		return nil, fmt.Errorf("delete profile for user %d: %w", userID, translate(err))
	}
	return &p, nil
}
