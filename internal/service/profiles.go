package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"Postline/internal/models"
)

type ProfileRepository interface {
	CreateProfile(ctx context.Context, p *models.UserProfile) error
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, p *models.UserProfile) error
	DeleteProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type ProfileInput struct {
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
	Phone    *string `json:"phone"`
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
	Phone    *string `json:"phone"`
}

type Profiles struct {
	repo  ProfileRepository
	users UserLookup
	log   *zap.Logger
}

func NewProfiles(repo ProfileRepository, users UserLookup, logger *zap.Logger) *Profiles {
	return &Profiles{repo: repo, users: users, log: logger}
}

func (s *Profiles) Create(ctx context.Context, userID int64, in ProfileInput) (*models.UserProfile, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}

	p := &models.UserProfile{UserID: userID, Bio: in.Bio, Location: in.Location, Phone: in.Phone}
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, invalid("Profile already exists")
		}
		return nil, err
	}

	s.log.Info("profile created", zap.Int64("user_id", userID))
	return p, nil
}

func (s *Profiles) Get(ctx context.Context, userID int64) (*models.UserProfile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("Profile not found")
	}
	return p, err
}

func (s *Profiles) Update(ctx context.Context, userID int64, in ProfileUpdate) (*models.UserProfile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		p.Bio = in.Bio
	}
	if in.Location != nil {
		p.Location = in.Location
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}

	if err := s.repo.UpdateProfile(ctx, p); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, notFound("Profile not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *Profiles) Delete(ctx context.Context, userID int64) (*models.UserProfile, error) {
	p, err := s.repo.DeleteProfile(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("Profile not found")
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("profile deleted", zap.Int64("user_id", userID))
	return p, nil
}
