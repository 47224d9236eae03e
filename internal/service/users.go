package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"Postline/internal/auth"
	"Postline/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type TokenManager interface {
	Issue(username string) (string, error)
	Parse(token string) (string, error)
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Users struct {
	repo   UserRepository
	tokens TokenManager
	log    *zap.Logger
}

func NewUsers(repo UserRepository, tokens TokenManager, logger *zap.Logger) *Users {
	return &Users{repo: repo, tokens: tokens, log: logger}
}

func (s *Users) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, invalid("username, email and password are required")
	}

	_, err := s.repo.GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return nil, invalid("Username already taken")
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: in.Username, Email: in.Email, Password: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, invalid("Username or email already registered")
		}
		return nil, err
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *Users) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	user, err := s.repo.GetUserByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.Password, in.Password) {
		s.log.Warn("login failed", zap.String("username", in.Username))
		return nil, unauthorized("Invalid username or password")
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Users) Authenticate(ctx context.Context, token string) (*models.User, error) {
	username, err := s.tokens.Parse(token)
	if err != nil {
		return nil, unauthorized("Invalid or expired token")
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, unauthorized("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
