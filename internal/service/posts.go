package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"Postline/internal/models"
	"Postline/internal/storage"
)

const postCreatedSubject = "Your post has been created"

type PostRepository interface {
	CreatePost(ctx context.Context, p *models.Post, notify *models.EmailJob) error
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id int64) (*models.Post, error)
}

type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Upload is an image sent along with a post.
type Upload struct {
	Filename string
	Body     io.Reader
}

type Posts struct {
	repo  PostRepository
	users UserLookup
	files storage.FileStore
	log   *zap.Logger
}

func NewPosts(repo PostRepository, users UserLookup, files storage.FileStore, logger *zap.Logger) *Posts {
	return &Posts{repo: repo, users: users, files: files, log: logger}
}

// Create stores the post and queues the "post created" email for its author
// in the same transaction.
func (s *Posts) Create(ctx context.Context, userID int64, in PostInput, up *Upload) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	post := &models.Post{Title: in.Title, Content: in.Content, UserID: userID}
	if up != nil {
		name, err := s.saveImage(ctx, userID, up)
		if err != nil {
			return nil, err
		}
		post.ImageFilename = &name
	}

	notify := &models.EmailJob{
		To:      user.Email,
		Subject: postCreatedSubject,
		Body:    fmt.Sprintf("Hello %s,\n\nYour new post titled '%s' was created successfully.", user.Username, post.Title),
	}
	if err := s.repo.CreatePost(ctx, post, notify); err != nil {
		if post.ImageFilename != nil {
			s.removeImage(ctx, *post.ImageFilename)
		}
		return nil, err
	}

	s.log.Info("post created",
		zap.Int64("post_id", post.ID),
		zap.Int64("user_id", userID),
		zap.Int64("email_job_id", notify.ID),
	)
	return post, nil
}

// Update replaces title and content, and the image when a new one is uploaded.
func (s *Posts) Update(ctx context.Context, postID int64, in PostInput, up *Upload) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Title = in.Title
	post.Content = in.Content

	var replaced string
	if up != nil {
		name, err := s.saveImage(ctx, post.UserID, up)
		if err != nil {
			return nil, err
		}
		if post.ImageFilename != nil && *post.ImageFilename != name {
			replaced = *post.ImageFilename
		}
		post.ImageFilename = &name
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, notFound("Post not found")
		}
		return nil, err
	}
	if replaced != "" {
		s.removeImage(ctx, replaced)
	}

	s.log.Info("post updated", zap.Int64("post_id", post.ID))
	return post, nil
}

func (s *Posts) List(ctx context.Context) ([]models.Post, error) {
	return s.repo.ListPosts(ctx)
}

func (s *Posts) Get(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("Post not found")
	}
	return post, err
}

// Delete removes the post and its image. Queued emails that refer to the
// post are sent without an attachment.
func (s *Posts) Delete(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.repo.DeletePost(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("Post not found")
	}
	if err != nil {
		return nil, err
	}
	if post.ImageFilename != nil {
		s.removeImage(ctx, *post.ImageFilename)
	}

	s.log.Info("post deleted", zap.Int64("post_id", postID))
	return post, nil
}

func (in PostInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return invalid("title and content are required")
	}
	return nil
}

func (s *Posts) saveImage(ctx context.Context, userID int64, up *Upload) (string, error) {
	base := filepath.Base(up.Filename)
	if base == "." || base == string(filepath.Separator) {
		return "", invalid("invalid file name")
	}
	name := fmt.Sprintf("%d_%s", userID, base)
	if err := s.files.Save(ctx, name, up.Body); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	s.log.Info("saved post image", zap.String("filename", name))
	return name, nil
}

func (s *Posts) removeImage(ctx context.Context, name string) {
	if err := s.files.Delete(ctx, name); err != nil {
		s.log.Warn("failed to delete post image", zap.String("filename", name), zap.Error(err))
	}
}
