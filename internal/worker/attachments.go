package worker

import (
	"context"
	"errors"
	"fmt"

	"Postline/internal/email"
	"Postline/internal/models"
	"Postline/internal/storage"
)

type PostLookup interface {
	GetPost(ctx context.Context, id int64) (*models.Post, error)
}

// PostAttachments attaches the image of the post a job refers to.
// A deleted post or a missing file yields no attachment.
type PostAttachments struct {
	Posts PostLookup
	Files storage.FileStore
}

func (a *PostAttachments) Resolve(ctx context.Context, postID int64) (*email.Attachment, error) {
	post, err := a.Posts.GetPost(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	if post.ImageFilename == nil || *post.ImageFilename == "" {
		return nil, nil
	}

	data, err := a.Files.Read(ctx, *post.ImageFilename)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", *post.ImageFilename, err)
	}
	return &email.Attachment{Filename: *post.ImageFilename, Data: data}, nil
}
