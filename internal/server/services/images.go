package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/server/images"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

// ImageService validates and stores issue photos. With a nil store every
// call fails with common.ErrUnavailable.
type ImageService struct {
	store    images.Store
	maxBytes int64
}

func NewImageService(store images.Store, maxBytes int64) *ImageService {
	return &ImageService{store: store, maxBytes: maxBytes}
}

// UploadBase64 decodes a base64 image and stores it below prefix, returning
// the object key to keep on the issue.
func (s *ImageService) UploadBase64(ctx context.Context, prefix, encoded string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("%w: image storage is not configured", common.ErrUnavailable)
	}

	data, contentType, err := images.DecodeBase64(encoded, s.maxBytes)
	if err != nil {
		return "", err
	}

	key, err := s.store.Put(ctx, prefix, data, contentType)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// URL returns a temporary download URL for key.
func (s *ImageService) URL(ctx context.Context, key string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("%w: image storage is not configured", common.ErrUnavailable)
	}
	return s.store.PresignGet(ctx, key)
}

// PresignUpload reserves a key for a direct client upload.
func (s *ImageService) PresignUpload(ctx context.Context, contentType string) (*models.ImageUpload, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: image storage is not configured", common.ErrUnavailable)
	}
	if !images.AllowedContentType(contentType) {
		return nil, fmt.Errorf("%w: unsupported image type %s", common.ErrValidation, contentType)
	}
	return s.store.PresignPut(ctx, images.PrefixIssues, contentType)
}
