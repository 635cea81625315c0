package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

// Store is the object storage used by the issue service and HTTP handlers.
type Store interface {
	Put(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	PresignPut(ctx context.Context, prefix, contentType string) (*models.ImageUpload, error)
}

// Key prefixes.
const (
	PrefixIssues      = "issues"
	PrefixResolutions = "resolutions"
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func extension(contentType string) string {
	return allowedTypes[contentType]
}

// AllowedContentType reports whether images of contentType are accepted.
func AllowedContentType(contentType string) bool {
	_, ok := allowedTypes[contentType]
	return ok
}

// DecodeBase64 decodes a plain or data-URL ("data:image/png;base64,...")
// base64 image. The content type is sniffed from the bytes; anything that is
// not a supported image or exceeds maxBytes is a validation error.
func DecodeBase64(s string, maxBytes int64) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}

	if int64(base64.StdEncoding.DecodedLen(len(s))) > maxBytes+2 {
		return nil, "", fmt.Errorf("%w: image larger than %d bytes", common.ErrValidation, maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("%w: image is not valid base64", common.ErrValidation)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", common.ErrValidation)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%w: image larger than %d bytes", common.ErrValidation, maxBytes)
	}

	ct := http.DetectContentType(data)
	if !AllowedContentType(ct) {
		return nil, "", fmt.Errorf("%w: unsupported image type %s", common.ErrValidation, ct)
	}

	return data, ct, nil
}
