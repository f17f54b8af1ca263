package services

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/example/agrobazaar/internal/apperrors"
)

// UploadTicket is what a client needs to PUT an image directly to storage.
type UploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	ExpiresIn int    `json:"expiresIn"`
}

// StorageService issues presigned upload URLs for product and store images.
// A nil client means storage is not configured.
type StorageService struct {
	client    *minio.Client
	bucket    string
	publicURL string
	ttl       time.Duration
}

// NewStorageService constructs a StorageService. publicURL is the base that
// object keys are appended to when building the public link; when empty the
// MinIO endpoint and bucket are used.
func NewStorageService(client *minio.Client, bucket, publicURL string, ttl time.Duration) *StorageService {
	return &StorageService{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		ttl:       ttl,
	}
}

// PresignUpload returns a URL that accepts a single PUT of key with the
// given content type until the ticket expires.
func (s *StorageService) PresignUpload(ctx context.Context, key, contentType string) (*UploadTicket, error) {
	if s == nil || s.client == nil {
		return nil, apperrors.Unavailable("Image upload is not configured.", nil)
	}

	key = strings.TrimSpace(key)
	if key == "" || contentType == "" {
		return nil, apperrors.Validation("Please provide all required fields: key, contentType.", nil)
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.Contains(key, "..") {
		return nil, apperrors.Validation("key must be a relative object path.", nil)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, apperrors.Validation("contentType must be an image type.", nil)
	}

	headers := http.Header{}
	headers.Set("Content-Type", contentType)

	signed, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, s.ttl, nil, headers)
	if err != nil {
		return nil, apperrors.Internal("Failed to create upload URL.", err)
	}

	return &UploadTicket{
		UploadURL: signed.String(),
		PublicURL: s.objectURL(key),
		ExpiresIn: int(s.ttl.Seconds()),
	}, nil
}

func (s *StorageService) objectURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	endpoint := s.client.EndpointURL()
	return endpoint.Scheme + "://" + endpoint.Host + "/" + s.bucket + "/" + key
}
