package services

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/agrobazaar/internal/apperrors"
)

func newTestStorage(t *testing.T, publicURL string) *StorageService {
	t.Helper()

	client, err := minio.New("storage.local:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	return NewStorageService(client, "product-images", publicURL, 15*time.Minute)
}

func TestPresignUploadSignsPut(t *testing.T) {
	svc := newTestStorage(t, "")

	ticket, err := svc.PresignUpload(context.Background(), "sellers/42/neem.jpg", "image/jpeg")
	require.NoError(t, err)

	signed, err := url.Parse(ticket.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "storage.local:9000", signed.Host)
	assert.Equal(t, "/product-images/sellers/42/neem.jpg", signed.Path)
	assert.Equal(t, "900", signed.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, signed.Query().Get("X-Amz-Signature"))

	assert.Equal(t, "http://storage.local:9000/product-images/sellers/42/neem.jpg", ticket.PublicURL)
	assert.Equal(t, 900, ticket.ExpiresIn)
}

func TestPresignUploadUsesPublicBase(t *testing.T) {
	svc := newTestStorage(t, "https://cdn.example.com/images/")

	ticket, err := svc.PresignUpload(context.Background(), "logo.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/logo.png", ticket.PublicURL)
}

func TestPresignUploadRejectsBadInput(t *testing.T) {
	svc := newTestStorage(t, "")
	ctx := context.Background()

	cases := map[string][2]string{
		"missing key":  {"", "image/png"},
		"absolute key": {"/etc/passwd", "image/png"},
		"traversal":    {"a/../../b.png", "image/png"},
		"not an image": {"doc.pdf", "application/pdf"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PresignUpload(ctx, tc[0], tc[1])
			assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
		})
	}
}

func TestPresignUploadUnconfigured(t *testing.T) {
	var svc *StorageService
	_, err := svc.PresignUpload(context.Background(), "a.png", "image/png")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnavailable))

	_, err = NewStorageService(nil, "b", "", time.Minute).PresignUpload(context.Background(), "a.png", "image/png")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnavailable))
}
