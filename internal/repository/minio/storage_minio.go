package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// Storage uploads objects and returns their public URL.
type Storage struct {
	client    *minio.Client
	publicURL string
}

// NewStorage wraps client. publicURL is the base used for returned object
// URLs, e.g. https://files.example.com; it defaults to the client endpoint.
func NewStorage(client *minio.Client, publicURL string) *Storage {
	base := strings.TrimRight(strings.TrimSpace(publicURL), "/")
	if base == "" && client != nil {
		base = strings.TrimRight(client.EndpointURL().String(), "/")
	}
	return &Storage{client: client, publicURL: base}
}

func (s *Storage) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %s", bucket)
	}
	if exists {
		return nil
	}
	return errors.Wrapf(s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}), "create bucket %s", bucket)
}

func (s *Storage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "put object %s/%s", bucket, objectName)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicURL, bucket, objectName), nil
}
