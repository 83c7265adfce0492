package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

// Store uploads previews to MinIO and hands out presigned GET URLs.
// Releasing a handle removes the object, which revokes the URL.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	expiry     time.Duration
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, expiry time.Duration) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &Store{client: cli, bucketName: bucket, region: region, expiry: expiry}, nil
}

// Acquire implementasi PreviewStore
func (s *Store) Acquire(ctx context.Context, a *media.Asset) (media.PreviewHandle, error) {
	key := path.Join("previews", uuid.New().String(), path.Base(a.Filename))

	contentType := a.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(a.Content), int64(len(a.Content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return media.PreviewHandle{}, fmt.Errorf("upload preview: %w", err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.expiry, url.Values{})
	if err != nil {
		// object tanpa URL gak ada gunanya, hapus lagi
		_ = s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
		return media.PreviewHandle{}, fmt.Errorf("presign preview: %w", err)
	}
	return media.PreviewHandle{ID: key, URL: u.String()}, nil
}

// Release hapus object preview dari bucket
func (s *Store) Release(ctx context.Context, h media.PreviewHandle) error {
	if h.ID == "" {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucketName, h.ID, minio.RemoveObjectOptions{})
}
