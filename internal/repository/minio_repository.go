package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

// MinioLastImageRepository keeps the slot as one object in a bucket
type MinioLastImageRepository struct {
	client *minio.Client
	bucket string
}

// NewMinioLastImageRepository creates a Minio client and ensures the bucket exists
func NewMinioLastImageRepository(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioLastImageRepository, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return NewMinioLastImageRepositoryWithClient(ctx, client, bucket)
}

// NewMinioLastImageRepositoryWithClient uses an existing client and ensures the bucket exists
func NewMinioLastImageRepositoryWithClient(ctx context.Context, client *minio.Client, bucket string) (*MinioLastImageRepository, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioLastImageRepository{client: client, bucket: bucket}, nil
}

// Ref returns bucket/object of the slot
func (r *MinioLastImageRepository) Ref() string {
	return r.bucket + "/" + LastImageFilename
}

// Save uploads data over the slot object
func (r *MinioLastImageRepository) Save(ctx context.Context, data []byte) (string, error) {
	_, err := r.client.PutObject(ctx, r.bucket, LastImageFilename, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload last image: %w", err)
	}
	return r.Ref(), nil
}

// Load downloads the slot object
func (r *MinioLastImageRepository) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(r, ref); err != nil {
		return nil, err
	}

	obj, err := r.client.GetObject(ctx, r.bucket, LastImageFilename, minio.GetObjectOptions{})
	if err != nil {
		return nil, r.mapError(err, "failed to download last image")
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, r.mapError(err, "failed to read last image")
	}
	return data, nil
}

// UpdatedAt returns the object's last modification time
func (r *MinioLastImageRepository) UpdatedAt(ctx context.Context) (time.Time, error) {
	info, err := r.client.StatObject(ctx, r.bucket, LastImageFilename, minio.StatObjectOptions{})
	if err != nil {
		return time.Time{}, r.mapError(err, "failed to stat last image")
	}
	return info.LastModified, nil
}

// Delete removes the slot object
func (r *MinioLastImageRepository) Delete(ctx context.Context) error {
	if err := r.client.RemoveObject(ctx, r.bucket, LastImageFilename, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete last image: %w", err)
	}
	return nil
}

func (r *MinioLastImageRepository) mapError(err error, msg string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return domain.ErrNoLastImage
	}
	return fmt.Errorf("%s: %w", msg, err)
}
