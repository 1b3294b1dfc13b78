package main

import (
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseTLS    bool
}

type minioBlobStore struct {
	client *minio.Client
	bucket string
}

// OpenMinioBlobStore connects to an S3/MinIO endpoint and ensures the bucket
// exists. Bucket creation races between replicas are tolerated.
func OpenMinioBlobStore(ctx context.Context, cfg MinioConfig) (BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
	})
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			if ok, _ := client.BucketExists(ctx, cfg.Bucket); !ok {
				return nil, err
			}
		}
	}
	return &minioBlobStore{client: client, bucket: cfg.Bucket}, nil
}

func (m *minioBlobStore) Driver() BlobDriver { return BlobDriverMinio }

func (m *minioBlobStore) Put(ctx context.Context, id string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, id, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (m *minioBlobStore) Get(ctx context.Context, id string) (io.ReadCloser, string, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	// GetObject is lazy; Stat surfaces not-found before the caller reads.
	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return obj, st.ContentType, nil
}

func (m *minioBlobStore) Delete(ctx context.Context, id string) error {
	return m.client.RemoveObject(ctx, m.bucket, id, minio.RemoveObjectOptions{})
}
