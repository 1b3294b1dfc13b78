package main

import (
	"context"
	"fmt"
	"io"
)

// BlobDriver identifies a concrete attachment payload backend.
type BlobDriver string

const (
	BlobDriverFilesystem BlobDriver = "fs"     // local directory (default, dev)
	BlobDriverMinio      BlobDriver = "minio"  // S3 / MinIO compatible
	BlobDriverMemory     BlobDriver = "memory" // in-memory (tests)
)

// BlobStore holds attachment payloads keyed by attachment id, independently
// of the snapshot store. Every operation is a single attempt that either
// succeeds or returns an error; callers log and move on.
type BlobStore interface {
	Put(ctx context.Context, id string, r io.Reader, size int64, contentType string) error
	// Get returns the payload stream and its content type, or ErrNotFound.
	Get(ctx context.Context, id string) (io.ReadCloser, string, error)
	// Delete removes the payload. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	Driver() BlobDriver
}

// OpenBlobStore selects a backend from environment variables:
//
//	KORTEX_BLOB_DRIVER: fs|minio|memory (default fs)
//	KORTEX_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_BUCKET, MINIO_USE_TLS
func OpenBlobStore(ctx context.Context) (BlobStore, error) {
	driver := getenv("KORTEX_BLOB_DRIVER", string(BlobDriverFilesystem))
	switch BlobDriver(driver) {
	case BlobDriverFilesystem:
		return NewFilesystemBlobStore(getenv("KORTEX_BLOB_FS_ROOT", "./blobdata"))
	case BlobDriverMinio:
		return OpenMinioBlobStore(ctx, MinioConfig{
			Endpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getenv("MINIO_ACCESS_KEY", ""),
			SecretKey: getenv("MINIO_SECRET_KEY", ""),
			Bucket:    getenv("MINIO_BUCKET", "kortex-attachments"),
			UseTLS:    getenv("MINIO_USE_TLS", "false") == "true",
		})
	case BlobDriverMemory:
		return NewMemoryBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
