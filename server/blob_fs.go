package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// filesystemBlobStore keeps each payload as a file under root, with a sidecar
// `.meta` file recording the content type. Attachment ids are flat tokens, so
// a key never maps outside the root.
type filesystemBlobStore struct {
	root string
}

func NewFilesystemBlobStore(root string) (BlobStore, error) {
	if root == "" {
		root = "./blobdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &filesystemBlobStore{root: root}, nil
}

func (f *filesystemBlobStore) Driver() BlobDriver { return BlobDriverFilesystem }

func (f *filesystemBlobStore) pathFor(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("empty blob id")
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid blob id %q", id)
	}
	return filepath.Join(f.root, id), nil
}

type blobMeta struct {
	ContentType string `json:"content_type,omitempty"`
}

func (f *filesystemBlobStore) Put(ctx context.Context, id string, r io.Reader, size int64, contentType string) error {
	path, err := f.pathFor(id)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.root, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	meta, _ := json.Marshal(blobMeta{ContentType: contentType})
	return os.WriteFile(path+".meta", meta, 0o644)
}

func (f *filesystemBlobStore) Get(ctx context.Context, id string) (io.ReadCloser, string, error) {
	path, err := f.pathFor(id)
	if err != nil {
		return nil, "", err
	}
	fh, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	var meta blobMeta
	if raw, err := os.ReadFile(path + ".meta"); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	return fh, meta.ContentType, nil
}

func (f *filesystemBlobStore) Delete(ctx context.Context, id string) error {
	path, err := f.pathFor(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(path + ".meta"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
