package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Local stores files flat under a single root directory. Keys are
// reduced to their base name so a crafted key cannot escape the root.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed and returns the backend.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Key: root, Err: err}
	}
	return &Local{root: root}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, filepath.Base(key))
}

func (l *Local) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	dst := l.path(key)
	f, err := os.Create(dst)
	if err != nil {
		return "", &StorageError{Op: "upload", Key: key, Err: err}
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", &StorageError{Op: "upload", Key: key, Err: err}
	}
	return dst, nil
}

func (l *Local) Download(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(l.path(key))
	if err != nil {
		return nil, &StorageError{Op: "download", Key: key, Err: err}
	}
	return b, nil
}

func (l *Local) DownloadToTemp(ctx context.Context, key string) (string, error) {
	b, err := l.Download(ctx, key)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "invox-*"+filepath.Ext(key))
	if err != nil {
		return "", &StorageError{Op: "download", Key: key, Err: err}
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &StorageError{Op: "download", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", &StorageError{Op: "download", Key: key, Err: err}
	}
	return tmp.Name(), nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &StorageError{Op: "stat", Key: key, Err: err}
}

func (l *Local) PresignedURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}
