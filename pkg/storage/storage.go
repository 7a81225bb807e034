// Package storage abstracts where uploaded invoice documents live: a
// directory on local disk in development, an S3-compatible bucket in
// production. Which backend is active is a deployment-time decision made
// once at startup; handlers only ever see the Backend interface.
package storage

import (
	"context"
	"io"
	"time"
)

// Backend is the capability set callers depend on.
type Backend interface {
	// Upload stores the reader's content under key and returns a URL
	// (or local path) where the stored file can be referenced.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Download returns the full content stored under key.
	Download(ctx context.Context, key string) ([]byte, error)
	// DownloadToTemp fetches the content into a temporary file and
	// returns its path. The caller owns the file and must remove it.
	DownloadToTemp(ctx context.Context, key string) (string, error)
	// Delete removes the stored file. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is currently stored.
	Exists(ctx context.Context, key string) (bool, error)
	// PresignedURL returns a time-limited credential-free read URL, or
	// ErrPresignUnsupported when the backend has no such concept.
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
