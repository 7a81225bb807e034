package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig carries the credentials for an S3-compatible bucket
// (Cloudflare R2 in the default deployment).
type ObjectConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// PublicURL, when set, is used as the base for the URL returned by
	// Upload instead of the default pub-<account>.r2.dev form.
	PublicURL string
}

// Object proxies every call to a remote S3-compatible API over HTTPS.
type Object struct {
	client    *minio.Client
	bucket    string
	accountID string
	publicURL string
}

// NewObject builds the backend against the account's R2 endpoint.
func NewObject(cfg ObjectConfig) (*Object, error) {
	endpoint := fmt.Sprintf("%s.r2.cloudflarestorage.com", cfg.AccountID)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: true,
		Region: "auto",
	})
	if err != nil {
		return nil, &StorageError{Op: "init", Key: cfg.Bucket, Err: err}
	}
	return &Object{
		client:    client,
		bucket:    cfg.Bucket,
		accountID: cfg.AccountID,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

func (o *Object) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := o.client.PutObject(ctx, o.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", &StorageError{Op: "upload", Key: key, Err: err}
	}
	if o.publicURL != "" {
		return o.publicURL + "/" + key, nil
	}
	return fmt.Sprintf("https://pub-%s.r2.dev/%s/%s", o.accountID, o.bucket, key), nil
}

func (o *Object) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &StorageError{Op: "download", Key: key, Err: err}
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, &StorageError{Op: "download", Key: key, Err: err}
	}
	return b, nil
}

func (o *Object) DownloadToTemp(ctx context.Context, key string) (string, error) {
	b, err := o.Download(ctx, key)
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

func (o *Object) Delete(ctx context.Context, key string) error {
	err := o.client.RemoveObject(ctx, o.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (o *Object) Exists(ctx context.Context, key string) (bool, error) {
	_, err := o.client.StatObject(ctx, o.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, &StorageError{Op: "stat", Key: key, Err: err}
}

func (o *Object) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := o.client.PresignedGetObject(ctx, o.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", &StorageError{Op: "presign", Key: key, Err: err}
	}
	return u.String(), nil
}
