package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	content := []byte("invoice bytes")

	path, err := l.Upload(ctx, "doc.txt", bytes.NewReader(content), int64(len(content)), "text/plain")
	require.NoError(t, err)
	require.FileExists(t, path)

	ok, err := l.Exists(ctx, "doc.txt")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := l.Download(ctx, "doc.txt")
	require.NoError(t, err)
	require.Equal(t, content, got)

	tmp, err := l.DownloadToTemp(ctx, "doc.txt")
	require.NoError(t, err)
	defer os.Remove(tmp)
	require.NotEqual(t, path, tmp)
	tmpContent, err := os.ReadFile(tmp)
	require.NoError(t, err)
	require.Equal(t, content, tmpContent)

	require.NoError(t, l.Delete(ctx, "doc.txt"))
	ok, err = l.Exists(ctx, "doc.txt")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, l.Delete(ctx, "doc.txt"))
}

func TestLocalDownloadMissing(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Download(context.Background(), "missing.txt")
	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, "download", sErr.Op)
}

func TestLocalPresignUnsupported(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.PresignedURL(context.Background(), "doc.txt", time.Hour)
	require.ErrorIs(t, err, ErrPresignUnsupported)
}

func TestLocalKeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)
	content := []byte("x")

	path, err := l.Upload(context.Background(), "../../evil.txt", bytes.NewReader(content), 1, "text/plain")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "evil.txt"), path)
}
