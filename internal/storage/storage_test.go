package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mip-org/mip-core/internal/config"
)

// TestContentType maps file names to upload content types.
func TestContentType(t *testing.T) {
	t.Parallel()

	require.Equal(t, ContentTypeZip, ContentType("a-1-any-none-any.mhl"))
	require.Equal(t, ContentTypeJSON, ContentType("a-1-any-none-any.mhl.mip.json"))
	require.Equal(t, ContentTypeOctetStream, ContentType("README"))
}

// TestMemoryBucket covers upload, listing, download and injected failures.
func TestMemoryBucket(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewMemory()

	require.NoError(t, b.Put(ctx, "core/packages/b.json", strings.NewReader("{}"), 2, ContentTypeJSON))

	path := filepath.Join(t.TempDir(), "a.mhl")
	require.NoError(t, os.WriteFile(path, []byte("zip"), 0o600))
	require.NoError(t, b.PutFile(ctx, "core/packages/a.mhl", path, ContentTypeZip))
	require.NoError(t, b.Put(ctx, "other/c", strings.NewReader("c"), 1, ContentTypeOctetStream))

	keys, err := b.List(ctx, "core/packages/")
	require.NoError(t, err)
	require.Equal(t, []string{"core/packages/a.mhl", "core/packages/b.json"}, keys)

	data, err := b.Get(ctx, "core/packages/a.mhl")
	require.NoError(t, err)
	require.Equal(t, "zip", string(data))

	_, err = b.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrObjectNotFound)

	b.FailOn("core/packages/d.json")
	require.Error(t, b.Put(ctx, "core/packages/d.json", strings.NewReader("x"), 1, ContentTypeJSON))
	require.Equal(t, []string{"core/packages/b.json", "core/packages/a.mhl", "other/c"}, b.Uploads())
}

// TestNewS3 validates endpoints without contacting the service.
func TestNewS3(t *testing.T) {
	t.Parallel()

	s, err := NewS3(config.Storage{
		Bucket:    "mip-packages",
		Endpoint:  "https://account.r2.cloudflarestorage.com",
		Region:    "auto",
		AccessKey: "id",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, "mip-packages", s.Name())

	_, err = NewS3(config.Storage{Endpoint: "not-a-url"})
	require.Error(t, err)
}
