package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/manifest"
	"github.com/mip-org/mip-core/internal/storage"
)

const baseURL = "https://mip-packages.neurosift.app/core/packages"

func put(t *testing.T, bucket *storage.Memory, key, body string) {
	t.Helper()

	require.NoError(t, bucket.Put(context.Background(), key, strings.NewReader(body), int64(len(body)), storage.ContentType(key)))
}

func document(t *testing.T, body string) manifest.Document {
	t.Helper()

	doc, err := manifest.ParseDocument([]byte(body))
	require.NoError(t, err)

	return doc
}

// TestRunAssemblesIndex lists sidecars in key order, backfills URLs and skips broken documents.
func TestRunAssemblesIndex(t *testing.T) {
	t.Parallel()

	bucket := storage.NewMemory()
	put(t, bucket, "core/packages/kdtree-unspecified-any-none-any.mhl.mip.json",
		`{"name": "kdtree", "version": "unspecified", "exposed_symbols": ["kdtree_build"]}`)
	put(t, bucket, "core/packages/chebfun-unspecified-any-none-any.mhl.mip.json",
		`{"name": "chebfun", "version": "unspecified", "mhl_url": "https://mirror.example.org/chebfun.mhl"}`)
	put(t, bucket, "core/packages/chebfun-unspecified-any-none-any.mhl", "PK")
	put(t, bucket, "core/packages/broken-1-any-none-any.mhl.mip.json", "{not json")
	put(t, bucket, "core/packages/list-1-any-none-any.mhl.mip.json", `["not", "an", "object"]`)
	put(t, bucket, "other/zzz-1-any-none-any.mhl.mip.json", `{"name": "zzz"}`)
	put(t, bucket, "core/packages/missing-1-any-none-any.mhl.mip.json", `{"name": "missing"}`)
	bucket.FailOn("core/packages/missing-1-any-none-any.mhl.mip.json")

	pages := filepath.Join(t.TempDir(), "gh-pages")
	cfg := &config.Config{
		BaseURL:  baseURL,
		PagesDir: pages,
		Storage:  config.Storage{Bucket: "mip-packages", Prefix: "core/packages"},
	}

	x := newIndexer(cfg, bucket)
	x.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	idx, err := x.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, idx.TotalPackages)
	require.Equal(t, "2025-01-02T03:04:05.000000Z", idx.LastUpdated)

	written, err := manifest.ReadIndex(filepath.Join(pages, IndexFilename))
	require.NoError(t, err)
	require.Len(t, written.Packages, 2)

	chebfun, kdtree := written.Packages[0], written.Packages[1]
	require.Equal(t, "chebfun", chebfun.Text("name", ""))
	require.Equal(t, "https://mirror.example.org/chebfun.mhl", chebfun.Text("mhl_url", ""))
	require.Equal(t, baseURL+"/chebfun-unspecified-any-none-any.mhl.mip.json", chebfun.Text("mip_json_url", ""))
	require.Equal(t, "kdtree", kdtree.Text("name", ""))
	require.Equal(t, baseURL+"/kdtree-unspecified-any-none-any.mhl", kdtree.Text("mhl_url", ""))

	html, err := os.ReadFile(filepath.Join(pages, PagesFilename))
	require.NoError(t, err)
	require.Contains(t, string(html), "<strong>Total packages:</strong> 2<br>")
	require.Contains(t, string(html), "2025-01-02T03:04:05.000000Z")
}

// TestRunEmptyBucket still writes an empty index.
func TestRunEmptyBucket(t *testing.T) {
	t.Parallel()

	pages := t.TempDir()
	cfg := &config.Config{BaseURL: baseURL, PagesDir: pages, Storage: config.Storage{Prefix: "core/packages"}}

	idx, err := newIndexer(cfg, storage.NewMemory()).Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, idx.TotalPackages)
	require.NotNil(t, idx.Packages)

	html, err := os.ReadFile(filepath.Join(pages, PagesFilename))
	require.NoError(t, err)
	require.Contains(t, string(html), "<p>No packages available yet.</p>")
	require.NotContains(t, string(html), "<table>")
}

// TestRenderHTML sorts rows by name ignoring case, escapes and truncates descriptions.
func TestRenderHTML(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 70) + " & more words"
	idx := manifest.NewIndex([]manifest.Document{
		document(t, `{"name": "surfacefun", "version": "latest", "homepage": "https://github.com/danfortunato/surfacefun",
			"mhl_url": "https://x/s.mhl", "mip_json_url": "https://x/s.mhl.mip.json", "description": "`+long+`"}`),
		document(t, `{"name": "Chebfun", "version": "unspecified", "description": "<b>bold</b>", "architecture": "linux_x86_64"}`),
		document(t, `{"description": "anonymous"}`),
	}, time.Now())

	out, err := RenderHTML(idx)
	require.NoError(t, err)

	page := string(out)
	require.Contains(t, page, "<title>MIP Package Index</title>")
	require.Contains(t, page, `https://github.com/mip-org/mip-package-manager`)

	first := strings.Index(page, "<td>unknown</td>")
	second := strings.Index(page, "<td>Chebfun</td>")
	third := strings.Index(page, `<a href="https://github.com/danfortunato/surfacefun">surfacefun</a>`)
	require.Positive(t, first)
	require.Greater(t, second, first)
	require.Greater(t, third, second)

	require.Contains(t, page, "&lt;b&gt;bold&lt;/b&gt;")
	require.NotContains(t, page, "<b>bold</b>")
	require.Contains(t, page, "<td>architecture=linux_x86_64</td>")
	require.Contains(t, page, "<td>architecture=any</td>")
	require.Contains(t, page, "<td>N/A</td>")
	require.Contains(t, page, `<td><a href="https://x/s.mhl">.mhl</a> <a href="https://x/s.mhl.mip.json">metadata</a></td>`)

	escaped := strings.Repeat("a", 70) + " &amp; ..."
	require.Contains(t, page, "<td>"+escaped+"</td>")
}

// TestTruncate keeps descriptions up to the limit and cuts longer ones.
func TestTruncate(t *testing.T) {
	t.Parallel()

	exact := strings.Repeat("x", 80)
	require.Equal(t, exact, truncate(exact))
	require.Equal(t, strings.Repeat("x", 77)+"...", truncate(exact+"y"))
	require.Equal(t, "short", truncate("short"))
}

// TestRenderTable prints one row per package.
func TestRenderTable(t *testing.T) {
	t.Parallel()

	idx := manifest.NewIndex([]manifest.Document{
		document(t, `{"name": "kdtree", "version": "unspecified", "platform_tag": "any", "exposed_symbols": ["a", "b"]}`),
		document(t, `{"name": "chebfun", "version": "unspecified"}`),
	}, time.Now())

	out := RenderTable(idx)
	require.Contains(t, out, "PACKAGE")
	require.Contains(t, out, "kdtree")

	lines := strings.Split(out, "\n")

	var chebfunLine, kdtreeLine int

	for i, line := range lines {
		switch {
		case strings.Contains(line, "chebfun"):
			chebfunLine = i
			require.Contains(t, line, "-")
		case strings.Contains(line, "kdtree"):
			kdtreeLine = i
			require.Contains(t, line, "2")
		}
	}

	require.Less(t, chebfunLine, kdtreeLine)
}
