package recipe

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mip-org/mip-core/internal/manifest"
)

// serveZip serves an archive built from the given members.
func serveZip(t *testing.T, members map[string]string) *httptest.Server {
	t.Helper()

	var buf bytes.Buffer

	w := zip.NewWriter(&buf)
	for name, contents := range members {
		f, err := w.Create(name)
		require.NoError(t, err)

		_, err = f.Write([]byte(contents))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)

	return srv
}

// TestStandardBuild runs every step of the declarative recipe against a zip source.
func TestStandardBuild(t *testing.T) {
	t.Parallel()

	srv := serveZip(t, map[string]string{
		"layout-2.4.2/LICENSE":                "BSD",
		"layout-2.4.2/layout/uix.m":           "function uix\n",
		"layout-2.4.2/layout/+uix/Box.m":      "classdef Box\n",
		"layout-2.4.2/layout/@Panel/Panel.m":  "classdef Panel\n",
		"layout-2.4.2/layout/prebuilt.mexa64": "ELF",
		"layout-2.4.2/layout/notes.txt":       "x",
	})

	defDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(defDir, "extra.m"), []byte("% extra\n"), 0o600))

	license := "BSD-2-Clause"
	def := &Definition{
		Name:        "gui-layout-toolbox",
		Description: "Layout manager",
		Version:     "2.4.2",
		License:     &license,
		Dir:         defDir,
		Source: Source{
			Zip:    srv.URL + "/{name}.zip",
			Subdir: "layout-{version}/layout",
			Build:  "echo built > build.log",
			Expect: []string{"build.log"},
		},
		Layout: Layout{
			Target:    "layout",
			Scripts:   ScriptsLoadUnload,
			CopyFiles: []string{"layout-2.4.2/LICENSE"},
			Assets:    []string{"extra.m"},
			Files:     map[string]string{"compile.m": "% Compile\n"},
		},
	}
	def.applyDefaults()
	require.NoError(t, def.Validate())

	staged := filepath.Join(t.TempDir(), def.Wheel("any").StagedDir())
	require.NoError(t, os.MkdirAll(staged, 0o755))

	b := &Build{
		Definition:  def,
		StagedDir:   staged,
		WorkDir:     t.TempDir(),
		PlatformTag: "any",
		HTTPClient:  srv.Client(),
	}

	ctx := context.Background()
	r, err := For(def)
	require.NoError(t, err)

	require.NoError(t, r.Acquire(ctx, b))
	require.Equal(t, []string{"layout-2.4.2/layout/prebuilt.mexa64"}, b.RemovedBinaries)

	require.NoError(t, r.Layout(ctx, b))
	require.NoError(t, r.CollectSymbols(ctx, b))
	require.Equal(t, []string{"uix", "Panel", "uix"}, b.Symbols)

	finished := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, r.WriteManifest(ctx, b, Stamp{
		Finished:        finished,
		PrepareDuration: 2 * time.Second,
		MHLURL:          "https://cdn.example.org/" + def.Wheel("any").ArchiveFile(),
	}))

	for _, name := range []string{"LICENSE", "extra.m", "compile.m", "load_package.m", "unload_package.m", "layout/uix.m"} {
		_, statErr := os.Stat(filepath.Join(staged, name))
		require.NoError(t, statErr, name)
	}

	_, err = os.Stat(filepath.Join(staged, "layout", "prebuilt.mexa64"))
	require.ErrorIs(t, err, os.ErrNotExist)

	m, err := manifest.Read(filepath.Join(staged, "mip.json"))
	require.NoError(t, err)
	require.Equal(t, "gui-layout-toolbox", *m.Name)
	require.Equal(t, "BSD-2-Clause", *m.License)
	require.Equal(t, []string{"uix", "Panel", "uix"}, m.ExposedSymbols)
	require.Equal(t, "2025-05-06T07:08:09.000000Z", m.Timestamp)
	require.InDelta(t, 2.0, m.PrepareDuration, 1e-9)
	require.NotNil(t, m.MHLURL)
}

// TestStandardAcquireMissingArtifact fails when an expected path is absent.
func TestStandardAcquireMissingArtifact(t *testing.T) {
	t.Parallel()

	srv := serveZip(t, map[string]string{"pkg/a.m": "x"})

	def := &Definition{
		Name:    "pkg",
		Version: "1",
		Source:  Source{Zip: srv.URL, Subdir: "pkg", Expect: []string{"pkg/LICENSE"}},
	}
	def.applyDefaults()

	b := &Build{Definition: def, WorkDir: t.TempDir(), HTTPClient: srv.Client()}

	err := NewStandard(def).Acquire(context.Background(), b)
	require.Error(t, err)
	require.Contains(t, err.Error(), "LICENSE")
}

// TestCollectSymbolsModes exercises recursive and multi-path collection.
func TestCollectSymbolsModes(t *testing.T) {
	t.Parallel()

	pkg := t.TempDir()
	for _, name := range []string{"a.m", "test/b.m", "sub/c.m", "tools/t.m"} {
		path := filepath.Join(pkg, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}

	recursive := NewStandard(&Definition{Symbols: Symbols{Mode: SymbolsRecursive, Exclude: []string{"test"}}})
	b := &Build{PackageDir: pkg}
	require.NoError(t, recursive.CollectSymbols(context.Background(), b))
	require.Equal(t, []string{"a", "c", "t"}, b.Symbols)

	multi := NewStandard(&Definition{Symbols: Symbols{Mode: SymbolsMulti, Paths: []string{".", "tools"}}})
	require.NoError(t, multi.CollectSymbols(context.Background(), b))
	require.Equal(t, []string{"a", "t"}, b.Symbols)
}
